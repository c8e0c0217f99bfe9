package generator

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echo emits the dedented snippet itself, which makes scanner output easy to predict.
var echo = evalFunc(func(_ context.Context, src string) (string, error) { return src, nil })

func scan(t *testing.T, eval Evaluator, input string) (string, Stats) {
	t.Helper()
	var diag bytes.Buffer
	s := NewScanner(NewExecutor(eval, ExecutorOptions{Diagnostics: &diag}), "\n")
	lines, stats, err := s.Scan(context.Background(), "in.c", ParseDocument([]byte(input)).Lines)
	require.NoError(t, err)
	return strings.Join(lines, ""), stats
}

func TestScanInsertsOutputRegion(t *testing.T) {
	input := "int a;\n" +
		"/*$pycgen\n" +
		"    hello\n" +
		"*/\n" +
		"int b;\n"

	got, stats := scan(t, echo, input)

	want := "int a;\n" +
		"/*$pycgen\n" +
		"    hello\n" +
		"*/\n" +
		"//$pycgen-begin\n" +
		"    hello\n" +
		"//$pycgen-end\n" +
		"int b;\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Scan mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, stats.Blocks)
	assert.Equal(t, 1, stats.Rendered)
}

func TestScanReplacesStaleRegion(t *testing.T) {
	input := "/*$pycgen\n" +
		"    new\n" +
		"*/\n" +
		"//$pycgen-begin\n" +
		"    old line 1\n" +
		"    old line 2\n" +
		"//$pycgen-end\n" +
		"tail\n"

	got, stats := scan(t, echo, input)

	want := "/*$pycgen\n" +
		"    new\n" +
		"*/\n" +
		"//$pycgen-begin\n" +
		"    new\n" +
		"//$pycgen-end\n" +
		"tail\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Scan mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, stats.StaleRegions)
}

func TestScanIsIdempotent(t *testing.T) {
	input := "header\n" +
		"  /*$pycgen\n" +
		"\tone\n" +
		"\ttwo\n" +
		"  */\n" +
		"middle\n" +
		"/*$pycgen\n" +
		"*/\n" +
		"/*$pycgen\n" +
		"  three\n" +
		"*/\n" +
		"footer"

	first, _ := scan(t, echo, input)
	second, _ := scan(t, echo, first)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}
}

func TestScanEndMarkerOnLastLine(t *testing.T) {
	input := "/*$pycgen\n" +
		"a\n" +
		"*/"

	first, _ := scan(t, echo, input)
	want := "/*$pycgen\n" +
		"a\n" +
		"*/\n" +
		"//$pycgen-begin\n" +
		"a\n" +
		"//$pycgen-end\n"
	if diff := cmp.Diff(want, first); diff != "" {
		t.Errorf("first run mismatch (-want +got):\n%s", diff)
	}

	second, stats := scan(t, echo, first)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second run mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, stats.StaleRegions)
}

func TestScanMarkerIndent(t *testing.T) {
	input := "\t\t/*$pycgen\n" +
		"\t\t  x\n" +
		"\t\t*/\n"

	got, _ := scan(t, echo, input)

	want := "\t\t/*$pycgen\n" +
		"\t\t  x\n" +
		"\t\t*/\n" +
		"\t\t//$pycgen-begin\n" +
		"\t\t  x\n" +
		"\t\t//$pycgen-end\n"
	assert.Equal(t, want, got)
}

func TestScanEmptyOutputDropsRegion(t *testing.T) {
	silent := evalFunc(func(context.Context, string) (string, error) { return "", nil })
	input := "/*$pycgen\n" +
		"    x := 1\n" +
		"*/\n" +
		"//$pycgen-begin\n" +
		"    stale\n" +
		"//$pycgen-end\n"

	got, stats := scan(t, silent, input)

	assert.Equal(t, "/*$pycgen\n    x := 1\n*/\n", got)
	assert.Equal(t, 1, stats.Empty)
	assert.Equal(t, 0, stats.Rendered)
}

func TestScanEndMarkerWithTrailingText(t *testing.T) {
	input := "/*$pycgen\n" +
		"  x\n" +
		"*/ trailing comment\n"

	got, _ := scan(t, echo, input)
	assert.Equal(t, input+"//$pycgen-begin\n  x\n//$pycgen-end\n", got)
}

func TestScanEndMarkerOutsideBlockIsText(t *testing.T) {
	input := "/* plain comment\n" +
		"*/\n" +
		"//$pycgen-end\n"

	got, stats := scan(t, echo, input)
	assert.Equal(t, input, got)
	assert.Zero(t, stats.Blocks)
}

func TestScanUnclosedBlock(t *testing.T) {
	rec := &recorder{out: "x\n"}
	input := "/*$pycgen\n" +
		"  x\n"

	got, stats := scan(t, rec, input)
	assert.Equal(t, input, got)
	assert.True(t, stats.Unclosed)
	assert.Empty(t, rec.srcs)
}

func TestScanStartLines(t *testing.T) {
	var diag bytes.Buffer
	bad := "a\n" +
		"b\n" +
		"/*$pycgen\n" +
		"    x\n" +
		"  y\n" +
		"*/\n"
	s := NewScanner(NewExecutor(echo, ExecutorOptions{Diagnostics: &diag}), "\n")
	_, stats, err := s.Scan(context.Background(), "in.c", ParseDocument([]byte(bad)).Lines)
	require.NoError(t, err)

	// Marker at index 2, body starts on 1-based line 4, offending line is 5.
	assert.Equal(t, "in.c(5): Bad leading whitespace indent\n", diag.String())
	assert.Equal(t, 1, stats.Skipped)
}

func TestScanBadIndentIsIsolated(t *testing.T) {
	var diag bytes.Buffer
	input := "/*$pycgen\n" +
		"    good1\n" +
		"*/\n" +
		"/*$pycgen\n" +
		"    first\n" +
		"  broken\n" +
		"*/\n" +
		"//$pycgen-begin\n" +
		"    old\n" +
		"//$pycgen-end\n" +
		"/*$pycgen\n" +
		"    good2\n" +
		"*/\n"

	s := NewScanner(NewExecutor(echo, ExecutorOptions{Diagnostics: &diag}), "\n")
	lines, stats, err := s.Scan(context.Background(), "in.c", ParseDocument([]byte(input)).Lines)
	require.NoError(t, err)

	want := "/*$pycgen\n" +
		"    good1\n" +
		"*/\n" +
		"//$pycgen-begin\n" +
		"    good1\n" +
		"//$pycgen-end\n" +
		"/*$pycgen\n" +
		"    first\n" +
		"  broken\n" +
		"*/\n" +
		"/*$pycgen\n" +
		"    good2\n" +
		"*/\n" +
		"//$pycgen-begin\n" +
		"    good2\n" +
		"//$pycgen-end\n"
	if diff := cmp.Diff(want, strings.Join(lines, "")); diff != "" {
		t.Errorf("Scan mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Stats{Blocks: 3, Rendered: 2, Skipped: 1, StaleRegions: 1}, stats)
	assert.Contains(t, diag.String(), "in.c(6): Bad leading whitespace indent")
}

func TestScanRunsBlocksInOrder(t *testing.T) {
	rec := &recorder{}
	input := "/*$pycgen\nfirst\n*/\ntext\n/*$pycgen\nsecond\n*/\n/*$pycgen\nthird\n*/\n"

	scan(t, rec, input)
	assert.Equal(t, []string{"first\n", "second\n", "third\n"}, rec.srcs)
}

func TestScanStopsOnExecError(t *testing.T) {
	calls := 0
	failing := evalFunc(func(_ context.Context, src string) (string, error) {
		calls++
		if strings.Contains(src, "bad") {
			return "", errors.New("undefined: bad")
		}
		return src, nil
	})
	input := "/*$pycgen\nbad\n*/\n/*$pycgen\nnever\n*/\n"

	s := NewScanner(NewExecutor(failing, ExecutorOptions{}), "\n")
	lines, _, err := s.Scan(context.Background(), "in.c", ParseDocument([]byte(input)).Lines)

	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 2, execErr.Line)
	assert.Nil(t, lines)
	assert.Equal(t, 1, calls)
}

func TestScanCRLFInput(t *testing.T) {
	input := "/*$pycgen\r\n" +
		"  x\r\n" +
		"*/\r\n" +
		"//$pycgen-begin\r\n" +
		"  old\r\n" +
		"//$pycgen-end\r\n"

	var diag bytes.Buffer
	s := NewScanner(NewExecutor(echo, ExecutorOptions{Separator: "\r\n", Diagnostics: &diag}), "\r\n")
	lines, _, err := s.Scan(context.Background(), "in.c", ParseDocument([]byte(input)).Lines)
	require.NoError(t, err)

	want := "/*$pycgen\r\n" +
		"  x\r\n" +
		"*/\r\n" +
		"//$pycgen-begin\r\n" +
		"  x\r\n" +
		"//$pycgen-end\r\n"
	assert.Equal(t, want, strings.Join(lines, ""))
}
