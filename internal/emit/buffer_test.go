package emit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrAndLn(t *testing.T) {
	b := NewBuffer("\n")
	b.Str("a")
	b.Str("b")
	b.Ln("c")
	b.Ln("")
	assert.Equal(t, "abc\n\n", b.String())

	b.Reset()
	assert.Empty(t, b.String())
}

func TestLnUsesSeparator(t *testing.T) {
	b := NewBuffer("\r\n")
	b.Ln("x")
	assert.Equal(t, "x\r\n", b.String())

	b = NewBuffer("")
	b.Ln("y")
	assert.Equal(t, "y\n", b.String())
}

func TestRepl(t *testing.T) {
	b := NewBuffer("\n")
	b.Repl("FOO(X);", "X:1,2,3")
	assert.Equal(t, "FOO(1);\nFOO(2);\nFOO(3);\n", b.String())
}

func TestReplStripsTemplateLineBreaks(t *testing.T) {
	b := NewBuffer("\n")
	b.Repl("\n\n  case T: return \"T\";\n", "T:A,B")
	assert.Equal(t, "  case A: return \"A\";\n  case B: return \"B\";\n", b.String())
}

func TestReplValuesMayContainColons(t *testing.T) {
	b := NewBuffer("\n")
	b.Repl("using T;", "T:std::string,int")
	assert.Equal(t, "using std::string;\nusing int;\n", b.String())
}

func TestReplBadSpecPanics(t *testing.T) {
	b := NewBuffer("\n")
	assert.Panics(t, func() { b.Repl("x", "no-colon") })
	assert.Panics(t, func() { b.Repl("x", ":1,2") })
}

func TestParseReplSpec(t *testing.T) {
	ph, vals, err := ParseReplSpec("N:a,,b")
	require.NoError(t, err)
	assert.Equal(t, "N", ph)
	assert.Equal(t, []string{"a", "", "b"}, vals)
}

func TestFmt(t *testing.T) {
	b := NewBuffer("\n")
	b.Fmt("\nint {name} = {value};\n", map[string]any{"name": "x", "value": 3})
	assert.Equal(t, "int x = 3;", b.String())
}

func TestFmtPanicsOnUnknownName(t *testing.T) {
	b := NewBuffer("\n")
	assert.Panics(t, func() { b.Fmt("{missing}", map[string]any{}) })
}
