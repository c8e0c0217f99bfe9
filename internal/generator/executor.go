package generator

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gocgen/internal/logging"

	"go.uber.org/zap"
)

// Evaluator runs one snippet in a persistent session and returns the text it
// emitted. Successive calls share state. script.Session is the production
// implementation.
type Evaluator interface {
	Evaluate(ctx context.Context, src string) (string, error)
}

// Block is one /*$pycgen ... */ code block.
type Block struct {
	StartLine int      // 1-based line number of the first body line
	Indent    string   // leading whitespace of the /*$pycgen line
	Lines     []string // raw body lines, terminators included
}

// Outcome classifies a rendered block.
type Outcome int

const (
	// Rendered means the block emitted text and gets an output region.
	Rendered Outcome = iota
	// NoOutput means the block was empty or emitted nothing.
	NoOutput
	// BadIndent means the block was skipped for inconsistent indentation.
	BadIndent
)

func (o Outcome) String() string {
	switch o {
	case Rendered:
		return "rendered"
	case NoOutput:
		return "no_output"
	case BadIndent:
		return "bad_indent"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Render is the result of executing one block.
type Render struct {
	Outcome Outcome
	Text    string // only set for Rendered; every line ends with the separator
}

// ExecError reports a snippet that failed to compile or run.
type ExecError struct {
	File string
	Line int
	Err  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s(%d): snippet failed: %v", e.File, e.Line, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// ExecutorOptions configures an Executor.
type ExecutorOptions struct {
	// Separator joins output lines. Empty means "\n".
	Separator string

	// MarkerIndent prefixes output with the /*$pycgen line's indent instead of
	// the snippet's reference indent.
	MarkerIndent bool

	// Diagnostics receives "Bad leading whitespace indent" reports. Nil means os.Stdout.
	Diagnostics io.Writer

	// SlowThreshold logs a warning for blocks that run longer. Zero disables it.
	SlowThreshold time.Duration
}

// Executor turns code blocks into rendered text.
type Executor struct {
	eval         Evaluator
	sep          string
	markerIndent bool
	diag         io.Writer
	slow         time.Duration
}

// NewExecutor creates an Executor that evaluates every block with eval.
func NewExecutor(eval Evaluator, opts ExecutorOptions) *Executor {
	e := &Executor{
		eval:         eval,
		sep:          opts.Separator,
		markerIndent: opts.MarkerIndent,
		diag:         opts.Diagnostics,
		slow:         opts.SlowThreshold,
	}
	if e.sep == "" {
		e.sep = "\n"
	}
	if e.diag == nil {
		e.diag = os.Stdout
	}
	return e
}

// Render dedents the block body, evaluates it and shapes the emitted text.
//
// The first body line's leading whitespace is the reference indent. Every other
// line must start with it or be blank; otherwise a diagnostic is printed and
// the block is skipped with BadIndent. Evaluation errors are returned as
// *ExecError and are meant to abort the whole document.
//
// Emitted lines are prefixed with the reference indent, so output lines up
// with the snippet body. With MarkerIndent they take the /*$pycgen line's
// indent instead.
func (e *Executor) Render(ctx context.Context, filename string, b Block) (Render, error) {
	log := logging.Get(logging.CategoryExec)

	if len(b.Lines) == 0 {
		return Render{Outcome: NoOutput}, nil
	}

	ref := indentOf(b.Lines[0])
	src, bad := dedent(b.Lines, ref)
	if bad >= 0 {
		line := b.StartLine + bad
		fmt.Fprintf(e.diag, "%s(%d): Bad leading whitespace indent\n", filename, line)
		log.Warn("bad leading whitespace indent", zap.String("file", filename), zap.Int("line", line))
		return Render{Outcome: BadIndent}, nil
	}

	timer := logging.StartTimer(logging.CategoryExec, "block")
	emitted, err := e.eval.Evaluate(ctx, src)
	fields := []zap.Field{zap.String("file", filename), zap.Int("line", b.StartLine)}
	if e.slow > 0 {
		timer.StopWithThreshold(e.slow, fields...)
	} else {
		timer.Stop(fields...)
	}
	if err != nil {
		return Render{}, &ExecError{File: filename, Line: b.StartLine, Err: err}
	}

	lines := splitLines(emitted)
	if len(lines) == 0 {
		log.Debug("block emitted nothing", zap.Int("line", b.StartLine))
		return Render{Outcome: NoOutput}, nil
	}

	indent := ref
	if e.markerIndent {
		indent = b.Indent
	}

	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(indent)
		sb.WriteString(l)
		sb.WriteString(e.sep)
	}
	log.Debug("block rendered", zap.Int("line", b.StartLine), zap.Int("lines", len(lines)))
	return Render{Outcome: Rendered, Text: sb.String()}, nil
}

// dedent strips ref from every line and joins the result. Blank lines that do
// not carry ref become empty lines. It returns the index of the first offending line,
// or -1.
func dedent(lines []string, ref string) (string, int) {
	var sb strings.Builder
	for i, line := range lines {
		if !strings.HasPrefix(line, ref) {
			if isBlank(line) {
				sb.WriteString("\n")
				continue
			}
			return "", i
		}
		sb.WriteString(line[len(ref):])
	}
	return sb.String(), -1
}
