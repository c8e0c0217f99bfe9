// Package script hosts the Go interpreter that runs code-block snippets.
//
// A Session is one yaegi interpreter plus one emit buffer. Every code block of
// a document is evaluated in the same Session, so variables, functions, types
// and imports declared by one block stay visible to the blocks after it.
//
// Snippets see four functions, defined by a prologue evaluated at session start:
//
//	EmitStr(text string)
//	EmitLn(text string)
//	EmitRepl(template, spec string)
//	EmitFmt(line string, ctx map[string]interface{})
//
// yaegi decides how to compile a snippet from its first token: a snippet that
// starts with import, func, type, var or const is compiled as declarations,
// anything else as statements (whose := bindings still land in the global scope).
package script

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"time"

	"gocgen/internal/emit"
	"gocgen/internal/logging"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"github.com/traefik/yaegi/stdlib/unrestricted"
	"go.uber.org/zap"
)

// emitSymbols is the export key of the host emit package: import path "gocgen/emit",
// package name "emit".
const emitSymbols = "gocgen/emit/emit"

const prologue = `import "gocgen/emit"

func EmitStr(text string) { emit.Str(text) }

func EmitLn(text string) { emit.Ln(text) }

func EmitRepl(template, spec string) { emit.Repl(template, spec) }

func EmitFmt(line string, ctx map[string]interface{}) { emit.Fmt(line, ctx) }
`

// Options configures a new Session.
type Options struct {
	// Separator appended by EmitLn. Empty means "\n".
	Separator string

	// Per-evaluation timeout. Zero disables it.
	Timeout time.Duration

	// Load yaegi's unrestricted stdlib (os/exec, os.Exit, real environment).
	Unrestricted bool

	// GOPATH for resolving source imports.
	GoPath string

	// Where snippet fmt.Print* output goes. Nil means the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Session is the persistent namespace shared by all code blocks of one document.
// It is not safe for concurrent use.
type Session struct {
	interp  *interp.Interpreter
	buf     *emit.Buffer
	timeout time.Duration
}

// NewSession builds an interpreter preloaded with the standard library and
// the emission primitives.
func NewSession(opts Options) (*Session, error) {
	i := interp.New(interp.Options{
		GoPath:       opts.GoPath,
		Stdout:       opts.Stdout,
		Stderr:       opts.Stderr,
		Unrestricted: opts.Unrestricted,
	})

	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib: %w", err)
	}
	if opts.Unrestricted {
		if err := i.Use(unrestricted.Symbols); err != nil {
			return nil, fmt.Errorf("failed to load unrestricted stdlib: %w", err)
		}
	}

	buf := emit.NewBuffer(opts.Separator)
	if err := i.Use(exports(buf)); err != nil {
		return nil, fmt.Errorf("failed to load emit symbols: %w", err)
	}

	if _, err := i.Eval(prologue); err != nil {
		return nil, fmt.Errorf("prologue evaluation failed: %w", err)
	}

	logging.Get(logging.CategoryExec).Debug("session ready",
		zap.Bool("unrestricted", opts.Unrestricted),
		zap.Duration("timeout", opts.Timeout))

	return &Session{interp: i, buf: buf, timeout: opts.Timeout}, nil
}

// exports binds the emit package symbols to buf.
func exports(buf *emit.Buffer) interp.Exports {
	return interp.Exports{
		emitSymbols: {
			"Str":  reflect.ValueOf(buf.Str),
			"Ln":   reflect.ValueOf(buf.Ln),
			"Repl": reflect.ValueOf(buf.Repl),
			"Fmt":  reflect.ValueOf(buf.Fmt),
		},
	}
}

// Evaluate resets the emit buffer, runs src in the session and returns what
// it emitted. Compile errors, panics and timeouts are returned as errors.
func (s *Session) Evaluate(ctx context.Context, src string) (out string, err error) {
	s.buf.Reset()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("panic: %v", r)
		}
	}()

	if ctx.Done() == nil {
		_, err = s.interp.Eval(src)
	} else {
		_, err = s.interp.EvalWithContext(ctx, src)
	}
	if err != nil {
		return "", err
	}
	return s.buf.String(), nil
}
