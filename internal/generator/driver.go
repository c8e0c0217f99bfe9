package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gocgen/internal/config"
	"gocgen/internal/logging"
	"gocgen/internal/script"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrOpenInput means the input document could not be read. The output
	// file has not been touched.
	ErrOpenInput = errors.New("couldn't open input file")

	// ErrWriteOutput means the output document could not be written.
	ErrWriteOutput = errors.New("couldn't write output file")
)

// Report summarizes one Generate call.
type Report struct {
	Run    string // correlation id used in logs
	Input  string // absolute input path
	Output string
	Stats

	// Unchanged is set when skip_unchanged left an identical output file alone.
	Unchanged bool
}

// EvaluatorFactory creates the session for one document.
type EvaluatorFactory func() (Evaluator, error)

// Driver regenerates documents. Each Generate call gets a fresh session.
type Driver struct {
	cfg          *config.Config
	newEvaluator EvaluatorFactory
	diag         io.Writer
}

// Option customizes a Driver.
type Option func(*Driver)

// WithEvaluatorFactory replaces the yaegi session factory.
func WithEvaluatorFactory(f EvaluatorFactory) Option {
	return func(d *Driver) { d.newEvaluator = f }
}

// WithDiagnostics redirects indentation diagnostics (default os.Stdout).
func WithDiagnostics(w io.Writer) Option {
	return func(d *Driver) { d.diag = w }
}

// NewDriver creates a Driver. A nil cfg means config.DefaultConfig().
func NewDriver(cfg *config.Config, opts ...Option) *Driver {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	d := &Driver{cfg: cfg, diag: os.Stdout}
	d.newEvaluator = SessionFactory(cfg, nil, nil)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SessionFactory returns a factory of yaegi sessions configured from cfg.
// Snippet writes to os.Stdout and os.Stderr go to stdout and stderr; nil means
// the process streams.
func SessionFactory(cfg *config.Config, stdout, stderr io.Writer) EvaluatorFactory {
	return func() (Evaluator, error) {
		s, err := script.NewSession(script.Options{
			Separator:    cfg.Output.LineSeparator(),
			Timeout:      cfg.ExecTimeout(),
			Unrestricted: cfg.Execution.Unrestricted,
			GoPath:       cfg.Execution.GoPath,
			Stdout:       stdout,
			Stderr:       stderr,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Render regenerates input in memory. Nothing is written.
func (d *Driver) Render(ctx context.Context, input string) (*Document, *Report, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		abs = input
	}

	report := &Report{Run: uuid.NewString(), Input: abs}
	log := d.logger(report)

	doc, err := ReadDocument(abs)
	if err != nil {
		log.Error("read failed", zap.Error(err))
		return nil, nil, fmt.Errorf("%w %s: %w", ErrOpenInput, abs, err)
	}
	log.Debug("document read", zap.Int("lines", len(doc.Lines)))

	eval, err := d.newEvaluator()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	sep := d.cfg.Output.LineSeparator()
	exec := NewExecutor(eval, ExecutorOptions{
		Separator:     sep,
		MarkerIndent:  d.cfg.Output.UseMarkerIndent(),
		Diagnostics:   d.diag,
		SlowThreshold: d.cfg.SlowThreshold(),
	})

	lines, stats, err := NewScanner(exec, sep).Scan(ctx, abs, doc.Lines)
	if err != nil {
		log.Error("generation aborted", zap.Error(err))
		return nil, nil, err
	}
	report.Stats = stats
	return &Document{Lines: lines}, report, nil
}

// Generate reads input, regenerates every output region and writes output.
// Nothing is written when the input can't be read or a snippet fails.
func (d *Driver) Generate(ctx context.Context, input, output string) (*Report, error) {
	out, report, err := d.Render(ctx, input)
	if err != nil {
		return nil, err
	}
	report.Output = output
	log := d.logger(report)

	if d.cfg.Output.SkipUnchanged {
		if existing, err := os.ReadFile(output); err == nil && bytes.Equal(existing, out.Bytes()) {
			report.Unchanged = true
			log.Debug("output unchanged, not rewritten")
			return report, nil
		}
	}

	if err := out.WriteFile(output); err != nil {
		log.Error("write failed", zap.Error(err))
		return nil, fmt.Errorf("%w %s: %w", ErrWriteOutput, output, err)
	}

	log.Info("generated",
		zap.Int("blocks", report.Blocks),
		zap.Int("rendered", report.Rendered),
		zap.Int("empty", report.Empty),
		zap.Int("skipped", report.Skipped))
	return report, nil
}

func (d *Driver) logger(r *Report) *zap.Logger {
	log := logging.Get(logging.CategoryDriver).With(
		zap.String("run", r.Run),
		zap.String("input", r.Input))
	if r.Output != "" {
		log = log.With(zap.String("output", r.Output))
	}
	return log
}
