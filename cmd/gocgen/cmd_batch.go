package main

import (
	"io"
	"sync"

	"gocgen/internal/generator"
	"gocgen/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// batchCmd regenerates many files in place
var batchCmd = &cobra.Command{
	Use:   "batch <file>...",
	Short: "Regenerate several files in place",
	Long: `Regenerates every file in place, several at a time. Each file gets its own
interpreter session; blocks inside one file still run in order and share state.
Every file is attempted; the exit status is 1 if any of them failed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func runBatch(cmd *cobra.Command, files []string) error {
	out := cmd.OutOrStdout()
	jobs := cfg.Jobs()
	if j, _ := cmd.Flags().GetInt("jobs"); j > 0 {
		jobs = j
	}
	log := logging.Get(logging.CategoryBatch)

	// Serializes writes to out across goroutines
	var outMu sync.Mutex
	w := &lockedWriter{mu: &outMu, w: out}
	ew := &lockedWriter{mu: &outMu, w: cmd.ErrOrStderr()}

	driver := generator.NewDriver(cfg,
		generator.WithDiagnostics(w),
		generator.WithEvaluatorFactory(generator.SessionFactory(cfg, w, ew)))

	var g errgroup.Group
	g.SetLimit(jobs)

	failed := make([]bool, len(files))
	for i, file := range files {
		g.Go(func() error {
			report, err := driver.Generate(cmd.Context(), file, file)
			if err != nil {
				failed[i] = true
				outMu.Lock()
				reportGenerateError(out, file, file, err)
				outMu.Unlock()
				return err
			}
			log.Debug("file regenerated", zap.String("file", file), zap.String("run", report.Run))
			return nil
		})
	}
	err := g.Wait()

	n := 0
	for _, f := range failed {
		if f {
			n++
		}
	}
	log.Info("batch finished", zap.Int("files", len(files)), zap.Int("failed", n), zap.Int("jobs", jobs))

	if err != nil {
		outMu.Lock()
		printError(out, "%d of %d files failed", n, len(files))
		outMu.Unlock()
		return errReported
	}
	return nil
}

type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
