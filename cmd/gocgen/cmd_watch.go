package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"gocgen/internal/generator"
	"gocgen/internal/logging"
	"gocgen/internal/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// watchCmd regenerates on every change of the input
var watchCmd = &cobra.Command{
	Use:   "watch <input_filename> <output_filename>",
	Short: "Regenerate whenever the input file changes",
	Long: `Generates once, then keeps watching the input file and regenerates after
each change. Snippet errors are reported and watching continues.
When input and output are the same file, unchanged output is not rewritten,
so the tool does not retrigger itself. Stop with Ctrl-C.`,
	Args: usageArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	input, output := args[0], args[1]

	if absPath(input) == absPath(output) {
		cfg.Output.SkipUnchanged = true
	}
	debounce := cfg.Debounce()
	if d, _ := cmd.Flags().GetDuration("debounce"); d > 0 {
		debounce = d
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver := generator.NewDriver(cfg,
		generator.WithDiagnostics(out),
		generator.WithEvaluatorFactory(generator.SessionFactory(cfg, out, cmd.ErrOrStderr())))
	log := logging.Get(logging.CategoryWatch)

	generate := func(ctx context.Context) error {
		report, err := driver.Generate(ctx, input, output)
		if err != nil {
			reportGenerateError(out, input, output, err)
			return err
		}
		log.Info("regenerated",
			zap.String("run", report.Run),
			zap.Int("rendered", report.Rendered),
			zap.Bool("unchanged", report.Unchanged))
		return nil
	}

	if err := generate(ctx); err != nil && !isSnippetError(err) {
		return errReported
	}

	w, err := watch.New(input, debounce, generate)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	<-w.Done()
	stats := w.Stats()
	log.Info("watch finished", zap.Int("runs", stats.Runs), zap.Int("failures", stats.Failures))
	return nil
}

// isSnippetError reports whether err came from executing a code block, which
// watch tolerates, as opposed to I/O failures, which end it.
func isSnippetError(err error) bool {
	var execErr *generator.ExecError
	return errors.As(err, &execErr)
}
