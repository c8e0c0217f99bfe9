package main

import (
	"os"

	"gocgen/internal/diff"
	"gocgen/internal/generator"
	"gocgen/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// diffCmd shows what a regeneration would change
var diffCmd = &cobra.Command{
	Use:   "diff <input_filename> <output_filename>",
	Short: "Show what regenerating would change, without writing",
	Long: `Regenerates the input in memory and prints a unified diff against the current
content of the output file. A missing output file diffs as empty.
With --exit-code the exit status is 1 when there are differences, which is
handy in CI to check that generated regions are up to date.`,
	Args: usageArgs,
	RunE: runDiff,
}

func runDiff(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	input, output := args[0], args[1]
	contextLines, _ := cmd.Flags().GetInt("context")
	exitCode, _ := cmd.Flags().GetBool("exit-code")

	// Snippet output and diagnostics go to stderr so stdout stays a clean patch.
	stderr := cmd.ErrOrStderr()
	driver := generator.NewDriver(cfg,
		generator.WithDiagnostics(stderr),
		generator.WithEvaluatorFactory(generator.SessionFactory(cfg, stderr, stderr)))

	doc, report, err := driver.Render(cmd.Context(), input)
	if err != nil {
		reportGenerateError(out, input, output, err)
		return errReported
	}

	oldPath := output
	existing, err := os.ReadFile(output)
	if os.IsNotExist(err) {
		oldPath = "/dev/null"
	} else if err != nil {
		printError(out, "Couldn't open file %s", absPath(output))
		return errReported
	}

	fd := diff.NewEngine(contextLines).Compute(oldPath, output, string(existing), doc.String())
	if err := diff.WriteUnified(out, fd); err != nil {
		return err
	}

	added, removed := fd.Stats()
	logging.Get(logging.CategoryDriver).Info("diff computed",
		zap.String("run", report.Run),
		zap.Int("hunks", len(fd.Hunks)),
		zap.Int("added", added),
		zap.Int("removed", removed))

	if exitCode && fd.Changed() {
		return errReported
	}
	return nil
}
