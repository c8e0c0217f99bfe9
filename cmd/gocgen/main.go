package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gocgen/internal/config"
	"gocgen/internal/diff"
	"gocgen/internal/generator"
	"gocgen/internal/logging"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const usage = "Use: gocgen <input_filename> <output_filename>"

var (
	// Global flags
	verbose    bool
	configPath string

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger = zap.NewNop()
)

// errReported marks an error whose message has already been printed.
var errReported = errors.New("reported")

var errorLabel = color.New(color.FgRed, color.Bold)

// rootCmd regenerates one file
var rootCmd = &cobra.Command{
	Use:   "gocgen <input_filename> <output_filename>",
	Short: "Inline Go code generator",
	Long: `gocgen runs the Go snippets found between /*$pycgen and */ in a text file
and writes their output right after each block, between //$pycgen-begin and
//$pycgen-end markers. Output regions from earlier runs are replaced, so the
tool can be re-run on its own output.

All blocks of one file share a single interpreter session: variables,
functions and imports from earlier blocks are visible to later ones.

Snippets can call:
  EmitStr(text)                  append text
  EmitLn(text)                   append text and a line separator
  EmitRepl(template, "X:a,b,c")  emit template once per value with X replaced
  EmitFmt(line, ctx)             emit line with {expr} evaluated against ctx

A block that starts with import, func, type, var or const may contain only
declarations; put statements in a separate block.`,
	Args:          usageArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg = config.DefaultConfig()
		if configPath != "" {
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", configPath, err)
		}

		if err := logging.Initialize(cfg.Logging, verbose); err != nil {
			return err
		}
		logger = logging.Get(logging.CategoryBoot)
		logger.Debug("config loaded", zap.String("path", configPath), zap.String("command", cmd.Name()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		logger = zap.NewNop()
	},
	RunE: runGenerate,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")

	watchCmd.Flags().Duration("debounce", 0, "Quiet period before regenerating (default from config)")
	batchCmd.Flags().IntP("jobs", "j", 0, "Files regenerated concurrently (default from config)")
	diffCmd.Flags().IntP("context", "U", diff.DefaultContext, "Unchanged lines shown around each change")
	diffCmd.Flags().Bool("exit-code", false, "Exit with status 1 when there are differences")

	initCmd.Flags().BoolP("force", "f", false, "Overwrite an existing file")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit status.
// Messages and snippet prints go to out; snippet writes to os.Stderr go to errOut.
func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			printError(out, "%v", err)
		}
		return 1
	}
	return 0
}

// usageArgs requires exactly an input and an output file.
func usageArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		fmt.Fprintln(cmd.OutOrStdout(), usage)
		return errReported
	}
	return nil
}

// runGenerate regenerates args[0] into args[1]
func runGenerate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	input, output := args[0], args[1]

	driver := generator.NewDriver(cfg,
		generator.WithDiagnostics(out),
		generator.WithEvaluatorFactory(generator.SessionFactory(cfg, out, cmd.ErrOrStderr())))

	report, err := driver.Generate(cmd.Context(), input, output)
	if err != nil {
		reportGenerateError(out, input, output, err)
		return errReported
	}

	logger.Info("done",
		zap.String("run", report.Run),
		zap.Int("blocks", report.Blocks),
		zap.Int("rendered", report.Rendered),
		zap.Bool("unchanged", report.Unchanged))
	return nil
}

// reportGenerateError prints the user-facing message for a failed Generate.
func reportGenerateError(out io.Writer, input, output string, err error) {
	switch {
	case errors.Is(err, generator.ErrOpenInput):
		printError(out, "Couldn't open file %s", absPath(input))
	case errors.Is(err, generator.ErrWriteOutput):
		printError(out, "Couldn't write to file %s", output)
	default:
		printError(out, "%v", err)
	}
}

func printError(out io.Writer, format string, args ...interface{}) {
	errorLabel.Fprint(out, "ERROR:")
	fmt.Fprintf(out, " "+format+"\n", args...)
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
