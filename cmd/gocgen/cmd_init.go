package main

import (
	"fmt"
	"os"

	"gocgen/internal/config"
	"gocgen/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultConfigFile = "gocgen.yaml"

// initCmd writes a config file holding the defaults
var initCmd = &cobra.Command{
	Use:   "init [config_filename]",
	Short: "Write a config file with the default settings",
	Long: `Writes every setting with its default value to a YAML file (gocgen.yaml
unless a name is given), as a starting point for --config.
An existing file is left alone unless --force is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	path := defaultConfigFile
	if len(args) == 1 {
		path = args[0]
	}
	force, _ := cmd.Flags().GetBool("force")

	if _, err := os.Stat(path); err == nil && !force {
		printError(out, "%s already exists (use --force to overwrite)", path)
		return errReported
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		printError(out, "Couldn't write to file %s", path)
		logging.Get(logging.CategoryBoot).Error("config not written", zap.String("path", path), zap.Error(err))
		return errReported
	}
	fmt.Fprintf(out, "Wrote %s\n", absPath(path))
	return nil
}
