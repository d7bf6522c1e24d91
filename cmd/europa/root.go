package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "europa",
	Short: "Europa - batch export service for document stores",
	Long: `Europa is an open-source batch export service that drains search
queries from a document store into downloadable artifacts.

It provides:
  - CSV, Parquet, and JSON artifact encodings
  - Paged draining with per-batch timeouts and retry
  - A global entry cap with truncation-as-success semantics
  - Atomic artifact commits and run lifecycle tracking
  - Reusable export presets from files or a git repository

For more information, visit: https://github.com/mercator-hq/europa`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Disable default completion command (we'll add our own)
	rootCmd.CompletionOptions.DisableDefaultCmd = false
}
