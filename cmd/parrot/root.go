package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"parrot-hq/parrot/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "parrot",
	Short: "Parrot - chat client for OpenAI-compatible backends",
	Long: `Parrot is a command-line chat client for any backend speaking the
OpenAI chat completions protocol.

It provides:
  - Streaming and non-streaming chat completions
  - Provider and model registration from configuration
  - Token usage tracking with a persistent SQLite ledger
  - Optional Prometheus metrics endpoint`,
	Version: Version,
}

// Execute runs the root command with a signal-canceled context so an
// in-flight streaming request stops cleanly on Ctrl-C.
func Execute() {
	if err := rootCmd.ExecuteContext(cli.SetupSignalHandler()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
