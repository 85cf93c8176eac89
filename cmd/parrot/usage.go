package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"parrot-hq/parrot/pkg/cli"
	"parrot-hq/parrot/pkg/config"
	"parrot-hq/parrot/pkg/usage"
)

var usageFlags struct {
	format string
	limit  int
	prune  bool
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Report recorded token usage",
	Long: `Report token usage recorded in the persistent ledger, newest first.

Examples:
  # Show the last 20 requests
  parrot usage

  # Export everything recorded as CSV
  parrot usage --limit 100000 --format csv

  # Remove rows past the retention window now
  parrot usage --prune`,
	RunE: runUsage,
}

func init() {
	rootCmd.AddCommand(usageCmd)

	usageCmd.Flags().StringVarP(&usageFlags.format, "format", "f", "text", "output format (text, json, csv)")
	usageCmd.Flags().IntVarP(&usageFlags.limit, "limit", "n", 20, "maximum number of rows")
	usageCmd.Flags().BoolVar(&usageFlags.prune, "prune", false, "prune rows past the retention window")
}

func runUsage(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(usageFlags.format)
	if err != nil {
		return err
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if cfg.Usage.LedgerPath == "" {
		return fmt.Errorf("no usage ledger configured: set usage.ledger_path")
	}

	ledger, err := usage.OpenLedger(cfg.Usage.LedgerPath)
	if err != nil {
		return err
	}
	defer ledger.Close()

	if usageFlags.prune {
		removed, err := usage.NewScheduler(ledger, cfg.Usage).PruneNow()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pruned %d rows\n", removed)
		return nil
	}

	records, err := ledger.Recent(usageFlags.limit)
	if err != nil {
		return err
	}
	return cli.WriteUsageReport(cmd.OutOrStdout(), format, records)
}
