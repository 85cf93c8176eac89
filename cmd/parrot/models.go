package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"parrot-hq/parrot/pkg/config"
	"parrot-hq/parrot/pkg/registry"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List registered providers and their models",
	Long: `List every registered provider with the models it serves and whether
it has the credentials it needs.`,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	reg := registry.New()
	if err := reg.Register(registry.FromProvider(cfg.Provider)); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, name := range reg.Providers() {
		entry, _ := reg.Lookup(name)
		status := "configured"
		if !entry.Configured {
			status = "missing API key"
		}
		fmt.Fprintf(out, "%s (%s)\n", entry.Name, status)
		for _, model := range entry.Models {
			marker := " "
			if model == cfg.Provider.DefaultModel {
				marker = "*"
			}
			fmt.Fprintf(out, "  %s %s\n", marker, model)
		}
	}
	return nil
}
