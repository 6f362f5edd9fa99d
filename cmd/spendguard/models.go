package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"meterline/spendguard/pkg/cli"
)

var modelsFlags struct {
	format string
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the configured price sheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		models := cfg.Pricing.PricingTable().Models()

		if modelsFlags.format == string(cli.FormatJSON) {
			return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, models)
		}

		tbl := cli.NewTable(os.Stdout)
		tbl.Header("MODEL", "INPUT $/1K", "OUTPUT $/1K", "MAX TOKENS")
		for _, m := range models {
			max := "-"
			if m.MaxTokens > 0 {
				max = fmt.Sprintf("%d", m.MaxTokens)
			}
			tbl.Row(m.Model, m.InputPer1K.String(), m.OutputPer1K.String(), max)
		}
		tbl.Flush()
		fmt.Printf("\n%d models priced", len(models))
		if cfg.Pricing.FallbackModel != "" {
			fmt.Printf(", fallback: %s", cfg.Pricing.FallbackModel)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	modelsCmd.Flags().StringVar(&modelsFlags.format, "format", "text", "output format (text or json)")
	rootCmd.AddCommand(modelsCmd)
}
