package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"meterline/spendguard/pkg/pricing"
)

var estimateFlags struct {
	model  string
	input  int64
	output int64
}

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Price a hypothetical exchange without recording anything",
	Long: `Estimate prices the given token counts against the configured price
sheet. Nothing is committed, evaluated, or journaled.`,
	Example: `  spendguard estimate --model gpt-4o --input 8000 --output 2000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		table := cfg.Pricing.PricingTable()
		cost, err := table.CostOf(estimateFlags.model, estimateFlags.input, estimateFlags.output)
		if err != nil {
			return err
		}

		entry, _ := table.Lookup(estimateFlags.model)
		fmt.Printf("%s: %d in / %d out\n", estimateFlags.model, estimateFlags.input, estimateFlags.output)
		fmt.Printf("  input:  $%s (at $%s per 1K)\n",
			pricing.Cost(entry, estimateFlags.input, 0).StringFixed(6), entry.InputPer1K)
		fmt.Printf("  output: $%s (at $%s per 1K)\n",
			pricing.Cost(entry, 0, estimateFlags.output).StringFixed(6), entry.OutputPer1K)
		fmt.Printf("  total:  $%s\n", cost.StringFixed(6))
		return nil
	},
}

func init() {
	estimateCmd.Flags().StringVar(&estimateFlags.model, "model", "", "model identifier (required)")
	estimateCmd.Flags().Int64Var(&estimateFlags.input, "input", 0, "prompt-side token count")
	estimateCmd.Flags().Int64Var(&estimateFlags.output, "output", 0, "completion-side token count")
	_ = estimateCmd.MarkFlagRequired("model")
	rootCmd.AddCommand(estimateCmd)
}
