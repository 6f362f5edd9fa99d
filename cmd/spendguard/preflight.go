package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"meterline/spendguard/pkg/billing"
	"meterline/spendguard/pkg/cli"
	"meterline/spendguard/pkg/thresholds"
)

var preflightFlags struct {
	model  string
	input  int64
	output int64
	format string
}

var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Check whether a proposed call would breach a limit",
	Long: `Preflight projects the estimated cost and tokens onto current totals
and evaluates the configured limits. Nothing is recorded.

Exit code 2 means the projected call would exceed a limit. Warnings are
printed but still admit the call.`,
	Example: `  spendguard preflight --model gpt-4o --input 4000 --output 1000 && call-the-api`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}

		monitor, err := billing.Open(cfg)
		if err != nil {
			return err
		}
		defer monitor.Close()

		pf, err := monitor.CheckBeforeCall(context.Background(),
			preflightFlags.model, preflightFlags.input, preflightFlags.output)
		if err != nil {
			return err
		}

		if preflightFlags.format == string(cli.FormatJSON) {
			if err := cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, pf); err != nil {
				return err
			}
		} else {
			printPreflight(pf)
		}

		if !pf.Allowed {
			var exceeded []thresholds.Result
			for _, f := range pf.Findings {
				if f.Status == thresholds.StatusExceeded {
					exceeded = append(exceeded, f)
				}
			}
			return &billing.ThresholdError{Results: exceeded}
		}
		return nil
	},
}

func printPreflight(pf *billing.Preflight) {
	verdict := "allowed"
	if !pf.Allowed {
		verdict = "DENIED"
	}
	fmt.Printf("Preflight %s: estimated cost $%s\n", verdict, pf.EstimatedCost.StringFixed(6))
	fmt.Printf("Projected today: $%s, %d tokens\n",
		pf.Projected.Daily.Cost.StringFixed(4), pf.Projected.Daily.TotalTokens())
	for _, f := range pf.Findings {
		fmt.Printf("  ⚠ %s\n", f)
	}
}

func init() {
	preflightCmd.Flags().StringVar(&preflightFlags.model, "model", "", "model identifier (required)")
	preflightCmd.Flags().Int64Var(&preflightFlags.input, "input", 0, "estimated prompt-side token count")
	preflightCmd.Flags().Int64Var(&preflightFlags.output, "output", 0, "estimated completion-side token count")
	preflightCmd.Flags().StringVar(&preflightFlags.format, "format", "text", "output format (text or json)")
	_ = preflightCmd.MarkFlagRequired("model")
	rootCmd.AddCommand(preflightCmd)
}
