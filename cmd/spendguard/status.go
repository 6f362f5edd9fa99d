package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"meterline/spendguard/pkg/billing"
	"meterline/spendguard/pkg/cli"
	"meterline/spendguard/pkg/ledger"
	"meterline/spendguard/pkg/thresholds"
)

var statusFlags struct {
	format string
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current usage and limit standing",
	Long: `Status prints the daily, monthly, and all-time aggregates and
classifies each configured limit (ok, warning, exceeded).`,
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

		summary := monitor.Summary()

		if statusFlags.format == string(cli.FormatJSON) {
			return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, summary)
		}

		printSummary(summary)
		return nil
	},
}

func printSummary(s *billing.Summary) {
	state := "enabled"
	if !s.Enabled {
		state = "disabled"
	}
	fmt.Printf("SpendGuard status (tracking %s)\n\n", state)

	fmt.Println("Usage:")
	tbl := cli.NewTable(os.Stdout)
	tbl.Header("PERIOD", "REQUESTS", "INPUT TOK", "OUTPUT TOK", "TOTAL TOK", "COST")
	for _, row := range []struct {
		name string
		rec  ledger.Record
	}{
		{"today", s.Totals.Daily},
		{"this month", s.Totals.Monthly},
		{"all time", s.Totals.AllTime},
	} {
		tbl.Row(row.name,
			fmt.Sprintf("%d", row.rec.Requests),
			fmt.Sprintf("%d", row.rec.InputTokens),
			fmt.Sprintf("%d", row.rec.OutputTokens),
			fmt.Sprintf("%d", row.rec.TotalTokens()),
			"$"+row.rec.Cost.StringFixed(4),
		)
	}
	tbl.Flush()

	fmt.Println("\nLimits:")
	if len(s.Limits) == 0 {
		fmt.Println("  none configured")
	} else {
		for _, r := range s.Limits {
			marker := " "
			switch r.Status {
			case thresholds.StatusWarning:
				marker = "!"
			case thresholds.StatusExceeded:
				marker = "✗"
			}
			fmt.Printf("  %s %s\n", marker, r)
		}
	}

	if s.Anomalies > 0 {
		fmt.Printf("\nAnomalous (late-arriving) events: %d\n", s.Anomalies)
	}
	if s.JournalDropped > 0 {
		fmt.Printf("Journal entries dropped under backpressure: %d\n", s.JournalDropped)
	}
}

func init() {
	statusCmd.Flags().StringVar(&statusFlags.format, "format", "text", "output format (text or json)")
	rootCmd.AddCommand(statusCmd)
}
