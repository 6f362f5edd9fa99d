package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"meterline/spendguard/pkg/billing"
	"meterline/spendguard/pkg/cli"
	"meterline/spendguard/pkg/ledger"
)

var trackFlags struct {
	model  string
	input  int64
	output int64
	at     string
	format string
}

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Record a usage event",
	Long: `Track prices one API exchange, commits it to the aggregates, appends
it to the journal, and evaluates the configured limits.

The event is recorded even when it breaches a hard limit; the breach is
reported through exit code 2 so shell pipelines can react.`,
	Example: `  spendguard track --model gpt-4o --input 1200 --output 340
  spendguard track --model gpt-4o-mini --input 90000 --output 12000 --at 2026-08-24T16:00:00Z`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}

		event := ledger.UsageEvent{
			Model:        trackFlags.model,
			InputTokens:  trackFlags.input,
			OutputTokens: trackFlags.output,
		}
		if trackFlags.at != "" {
			ts, err := time.Parse(time.RFC3339, trackFlags.at)
			if err != nil {
				return fmt.Errorf("invalid --at timestamp %q (want RFC 3339): %w", trackFlags.at, err)
			}
			event.Timestamp = ts
		}

		monitor, err := billing.Open(cfg)
		if err != nil {
			return err
		}
		defer monitor.Close()

		report, trackErr := monitor.Track(context.Background(), event)
		if report != nil {
			if err := printReport(report); err != nil {
				return err
			}
		}
		// A threshold breach still recorded the usage; surface it as the
		// command's result so the exit code reflects the breach.
		return trackErr
	},
}

func printReport(r *billing.Report) error {
	if trackFlags.format == string(cli.FormatJSON) {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, r)
	}

	if !r.Tracked {
		fmt.Println("Tracking is disabled; nothing recorded.")
		return nil
	}

	fmt.Printf("Recorded %s: %d in / %d out, cost $%s\n",
		r.Event.Model, r.Event.InputTokens, r.Event.OutputTokens, r.Cost.StringFixed(6))
	if r.Fallback {
		fmt.Println("  (priced with fallback model rates)")
	}
	if r.Anomalous {
		fmt.Println("  (timestamp belongs to a closed period; flagged anomalous)")
	}
	fmt.Printf("Today: $%s across %d requests\n",
		r.Totals.Daily.Cost.StringFixed(4), r.Totals.Daily.Requests)
	for _, f := range r.Findings {
		fmt.Printf("  ⚠ %s\n", f)
	}
	return nil
}

func init() {
	trackCmd.Flags().StringVar(&trackFlags.model, "model", "", "model identifier (required)")
	trackCmd.Flags().Int64Var(&trackFlags.input, "input", 0, "prompt-side token count")
	trackCmd.Flags().Int64Var(&trackFlags.output, "output", 0, "completion-side token count")
	trackCmd.Flags().StringVar(&trackFlags.at, "at", "", "event timestamp, RFC 3339 (default: now)")
	trackCmd.Flags().StringVar(&trackFlags.format, "format", "text", "output format (text or json)")
	_ = trackCmd.MarkFlagRequired("model")
	rootCmd.AddCommand(trackCmd)
}
