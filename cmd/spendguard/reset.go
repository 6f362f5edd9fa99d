package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"meterline/spendguard/pkg/billing"
	"meterline/spendguard/pkg/ledger"
)

var resetFlags struct {
	yes bool
}

var resetCmd = &cobra.Command{
	Use:   "reset {daily|monthly|all}",
	Short: "Clear accumulated usage for a scope",
	Long: `Reset clears the given scope's aggregates and persists the cleared
state. Resetting all clears daily, monthly, and all-time together.

The journal is untouched; per-event history survives a reset.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"daily", "monthly", "all"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var scope ledger.Scope
		switch args[0] {
		case "daily":
			scope = ledger.ScopeDaily
		case "monthly":
			scope = ledger.ScopeMonthly
		case "all":
			scope = ledger.ScopeAllTime
		default:
			return fmt.Errorf("unknown scope %q (want daily, monthly, or all)", args[0])
		}

		if !resetFlags.yes && !confirm(fmt.Sprintf("Reset %s usage? This cannot be undone", args[0])) {
			fmt.Println("Aborted.")
			return nil
		}

		cfg, err := setup()
		if err != nil {
			return err
		}

		monitor, err := billing.Open(cfg)
		if err != nil {
			return err
		}
		defer monitor.Close()

		if err := monitor.Reset(scope); err != nil {
			return err
		}
		fmt.Printf("Reset %s usage.\n", args[0])
		return nil
	},
}

// confirm asks a y/N question on stdin.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func init() {
	resetCmd.Flags().BoolVar(&resetFlags.yes, "yes", false, "skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}
