package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"meterline/spendguard/pkg/config"
	"meterline/spendguard/pkg/thresholds"
)

// describeLimits renders each configured limit as one short phrase.
func describeLimits(lim thresholds.Limits) []string {
	var parts []string
	if lim.DailyCost.IsPositive() {
		parts = append(parts, fmt.Sprintf("daily cost $%s", lim.DailyCost))
	}
	if lim.MonthlyCost.IsPositive() {
		parts = append(parts, fmt.Sprintf("monthly cost $%s", lim.MonthlyCost))
	}
	if lim.DailyTokens > 0 {
		parts = append(parts, fmt.Sprintf("daily tokens %d", lim.DailyTokens))
	}
	if lim.MonthlyTokens > 0 {
		parts = append(parts, fmt.Sprintf("monthly tokens %d", lim.MonthlyTokens))
	}
	if lim.EnforceHardLimit {
		parts = append(parts, "hard enforcement")
	}
	return parts
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate loads the configuration, applies environment overrides, and
runs every validation rule. All field errors are reported at once.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath()
		cfg, err := loadConfig()
		if err != nil {
			var verr config.ValidationError
			if errors.As(err, &verr) {
				fmt.Printf("✗ %s is invalid:\n", path)
				for _, fe := range verr.Errors {
					fmt.Printf("  - %s: %s\n", fe.Field, fe.Message)
				}
				return config.ErrInvalidConfig
			}
			return err
		}

		fmt.Printf("✓ Configuration valid (%s)\n", path)
		fmt.Printf("  models priced:  %d\n", len(cfg.Pricing.PricingTable().Models()))
		if lim := cfg.Limits.Limits(); lim.Configured() {
			fmt.Printf("  limits:         %s\n", strings.Join(describeLimits(lim), ", "))
		} else {
			fmt.Println("  limits:         none configured")
		}
		fmt.Printf("  ledger backend: %s\n", cfg.Ledger.Backend)
		if cfg.JournalEnabled() {
			fmt.Printf("  journal:        %s\n", cfg.Journal.Backend)
		} else {
			fmt.Println("  journal:        disabled")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
