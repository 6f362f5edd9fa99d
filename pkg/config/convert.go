package config

import (
	"github.com/shopspring/decimal"

	"meterline/spendguard/pkg/pricing"
	"meterline/spendguard/pkg/thresholds"
)

// PricingTable builds the effective price sheet from this configuration.
// With IncludeDefaults set the table starts from the built-in sheet and
// configured entries override matching model identifiers. The
// configuration must have been validated first; entries that fail to
// parse are skipped.
func (c *PricingConfig) PricingTable() *pricing.Table {
	var t *pricing.Table
	if c.IncludesDefaults() {
		t = pricing.DefaultTable()
	} else {
		t = pricing.NewTable()
	}
	for _, m := range c.Models {
		entry, err := m.Entry()
		if err != nil {
			continue
		}
		// Register on a validated config only fails for entries the
		// validator already rejected.
		_ = t.Register(entry)
	}
	return t
}

// Entry converts one configured price sheet row to a pricing entry.
func (m *ModelPricingConfig) Entry() (pricing.ModelPricing, error) {
	in, err := decimal.NewFromString(m.InputPer1K)
	if err != nil {
		return pricing.ModelPricing{}, err
	}
	out, err := decimal.NewFromString(m.OutputPer1K)
	if err != nil {
		return pricing.ModelPricing{}, err
	}
	return pricing.ModelPricing{
		Model:       m.Model,
		InputPer1K:  in,
		OutputPer1K: out,
		MaxTokens:   m.MaxTokens,
	}, nil
}

// Limits converts the configured limits to evaluator form. Empty and
// malformed cost strings become zero decimals, which the evaluator
// treats as unconfigured; the validator rejects malformed strings
// before any caller gets here.
func (c *LimitsConfig) Limits() thresholds.Limits {
	return thresholds.Limits{
		DailyCost:        optionalDecimal(c.DailyCostLimit),
		MonthlyCost:      optionalDecimal(c.MonthlyCostLimit),
		DailyTokens:      c.DailyTokenLimit,
		MonthlyTokens:    c.MonthlyTokenLimit,
		WarningRatio:     optionalDecimal(c.WarningRatio),
		EnforceHardLimit: c.EnforceHardLimit,
	}
}

func optionalDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Decimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}
	}
	return d
}
