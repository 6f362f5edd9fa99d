package config

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPricingTable_IncludesBuiltInSheet(t *testing.T) {
	pricing := PricingConfig{}

	table := pricing.PricingTable()
	if table.Len() == 0 {
		t.Fatal("expected built-in price sheet entries")
	}

	entry, err := table.Lookup("gpt-4")
	if err != nil {
		t.Fatalf("expected built-in entry for gpt-4, got: %v", err)
	}
	if !entry.InputPer1K.Equal(decimal.RequireFromString("0.03")) {
		t.Errorf("expected gpt-4 input price 0.03, got %s", entry.InputPer1K)
	}
}

func TestPricingTable_ConfiguredEntryOverridesBuiltIn(t *testing.T) {
	pricing := PricingConfig{
		Models: []ModelPricingConfig{
			{Model: "gpt-4", InputPer1K: "0.99", OutputPer1K: "1.99"},
		},
	}

	table := pricing.PricingTable()
	entry, err := table.Lookup("gpt-4")
	if err != nil {
		t.Fatalf("failed to look up gpt-4: %v", err)
	}
	if !entry.InputPer1K.Equal(decimal.RequireFromString("0.99")) {
		t.Errorf("expected overridden input price 0.99, got %s", entry.InputPer1K)
	}
}

func TestPricingTable_WithoutDefaults(t *testing.T) {
	excluded := false
	pricing := PricingConfig{
		IncludeDefaults: &excluded,
		Models: []ModelPricingConfig{
			{Model: "my-model", InputPer1K: "0.01", OutputPer1K: "0.02"},
		},
	}

	table := pricing.PricingTable()
	if table.Len() != 1 {
		t.Errorf("expected exactly 1 entry, got %d", table.Len())
	}
	if _, err := table.Lookup("gpt-4"); err == nil {
		t.Error("expected no built-in entry for gpt-4")
	}
}

func TestModelPricingConfig_Entry(t *testing.T) {
	m := ModelPricingConfig{
		Model:       "my-model",
		InputPer1K:  "0.012",
		OutputPer1K: "0.024",
		MaxTokens:   128000,
	}

	entry, err := m.Entry()
	if err != nil {
		t.Fatalf("failed to convert entry: %v", err)
	}
	if entry.Model != "my-model" {
		t.Errorf("expected model %q, got %q", "my-model", entry.Model)
	}
	if !entry.InputPer1K.Equal(decimal.RequireFromString("0.012")) {
		t.Errorf("expected input price 0.012, got %s", entry.InputPer1K)
	}
	if entry.MaxTokens != 128000 {
		t.Errorf("expected max tokens %d, got %d", 128000, entry.MaxTokens)
	}
}

func TestModelPricingConfig_Entry_BadDecimal(t *testing.T) {
	m := ModelPricingConfig{Model: "my-model", InputPer1K: "a lot", OutputPer1K: "0.02"}

	if _, err := m.Entry(); err == nil {
		t.Error("expected error for unparseable price")
	}
}

func TestLimitsConfig_Limits(t *testing.T) {
	limits := LimitsConfig{
		DailyCostLimit:    "10.00",
		MonthlyCostLimit:  "200.00",
		DailyTokenLimit:   500000,
		MonthlyTokenLimit: 10000000,
		WarningRatio:      "0.75",
		EnforceHardLimit:  true,
	}

	converted := limits.Limits()
	if !converted.DailyCost.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("expected daily cost 10.00, got %s", converted.DailyCost)
	}
	if !converted.MonthlyCost.Equal(decimal.RequireFromString("200.00")) {
		t.Errorf("expected monthly cost 200.00, got %s", converted.MonthlyCost)
	}
	if converted.DailyTokens != 500000 {
		t.Errorf("expected daily tokens %d, got %d", 500000, converted.DailyTokens)
	}
	if !converted.WarningRatio.Equal(decimal.RequireFromString("0.75")) {
		t.Errorf("expected warning ratio 0.75, got %s", converted.WarningRatio)
	}
	if !converted.EnforceHardLimit {
		t.Error("expected enforce hard limit true")
	}
}

func TestLimitsConfig_Limits_EmptyMeansUnconfigured(t *testing.T) {
	limits := LimitsConfig{}

	converted := limits.Limits()
	if !converted.DailyCost.IsZero() {
		t.Errorf("expected zero daily cost, got %s", converted.DailyCost)
	}
	if !converted.MonthlyCost.IsZero() {
		t.Errorf("expected zero monthly cost, got %s", converted.MonthlyCost)
	}
	if converted.DailyTokens != 0 || converted.MonthlyTokens != 0 {
		t.Error("expected zero token limits")
	}
	if !converted.WarningRatio.IsZero() {
		t.Errorf("expected zero warning ratio, got %s", converted.WarningRatio)
	}
}
