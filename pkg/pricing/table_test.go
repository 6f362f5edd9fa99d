package pricing

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

// ============================================================================
// Lookup Tests
// ============================================================================

func TestTable_LookupExactMatch(t *testing.T) {
	tbl := NewTable()
	err := tbl.Register(ModelPricing{
		Model:       "gpt-x",
		InputPer1K:  decimal.RequireFromString("0.03"),
		OutputPer1K: decimal.RequireFromString("0.06"),
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	p, err := tbl.Lookup("gpt-x")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if p.Model != "gpt-x" {
		t.Errorf("Expected model gpt-x, got %s", p.Model)
	}
	if !p.InputPer1K.Equal(decimal.RequireFromString("0.03")) {
		t.Errorf("Expected input price 0.03, got %s", p.InputPer1K)
	}
}

func TestTable_LookupMissIsTyped(t *testing.T) {
	tbl := NewTable()

	_, err := tbl.Lookup("unknown-model")
	if err == nil {
		t.Fatal("Expected error for unknown model")
	}
	if !errors.Is(err, ErrModelNotConfigured) {
		t.Errorf("Expected ErrModelNotConfigured, got %v", err)
	}

	var nc *NotConfiguredError
	if !errors.As(err, &nc) {
		t.Fatalf("Expected NotConfiguredError, got %T", err)
	}
	if nc.Model != "unknown-model" {
		t.Errorf("Expected model unknown-model in error, got %s", nc.Model)
	}
}

func TestTable_LookupIsExactNotPrefix(t *testing.T) {
	tbl := NewTable()
	tbl.Register(ModelPricing{
		Model:       "gpt-4",
		InputPer1K:  decimal.RequireFromString("0.03"),
		OutputPer1K: decimal.RequireFromString("0.06"),
	})

	// A versioned variant must not silently inherit the family price.
	_, err := tbl.Lookup("gpt-4-0613")
	if !errors.Is(err, ErrModelNotConfigured) {
		t.Errorf("Expected ErrModelNotConfigured for gpt-4-0613, got %v", err)
	}
}

// ============================================================================
// Cost Arithmetic Tests
// ============================================================================

func TestTable_CostOfKnownScenario(t *testing.T) {
	// 1000 input at 0.03/1K + 500 output at 0.06/1K = 0.03 + 0.03 = 0.06
	tbl := NewTable()
	tbl.Register(ModelPricing{
		Model:       "gpt-x",
		InputPer1K:  decimal.RequireFromString("0.03"),
		OutputPer1K: decimal.RequireFromString("0.06"),
	})

	cost, err := tbl.CostOf("gpt-x", 1000, 500)
	if err != nil {
		t.Fatalf("CostOf failed: %v", err)
	}

	expected := decimal.RequireFromString("0.06")
	if !cost.Equal(expected) {
		t.Errorf("Expected cost %s, got %s", expected, cost)
	}
}

func TestTable_CostOfIsExact(t *testing.T) {
	// Repeated tiny costs must sum exactly, with no float drift.
	// 0.00015/1K * 7 tokens = 0.00000105 per event.
	tbl := NewTable()
	tbl.Register(ModelPricing{
		Model:       "gpt-4o-mini",
		InputPer1K:  decimal.RequireFromString("0.00015"),
		OutputPer1K: decimal.RequireFromString("0.0006"),
	})

	sum := decimal.Zero
	for i := 0; i < 10000; i++ {
		c, err := tbl.CostOf("gpt-4o-mini", 7, 0)
		if err != nil {
			t.Fatalf("CostOf failed: %v", err)
		}
		sum = sum.Add(c)
	}

	// 10000 * 7 * 0.00015 / 1000 = 0.0105
	expected := decimal.RequireFromString("0.0105")
	if !sum.Equal(expected) {
		t.Errorf("Expected exact sum %s, got %s", expected, sum)
	}
}

func TestTable_CostOfZeroAndNegativeTokens(t *testing.T) {
	tbl := NewTable()
	tbl.Register(ModelPricing{
		Model:       "gpt-x",
		InputPer1K:  decimal.RequireFromString("0.03"),
		OutputPer1K: decimal.RequireFromString("0.06"),
	})

	cost, err := tbl.CostOf("gpt-x", 0, 0)
	if err != nil {
		t.Fatalf("CostOf failed: %v", err)
	}
	if !cost.IsZero() {
		t.Errorf("Expected zero cost for zero tokens, got %s", cost)
	}

	// Negative counts are clamped, never negative cost.
	cost, err = tbl.CostOf("gpt-x", -100, -50)
	if err != nil {
		t.Fatalf("CostOf failed: %v", err)
	}
	if !cost.IsZero() {
		t.Errorf("Expected zero cost for negative tokens, got %s", cost)
	}
}

func TestTable_CostOfUnknownModel(t *testing.T) {
	tbl := NewTable()

	_, err := tbl.CostOf("nope", 100, 100)
	if !errors.Is(err, ErrModelNotConfigured) {
		t.Errorf("Expected ErrModelNotConfigured, got %v", err)
	}
}

// ============================================================================
// Registration Tests
// ============================================================================

func TestTable_RegisterValidation(t *testing.T) {
	tbl := NewTable()

	tests := []struct {
		name  string
		entry ModelPricing
	}{
		{"empty model", ModelPricing{Model: "", InputPer1K: decimal.Zero, OutputPer1K: decimal.Zero}},
		{"negative input price", ModelPricing{Model: "m", InputPer1K: decimal.RequireFromString("-0.01"), OutputPer1K: decimal.Zero}},
		{"negative output price", ModelPricing{Model: "m", InputPer1K: decimal.Zero, OutputPer1K: decimal.RequireFromString("-0.01")}},
		{"negative max tokens", ModelPricing{Model: "m", MaxTokens: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tbl.Register(tt.entry); err == nil {
				t.Error("Expected validation error")
			}
		})
	}

	if tbl.Len() != 0 {
		t.Errorf("Expected empty table after rejected entries, got %d", tbl.Len())
	}
}

func TestTable_RegisterOverride(t *testing.T) {
	tbl := NewTable()
	tbl.Register(ModelPricing{Model: "m", InputPer1K: decimal.RequireFromString("0.01"), OutputPer1K: decimal.RequireFromString("0.02")})
	tbl.Register(ModelPricing{Model: "m", InputPer1K: decimal.RequireFromString("0.05"), OutputPer1K: decimal.RequireFromString("0.10")})

	p, err := tbl.Lookup("m")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !p.InputPer1K.Equal(decimal.RequireFromString("0.05")) {
		t.Errorf("Expected overridden input price 0.05, got %s", p.InputPer1K)
	}
	if tbl.Len() != 1 {
		t.Errorf("Expected 1 entry after override, got %d", tbl.Len())
	}
}

func TestTable_Replace(t *testing.T) {
	tbl := NewTable()
	tbl.Register(ModelPricing{Model: "old", InputPer1K: decimal.RequireFromString("0.01"), OutputPer1K: decimal.RequireFromString("0.01")})

	err := tbl.Replace([]ModelPricing{
		{Model: "new-a", InputPer1K: decimal.RequireFromString("0.02"), OutputPer1K: decimal.RequireFromString("0.02")},
		{Model: "new-b", InputPer1K: decimal.RequireFromString("0.03"), OutputPer1K: decimal.RequireFromString("0.03")},
	})
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	if _, err := tbl.Lookup("old"); !errors.Is(err, ErrModelNotConfigured) {
		t.Error("Expected old entry to be gone after Replace")
	}
	if _, err := tbl.Lookup("new-a"); err != nil {
		t.Errorf("Expected new-a present after Replace: %v", err)
	}
}

func TestTable_ReplaceRejectsInvalidWithoutMutating(t *testing.T) {
	tbl := NewTable()
	tbl.Register(ModelPricing{Model: "keep", InputPer1K: decimal.RequireFromString("0.01"), OutputPer1K: decimal.RequireFromString("0.01")})

	err := tbl.Replace([]ModelPricing{
		{Model: "ok", InputPer1K: decimal.RequireFromString("0.02"), OutputPer1K: decimal.RequireFromString("0.02")},
		{Model: "bad", InputPer1K: decimal.RequireFromString("-1"), OutputPer1K: decimal.Zero},
	})
	if err == nil {
		t.Fatal("Expected Replace to reject negative price")
	}

	if _, err := tbl.Lookup("keep"); err != nil {
		t.Errorf("Expected existing entry to survive rejected Replace: %v", err)
	}
	if _, err := tbl.Lookup("ok"); err == nil {
		t.Error("Expected no partial application from rejected Replace")
	}
}

// ============================================================================
// Defaults and Listing Tests
// ============================================================================

func TestDefaultTable(t *testing.T) {
	tbl := DefaultTable()

	p, err := tbl.Lookup("gpt-4")
	if err != nil {
		t.Fatalf("Expected gpt-4 in default table: %v", err)
	}
	if !p.InputPer1K.Equal(decimal.RequireFromString("0.03")) {
		t.Errorf("Expected gpt-4 input price 0.03, got %s", p.InputPer1K)
	}
	if !p.OutputPer1K.Equal(decimal.RequireFromString("0.06")) {
		t.Errorf("Expected gpt-4 output price 0.06, got %s", p.OutputPer1K)
	}

	if _, err := tbl.Lookup("claude-3-opus"); err != nil {
		t.Errorf("Expected claude-3-opus in default table: %v", err)
	}
	if _, err := tbl.Lookup("deepseek-chat"); err != nil {
		t.Errorf("Expected deepseek-chat in default table: %v", err)
	}
}

func TestTable_ModelsSorted(t *testing.T) {
	tbl := NewTable()
	tbl.Register(ModelPricing{Model: "zebra", InputPer1K: decimal.Zero, OutputPer1K: decimal.Zero})
	tbl.Register(ModelPricing{Model: "alpha", InputPer1K: decimal.Zero, OutputPer1K: decimal.Zero})
	tbl.Register(ModelPricing{Model: "mid", InputPer1K: decimal.Zero, OutputPer1K: decimal.Zero})

	models := tbl.Models()
	if len(models) != 3 {
		t.Fatalf("Expected 3 models, got %d", len(models))
	}
	for i := 1; i < len(models); i++ {
		if models[i-1].Model > models[i].Model {
			t.Errorf("Models not sorted: %s before %s", models[i-1].Model, models[i].Model)
		}
	}
}

// ============================================================================
// Concurrency Tests
// ============================================================================

func TestTable_ConcurrentRegisterAndLookup(t *testing.T) {
	tbl := DefaultTable()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tbl.Register(ModelPricing{
					Model:       "custom-model",
					InputPer1K:  decimal.RequireFromString("0.001"),
					OutputPer1K: decimal.RequireFromString("0.002"),
				})
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tbl.CostOf("gpt-4", 100, 100)
				tbl.Lookup("custom-model")
			}
		}()
	}
	wg.Wait()

	if _, err := tbl.Lookup("custom-model"); err != nil {
		t.Errorf("Expected custom-model registered: %v", err)
	}
}

// ============================================================================
// Benchmarks
// ============================================================================

func BenchmarkTable_CostOf(b *testing.B) {
	tbl := DefaultTable()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tbl.CostOf("gpt-4", 1500, 800)
	}
}

func BenchmarkTable_CostOfParallel(b *testing.B) {
	tbl := DefaultTable()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			tbl.CostOf("gpt-4o", 1200, 400)
		}
	})
}
