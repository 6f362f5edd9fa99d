package billing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"meterline/spendguard/pkg/config"
	"meterline/spendguard/pkg/ledger"
	"meterline/spendguard/pkg/thresholds"
)

// End-to-end behavior of the track pipeline: decimal arithmetic, limit
// progression, enforcement, concurrency, and hot reload.

func TestCostAccumulation_ExactDecimal(t *testing.T) {
	m := newTestMonitor(t, thresholds.Limits{})

	// 10 events of $0.10 each. Binary floating point cannot represent
	// 0.1 and would drift; the decimal ledger must land on 1.00 exactly.
	for i := 0; i < 10; i++ {
		if _, err := m.Track(context.Background(), ledger.UsageEvent{
			Model:       "flat",
			InputTokens: 100,
		}); err != nil {
			t.Fatalf("Track() #%d error = %v", i, err)
		}
	}

	total := m.Summary().Totals.Daily.Cost
	if !total.Equal(decimal.NewFromInt(1)) {
		t.Errorf("Daily cost = %s, want exactly 1", total)
	}
}

func TestLimitProgression_WarningThenExceeded(t *testing.T) {
	m := newTestMonitor(t, thresholds.Limits{
		DailyCost: mustDecimal(t, "1.00"),
	})

	// 850 flat tokens spend $0.85: past the default 0.8 warning fraction.
	report, err := m.Track(context.Background(), ledger.UsageEvent{Model: "flat", InputTokens: 850})
	if err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	if len(report.Findings) != 1 {
		t.Fatalf("Findings = %d, want 1", len(report.Findings))
	}
	warning := report.Findings[0]
	if warning.Status != thresholds.StatusWarning {
		t.Errorf("Status = %s, want warning", warning.Status)
	}
	if !warning.Current.Equal(mustDecimal(t, "0.85")) {
		t.Errorf("Current = %s, want 0.85", warning.Current)
	}
	if warning.Percent() != 85.0 {
		t.Errorf("Percent = %v, want 85", warning.Percent())
	}

	// Another $0.17 lands at $1.02: past the limit.
	report, err = m.Track(context.Background(), ledger.UsageEvent{Model: "flat", InputTokens: 170})
	if err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	if len(report.Findings) != 1 || report.Findings[0].Status != thresholds.StatusExceeded {
		t.Fatalf("Findings = %v, want one exceeded", report.Findings)
	}
	if !report.Findings[0].Current.Equal(mustDecimal(t, "1.02")) {
		t.Errorf("Current = %s, want 1.02", report.Findings[0].Current)
	}
}

func TestSoftLimit_ReportsWithoutBlocking(t *testing.T) {
	m := newTestMonitor(t, thresholds.Limits{
		DailyCost:        mustDecimal(t, "1.00"),
		EnforceHardLimit: false,
	})

	var exceeded []thresholds.Result
	m.OnExceeded(func(r thresholds.Result) { exceeded = append(exceeded, r) })

	// Single event blows straight past the limit.
	report, err := m.Track(context.Background(), ledger.UsageEvent{Model: "flat", InputTokens: 1500})
	if err != nil {
		t.Fatalf("Track() with soft limit error = %v", err)
	}

	if !report.Tracked {
		t.Error("Expected usage to be recorded despite the breach")
	}
	if len(exceeded) != 1 {
		t.Fatalf("Exceeded callbacks = %d, want 1", len(exceeded))
	}
	if got := m.Summary().Totals.Daily.TotalTokens(); got != 1500 {
		t.Errorf("Daily tokens = %d, want 1500", got)
	}
}

func TestHardLimit_BlocksAfterRecording(t *testing.T) {
	m := newTestMonitor(t, thresholds.Limits{
		DailyCost:        mustDecimal(t, "1.00"),
		EnforceHardLimit: true,
	})

	// Under the warning fraction: no error.
	if _, err := m.Track(context.Background(), ledger.UsageEvent{Model: "flat", InputTokens: 500}); err != nil {
		t.Fatalf("Track() under limit error = %v", err)
	}

	// Crosses the limit: typed error, usage still recorded.
	report, err := m.Track(context.Background(), ledger.UsageEvent{Model: "flat", InputTokens: 600})
	if !errors.Is(err, ErrThresholdExceeded) {
		t.Fatalf("Track() error = %v, want ErrThresholdExceeded", err)
	}

	var terr *ThresholdError
	if !errors.As(err, &terr) {
		t.Fatalf("Track() error type = %T, want *ThresholdError", err)
	}
	if len(terr.Results) != 1 || terr.Results[0].Status != thresholds.StatusExceeded {
		t.Errorf("ThresholdError results = %v, want one exceeded", terr.Results)
	}

	if report == nil || !report.Tracked {
		t.Fatal("Expected the report alongside the enforcement error")
	}
	if got := m.Summary().Totals.Daily.Cost; !got.Equal(mustDecimal(t, "1.10")) {
		t.Errorf("Daily cost = %s, want 1.10 (breaching event still recorded)", got)
	}

	// Every subsequent event in the period keeps failing.
	if _, err := m.Track(context.Background(), ledger.UsageEvent{Model: "flat", InputTokens: 1}); !errors.Is(err, ErrThresholdExceeded) {
		t.Errorf("Track() after breach error = %v, want ErrThresholdExceeded", err)
	}
}

func TestConcurrentTracking_NoLostUpdates(t *testing.T) {
	m := newTestMonitor(t, thresholds.Limits{})

	const workers = 50
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Track(context.Background(), ledger.UsageEvent{
				Model:        "flat",
				InputTokens:  100,
				OutputTokens: 50,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("Track() error = %v", err)
		}
	}

	totals := m.Summary().Totals
	if totals.AllTime.Requests != workers {
		t.Errorf("Requests = %d, want %d", totals.AllTime.Requests, workers)
	}
	if totals.AllTime.TotalTokens() != workers*150 {
		t.Errorf("Tokens = %d, want %d", totals.AllTime.TotalTokens(), workers*150)
	}
	if !totals.AllTime.Cost.Equal(decimal.NewFromInt(5)) {
		t.Errorf("Cost = %s, want exactly 5 (50 x 0.10)", totals.AllTime.Cost)
	}
}

func TestCallbackPanic_DoesNotDisruptTracking(t *testing.T) {
	m := newTestMonitor(t, thresholds.Limits{})

	var secondRan bool
	m.OnUsage(func(*Report) { panic("handler bug") })
	m.OnUsage(func(*Report) { secondRan = true })

	report, err := m.Track(context.Background(), ledger.UsageEvent{Model: "flat", InputTokens: 100})
	if err != nil {
		t.Fatalf("Track() error = %v, panic must not escape", err)
	}
	if !report.Tracked {
		t.Error("Expected usage to be recorded")
	}
	if !secondRan {
		t.Error("Second handler must run after the first panics")
	}
}

func TestLateEvent_FlaggedAnomalous(t *testing.T) {
	m := newTestMonitor(t, thresholds.Limits{})

	report, err := m.Track(context.Background(), ledger.UsageEvent{
		Model:       "flat",
		InputTokens: 100,
		Timestamp:   time.Now().Add(-48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Track() error = %v", err)
	}

	if !report.Anomalous {
		t.Error("Expected a two-day-old event to be flagged anomalous")
	}
	// The usage still lands in the current period.
	if report.Totals.Daily.Requests != 1 {
		t.Errorf("Daily requests = %d, want 1", report.Totals.Daily.Requests)
	}
	if got := m.Summary().Anomalies; got != 1 {
		t.Errorf("Summary anomalies = %d, want 1", got)
	}
}

// reloadConfig builds a minimal valid configuration whose price sheet
// has the single "flat" model at the given input rate.
func reloadConfig(t *testing.T, inputPer1K string) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	include := false
	cfg.Pricing.IncludeDefaults = &include
	cfg.Pricing.Models = []config.ModelPricingConfig{
		{Model: "flat", InputPer1K: inputPer1K, OutputPer1K: "0"},
	}
	return cfg
}

func TestReload_SwapsPricing(t *testing.T) {
	m := newTestMonitor(t, thresholds.Limits{})

	if err := m.Reload(reloadConfig(t, "2.00")); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	report, err := m.Track(context.Background(), ledger.UsageEvent{Model: "flat", InputTokens: 100})
	if err != nil {
		t.Fatalf("Track() after reload error = %v", err)
	}
	if !report.Cost.Equal(mustDecimal(t, "0.20")) {
		t.Errorf("Cost = %s, want 0.20 at the reloaded rate", report.Cost)
	}

	// The old table is gone with the swap.
	if _, err := m.Track(context.Background(), ledger.UsageEvent{Model: "gpt-x", InputTokens: 100}); err == nil {
		t.Error("Expected gpt-x to be unpriced after reload replaced the table")
	}
}

func TestReload_InvalidConfigKeepsOldState(t *testing.T) {
	m := newTestMonitor(t, thresholds.Limits{})

	bad := reloadConfig(t, "not-a-price")
	if err := m.Reload(bad); err == nil {
		t.Fatal("Expected validation error for malformed price")
	}

	// Old pricing still in effect.
	report, err := m.Track(context.Background(), ledger.UsageEvent{Model: "flat", InputTokens: 100})
	if err != nil {
		t.Fatalf("Track() after failed reload error = %v", err)
	}
	if !report.Cost.Equal(mustDecimal(t, "0.10")) {
		t.Errorf("Cost = %s, want 0.10 at the original rate", report.Cost)
	}
}

func TestReload_AtomicUnderConcurrentTracking(t *testing.T) {
	m := newTestMonitor(t, thresholds.Limits{})

	oldCost := mustDecimal(t, "0.10")
	newCost := mustDecimal(t, "0.20")

	const workers = 8
	const perWorker = 25

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		costs []decimal.Decimal
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				report, err := m.Track(context.Background(), ledger.UsageEvent{
					Model:       "flat",
					InputTokens: 100,
				})
				if err != nil {
					t.Errorf("Track() error = %v", err)
					return
				}
				mu.Lock()
				costs = append(costs, report.Cost)
				mu.Unlock()
			}
		}()
	}

	// Swap the price sheet mid-flight.
	if err := m.Reload(reloadConfig(t, "2.00")); err != nil {
		t.Errorf("Reload() error = %v", err)
	}
	wg.Wait()

	// Every event priced at exactly the old or the new rate, never a
	// torn mixture, and the ledger sum equals the per-event sum.
	sum := decimal.Zero
	for _, c := range costs {
		if !c.Equal(oldCost) && !c.Equal(newCost) {
			t.Fatalf("Cost = %s, want exactly 0.10 or 0.20", c)
		}
		sum = sum.Add(c)
	}
	if total := m.Summary().Totals.AllTime.Cost; !total.Equal(sum) {
		t.Errorf("Ledger cost = %s, want %s (sum of reported events)", total, sum)
	}
}
