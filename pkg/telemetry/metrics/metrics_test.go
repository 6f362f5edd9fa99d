package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"meterline/spendguard/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Helper function to create test config
func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Namespace:   "test",
		Subsystem:   "metrics",
		CostBuckets: []float64{0.001, 0.01, 0.1, 1.0},
	}
}

// TestCollector_NewCollector tests collector creation
func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector == nil {
		t.Fatal("Expected non-nil collector")
	}
	if collector.config != cfg {
		t.Error("Collector config not set correctly")
	}
	if collector.registry != registry {
		t.Error("Collector registry not set correctly")
	}
}

// TestCollector_NilRegistry tests that a nil registry gets a fresh one
func TestCollector_NilRegistry(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	if collector.Registry() == nil {
		t.Fatal("Expected collector to create its own registry")
	}
}

// TestCollector_DefaultsApplied tests namespace and bucket defaulting
func TestCollector_DefaultsApplied(t *testing.T) {
	cfg := &config.MetricsConfig{}
	NewCollector(cfg, prometheus.NewRegistry())

	if cfg.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("Namespace = %q, want %q", cfg.Namespace, config.DefaultMetricsNamespace)
	}
	if len(cfg.CostBuckets) == 0 {
		t.Error("Expected default cost buckets to be applied")
	}
}

// TestCollector_RecordUsage tests usage event recording
func TestCollector_RecordUsage(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	collector.RecordUsage("gpt-4o", 1000, 500, 0.0125)

	events := testutil.ToFloat64(collector.usageMetrics.eventsTotal.WithLabelValues("gpt-4o"))
	if events != 1 {
		t.Errorf("Expected 1 usage event, got %f", events)
	}

	input := testutil.ToFloat64(collector.usageMetrics.tokensTotal.WithLabelValues("gpt-4o", "input"))
	if input != 1000 {
		t.Errorf("Expected 1000 input tokens, got %f", input)
	}

	output := testutil.ToFloat64(collector.usageMetrics.tokensTotal.WithLabelValues("gpt-4o", "output"))
	if output != 500 {
		t.Errorf("Expected 500 output tokens, got %f", output)
	}

	cost := testutil.ToFloat64(collector.costMetrics.costTotal.WithLabelValues("gpt-4o"))
	if cost != 0.0125 {
		t.Errorf("Expected cost total 0.0125, got %f", cost)
	}

	if n := testutil.CollectAndCount(collector.costMetrics.costPerEvent); n == 0 {
		t.Error("Expected cost histogram to have observations")
	}
	if n := testutil.CollectAndCount(collector.usageMetrics.tokensPerEvent); n == 0 {
		t.Error("Expected token histogram to have observations")
	}
}

// TestCollector_RecordUsage_Accumulates tests counter accumulation
func TestCollector_RecordUsage_Accumulates(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordUsage("gpt-4", 100, 50, 0.006)
	collector.RecordUsage("gpt-4", 200, 100, 0.012)

	events := testutil.ToFloat64(collector.usageMetrics.eventsTotal.WithLabelValues("gpt-4"))
	if events != 2 {
		t.Errorf("Expected 2 usage events, got %f", events)
	}

	input := testutil.ToFloat64(collector.usageMetrics.tokensTotal.WithLabelValues("gpt-4", "input"))
	if input != 300 {
		t.Errorf("Expected 300 input tokens, got %f", input)
	}
}

// TestCollector_Disabled tests that recording is a no-op when disabled
func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	disabled := false
	cfg.Enabled = &disabled

	collector := NewCollector(cfg, prometheus.NewRegistry())

	collector.RecordUsage("gpt-4o", 1000, 500, 0.0125)
	collector.RecordBlocked("gpt-4o")
	collector.UpdateUsageRatio("daily", "cost", 0.5)

	if n := testutil.CollectAndCount(collector.usageMetrics.eventsTotal); n != 0 {
		t.Errorf("Expected no usage events when disabled, got %d series", n)
	}
	if n := testutil.CollectAndCount(collector.limitMetrics.blockedTotal); n != 0 {
		t.Errorf("Expected no blocked events when disabled, got %d series", n)
	}
	if n := testutil.CollectAndCount(collector.limitMetrics.usageRatio); n != 0 {
		t.Errorf("Expected no usage ratio when disabled, got %d series", n)
	}
}

// TestCollector_LimitMetrics tests limit evaluation recording
func TestCollector_LimitMetrics(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	t.Run("usage ratio", func(t *testing.T) {
		collector.UpdateUsageRatio("daily", "cost", 0.85)
		ratio := testutil.ToFloat64(collector.limitMetrics.usageRatio.WithLabelValues("daily", "cost"))
		if ratio != 0.85 {
			t.Errorf("Expected ratio=0.85, got %f", ratio)
		}

		collector.UpdateUsageRatio("daily", "cost", 0.95)
		ratio = testutil.ToFloat64(collector.limitMetrics.usageRatio.WithLabelValues("daily", "cost"))
		if ratio != 0.95 {
			t.Errorf("Expected ratio=0.95 after update, got %f", ratio)
		}
	})

	t.Run("warnings", func(t *testing.T) {
		collector.RecordWarning("monthly", "tokens")
		count := testutil.ToFloat64(collector.limitMetrics.warningsTotal.WithLabelValues("monthly", "tokens"))
		if count != 1 {
			t.Errorf("Expected 1 warning, got %f", count)
		}
	})

	t.Run("violations", func(t *testing.T) {
		collector.RecordViolation("daily", "cost")
		collector.RecordViolation("daily", "cost")
		count := testutil.ToFloat64(collector.limitMetrics.violationsTotal.WithLabelValues("daily", "cost"))
		if count != 2 {
			t.Errorf("Expected 2 violations, got %f", count)
		}
	})

	t.Run("blocked", func(t *testing.T) {
		collector.RecordBlocked("gpt-4")
		count := testutil.ToFloat64(collector.limitMetrics.blockedTotal.WithLabelValues("gpt-4"))
		if count != 1 {
			t.Errorf("Expected 1 blocked event, got %f", count)
		}
	})

	t.Run("callback failures", func(t *testing.T) {
		collector.RecordCallbackFailure("warning")
		count := testutil.ToFloat64(collector.limitMetrics.callbackFailures.WithLabelValues("warning"))
		if count != 1 {
			t.Errorf("Expected 1 callback failure, got %f", count)
		}
	})
}

// TestCollector_RecordAnomaly tests late-event recording
func TestCollector_RecordAnomaly(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordAnomaly("gpt-4o")

	count := testutil.ToFloat64(collector.usageMetrics.anomaliesTotal.WithLabelValues("gpt-4o"))
	if count != 1 {
		t.Errorf("Expected 1 anomaly, got %f", count)
	}
}

// TestCollector_PricingFallback tests fallback pricing recording
func TestCollector_PricingFallback(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordPricingFallback("my-custom-model")

	count := testutil.ToFloat64(collector.costMetrics.pricingFallbacks.WithLabelValues("my-custom-model"))
	if count != 1 {
		t.Errorf("Expected 1 fallback, got %f", count)
	}
}

// TestCollector_StorageMetrics tests persistence recording
func TestCollector_StorageMetrics(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordStorageWrite("ledger", "ok")
	collector.RecordStorageWrite("ledger", "ok")
	collector.RecordStorageWrite("journal", "error")

	ok := testutil.ToFloat64(collector.storageMetrics.writesTotal.WithLabelValues("ledger", "ok"))
	if ok != 2 {
		t.Errorf("Expected 2 successful ledger writes, got %f", ok)
	}

	errs := testutil.ToFloat64(collector.storageMetrics.writesTotal.WithLabelValues("journal", "error"))
	if errs != 1 {
		t.Errorf("Expected 1 failed journal write, got %f", errs)
	}

	collector.RecordJournalDrop()
	drops := testutil.ToFloat64(collector.storageMetrics.journalDrops)
	if drops != 1 {
		t.Errorf("Expected 1 dropped entry, got %f", drops)
	}

	collector.RecordRetentionRun("ok", 42)
	runs := testutil.ToFloat64(collector.storageMetrics.retentionRuns.WithLabelValues("ok"))
	if runs != 1 {
		t.Errorf("Expected 1 retention run, got %f", runs)
	}
	pruned := testutil.ToFloat64(collector.storageMetrics.retentionPruned)
	if pruned != 42 {
		t.Errorf("Expected 42 pruned entries, got %f", pruned)
	}
}

// TestCollector_Handler tests the metrics endpoint
func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.RecordUsage("gpt-4o", 1000, 500, 0.0125)

	srv := httptest.NewServer(collector.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	output := string(body)

	if !strings.Contains(output, "test_metrics_cost_total") {
		t.Errorf("Expected cost_total in exposition output:\n%s", output)
	}
	if !strings.Contains(output, `model="gpt-4o"`) {
		t.Errorf("Expected model label in exposition output:\n%s", output)
	}
}

// TestCollector_HandlerWithOptions tests custom scrape options
func TestCollector_HandlerWithOptions(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.RecordJournalDrop()

	handler := collector.HandlerWithOptions(promhttp.HandlerOpts{
		ErrorHandling:       promhttp.HTTPErrorOnError,
		MaxRequestsInFlight: 1,
	})
	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	if !strings.Contains(string(body), "test_metrics_journal_dropped_total") {
		t.Errorf("Expected journal_dropped_total in exposition output:\n%s", body)
	}
}

// TestCardinalityLimiter tests label cardinality capping
func TestCardinalityLimiter(t *testing.T) {
	limiter := NewCardinalityLimiter(2)

	if !limiter.Allow("gpt-4") {
		t.Error("First value should be allowed")
	}
	if !limiter.Allow("gpt-4o") {
		t.Error("Second value should be allowed")
	}
	if limiter.Allow("gpt-3.5-turbo") {
		t.Error("Third value should exceed the limit")
	}
	if !limiter.Allow("gpt-4") {
		t.Error("Existing value should stay allowed after the limit is hit")
	}
	if limiter.Count() != 2 {
		t.Errorf("Expected cardinality 2, got %d", limiter.Count())
	}
}

// TestCollector_CardinalityOverflow tests aggregation into "other"
func TestCollector_CardinalityOverflow(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.cardinalityLimiter = NewCardinalityLimiter(1)

	collector.RecordUsage("gpt-4", 100, 50, 0.006)
	collector.RecordUsage("unbounded-model-name", 100, 50, 0.006)

	overflow := testutil.ToFloat64(collector.usageMetrics.eventsTotal.WithLabelValues("other"))
	if overflow != 1 {
		t.Errorf("Expected overflow model aggregated into other, got %f", overflow)
	}
}
