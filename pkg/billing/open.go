package billing

import (
	"fmt"

	"meterline/spendguard/pkg/config"
	"meterline/spendguard/pkg/journal"
	"meterline/spendguard/pkg/journal/recorder"
	journalstorage "meterline/spendguard/pkg/journal/storage"
	"meterline/spendguard/pkg/ledger"
	ledgerstorage "meterline/spendguard/pkg/ledger/storage"
	"meterline/spendguard/pkg/telemetry/metrics"
)

// Open assembles a fully wired monitor from an application
// configuration: ledger backend, journal storage and recorder, and the
// metrics collector, each per its config section. The configuration is
// validated again before anything is opened, so a bad document never
// leaves half-constructed state behind.
//
// Close on the returned monitor releases everything Open created.
func Open(cfg *config.Config) (*Monitor, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	backend, err := ledgerstorage.FromConfig(&cfg.Ledger)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger backend: %w", err)
	}

	led, err := ledger.New(backend, &ledger.Config{
		AutoSave:       cfg.Ledger.AutoSaveEnabled(),
		DailyHistory:   cfg.Ledger.DailyHistory,
		MonthlyHistory: cfg.Ledger.MonthlyHistory,
	})
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	var (
		rec   *recorder.Recorder
		store journal.Storage
	)
	if cfg.JournalEnabled() {
		store, err = journalstorage.FromConfig(&cfg.Journal)
		if err != nil {
			_ = led.Close()
			return nil, fmt.Errorf("failed to open journal storage: %w", err)
		}
		rec = recorder.NewRecorder(store, &recorder.Config{
			Enabled:      true,
			Buffer:       cfg.Journal.Recorder.Buffer,
			WriteTimeout: cfg.Journal.Recorder.WriteTimeout,
		})
	}

	var collector *metrics.Collector
	if cfg.MetricsEnabled() {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	}

	monitor, err := New(Config{
		Pricing:       cfg.Pricing.PricingTable(),
		Limits:        cfg.Limits.Limits(),
		FallbackModel: cfg.Pricing.FallbackModel,
		Ledger:        led,
		Journal:       rec,
		Metrics:       collector,
	})
	if err != nil {
		if rec != nil {
			_ = rec.Close()
		}
		if store != nil {
			_ = store.Close()
		}
		_ = led.Close()
		return nil, err
	}
	monitor.journalStore = store
	monitor.SetEnabled(cfg.IsEnabled())

	return monitor, nil
}

// Metrics returns the collector Open attached, or nil when metrics are
// disabled. The daemon uses it to mount the /metrics handler.
func (m *Monitor) Metrics() *metrics.Collector {
	return m.metrics
}
