package metrics

import (
	"meterline/spendguard/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// StorageMetrics tracks persistence and retention metrics.
//
// Metrics:
//   - spendguard_storage_writes_total: Persistence attempts by store and outcome
//   - spendguard_journal_dropped_total: Journal entries dropped by the async recorder
//   - spendguard_retention_runs_total: Retention sweeps by outcome
//   - spendguard_retention_pruned_entries_total: Journal entries removed by retention
type StorageMetrics struct {
	// Persistence attempt counter
	writesTotal *prometheus.CounterVec

	// Dropped journal entry counter
	journalDrops prometheus.Counter

	// Retention sweep counter
	retentionRuns *prometheus.CounterVec

	// Pruned entry counter
	retentionPruned prometheus.Counter
}

// NewStorageMetrics creates and registers storage metrics with the provided registry.
func NewStorageMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *StorageMetrics {
	sm := &StorageMetrics{
		writesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "storage_writes_total",
				Help:      "Persistence attempts by store and outcome",
			},
			[]string{"store", "status"},
		),

		journalDrops: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "journal_dropped_total",
				Help:      "Journal entries dropped because the recorder buffer was full",
			},
		),

		retentionRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "retention_runs_total",
				Help:      "Retention sweeps by outcome",
			},
			[]string{"status"},
		),

		retentionPruned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "retention_pruned_entries_total",
				Help:      "Journal entries removed by retention sweeps",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		sm.writesTotal,
		sm.journalDrops,
		sm.retentionRuns,
		sm.retentionPruned,
	)

	return sm
}

// RecordWrite records a persistence attempt.
//
// Parameters:
//   - store: Storage component ("ledger", "journal")
//   - status: Write outcome ("ok", "error")
func (sm *StorageMetrics) RecordWrite(store, status string) {
	sm.writesTotal.WithLabelValues(store, status).Inc()
}

// RecordJournalDrop records a journal entry discarded by the recorder.
func (sm *StorageMetrics) RecordJournalDrop() {
	sm.journalDrops.Inc()
}

// RecordRetentionRun records a retention sweep and the entries it removed.
func (sm *StorageMetrics) RecordRetentionRun(status string, pruned int64) {
	sm.retentionRuns.WithLabelValues(status).Inc()
	if pruned > 0 {
		sm.retentionPruned.Add(float64(pruned))
	}
}
