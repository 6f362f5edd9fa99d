package metrics

import (
	"meterline/spendguard/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// LimitMetrics tracks spending limit evaluation metrics.
//
// The scope label is the accumulation window ("daily", "monthly") and the
// metric label is the limited quantity ("cost", "tokens").
//
// Metrics:
//   - spendguard_usage_ratio: Consumed fraction of each configured limit
//   - spendguard_warnings_total: Warning threshold crossings
//   - spendguard_limit_violations_total: Limits exceeded
//   - spendguard_blocked_events_total: Events denied by pre-call checks
//   - spendguard_callback_failures_total: Registered callbacks that panicked
type LimitMetrics struct {
	// Consumed fraction of each limit
	usageRatio *prometheus.GaugeVec

	// Warning threshold crossing counter
	warningsTotal *prometheus.CounterVec

	// Limit violation counter
	violationsTotal *prometheus.CounterVec

	// Pre-call denial counter
	blockedTotal *prometheus.CounterVec

	// Callback panic counter
	callbackFailures *prometheus.CounterVec
}

// NewLimitMetrics creates and registers limit metrics with the provided registry.
func NewLimitMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *LimitMetrics {
	lm := &LimitMetrics{
		usageRatio: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "usage_ratio",
				Help:      "Consumed fraction of each configured limit",
			},
			[]string{"scope", "metric"},
		),

		warningsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "warnings_total",
				Help:      "Limits that crossed their warning threshold",
			},
			[]string{"scope", "metric"},
		),

		violationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "limit_violations_total",
				Help:      "Limits exceeded by tracked usage",
			},
			[]string{"scope", "metric"},
		),

		blockedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "blocked_events_total",
				Help:      "Events denied by pre-call limit checks",
			},
			[]string{"model"},
		),

		callbackFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "callback_failures_total",
				Help:      "Registered callbacks that panicked during notification",
			},
			[]string{"callback"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		lm.usageRatio,
		lm.warningsTotal,
		lm.violationsTotal,
		lm.blockedTotal,
		lm.callbackFailures,
	)

	return lm
}

// UpdateUsageRatio sets the consumed fraction of a limit.
func (lm *LimitMetrics) UpdateUsageRatio(scope, metric string, ratio float64) {
	lm.usageRatio.WithLabelValues(scope, metric).Set(ratio)
}

// RecordWarning records a warning threshold crossing.
func (lm *LimitMetrics) RecordWarning(scope, metric string) {
	lm.warningsTotal.WithLabelValues(scope, metric).Inc()
}

// RecordViolation records a limit being exceeded.
func (lm *LimitMetrics) RecordViolation(scope, metric string) {
	lm.violationsTotal.WithLabelValues(scope, metric).Inc()
}

// RecordBlocked records an event denied by a pre-call limit check.
func (lm *LimitMetrics) RecordBlocked(model string) {
	lm.blockedTotal.WithLabelValues(model).Inc()
}

// RecordCallbackFailure records a callback that panicked.
func (lm *LimitMetrics) RecordCallbackFailure(callback string) {
	lm.callbackFailures.WithLabelValues(callback).Inc()
}
