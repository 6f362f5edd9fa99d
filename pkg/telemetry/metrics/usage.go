package metrics

import (
	"meterline/spendguard/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// defaultTokenBuckets covers typical LLM event sizes (100 - 100K tokens).
var defaultTokenBuckets = []float64{100, 500, 1000, 5000, 10000, 50000, 100000}

// UsageMetrics tracks token usage metrics for tracked events.
//
// Metrics:
//   - spendguard_usage_events_total: Tracked usage events by model
//   - spendguard_tokens_total: Token counts by model and direction
//   - spendguard_tokens_per_event: Token count distribution per event (histogram)
//   - spendguard_anomalous_events_total: Late-arriving events by model
type UsageMetrics struct {
	// Tracked event counter
	eventsTotal *prometheus.CounterVec

	// Token counter split by direction (input, output)
	tokensTotal *prometheus.CounterVec

	// Tokens per event histogram
	tokensPerEvent *prometheus.HistogramVec

	// Late event counter
	anomaliesTotal *prometheus.CounterVec
}

// NewUsageMetrics creates and registers usage metrics with the provided registry.
func NewUsageMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *UsageMetrics {
	um := &UsageMetrics{
		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "usage_events_total",
				Help:      "Tracked usage events by model",
			},
			[]string{"model"},
		),

		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tokens_total",
				Help:      "Token counts by model and direction",
			},
			[]string{"model", "direction"},
		),

		tokensPerEvent: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tokens_per_event",
				Help:      "Total token count distribution per tracked event",
				Buckets:   defaultTokenBuckets,
			},
			[]string{"model"},
		),

		anomaliesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "anomalous_events_total",
				Help:      "Events whose own timestamp fell in a closed period",
			},
			[]string{"model"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		um.eventsTotal,
		um.tokensTotal,
		um.tokensPerEvent,
		um.anomaliesTotal,
	)

	return um
}

// RecordEvent records the token counts of a single tracked event.
//
// Parameters:
//   - model: Model name
//   - inputTokens: Prompt token count
//   - outputTokens: Completion token count
func (um *UsageMetrics) RecordEvent(model string, inputTokens, outputTokens int64) {
	um.eventsTotal.WithLabelValues(model).Inc()

	if inputTokens > 0 {
		um.tokensTotal.WithLabelValues(model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		um.tokensTotal.WithLabelValues(model, "output").Add(float64(outputTokens))
	}

	um.tokensPerEvent.WithLabelValues(model).Observe(float64(inputTokens + outputTokens))
}

// RecordAnomaly records a late-arriving event.
//
// Parameters:
//   - model: Model name
func (um *UsageMetrics) RecordAnomaly(model string) {
	um.anomaliesTotal.WithLabelValues(model).Inc()
}
