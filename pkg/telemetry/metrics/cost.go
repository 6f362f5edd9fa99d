package metrics

import (
	"meterline/spendguard/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CostMetrics tracks cost-related metrics for tracked usage events.
//
// Metrics:
//   - spendguard_cost_total: Total cost in USD by model
//   - spendguard_cost_per_event: Cost distribution per event (histogram)
//   - spendguard_cost_per_token: Average cost per token by model
//   - spendguard_pricing_fallbacks_total: Events priced via the fallback model
type CostMetrics struct {
	// Total cost counter (in USD)
	costTotal *prometheus.CounterVec

	// Cost per event histogram (in USD)
	costPerEvent *prometheus.HistogramVec

	// Cost per token (derived metric, recorded as gauge)
	costPerToken *prometheus.GaugeVec

	// Fallback pricing counter
	pricingFallbacks *prometheus.CounterVec
}

// NewCostMetrics creates and registers cost metrics with the provided registry.
func NewCostMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CostMetrics {
	cm := &CostMetrics{
		costTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cost_total",
				Help:      "Total cost in USD by model",
			},
			[]string{"model"},
		),

		costPerEvent: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cost_per_event",
				Help:      "Cost distribution per tracked event in USD",
				Buckets:   cfg.CostBuckets,
			},
			[]string{"model"},
		),

		costPerToken: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cost_per_token",
				Help:      "Cost per token in USD by model",
			},
			[]string{"model"},
		),

		pricingFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "pricing_fallbacks_total",
				Help:      "Events priced with the fallback model's rates",
			},
			[]string{"model"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		cm.costTotal,
		cm.costPerEvent,
		cm.costPerToken,
		cm.pricingFallbacks,
	)

	return cm
}

// RecordEventCost records the cost of a single tracked event.
//
// Parameters:
//   - model: Model name
//   - costUSD: Event cost in USD
//
// This updates both the total cost counter and the cost-per-event histogram.
//
// Example:
//
//	cm.RecordEventCost("gpt-4", 0.05)
func (cm *CostMetrics) RecordEventCost(model string, costUSD float64) {
	if costUSD <= 0 {
		return
	}

	cm.costTotal.WithLabelValues(model).Add(costUSD)
	cm.costPerEvent.WithLabelValues(model).Observe(costUSD)
}

// UpdateCostPerToken updates the average cost per token for a model.
//
// Parameters:
//   - model: Model name
//   - costPerToken: Cost per token in USD
func (cm *CostMetrics) UpdateCostPerToken(model string, costPerToken float64) {
	cm.costPerToken.WithLabelValues(model).Set(costPerToken)
}

// RecordPricingFallback records an event priced via the fallback model
// because the requested model has no pricing entry.
//
// Parameters:
//   - model: Model name that lacked a pricing entry
func (cm *CostMetrics) RecordPricingFallback(model string) {
	cm.pricingFallbacks.WithLabelValues(model).Inc()
}
