// Package metrics provides Prometheus metrics collection for the billing engine.
//
// # Overview
//
// The metrics package implements Prometheus metrics for monitoring token
// usage, spending, limit evaluations, and persistence health. Metric
// collection stays off the hot path of cost arithmetic and adds minimal
// overhead per tracked event.
//
// # Metrics Categories
//
//   - Usage Metrics: Tracked events and token counts by model
//   - Cost Metrics: Total cost, cost per event, and fallback pricing
//   - Limit Metrics: Usage ratios, warnings, violations, and blocked events
//   - Storage Metrics: Persistence outcomes, dropped journal entries, retention
//
// # Usage
//
//	// Create collector
//	collector := metrics.NewCollector(cfg, registry)
//
//	// Record a tracked usage event
//	collector.RecordUsage(
//		"gpt-4o", // model
//		1000,     // input tokens
//		500,      // output tokens
//		0.0125,   // cost in USD
//	)
//
//	// Record limit evaluations
//	collector.UpdateUsageRatio("daily", "cost", 0.85)
//	collector.RecordWarning("daily", "cost")
//
// # Prometheus Endpoint
//
// All metrics are exposed via Handler in standard Prometheus format:
//
//	# HELP spendguard_cost_total Total cost in USD by model
//	# TYPE spendguard_cost_total counter
//	spendguard_cost_total{model="gpt-4o"} 12.34
//
// # Custom Histogram Buckets
//
// Histogram buckets default to LLM workload shapes:
//
//	Cost per event: $0.0001 to $5 (configurable via cost_buckets)
//	Tokens per event: 100, 500, 1K, 5K, 10K, 50K, 100K
//
// # Cardinality Management
//
// The model label is capped at 1,000 unique values. Once the cap is
// reached, new model names are aggregated into "other".
package metrics
