package metrics

import (
	"sync"

	"meterline/spendguard/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the main orchestrator for all Prometheus metrics in the
// billing engine. It manages metric registration and provides a unified
// interface for recording metrics across all components.
//
// The collector is designed for minimal overhead on the tracking path:
//   - Pre-allocated metric instances
//   - Cardinality limits on the model label
//   - Histogram buckets sized for LLM costs and token counts
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Usage metrics
	usageMetrics *UsageMetrics

	// Cost metrics
	costMetrics *CostMetrics

	// Limit metrics
	limitMetrics *LimitMetrics

	// Storage metrics
	storageMetrics *StorageMetrics

	// Cardinality tracking for the model label
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a fresh
// registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Namespace: "spendguard",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// Set defaults if not specified
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.CostBuckets) == 0 {
		cfg.CostBuckets = config.DefaultCostBuckets
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(1000), // Max 1K unique model names
	}

	// Initialize metric subsystems
	c.usageMetrics = NewUsageMetrics(cfg, registry)
	c.costMetrics = NewCostMetrics(cfg, registry)
	c.limitMetrics = NewLimitMetrics(cfg, registry)
	c.storageMetrics = NewStorageMetrics(cfg, registry)

	return c
}

// RecordUsage records metrics for a tracked usage event.
//
// Parameters:
//   - model: Model name (e.g., "gpt-4", "gpt-4o-mini")
//   - inputTokens: Prompt token count
//   - outputTokens: Completion token count
//   - costUSD: Event cost in USD
//
// Example:
//
//	collector.RecordUsage("gpt-4o", 1000, 500, 0.0125)
func (c *Collector) RecordUsage(model string, inputTokens, outputTokens int64, costUSD float64) {
	if !c.config.IsEnabled() {
		return
	}

	model = c.boundModel(model)

	c.usageMetrics.RecordEvent(model, inputTokens, outputTokens)
	c.costMetrics.RecordEventCost(model, costUSD)

	if total := inputTokens + outputTokens; total > 0 && costUSD > 0 {
		c.costMetrics.UpdateCostPerToken(model, costUSD/float64(total))
	}
}

// RecordAnomaly records a late-arriving event: one whose own timestamp
// belongs to an already-closed accounting period.
//
// Parameters:
//   - model: Model name
func (c *Collector) RecordAnomaly(model string) {
	if !c.config.IsEnabled() {
		return
	}

	c.usageMetrics.RecordAnomaly(c.boundModel(model))
}

// RecordBlocked records a usage event denied by a pre-call limit check.
//
// Parameters:
//   - model: Model name the caller intended to use
func (c *Collector) RecordBlocked(model string) {
	if !c.config.IsEnabled() {
		return
	}

	c.limitMetrics.RecordBlocked(c.boundModel(model))
}

// RecordPricingFallback records a cost computed with the fallback model's
// pricing because the requested model has no entry of its own.
//
// Parameters:
//   - model: Model name that had no pricing entry
func (c *Collector) RecordPricingFallback(model string) {
	if !c.config.IsEnabled() {
		return
	}

	c.costMetrics.RecordPricingFallback(c.boundModel(model))
}

// UpdateUsageRatio updates the consumed fraction of a configured limit.
//
// Parameters:
//   - scope: Accumulation window ("daily", "monthly")
//   - metric: Limited quantity ("cost", "tokens")
//   - ratio: Consumed fraction of the limit (0.0 to 1.0 and beyond)
//
// Example:
//
//	collector.UpdateUsageRatio("daily", "cost", 0.85)
func (c *Collector) UpdateUsageRatio(scope, metric string, ratio float64) {
	if !c.config.IsEnabled() {
		return
	}

	c.limitMetrics.UpdateUsageRatio(scope, metric, ratio)
}

// RecordWarning records a limit crossing its warning threshold.
//
// Parameters:
//   - scope: Accumulation window ("daily", "monthly")
//   - metric: Limited quantity ("cost", "tokens")
func (c *Collector) RecordWarning(scope, metric string) {
	if !c.config.IsEnabled() {
		return
	}

	c.limitMetrics.RecordWarning(scope, metric)
}

// RecordViolation records a limit being exceeded.
//
// Parameters:
//   - scope: Accumulation window ("daily", "monthly")
//   - metric: Limited quantity ("cost", "tokens")
func (c *Collector) RecordViolation(scope, metric string) {
	if !c.config.IsEnabled() {
		return
	}

	c.limitMetrics.RecordViolation(scope, metric)
}

// RecordCallbackFailure records a registered callback that panicked.
//
// Parameters:
//   - callback: Callback kind ("usage", "warning", "exceeded")
func (c *Collector) RecordCallbackFailure(callback string) {
	if !c.config.IsEnabled() {
		return
	}

	c.limitMetrics.RecordCallbackFailure(callback)
}

// RecordStorageWrite records a persistence attempt.
//
// Parameters:
//   - store: Storage component ("ledger", "journal")
//   - status: Write outcome ("ok", "error")
func (c *Collector) RecordStorageWrite(store, status string) {
	if !c.config.IsEnabled() {
		return
	}

	c.storageMetrics.RecordWrite(store, status)
}

// RecordJournalDrop records a journal entry discarded because the async
// recorder's buffer was full.
func (c *Collector) RecordJournalDrop() {
	if !c.config.IsEnabled() {
		return
	}

	c.storageMetrics.RecordJournalDrop()
}

// RecordRetentionRun records a completed retention sweep.
//
// Parameters:
//   - status: Sweep outcome ("ok", "error")
//   - pruned: Number of journal entries removed
func (c *Collector) RecordRetentionRun(status string, pruned int64) {
	if !c.config.IsEnabled() {
		return
	}

	c.storageMetrics.RecordRetentionRun(status, pruned)
}

// Registry returns the Prometheus registry used by this collector.
// This can be used to create an HTTP handler for the /metrics endpoint:
//
//	http.Handle("/metrics", promhttp.HandlerFor(
//		collector.Registry(),
//		promhttp.HandlerOpts{},
//	))
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// boundModel applies the cardinality limit to a model label value,
// aggregating overflow into "other".
func (c *Collector) boundModel(model string) string {
	if !c.cardinalityLimiter.Allow(model) {
		return "other"
	}
	return model
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the
// specified maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label value is allowed. Returns true if the value
// already exists or if the cardinality limit has not been reached yet.
// Returns false if adding this value would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelValue string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelValue]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelValue]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelValue] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
