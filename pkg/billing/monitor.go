package billing

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"

	"meterline/spendguard/pkg/config"
	"meterline/spendguard/pkg/journal"
	"meterline/spendguard/pkg/journal/recorder"
	"meterline/spendguard/pkg/ledger"
	"meterline/spendguard/pkg/pricing"
	"meterline/spendguard/pkg/telemetry/metrics"
	"meterline/spendguard/pkg/thresholds"
	"meterline/spendguard/pkg/tokens"
)

// Monitor is the engine's front door: it prices usage events, commits
// them to the ledger, evaluates spending limits, notifies callbacks, and
// journals per-event history.
//
// All methods are safe for concurrent use. Configuration (pricing,
// limits, fallback model) lives in an atomically swapped snapshot, so a
// Reload never tears a Track in half: every operation runs entirely
// against the snapshot it started with.
//
// # Example
//
//	monitor, err := billing.New(billing.Config{
//	    Pricing: pricing.DefaultTable(),
//	    Limits:  thresholds.Limits{DailyCost: decimal.RequireFromString("10.00")},
//	    Ledger:  led,
//	})
//	if err != nil {
//	    return err
//	}
//	defer monitor.Close()
//
//	report, err := monitor.Track(ctx, ledger.UsageEvent{
//	    Model:        "gpt-4o",
//	    InputTokens:  1000,
//	    OutputTokens: 500,
//	})
type Monitor struct {
	snap    atomic.Pointer[snapshot]
	enabled atomic.Bool

	ledger  *ledger.Ledger
	counter *tokens.Counter
	journal *recorder.Recorder
	metrics *metrics.Collector
	logger  *slog.Logger

	// journalStore is set only when Open owns the journal storage; it
	// is closed after the recorder drains.
	journalStore journal.Storage

	cbMu       sync.RWMutex
	onUsage    []func(*Report)
	onWarning  []func(thresholds.Result)
	onExceeded []func(thresholds.Result)
}

// snapshot is the immutable configuration view one operation runs
// against. Reload replaces the whole snapshot; nothing mutates it.
type snapshot struct {
	table    *pricing.Table
	limits   thresholds.Limits
	fallback string
}

// Config assembles a Monitor from its collaborators.
type Config struct {
	// Pricing is the model price sheet. Required.
	Pricing *pricing.Table

	// Limits is the configured set of spending constraints.
	Limits thresholds.Limits

	// FallbackModel prices events whose model has no entry of its own.
	// Empty disables fallback pricing.
	FallbackModel string

	// Ledger holds the aggregates. Required.
	Ledger *ledger.Ledger

	// Counter estimates token counts for payload-only tracking.
	// Defaults to tokens.NewCounter.
	Counter *tokens.Counter

	// Journal receives one entry per tracked event. Optional.
	Journal *recorder.Recorder

	// Metrics receives usage, cost, and limit metrics. Optional.
	Metrics *metrics.Collector
}

// New creates a monitor. It starts enabled; use SetEnabled to pause
// tracking at runtime.
func New(cfg Config) (*Monitor, error) {
	if cfg.Pricing == nil {
		return nil, errors.New("billing: pricing table is required")
	}
	if cfg.Ledger == nil {
		return nil, errors.New("billing: ledger is required")
	}
	if cfg.Counter == nil {
		cfg.Counter = tokens.NewCounter()
	}

	m := &Monitor{
		ledger:  cfg.Ledger,
		counter: cfg.Counter,
		journal: cfg.Journal,
		metrics: cfg.Metrics,
		logger:  slog.Default().With("component", "billing.monitor"),
	}
	m.snap.Store(&snapshot{
		table:    cfg.Pricing,
		limits:   cfg.Limits,
		fallback: cfg.FallbackModel,
	})
	m.enabled.Store(true)

	return m, nil
}

// Track runs the full accounting pipeline for one usage event: price,
// commit to the ledger, evaluate limits, update metrics, journal, and
// notify callbacks. The returned Report carries the post-commit totals
// and any limit findings.
//
// When the event's model has no pricing entry and no fallback model is
// configured, Track returns pricing.ErrModelNotConfigured before any
// state changes; the caller may RegisterModel and retry.
//
// When enforcement is on and a limit comes out EXCEEDED, Track returns
// ErrThresholdExceeded together with a valid Report: the call already
// cost money, so the usage is committed and callbacks fire before the
// error surfaces. A persistence failure is returned as-is; the ledger
// retains the delta in memory and re-persists on the next commit.
func (m *Monitor) Track(ctx context.Context, event ledger.UsageEvent) (*Report, error) {
	return m.track(ctx, event, tokens.ConfidenceExact)
}

// TrackResponse tracks a chat-completion exchange. The response's usage
// block is authoritative when present; otherwise the response content is
// counted with the model's ratio and the report carries the estimate's
// confidence.
func (m *Monitor) TrackResponse(ctx context.Context, model string, resp *openai.ChatCompletionResponse) (*Report, error) {
	usage, ok := tokens.FromResponse(resp)
	if !ok {
		est := m.counter.Count(model, tokens.ContentFromResponse(resp))
		usage = tokens.Usage{OutputTokens: est.Tokens, Confidence: est.Confidence}
	}

	return m.track(ctx, ledger.UsageEvent{
		Model:        model,
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
	}, usage.Confidence)
}

func (m *Monitor) track(ctx context.Context, event ledger.UsageEvent, confidence float64) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !m.enabled.Load() {
		return &Report{Tracked: false, Event: event, Confidence: confidence}, nil
	}

	snap := m.snap.Load()

	cost, usedFallback, err := snap.price(event.Model, event.InputTokens, event.OutputTokens)
	if err != nil {
		return nil, err
	}

	result, err := m.ledger.Commit(event, cost)
	if err != nil {
		if m.metrics != nil {
			m.metrics.RecordStorageWrite("ledger", "error")
		}
		m.logger.Error("ledger commit failed", "model", event.Model, "error", err)
		return nil, err
	}
	if m.metrics != nil {
		m.metrics.RecordStorageWrite("ledger", "ok")
		m.metrics.RecordUsage(event.Model, event.InputTokens, event.OutputTokens, cost.InexactFloat64())
	}

	if usedFallback {
		if m.metrics != nil {
			m.metrics.RecordPricingFallback(event.Model)
		}
		m.logger.Warn("model has no pricing entry, priced via fallback",
			"model", event.Model,
			"fallback", snap.fallback,
		)
	}
	if result.Anomalous {
		if m.metrics != nil {
			m.metrics.RecordAnomaly(event.Model)
		}
		m.logger.Warn("late event landed in current period",
			"model", event.Model,
			"event_time", event.Timestamp,
		)
	}

	all := thresholds.EvaluateAll(totalsFrom(result.Totals), snap.limits)
	findings := nonOK(all)
	m.publishEvaluation(all, findings)

	if m.journal != nil {
		note := ""
		if usedFallback {
			note = "priced via fallback model " + snap.fallback
		}
		m.journal.Record(&journal.Entry{
			Model:        event.Model,
			InputTokens:  event.InputTokens,
			OutputTokens: event.OutputTokens,
			Cost:         cost,
			EventTime:    event.Timestamp,
			Anomalous:    result.Anomalous,
			Note:         note,
		})
	}

	report := &Report{
		Tracked:    true,
		Event:      event,
		Cost:       cost,
		Confidence: confidence,
		Fallback:   usedFallback,
		Anomalous:  result.Anomalous,
		Totals:     result.Totals,
		Findings:   findings,
	}

	m.notify(report, findings)

	if snap.limits.EnforceHardLimit {
		if exceeded := exceededOf(findings); len(exceeded) > 0 {
			return report, &ThresholdError{Results: exceeded}
		}
	}

	return report, nil
}

// CheckBeforeCall prices a proposed event and evaluates limits over
// projected totals without recording anything. Allowed is false only
// when a projected limit is EXCEEDED; warnings are reported but do not
// deny admission. No callbacks fire.
//
// When the monitor is disabled the check always admits, with the
// estimated cost still filled in.
func (m *Monitor) CheckBeforeCall(ctx context.Context, model string, estimatedInput, estimatedOutput int64) (*Preflight, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := m.snap.Load()

	cost, _, err := snap.price(model, estimatedInput, estimatedOutput)
	if err != nil {
		return nil, err
	}

	if !m.enabled.Load() {
		return &Preflight{Allowed: true, EstimatedCost: cost}, nil
	}

	projected := m.ledger.Project(ledger.UsageEvent{
		Model:        model,
		InputTokens:  estimatedInput,
		OutputTokens: estimatedOutput,
	}, cost)

	findings := nonOK(thresholds.EvaluateAll(totalsFrom(projected), snap.limits))
	allowed := !thresholds.Exceeded(findings)
	if !allowed {
		if m.metrics != nil {
			m.metrics.RecordBlocked(model)
		}
		m.logger.Info("pre-call check denied", "model", model, "estimated_cost", cost)
	}

	return &Preflight{
		Allowed:       allowed,
		EstimatedCost: cost,
		Findings:      findings,
		Projected:     projected,
	}, nil
}

// EstimateCost prices a hypothetical event. Pure arithmetic: nothing is
// recorded and no limits are evaluated. The fallback model applies the
// same way it does during tracking, so estimates match tracked costs.
func (m *Monitor) EstimateCost(model string, inputTokens, outputTokens int64) (decimal.Decimal, error) {
	cost, _, err := m.snap.Load().price(model, inputTokens, outputTokens)
	return cost, err
}

// RegisterModel adds or updates a pricing entry at runtime. The entry
// survives until the next Reload replaces the price sheet.
func (m *Monitor) RegisterModel(p pricing.ModelPricing) error {
	if err := m.snap.Load().table.Register(p); err != nil {
		return err
	}
	m.logger.Info("pricing entry registered", "model", p.Model)
	return nil
}

// OnUsage registers a handler invoked after every successful commit.
// Handlers run synchronously in registration order.
func (m *Monitor) OnUsage(h func(*Report)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.onUsage = append(m.onUsage, h)
}

// OnWarning registers a handler invoked once per WARNING finding.
func (m *Monitor) OnWarning(h func(thresholds.Result)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.onWarning = append(m.onWarning, h)
}

// OnExceeded registers a handler invoked once per EXCEEDED finding,
// regardless of whether enforcement is on.
func (m *Monitor) OnExceeded(h func(thresholds.Result)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.onExceeded = append(m.onExceeded, h)
}

// Summary returns a read-only snapshot for status displays: totals,
// every configured limit's standing, the anomaly count, and the
// tracking switch.
func (m *Monitor) Summary() *Summary {
	totals := m.ledger.Snapshot()
	snap := m.snap.Load()

	s := &Summary{
		Enabled:   m.enabled.Load(),
		Totals:    totals,
		Limits:    thresholds.EvaluateAll(totalsFrom(totals), snap.limits),
		Anomalies: m.ledger.Anomalies(),
	}
	if m.journal != nil {
		s.JournalDropped = m.journal.Dropped()
	}
	return s
}

// Reset clears the given scope's aggregates. Resetting all_time clears
// everything.
func (m *Monitor) Reset(scope ledger.Scope) error {
	if err := m.ledger.Reset(scope); err != nil {
		return err
	}
	m.logger.Info("usage reset", "scope", scope)
	return nil
}

// SetEnabled toggles tracking. While disabled, Track records nothing
// and returns untracked reports; CheckBeforeCall always admits.
func (m *Monitor) SetEnabled(enabled bool) {
	if m.enabled.Swap(enabled) != enabled {
		m.logger.Info("tracking switch changed", "enabled", enabled)
	}
}

// Enabled reports the tracking switch.
func (m *Monitor) Enabled() bool {
	return m.enabled.Load()
}

// Reload swaps pricing, limits, the fallback model, and the enabled
// switch from a validated configuration. The swap is atomic: in-flight
// operations finish against the snapshot they started with, and
// operations that start after Reload returns see only the new one.
func (m *Monitor) Reload(cfg *config.Config) error {
	if err := config.Validate(cfg); err != nil {
		return err
	}

	snap := &snapshot{
		table:    cfg.Pricing.PricingTable(),
		limits:   cfg.Limits.Limits(),
		fallback: cfg.Pricing.FallbackModel,
	}
	m.snap.Store(snap)
	m.SetEnabled(cfg.IsEnabled())

	m.logger.Info("configuration reloaded",
		"models", snap.table.Len(),
		"enforce_hard_limit", snap.limits.EnforceHardLimit,
	)
	return nil
}

// Close flushes and closes the journal recorder, any journal storage
// the monitor owns, and the ledger. The monitor must not be used
// afterwards.
func (m *Monitor) Close() error {
	var errs []error
	if m.journal != nil {
		if err := m.journal.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if m.journalStore != nil {
		if err := m.journalStore.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := m.ledger.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// JournalStorage returns the journal storage the monitor owns, or nil.
// The daemon reads it for retention sweeps and health checks; tracking
// itself goes through the recorder.
func (m *Monitor) JournalStorage() journal.Storage {
	return m.journalStore
}

// Ledger returns the underlying usage ledger. The daemon probes it for
// readiness; library callers normally stay on Summary.
func (m *Monitor) Ledger() *ledger.Ledger {
	return m.ledger
}

// price computes an event's cost, consulting the fallback model when
// the event's own model has no entry. The second result reports whether
// fallback pricing was used.
func (s *snapshot) price(model string, inputTokens, outputTokens int64) (decimal.Decimal, bool, error) {
	cost, err := s.table.CostOf(model, inputTokens, outputTokens)
	if err == nil {
		return cost, false, nil
	}
	if s.fallback != "" && errors.Is(err, pricing.ErrModelNotConfigured) {
		if cost, ferr := s.table.CostOf(s.fallback, inputTokens, outputTokens); ferr == nil {
			return cost, true, nil
		}
	}
	return decimal.Decimal{}, false, err
}

// notify fires usage handlers, then one warning or exceeded handler
// call per finding, all synchronously in registration order. A panic in
// one handler is caught and logged; later handlers still run.
func (m *Monitor) notify(report *Report, findings []thresholds.Result) {
	m.cbMu.RLock()
	onUsage := m.onUsage
	onWarning := m.onWarning
	onExceeded := m.onExceeded
	m.cbMu.RUnlock()

	for _, h := range onUsage {
		m.invoke("usage", func() { h(report) })
	}
	for _, f := range findings {
		switch f.Status {
		case thresholds.StatusWarning:
			for _, h := range onWarning {
				m.invoke("warning", func() { h(f) })
			}
		case thresholds.StatusExceeded:
			for _, h := range onExceeded {
				m.invoke("exceeded", func() { h(f) })
			}
		}
	}
}

func (m *Monitor) invoke(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if m.metrics != nil {
				m.metrics.RecordCallbackFailure(kind)
			}
			m.logger.Error("callback panicked", "callback", kind, "panic", r)
		}
	}()
	fn()
}

// publishEvaluation pushes utilization gauges for every configured
// limit and counts the warning and exceeded findings.
func (m *Monitor) publishEvaluation(all, findings []thresholds.Result) {
	if m.metrics == nil {
		return
	}
	for _, r := range all {
		m.metrics.UpdateUsageRatio(string(r.Scope), string(r.Metric), r.Percent()/100)
	}
	for _, r := range findings {
		switch r.Status {
		case thresholds.StatusWarning:
			m.metrics.RecordWarning(string(r.Scope), string(r.Metric))
		case thresholds.StatusExceeded:
			m.metrics.RecordViolation(string(r.Scope), string(r.Metric))
		}
	}
}

// totalsFrom converts a ledger snapshot into the evaluator's view.
func totalsFrom(t ledger.Totals) thresholds.Totals {
	return thresholds.Totals{
		DailyCost:     t.Daily.Cost,
		MonthlyCost:   t.Monthly.Cost,
		DailyTokens:   t.Daily.TotalTokens(),
		MonthlyTokens: t.Monthly.TotalTokens(),
	}
}

// nonOK filters an evaluation down to its WARNING and EXCEEDED results.
func nonOK(results []thresholds.Result) []thresholds.Result {
	var out []thresholds.Result
	for _, r := range results {
		if r.Status != thresholds.StatusOK {
			out = append(out, r)
		}
	}
	return out
}

// exceededOf filters findings down to EXCEEDED results.
func exceededOf(findings []thresholds.Result) []thresholds.Result {
	var out []thresholds.Result
	for _, r := range findings {
		if r.Status == thresholds.StatusExceeded {
			out = append(out, r)
		}
	}
	return out
}
