// Package thresholds classifies usage totals against configured spending
// limits. Evaluation is a pure function of its inputs with no clocks and
// no stored state, so outcomes are deterministic for any synthetic
// totals a test supplies.
package thresholds

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Scope identifies the aggregation window a limit applies to.
type Scope string

const (
	// ScopeDaily covers the current calendar day.
	ScopeDaily Scope = "daily"

	// ScopeMonthly covers the current calendar month.
	ScopeMonthly Scope = "monthly"
)

// Metric identifies what a limit constrains.
type Metric string

const (
	// MetricCost constrains accumulated cost in USD.
	MetricCost Metric = "cost"

	// MetricTokens constrains accumulated token count.
	MetricTokens Metric = "tokens"
)

// Status classifies a limit's standing. Within one period the progression
// is OK → WARNING → EXCEEDED and never regresses, because totals only
// grow; rollover to a new period starts again at OK.
type Status string

const (
	// StatusOK means the limit is configured and comfortably clear.
	StatusOK Status = "ok"

	// StatusWarning means usage has crossed the warning fraction of the
	// limit but not the limit itself.
	StatusWarning Status = "warning"

	// StatusExceeded means usage has reached or passed the limit.
	StatusExceeded Status = "exceeded"
)

// DefaultWarningRatio is the warning fraction applied when the
// configuration does not set one.
var DefaultWarningRatio = decimal.RequireFromString("0.8")

// Limits is the configured set of constraints. A zero-valued limit is
// unconfigured and skipped entirely: absence means "no constraint",
// never "zero budget".
type Limits struct {
	// DailyCost caps the current day's accumulated cost in USD.
	DailyCost decimal.Decimal

	// MonthlyCost caps the current month's accumulated cost in USD.
	MonthlyCost decimal.Decimal

	// DailyTokens caps the current day's accumulated token count.
	DailyTokens int64

	// MonthlyTokens caps the current month's accumulated token count.
	MonthlyTokens int64

	// WarningRatio is the fraction of a limit at which WARNING begins,
	// in (0,1]. Zero means DefaultWarningRatio.
	WarningRatio decimal.Decimal

	// EnforceHardLimit selects whether an EXCEEDED result blocks the
	// call (typed error) or is reported through callbacks only. Read by
	// the monitor, not by evaluation.
	EnforceHardLimit bool
}

// Configured reports whether at least one limit is set.
func (l Limits) Configured() bool {
	return l.DailyCost.IsPositive() || l.MonthlyCost.IsPositive() ||
		l.DailyTokens > 0 || l.MonthlyTokens > 0
}

// Totals is the evaluator's read-only view of current-period usage.
type Totals struct {
	DailyCost     decimal.Decimal
	MonthlyCost   decimal.Decimal
	DailyTokens   int64
	MonthlyTokens int64
}

// Result reports one limit's classification. Current and Limit are
// decimals for both metrics; token counts convert exactly.
type Result struct {
	Scope   Scope           `json:"scope"`
	Metric  Metric          `json:"metric"`
	Status  Status          `json:"status"`
	Current decimal.Decimal `json:"current"`
	Limit   decimal.Decimal `json:"limit"`
}

// Percent returns the display-quality utilization percentage. Exactness
// does not matter here; the decimal comparisons in Classify decide the
// actual classification.
func (r Result) Percent() float64 {
	if !r.Limit.IsPositive() {
		return 0
	}
	f, _ := r.Current.Div(r.Limit).Mul(decimal.NewFromInt(100)).Float64()
	return f
}

// String renders a result for logs and CLI output.
func (r Result) String() string {
	return fmt.Sprintf("%s %s %s: %s of %s (%.1f%%)",
		r.Scope, r.Metric, r.Status, r.Current, r.Limit, r.Percent())
}

// Classify places a single current value against a single limit. The
// comparison multiplies the limit by the warning ratio instead of
// dividing the current value, so classification at the boundary is an
// exact decimal comparison with no rounding.
func Classify(current, limit, warningRatio decimal.Decimal) Status {
	if current.GreaterThanOrEqual(limit) {
		return StatusExceeded
	}
	if current.GreaterThanOrEqual(limit.Mul(warningRatio)) {
		return StatusWarning
	}
	return StatusOK
}

// Evaluate classifies every configured limit and returns a result for
// each one that is breached or nearing breach (WARNING or EXCEEDED).
// Results are independent: a daily and a monthly breach each appear, and
// no result suppresses another. OK limits produce nothing; see
// EvaluateAll for the display-oriented variant.
func Evaluate(totals Totals, limits Limits) []Result {
	var out []Result
	for _, r := range EvaluateAll(totals, limits) {
		if r.Status != StatusOK {
			out = append(out, r)
		}
	}
	return out
}

// EvaluateAll classifies every configured limit, including OK ones, in a
// fixed order (daily cost, monthly cost, daily tokens, monthly tokens).
// Status summaries and utilization gauges want the full picture;
// admission and enforcement want Evaluate.
func EvaluateAll(totals Totals, limits Limits) []Result {
	ratio := limits.WarningRatio
	if !ratio.IsPositive() {
		ratio = DefaultWarningRatio
	}

	var out []Result

	if limits.DailyCost.IsPositive() {
		out = append(out, Result{
			Scope:   ScopeDaily,
			Metric:  MetricCost,
			Status:  Classify(totals.DailyCost, limits.DailyCost, ratio),
			Current: totals.DailyCost,
			Limit:   limits.DailyCost,
		})
	}
	if limits.MonthlyCost.IsPositive() {
		out = append(out, Result{
			Scope:   ScopeMonthly,
			Metric:  MetricCost,
			Status:  Classify(totals.MonthlyCost, limits.MonthlyCost, ratio),
			Current: totals.MonthlyCost,
			Limit:   limits.MonthlyCost,
		})
	}
	if limits.DailyTokens > 0 {
		out = append(out, Result{
			Scope:   ScopeDaily,
			Metric:  MetricTokens,
			Status:  Classify(decimal.NewFromInt(totals.DailyTokens), decimal.NewFromInt(limits.DailyTokens), ratio),
			Current: decimal.NewFromInt(totals.DailyTokens),
			Limit:   decimal.NewFromInt(limits.DailyTokens),
		})
	}
	if limits.MonthlyTokens > 0 {
		out = append(out, Result{
			Scope:   ScopeMonthly,
			Metric:  MetricTokens,
			Status:  Classify(decimal.NewFromInt(totals.MonthlyTokens), decimal.NewFromInt(limits.MonthlyTokens), ratio),
			Current: decimal.NewFromInt(totals.MonthlyTokens),
			Limit:   decimal.NewFromInt(limits.MonthlyTokens),
		})
	}

	return out
}

// Exceeded reports whether any result in the set is EXCEEDED.
func Exceeded(results []Result) bool {
	for _, r := range results {
		if r.Status == StatusExceeded {
			return true
		}
	}
	return false
}
