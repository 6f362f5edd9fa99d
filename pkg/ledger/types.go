// Package ledger aggregates token usage and cost into time-bucketed
// totals (current day, current month, all time) with crash-durable
// persistence. The ledger is the only component that mutates aggregate
// totals; a successful Commit return guarantees the delta has reached
// the configured backend.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Scope identifies an aggregation window.
type Scope string

const (
	// ScopeDaily is the current calendar day (UTC).
	ScopeDaily Scope = "daily"

	// ScopeMonthly is the current calendar month (UTC).
	ScopeMonthly Scope = "monthly"

	// ScopeAllTime is the unbounded aggregate. As a Reset scope it
	// clears everything, since daily and monthly are subsets of it.
	ScopeAllTime Scope = "all_time"
)

// UsageEvent is one metered API exchange to be committed. Events are
// ephemeral: constructed per call, consumed immediately, never mutated.
// The timestamp is the caller's claim of when the exchange happened;
// bucket selection ignores it (commit-time wall clock decides) but the
// anomaly rule reads it.
type UsageEvent struct {
	// Model is the model identifier the exchange used.
	Model string `json:"model"`

	// InputTokens is the prompt-side token count (non-negative).
	InputTokens int64 `json:"input_tokens"`

	// OutputTokens is the completion-side token count (non-negative).
	OutputTokens int64 `json:"output_tokens"`

	// Timestamp is when the exchange happened, per the caller.
	// Zero means "now".
	Timestamp time.Time `json:"timestamp"`
}

// TotalTokens returns the event's combined token count.
func (e UsageEvent) TotalTokens() int64 {
	return e.InputTokens + e.OutputTokens
}

// Record is the aggregate for one period of one scope. Totals are
// monotonically non-decreasing while the period is current; once the
// period closes the record is immutable history.
type Record struct {
	// PeriodKey selects the bucket: "2006-01-02" for daily records,
	// "2006-01" for monthly records, "all_time" for the unbounded one.
	PeriodKey string `json:"period_key"`

	// InputTokens is the accumulated prompt-side token count.
	InputTokens int64 `json:"input_tokens"`

	// OutputTokens is the accumulated completion-side token count.
	OutputTokens int64 `json:"output_tokens"`

	// Cost is the accumulated cost in USD, exact decimal.
	Cost decimal.Decimal `json:"cost"`

	// Requests is the number of committed events.
	Requests int64 `json:"requests"`

	// StartedAt is when the first event of the period was committed,
	// or when the record was created by reset.
	StartedAt time.Time `json:"started_at"`
}

// TotalTokens returns the record's combined token count.
func (r Record) TotalTokens() int64 {
	return r.InputTokens + r.OutputTokens
}

func (r *Record) add(e UsageEvent, cost decimal.Decimal) {
	r.InputTokens += e.InputTokens
	r.OutputTokens += e.OutputTokens
	r.Cost = r.Cost.Add(cost)
	r.Requests++
}

// Totals is the snapshot of the three current aggregates.
type Totals struct {
	Daily   Record `json:"daily"`
	Monthly Record `json:"monthly"`
	AllTime Record `json:"all_time"`
}

// CommitResult is what Commit returns: the updated totals plus whether
// the event tripped the late-arrival anomaly rule.
type CommitResult struct {
	Totals Totals

	// Anomalous is true when the event's own timestamp belongs to an
	// already-closed period. The usage still lands in the current
	// buckets; the flag reports the discrepancy.
	Anomalous bool
}

// State is the full persisted content of the statistics document.
type State struct {
	// Daily is the current day's record.
	Daily Record `json:"daily"`

	// Monthly is the current month's record.
	Monthly Record `json:"monthly"`

	// AllTime is the unbounded record.
	AllTime Record `json:"all_time"`

	// ClosedDays holds recently closed daily records, newest first,
	// bounded by the ledger's history limit.
	ClosedDays []Record `json:"closed_days,omitempty"`

	// ClosedMonths holds recently closed monthly records, newest first.
	ClosedMonths []Record `json:"closed_months,omitempty"`

	// Anomalies counts late-arriving events observed (see CommitResult).
	Anomalies int64 `json:"anomalies"`

	// UpdatedAt is when the state was last persisted.
	UpdatedAt time.Time `json:"updated_at"`
}

// Backend persists ledger state. Implementations must make Save atomic
// with respect to crashes: a reader must observe either the previous
// document or the new one, never a truncated mix.
type Backend interface {
	// Load reads the persisted state. A missing document yields an
	// empty state, not an error.
	Load() (*State, error)

	// Save durably writes the full state.
	Save(*State) error

	// Close releases backend resources.
	Close() error
}
