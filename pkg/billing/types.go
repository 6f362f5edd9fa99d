package billing

import (
	"github.com/shopspring/decimal"

	"meterline/spendguard/pkg/ledger"
	"meterline/spendguard/pkg/thresholds"
)

// Report is what Track returns: the event as recorded, its cost, the
// post-commit totals, and every limit finding the event triggered.
type Report struct {
	// Tracked is false when the monitor was disabled and nothing was
	// recorded. All other fields except Event are zero then.
	Tracked bool `json:"tracked"`

	// Event is the usage event as committed.
	Event ledger.UsageEvent `json:"event"`

	// Cost is the exact priced cost of the event in USD.
	Cost decimal.Decimal `json:"cost"`

	// Confidence is the token-count confidence (see pkg/tokens). Counts
	// supplied directly by the caller are exact.
	Confidence float64 `json:"confidence"`

	// Fallback is true when the event was priced with the fallback
	// model's rates because its own model has no pricing entry.
	Fallback bool `json:"fallback"`

	// Anomalous is true when the event's own timestamp belongs to an
	// already-closed accounting period.
	Anomalous bool `json:"anomalous"`

	// Totals is the aggregate snapshot after the commit.
	Totals ledger.Totals `json:"totals"`

	// Findings holds the WARNING and EXCEEDED limit results this commit
	// produced. OK limits are omitted.
	Findings []thresholds.Result `json:"findings,omitempty"`
}

// Preflight is what CheckBeforeCall returns: an admission decision over
// projected totals, with nothing recorded.
type Preflight struct {
	// Allowed is false only when a projected limit is EXCEEDED.
	// Warnings alone never deny admission.
	Allowed bool `json:"allowed"`

	// EstimatedCost is the priced cost of the proposed event in USD.
	EstimatedCost decimal.Decimal `json:"estimated_cost"`

	// Findings holds the WARNING and EXCEEDED results over the
	// projected totals.
	Findings []thresholds.Result `json:"findings,omitempty"`

	// Projected is the totals snapshot as it would look after the
	// proposed event.
	Projected ledger.Totals `json:"projected"`
}

// Summary is the read-only monitor snapshot for status displays.
type Summary struct {
	// Enabled reports the monitor's tracking switch.
	Enabled bool `json:"enabled"`

	// Totals is the current aggregate snapshot.
	Totals ledger.Totals `json:"totals"`

	// Limits classifies every configured limit, including OK ones, in
	// the evaluator's fixed order.
	Limits []thresholds.Result `json:"limits,omitempty"`

	// Anomalies counts late-arriving events observed so far.
	Anomalies int64 `json:"anomalies"`

	// JournalDropped counts journal entries lost to recorder overflow.
	// Zero when no journal is attached.
	JournalDropped int64 `json:"journal_dropped"`
}
