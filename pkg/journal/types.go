package journal

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultLimit is the default number of entries a query returns.
	DefaultLimit = 100

	// MaxLimit caps how many entries a single query may return.
	MaxLimit = 10000
)

// Entry is one recorded usage event. Append-only: once stored it is
// never updated.
type Entry struct {
	// ID is a UUID assigned by the recorder.
	ID string `json:"id"`

	// Model is the model identifier the event was priced under.
	Model string `json:"model"`

	// InputTokens and OutputTokens are the event's token counts.
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`

	// Cost is the exact priced cost of the event.
	Cost decimal.Decimal `json:"cost"`

	// EventTime is the caller's claim of when the exchange happened;
	// zero when the caller supplied none.
	EventTime time.Time `json:"event_time"`

	// RecordedTime is when the entry was committed to the ledger.
	RecordedTime time.Time `json:"recorded_time"`

	// Anomalous marks entries whose EventTime fell in an already
	// closed accounting period.
	Anomalous bool `json:"anomalous"`

	// Note carries context such as "priced via fallback model".
	Note string `json:"note,omitempty"`
}

// TotalTokens returns the combined token count of the entry.
func (e *Entry) TotalTokens() int64 {
	return e.InputTokens + e.OutputTokens
}

// Query filters journal entries. Zero-valued fields are ignored.
// Time filters apply to RecordedTime, the journal's primary axis.
type Query struct {
	// StartTime and EndTime bound RecordedTime (inclusive).
	StartTime *time.Time
	EndTime   *time.Time

	// Model filters by exact model identifier.
	Model string

	// AnomalousOnly restricts to late-event entries.
	AnomalousOnly bool

	// MinCost and MaxCost bound the entry cost.
	MinCost *decimal.Decimal
	MaxCost *decimal.Decimal

	// MinTokens and MaxTokens bound the combined token count.
	MinTokens *int64
	MaxTokens *int64

	// Limit and Offset paginate results.
	Limit  int
	Offset int

	// SortBy is one of recorded_time, event_time, cost, total_tokens.
	SortBy string

	// SortOrder is "asc" or "desc".
	SortOrder string
}

// ValidSortFields are the columns a query may sort by.
var ValidSortFields = map[string]bool{
	"recorded_time": true,
	"event_time":    true,
	"cost":          true,
	"total_tokens":  true,
}

// ValidSortOrders are the accepted sort directions.
var ValidSortOrders = map[string]bool{
	"asc":  true,
	"desc": true,
}

// Validate reports the first invalid query parameter. Sort fields are
// whitelisted because backends interpolate them into SQL.
func (q *Query) Validate() error {
	if q.Limit < 0 {
		return NewQueryError(fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if q.Limit > MaxLimit {
		return NewQueryError(fmt.Errorf("limit must be <= %d, got %d", MaxLimit, q.Limit))
	}
	if q.Offset < 0 {
		return NewQueryError(fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}
	if q.SortBy != "" && !ValidSortFields[q.SortBy] {
		return NewQueryError(fmt.Errorf("invalid sort field: %s", q.SortBy))
	}
	if q.SortOrder != "" && !ValidSortOrders[q.SortOrder] {
		return NewQueryError(fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder))
	}
	if q.StartTime != nil && q.EndTime != nil && q.StartTime.After(*q.EndTime) {
		return NewQueryError(fmt.Errorf("start_time must be before end_time"))
	}
	if q.MinCost != nil && q.MaxCost != nil && q.MinCost.GreaterThan(*q.MaxCost) {
		return NewQueryError(fmt.Errorf("min_cost must be <= max_cost"))
	}
	if q.MinTokens != nil && q.MaxTokens != nil && *q.MinTokens > *q.MaxTokens {
		return NewQueryError(fmt.Errorf("min_tokens must be <= max_tokens"))
	}
	return nil
}

// ApplyDefaults fills in default pagination and sorting.
func (q *Query) ApplyDefaults() {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.SortBy == "" {
		q.SortBy = "recorded_time"
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
}

// Storage persists journal entries.
type Storage interface {
	// Store appends one entry.
	Store(ctx context.Context, entry *Entry) error

	// Query returns entries matching the query filters.
	Query(ctx context.Context, query *Query) ([]*Entry, error)

	// Count returns the number of entries matching the query filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes matching entries and returns how many were removed.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases backend resources.
	Close() error
}

// Exporter writes entries to an output stream in some format.
type Exporter interface {
	Export(ctx context.Context, entries []*Entry, w io.Writer) error
}
