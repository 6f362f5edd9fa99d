package pricing

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// Table is a thread-safe model price sheet. Lookups are exact-identifier
// matches; an unknown model is a distinct, typed condition rather than a
// silent zero-cost default. Entries can be registered or overridden at
// runtime, so a configuration reload never requires a restart.
type Table struct {
	mu      sync.RWMutex
	entries map[string]ModelPricing
}

// NewTable creates an empty pricing table.
func NewTable() *Table {
	return &Table{
		entries: make(map[string]ModelPricing),
	}
}

// Register adds or overrides a price sheet entry. Invalid entries
// (empty identifier, negative price) are rejected without mutating
// the table.
func (t *Table) Register(p ModelPricing) error {
	if err := p.Validate(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[p.Model] = p
	return nil
}

// Lookup returns the pricing entry for the exact model identifier.
// A miss returns a NotConfiguredError wrapping ErrModelNotConfigured.
func (t *Table) Lookup(model string) (ModelPricing, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	p, ok := t.entries[model]
	if !ok {
		return ModelPricing{}, &NotConfiguredError{Model: model}
	}
	return p, nil
}

// CostOf computes the exact cost of a usage event:
//
//	inputTokens * input_price/1000 + outputTokens * output_price/1000
//
// The division by 1000 is an exponent shift on the decimal value, so the
// result is exact for any token count. Negative token counts are treated
// as zero.
func (t *Table) CostOf(model string, inputTokens, outputTokens int64) (decimal.Decimal, error) {
	p, err := t.Lookup(model)
	if err != nil {
		return decimal.Zero, err
	}
	return Cost(p, inputTokens, outputTokens), nil
}

// Cost computes the cost of a token pair against a specific entry.
// Exposed so callers holding an entry (fallback pricing, projections)
// can price without a second lookup.
func Cost(p ModelPricing, inputTokens, outputTokens int64) decimal.Decimal {
	if inputTokens < 0 {
		inputTokens = 0
	}
	if outputTokens < 0 {
		outputTokens = 0
	}

	in := p.InputPer1K.Mul(decimal.NewFromInt(inputTokens)).Shift(-3)
	out := p.OutputPer1K.Mul(decimal.NewFromInt(outputTokens)).Shift(-3)
	return in.Add(out)
}

// Models returns a snapshot of all entries sorted by model identifier.
func (t *Table) Models() []ModelPricing {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]ModelPricing, 0, len(t.entries))
	for _, p := range t.entries {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out
}

// Len returns the number of configured models.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Replace swaps the entire price sheet in one step. Used by configuration
// hot-reload so readers see either the old sheet or the new one, never a
// mix. Entries are validated before any mutation; on error the table is
// left unchanged.
func (t *Table) Replace(entries []ModelPricing) error {
	next := make(map[string]ModelPricing, len(entries))
	for _, p := range entries {
		if err := p.Validate(); err != nil {
			return err
		}
		next[p.Model] = p
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = next
	return nil
}
