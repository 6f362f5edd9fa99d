// Package pricing maps model identifiers to per-token prices and computes
// the exact cost of a usage event. All monetary arithmetic uses decimal
// values, never binary floating point, so totals accumulated over many
// small calls carry no rounding drift.
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ModelPricing contains the price sheet entry for a single model.
// Prices are expressed in USD per 1000 tokens, the convention used by
// every published LLM price list.
type ModelPricing struct {
	// Model is the model identifier (unique key, exact match).
	Model string `json:"model"`

	// InputPer1K is the cost per 1000 input (prompt) tokens in USD.
	InputPer1K decimal.Decimal `json:"input_per_1k"`

	// OutputPer1K is the cost per 1000 output (completion) tokens in USD.
	OutputPer1K decimal.Decimal `json:"output_per_1k"`

	// MaxTokens is the model's context window size, when known.
	// Zero means unknown. Informational only; not used in cost math.
	MaxTokens int `json:"max_tokens,omitempty"`
}

// Validate checks that the entry can be registered.
func (p ModelPricing) Validate() error {
	if p.Model == "" {
		return fmt.Errorf("pricing entry has empty model identifier")
	}
	if p.InputPer1K.IsNegative() {
		return fmt.Errorf("model %q has negative input price %s", p.Model, p.InputPer1K)
	}
	if p.OutputPer1K.IsNegative() {
		return fmt.Errorf("model %q has negative output price %s", p.Model, p.OutputPer1K)
	}
	if p.MaxTokens < 0 {
		return fmt.Errorf("model %q has negative max tokens %d", p.Model, p.MaxTokens)
	}
	return nil
}

// ErrModelNotConfigured is returned when a model identifier has no price
// sheet entry. The condition is recoverable: the caller may register an
// entry and retry, or skip cost accounting for the event.
var ErrModelNotConfigured = errors.New("model not configured")

// NotConfiguredError reports a price lookup miss with the model identifier
// that missed. It unwraps to ErrModelNotConfigured.
type NotConfiguredError struct {
	// Model is the identifier that has no pricing entry.
	Model string
}

// Error implements the error interface.
func (e *NotConfiguredError) Error() string {
	return fmt.Sprintf("no pricing configured for model %q", e.Model)
}

// Unwrap returns the sentinel error for errors.Is matching.
func (e *NotConfiguredError) Unwrap() error {
	return ErrModelNotConfigured
}
