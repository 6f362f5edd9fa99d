// Package tokens converts request and response payloads into token counts
// for a given model identifier. Counting is character-ratio based and
// deterministic, within a few percent of the provider's own tokenizer for
// typical text. When the exact scheme for a model is unknown the counter
// falls back to a default ratio and surfaces the result with lower
// confidence rather than an error, because approximate accounting is
// always preferable to blocking usage.
package tokens

// Confidence levels attached to counting results.
const (
	// ConfidenceExact marks counts taken verbatim from a provider
	// response's usage block.
	ConfidenceExact = 1.0

	// ConfidenceRatio marks counts produced with a model-specific
	// characters-per-token ratio.
	ConfidenceRatio = 0.95

	// ConfidenceDefault marks counts produced with the default ratio
	// because the model has no registered ratio.
	ConfidenceDefault = 0.75
)

// Message is the minimal structured message shape the counter understands:
// a role, text content, and an optional participant name. Chat-completion
// style payloads map onto it directly.
type Message struct {
	Role    string
	Content string
	Name    string
}

// Estimate is a single token count with its confidence.
type Estimate struct {
	// Tokens is the counted number of tokens (never negative).
	Tokens int64

	// Confidence is 0.0–1.0; see the Confidence constants.
	Confidence float64
}

// Usage is the input/output token pair for one API exchange.
type Usage struct {
	// InputTokens counts the prompt side of the exchange.
	InputTokens int64

	// OutputTokens counts the completion side of the exchange.
	OutputTokens int64

	// Confidence is the lowest confidence of the contributing counts.
	Confidence float64
}
