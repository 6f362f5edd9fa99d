package tokens

import (
	"fmt"
	"strings"
	"sync"
)

const (
	// defaultCharsPerToken is the ratio used for models without a
	// registered ratio. Four characters per token is the long-standing
	// rule of thumb for English text.
	defaultCharsPerToken = 4.0

	// replyPrimingTokens is the fixed overhead the assistant reply
	// priming adds to a chat exchange.
	replyPrimingTokens = 3
)

// Counter estimates token counts using model-specific characters-per-token
// ratios. It is thread-safe; ratios can be registered at runtime under the
// same lock discipline as pricing registration.
type Counter struct {
	mu     sync.RWMutex
	ratios map[string]float64
}

// NewCounter creates a counter preloaded with ratios for common model
// families.
func NewCounter() *Counter {
	return &Counter{
		ratios: map[string]float64{
			"gpt-4":           4.0,
			"gpt-4o":          4.0,
			"gpt-3.5-turbo":   4.0,
			"claude-3-opus":   3.5,
			"claude-3-sonnet": 3.5,
			"claude-3-haiku":  3.5,
			"gemini-pro":      4.0,
			"qwen":            3.0,
			"deepseek":        3.5,
		},
	}
}

// RegisterRatio adds or overrides the characters-per-token ratio for a
// model or model-family prefix.
func (c *Counter) RegisterRatio(model string, charsPerToken float64) error {
	if model == "" {
		return fmt.Errorf("ratio registration requires a model identifier")
	}
	if charsPerToken <= 0 {
		return fmt.Errorf("model %q: chars-per-token ratio must be positive, got %v", model, charsPerToken)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ratios[model] = charsPerToken
	return nil
}

// Count estimates tokens for a single text payload. Non-empty text counts
// as at least one token. The result's confidence reflects whether a
// model-specific ratio was available.
func (c *Counter) Count(model, text string) Estimate {
	ratio, known := c.ratioFor(model)
	confidence := ConfidenceRatio
	if !known {
		confidence = ConfidenceDefault
	}

	if text == "" {
		return Estimate{Tokens: 0, Confidence: confidence}
	}

	tokens := int64(float64(len(text))/ratio + 0.5)
	if tokens < 1 {
		tokens = 1
	}
	return Estimate{Tokens: tokens, Confidence: confidence}
}

// CountMessages estimates the prompt tokens for a structured message list,
// including the per-message structural overhead and the assistant reply
// priming that chat-completion APIs charge for.
func (c *Counter) CountMessages(model string, msgs []Message) Estimate {
	_, known := c.ratioFor(model)
	confidence := ConfidenceRatio
	if !known {
		confidence = ConfidenceDefault
	}
	if len(msgs) == 0 {
		return Estimate{Tokens: 0, Confidence: confidence}
	}

	perMessage := messageOverhead(model)

	var total int64
	for _, m := range msgs {
		total += perMessage
		total += c.Count(model, m.Role).Tokens
		total += c.Count(model, m.Content).Tokens
		if m.Name != "" {
			total += c.Count(model, m.Name).Tokens + 1
		}
	}
	total += replyPrimingTokens

	return Estimate{Tokens: total, Confidence: confidence}
}

// CountExchange produces the input/output token pair for one exchange:
// the message list on the input side, the response text on the output
// side. The usage confidence is the lower of the two counts.
func (c *Counter) CountExchange(model string, msgs []Message, response string) Usage {
	in := c.CountMessages(model, msgs)
	out := c.Count(model, response)

	confidence := in.Confidence
	if out.Confidence < confidence {
		confidence = out.Confidence
	}

	return Usage{
		InputTokens:  in.Tokens,
		OutputTokens: out.Tokens,
		Confidence:   confidence,
	}
}

// ratioFor resolves the characters-per-token ratio for a model: exact
// match, then longest family-prefix match (so "gpt-4-0613" inherits the
// "gpt-4" ratio), then the default. The boolean reports whether a
// registered ratio was found.
func (c *Counter) ratioFor(model string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if ratio, ok := c.ratios[model]; ok {
		return ratio, true
	}

	bestLen := -1
	bestRatio := 0.0
	for pattern, ratio := range c.ratios {
		if strings.HasPrefix(model, pattern) && len(pattern) > bestLen {
			bestLen = len(pattern)
			bestRatio = ratio
		}
	}
	if bestLen >= 0 {
		return bestRatio, true
	}

	return defaultCharsPerToken, false
}

// messageOverhead returns the structural token overhead charged per
// message. The gpt-3.5-turbo family charges four tokens per message;
// everything else observed charges three.
func messageOverhead(model string) int64 {
	if strings.HasPrefix(model, "gpt-3.5-turbo") {
		return 4
	}
	return 3
}
