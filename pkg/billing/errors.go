package billing

import (
	"errors"
	"fmt"
	"strings"

	"meterline/spendguard/pkg/thresholds"
)

// ErrThresholdExceeded is the sentinel for hard-limit breaches. It is
// returned by Track only when enforcement is on, and only after the
// triggering usage has been durably recorded.
var ErrThresholdExceeded = errors.New("spending threshold exceeded")

// ThresholdError reports which limits were exceeded. It wraps
// ErrThresholdExceeded for errors.Is matching.
type ThresholdError struct {
	// Results holds the EXCEEDED evaluation results, in the evaluator's
	// fixed order.
	Results []thresholds.Result
}

// Error renders the breached limits.
func (e *ThresholdError) Error() string {
	if len(e.Results) == 0 {
		return "spending threshold exceeded"
	}

	parts := make([]string, 0, len(e.Results))
	for _, r := range e.Results {
		parts = append(parts, fmt.Sprintf("%s %s: %s of %s",
			r.Scope, r.Metric, r.Current, r.Limit))
	}
	return "spending threshold exceeded: " + strings.Join(parts, "; ")
}

// Unwrap returns the sentinel so errors.Is(err, ErrThresholdExceeded)
// matches.
func (e *ThresholdError) Unwrap() error {
	return ErrThresholdExceeded
}
