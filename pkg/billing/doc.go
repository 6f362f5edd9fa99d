// Package billing is the engine's front door: it prices LLM usage,
// maintains durable spending aggregates, and enforces spending limits.
//
// # Overview
//
// The Monitor ties the engine's components into one pipeline:
//
//   - pricing: per-model token rates, exact decimal arithmetic
//   - ledger: daily, monthly, and all-time aggregates, durable per commit
//   - thresholds: limit classification (OK, WARNING, EXCEEDED)
//   - journal: asynchronous per-event history (optional)
//   - metrics: Prometheus collection (optional)
//
// # Usage
//
//	cfg, err := config.LoadConfig(path)
//	if err != nil {
//	    return err
//	}
//	monitor, err := billing.Open(cfg)
//	if err != nil {
//	    return err
//	}
//	defer monitor.Close()
//
//	// Record usage after an API call
//	report, err := monitor.Track(ctx, ledger.UsageEvent{
//	    Model:        "gpt-4o",
//	    InputTokens:  1000,
//	    OutputTokens: 500,
//	})
//
//	// Ask before an expensive call
//	pre, err := monitor.CheckBeforeCall(ctx, "gpt-4", 8000, 2000)
//	if !pre.Allowed {
//	    return fmt.Errorf("call would exceed spending limits")
//	}
//
// # Ordering Guarantees
//
// Track commits to the ledger first and notifies afterwards. Callbacks
// always observe state that is already durable, and the hard-limit
// error (ErrThresholdExceeded) surfaces only after the triggering usage
// is recorded: the API call already cost money, and refusing to record
// it would corrupt accounting.
//
// # Callbacks
//
// OnUsage, OnWarning, and OnExceeded handlers run synchronously, in
// registration order, on the goroutine that called Track. A panicking
// handler is caught, logged, and counted; later handlers still run.
// Handlers must not call Track on the same monitor.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Configuration swaps through
// Reload are atomic: a concurrent Track sees either the old snapshot or
// the new one, never a mix.
package billing
