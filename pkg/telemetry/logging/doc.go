// Package logging provides structured logging for the billing engine.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging with JSON and text formats
//   - Configurable log levels (debug, info, warn, error)
//   - Source location capture for debugging
//
// # Usage
//
//	// Create a logger
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	// Log structured data
//	logger.Info("usage recorded",
//	    "model", "gpt-4o",
//	    "total_tokens", 1250,
//	    "cost", "0.011250",
//	)
//
//	// Attach fixed attributes
//	trackLog := logger.With("component", "monitor")
//	trackLog.Warn("approaching daily cost limit", "ratio", 0.85)
//
// Loggers built from the application configuration come from FromConfig,
// which reads the telemetry.logging section. SetDefault installs the
// logger as the slog default so libraries that log through slog.Default
// share the same output.
//
// # Performance
//
// Level filtering happens before any attribute formatting, so disabled
// levels cost under a microsecond per call.
package logging
