package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"meterline/spendguard/pkg/pricing"
)

// ErrInvalidConfig is the sentinel all validation failures unwrap to,
// so callers can match with errors.Is without inspecting field detail.
var ErrInvalidConfig = errors.New("invalid configuration")

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "limits.warning_ratio").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Unwrap returns the sentinel error for errors.Is matching.
func (e ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	// Validate pricing configuration
	errs = append(errs, validatePricing(&cfg.Pricing)...)

	// Validate limits configuration
	errs = append(errs, validateLimits(&cfg.Limits)...)

	// Validate ledger configuration
	errs = append(errs, validateLedger(&cfg.Ledger)...)

	// Validate journal configuration
	errs = append(errs, validateJournal(&cfg.Journal)...)

	// Validate telemetry configuration
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// validatePricing validates the price sheet configuration.
func validatePricing(cfg *PricingConfig) []FieldError {
	var errs []FieldError

	seen := make(map[string]bool, len(cfg.Models))
	for i, m := range cfg.Models {
		field := fmt.Sprintf("pricing.models[%d]", i)

		if m.Model == "" {
			errs = append(errs, FieldError{
				Field:   field + ".model",
				Message: "model identifier is required",
			})
		} else if seen[m.Model] {
			errs = append(errs, FieldError{
				Field:   field + ".model",
				Message: fmt.Sprintf("duplicate entry for model %q", m.Model),
			})
		} else {
			seen[m.Model] = true
		}

		errs = append(errs, checkPrice(field+".input_per_1k", m.InputPer1K)...)
		errs = append(errs, checkPrice(field+".output_per_1k", m.OutputPer1K)...)

		if m.MaxTokens < 0 {
			errs = append(errs, FieldError{
				Field:   field + ".max_tokens",
				Message: "max tokens must be non-negative",
			})
		}
	}

	// Validate fallback model resolves in the effective sheet
	if cfg.FallbackModel != "" && !seen[cfg.FallbackModel] {
		known := false
		if cfg.IncludesDefaults() {
			if _, err := pricing.DefaultTable().Lookup(cfg.FallbackModel); err == nil {
				known = true
			}
		}
		if !known {
			errs = append(errs, FieldError{
				Field:   "pricing.fallback_model",
				Message: fmt.Sprintf("model %q has no pricing entry", cfg.FallbackModel),
			})
		}
	}

	return errs
}

// checkPrice validates a decimal price string. Prices must parse exactly
// and must not be negative.
func checkPrice(field, value string) []FieldError {
	if value == "" {
		return []FieldError{{
			Field:   field,
			Message: "price is required",
		}}
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return []FieldError{{
			Field:   field,
			Message: fmt.Sprintf("must be a decimal number, got %q", value),
		}}
	}
	if d.IsNegative() {
		return []FieldError{{
			Field:   field,
			Message: fmt.Sprintf("must be non-negative, got %s", value),
		}}
	}
	return nil
}

// validateLimits validates spending limit configuration.
func validateLimits(cfg *LimitsConfig) []FieldError {
	var errs []FieldError

	// Validate cost limits parse as decimals. Empty means unconfigured.
	errs = append(errs, checkOptionalCost("limits.daily_cost_limit", cfg.DailyCostLimit)...)
	errs = append(errs, checkOptionalCost("limits.monthly_cost_limit", cfg.MonthlyCostLimit)...)

	// Validate token limits are non-negative
	if cfg.DailyTokenLimit < 0 {
		errs = append(errs, FieldError{
			Field:   "limits.daily_token_limit",
			Message: "token limit must be non-negative",
		})
	}
	if cfg.MonthlyTokenLimit < 0 {
		errs = append(errs, FieldError{
			Field:   "limits.monthly_token_limit",
			Message: "token limit must be non-negative",
		})
	}

	// Validate warning ratio is a fraction in (0, 1]
	if cfg.WarningRatio != "" {
		r, err := decimal.NewFromString(cfg.WarningRatio)
		if err != nil {
			errs = append(errs, FieldError{
				Field:   "limits.warning_ratio",
				Message: fmt.Sprintf("must be a decimal number, got %q", cfg.WarningRatio),
			})
		} else if r.LessThanOrEqual(decimal.Zero) || r.GreaterThan(decimal.NewFromInt(1)) {
			errs = append(errs, FieldError{
				Field:   "limits.warning_ratio",
				Message: fmt.Sprintf("must be in (0, 1], got %s", cfg.WarningRatio),
			})
		}
	}

	return errs
}

// checkOptionalCost validates an optional cost limit string. Empty means
// the limit is unconfigured and is not an error.
func checkOptionalCost(field, value string) []FieldError {
	if value == "" {
		return nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return []FieldError{{
			Field:   field,
			Message: fmt.Sprintf("must be a decimal number, got %q", value),
		}}
	}
	if d.IsNegative() {
		return []FieldError{{
			Field:   field,
			Message: fmt.Sprintf("must be non-negative, got %s", value),
		}}
	}
	return nil
}

// validateLedger validates ledger persistence configuration.
func validateLedger(cfg *LedgerConfig) []FieldError {
	var errs []FieldError

	// Validate backend is a known store
	switch cfg.Backend {
	case "file", "sqlite", "memory":
	default:
		errs = append(errs, FieldError{
			Field:   "ledger.backend",
			Message: fmt.Sprintf("unknown backend %q (must be file, sqlite, or memory)", cfg.Backend),
		})
	}

	// Validate backend paths are present
	if cfg.Backend == "file" && cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "ledger.path",
			Message: "path is required for the file backend",
		})
	}
	if cfg.Backend == "sqlite" && cfg.SQLitePath == "" {
		errs = append(errs, FieldError{
			Field:   "ledger.sqlite_path",
			Message: "sqlite path is required for the sqlite backend",
		})
	}

	// Validate history bounds are non-negative
	if cfg.DailyHistory < 0 {
		errs = append(errs, FieldError{
			Field:   "ledger.daily_history",
			Message: "history length must be non-negative",
		})
	}
	if cfg.MonthlyHistory < 0 {
		errs = append(errs, FieldError{
			Field:   "ledger.monthly_history",
			Message: "history length must be non-negative",
		})
	}

	return errs
}

// validateJournal validates journal configuration.
func validateJournal(cfg *JournalConfig) []FieldError {
	var errs []FieldError

	// Validate backend is a known store
	switch cfg.Backend {
	case "sqlite", "memory":
	default:
		errs = append(errs, FieldError{
			Field:   "journal.backend",
			Message: fmt.Sprintf("unknown backend %q (must be sqlite or memory)", cfg.Backend),
		})
	}

	if cfg.Backend == "sqlite" && cfg.SQLite.Path == "" {
		errs = append(errs, FieldError{
			Field:   "journal.sqlite.path",
			Message: "path is required for the sqlite backend",
		})
	}

	// Validate connection pool settings
	if cfg.SQLite.MaxOpenConns < 0 {
		errs = append(errs, FieldError{
			Field:   "journal.sqlite.max_open_conns",
			Message: "connection count must be non-negative",
		})
	}
	if cfg.SQLite.MaxIdleConns < 0 {
		errs = append(errs, FieldError{
			Field:   "journal.sqlite.max_idle_conns",
			Message: "connection count must be non-negative",
		})
	}
	if cfg.SQLite.MaxOpenConns > 0 && cfg.SQLite.MaxIdleConns > cfg.SQLite.MaxOpenConns {
		errs = append(errs, FieldError{
			Field:   "journal.sqlite.max_idle_conns",
			Message: "idle connections must not exceed open connections",
		})
	}
	if cfg.SQLite.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "journal.sqlite.busy_timeout",
			Message: "busy timeout must be non-negative",
		})
	}

	// Validate recorder settings
	if cfg.Recorder.Buffer < 0 {
		errs = append(errs, FieldError{
			Field:   "journal.recorder.buffer",
			Message: "buffer size must be non-negative",
		})
	}
	if cfg.Recorder.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "journal.recorder.write_timeout",
			Message: "write timeout must be non-negative",
		})
	}

	// Validate retention settings
	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "journal.retention.days",
			Message: "retention days must be non-negative",
		})
	}
	if cfg.Retention.MaxEntries < 0 {
		errs = append(errs, FieldError{
			Field:   "journal.retention.max_entries",
			Message: "max entries must be non-negative",
		})
	}
	if cfg.Retention.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "journal.retention.schedule",
				Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Retention.Schedule, err),
			})
		}
	}
	if cfg.Retention.ArchiveBeforeDelete && cfg.Retention.ArchivePath == "" {
		errs = append(errs, FieldError{
			Field:   "journal.retention.archive_path",
			Message: "archive path is required when archiving is enabled",
		})
	}

	return errs
}

// validateTelemetry validates logging and metrics configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	// Validate log level
	switch strings.ToLower(cfg.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown level %q (must be debug, info, warn, or error)", cfg.Logging.Level),
		})
	}

	// Validate log format
	switch strings.ToLower(cfg.Logging.Format) {
	case "", "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown format %q (must be json or text)", cfg.Logging.Format),
		})
	}

	// Validate metrics listener address
	if cfg.Metrics.ListenAddress != "" {
		if _, _, err := net.SplitHostPort(cfg.Metrics.ListenAddress); err != nil {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.listen_address",
				Message: fmt.Sprintf("must be host:port, got %q", cfg.Metrics.ListenAddress),
			})
		}
	}

	// Validate metrics path
	if cfg.Metrics.Path != "" && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: fmt.Sprintf("must start with /, got %q", cfg.Metrics.Path),
		})
	}

	// Validate cost buckets are positive and strictly increasing
	for i, b := range cfg.Metrics.CostBuckets {
		if b <= 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.metrics.cost_buckets[%d]", i),
				Message: fmt.Sprintf("bucket bounds must be positive, got %v", b),
			})
			continue
		}
		if i > 0 && b <= cfg.Metrics.CostBuckets[i-1] {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.metrics.cost_buckets[%d]", i),
				Message: "bucket bounds must be strictly increasing",
			})
		}
	}

	return errs
}
