// Package config provides configuration management for SpendGuard.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with comprehensive validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention SPENDGUARD_SECTION_FIELD.
// For example:
//
//   - SPENDGUARD_LIMITS_DAILY_COST_LIMIT overrides limits.daily_cost_limit
//   - SPENDGUARD_LEDGER_BACKEND overrides ledger.backend
//   - SPENDGUARD_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
// List-valued fields (pricing models, histogram buckets) have no environment
// form.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Money Is Strings
//
// Prices and cost limits are written as decimal strings ("0.03", not 0.03)
// and parsed with shopspring/decimal during validation. YAML floats would
// round-trip through binary floating point and tiny per-call prices would
// stop being exact.
//
// # Hot Reload
//
// A Watcher re-loads, re-validates, and hands over a fresh Config when
// the file changes on disk:
//
//	watcher, err := config.NewWatcher(path, config.DefaultDebounceInterval, logger)
//	if err != nil {
//	    return err
//	}
//	go watcher.Watch(ctx, func() error {
//	    next, err := config.LoadConfigWithEnvOverrides(path)
//	    if err != nil {
//	        return err // the previous configuration stays in force
//	    }
//	    return monitor.Reload(next)
//	})
//
// # Validation
//
// All configuration is validated automatically during loading. Validation
// errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - pricing.models[0].input_per_1k: must be a decimal number, got "a lot"
//	  - limits.warning_ratio: must be in (0, 1], got 1.5
//
// All failures unwrap to ErrInvalidConfig for errors.Is matching.
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	limits:
//	  daily_cost_limit: "10.00"
//	  monthly_cost_limit: "200.00"
//	  warning_ratio: "0.8"
//
//	pricing:
//	  fallback_model: "gpt-4o"
//	  models:
//	    - model: "my-fine-tune"
//	      input_per_1k: "0.012"
//	      output_per_1k: "0.024"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//
// # Thread Safety
//
// A loaded Config is never mutated by this package; reload produces a
// new value. Consumers that swap configurations at runtime own their
// synchronization, the way billing.Monitor.Reload swaps an immutable
// snapshot.
package config
