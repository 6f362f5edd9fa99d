package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	// Read the file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	// Apply defaults
	ApplyDefaults(&cfg)

	// Validate
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention SPENDGUARD_SECTION_FIELD (e.g., SPENDGUARD_LIMITS_DAILY_COST_LIMIT).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	// First load from file (this already applies defaults)
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Re-validate after overrides
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format SPENDGUARD_SECTION_FIELD. List-valued
// fields (pricing models, cost buckets) have no environment form.
func applyEnvOverrides(cfg *Config) {
	// Master switch
	if val := os.Getenv("SPENDGUARD_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Enabled = &b
		}
	}

	// Pricing overrides
	if val := os.Getenv("SPENDGUARD_PRICING_INCLUDE_DEFAULTS"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Pricing.IncludeDefaults = &b
		}
	}
	if val := os.Getenv("SPENDGUARD_PRICING_FALLBACK_MODEL"); val != "" {
		cfg.Pricing.FallbackModel = val
	}

	// Limits overrides
	if val := os.Getenv("SPENDGUARD_LIMITS_DAILY_COST_LIMIT"); val != "" {
		cfg.Limits.DailyCostLimit = val
	}
	if val := os.Getenv("SPENDGUARD_LIMITS_MONTHLY_COST_LIMIT"); val != "" {
		cfg.Limits.MonthlyCostLimit = val
	}
	if val := os.Getenv("SPENDGUARD_LIMITS_DAILY_TOKEN_LIMIT"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Limits.DailyTokenLimit = i
		}
	}
	if val := os.Getenv("SPENDGUARD_LIMITS_MONTHLY_TOKEN_LIMIT"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Limits.MonthlyTokenLimit = i
		}
	}
	if val := os.Getenv("SPENDGUARD_LIMITS_WARNING_RATIO"); val != "" {
		cfg.Limits.WarningRatio = val
	}
	if val := os.Getenv("SPENDGUARD_LIMITS_ENFORCE_HARD_LIMIT"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Limits.EnforceHardLimit = b
		}
	}

	// Ledger overrides
	if val := os.Getenv("SPENDGUARD_LEDGER_BACKEND"); val != "" {
		cfg.Ledger.Backend = val
	}
	if val := os.Getenv("SPENDGUARD_LEDGER_PATH"); val != "" {
		cfg.Ledger.Path = val
	}
	if val := os.Getenv("SPENDGUARD_LEDGER_SQLITE_PATH"); val != "" {
		cfg.Ledger.SQLitePath = val
	}
	if val := os.Getenv("SPENDGUARD_LEDGER_DAILY_HISTORY"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Ledger.DailyHistory = i
		}
	}
	if val := os.Getenv("SPENDGUARD_LEDGER_MONTHLY_HISTORY"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Ledger.MonthlyHistory = i
		}
	}
	if val := os.Getenv("SPENDGUARD_LEDGER_AUTO_SAVE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Ledger.AutoSave = &b
		}
	}

	// Journal overrides
	if val := os.Getenv("SPENDGUARD_JOURNAL_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Journal.Enabled = &b
		}
	}
	if val := os.Getenv("SPENDGUARD_JOURNAL_BACKEND"); val != "" {
		cfg.Journal.Backend = val
	}
	if val := os.Getenv("SPENDGUARD_JOURNAL_SQLITE_PATH"); val != "" {
		cfg.Journal.SQLite.Path = val
	}
	if val := os.Getenv("SPENDGUARD_JOURNAL_SQLITE_MAX_OPEN_CONNS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Journal.SQLite.MaxOpenConns = i
		}
	}
	if val := os.Getenv("SPENDGUARD_JOURNAL_SQLITE_MAX_IDLE_CONNS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Journal.SQLite.MaxIdleConns = i
		}
	}
	if val := os.Getenv("SPENDGUARD_JOURNAL_SQLITE_BUSY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Journal.SQLite.BusyTimeout = d
		}
	}
	if val := os.Getenv("SPENDGUARD_JOURNAL_RECORDER_BUFFER"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Journal.Recorder.Buffer = i
		}
	}
	if val := os.Getenv("SPENDGUARD_JOURNAL_RECORDER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Journal.Recorder.WriteTimeout = d
		}
	}
	if val := os.Getenv("SPENDGUARD_JOURNAL_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Journal.Retention.Days = i
		}
	}
	if val := os.Getenv("SPENDGUARD_JOURNAL_RETENTION_MAX_ENTRIES"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Journal.Retention.MaxEntries = i
		}
	}
	if val := os.Getenv("SPENDGUARD_JOURNAL_RETENTION_SCHEDULE"); val != "" {
		cfg.Journal.Retention.Schedule = val
	}
	if val := os.Getenv("SPENDGUARD_JOURNAL_RETENTION_ARCHIVE_BEFORE_DELETE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Journal.Retention.ArchiveBeforeDelete = b
		}
	}
	if val := os.Getenv("SPENDGUARD_JOURNAL_RETENTION_ARCHIVE_PATH"); val != "" {
		cfg.Journal.Retention.ArchivePath = val
	}

	// Telemetry overrides
	if val := os.Getenv("SPENDGUARD_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("SPENDGUARD_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("SPENDGUARD_TELEMETRY_LOGGING_ADD_SOURCE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Logging.AddSource = b
		}
	}
	if val := os.Getenv("SPENDGUARD_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = &b
		}
	}
	if val := os.Getenv("SPENDGUARD_TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
	if val := os.Getenv("SPENDGUARD_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
	if val := os.Getenv("SPENDGUARD_TELEMETRY_METRICS_NAMESPACE"); val != "" {
		cfg.Telemetry.Metrics.Namespace = val
	}
	if val := os.Getenv("SPENDGUARD_TELEMETRY_METRICS_SUBSYSTEM"); val != "" {
		cfg.Telemetry.Metrics.Subsystem = val
	}
}
