package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values for configuration fields.
const (
	// DefaultDirName is the per-user configuration directory name.
	DefaultDirName = ".spendguard"

	// DefaultConfigFileName is the configuration document name.
	DefaultConfigFileName = "config.yaml"

	// Pricing defaults
	DefaultIncludeDefaults = true

	// Limits defaults
	DefaultWarningRatio = "0.8"

	// Ledger defaults
	DefaultLedgerBackend     = "file"
	DefaultStatsFileName     = "stats.json"
	DefaultLedgerSQLiteName  = "ledger.db"
	DefaultDailyHistory      = 90
	DefaultMonthlyHistory    = 24

	// Journal defaults
	DefaultJournalBackend      = "sqlite"
	DefaultJournalSQLiteName   = "journal.db"
	DefaultJournalMaxOpenConns = 10
	DefaultJournalMaxIdleConns = 5
	DefaultJournalBusyTimeout  = 5 * time.Second
	DefaultRecorderBuffer      = 1000
	DefaultRecorderTimeout     = 5 * time.Second
	DefaultRetentionDays       = 90
	DefaultRetentionSchedule   = "0 3 * * *"
	DefaultArchiveDirName      = "archives"

	// Telemetry defaults
	DefaultLoggingLevel    = "info"
	DefaultLoggingFormat   = "text"
	DefaultMetricsPath     = "/metrics"
	DefaultMetricsNamespace = "spendguard"
)

// DefaultCostBuckets are histogram buckets for per-event cost in USD,
// spanning typical LLM call prices.
var DefaultCostBuckets = []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0}

// DefaultDir returns the per-user configuration directory,
// "~/.spendguard". When the home directory cannot be resolved it falls
// back to ".spendguard" in the working directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDirName
	}
	return filepath.Join(home, DefaultDirName)
}

// DefaultConfigPath returns the default configuration document path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDir(), DefaultConfigFileName)
}

// DefaultConfig returns a configuration with every default applied. It is
// what a monitor runs with when no configuration document exists.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct. It sets
// defaults for any fields that have zero values. Idempotent and safe
// to call multiple times.
func ApplyDefaults(cfg *Config) {
	dir := DefaultDir()
	enabled := true

	if cfg.Enabled == nil {
		v := enabled
		cfg.Enabled = &v
	}

	// Pricing defaults
	if cfg.Pricing.IncludeDefaults == nil {
		v := DefaultIncludeDefaults
		cfg.Pricing.IncludeDefaults = &v
	}

	// Limits defaults
	if cfg.Limits.WarningRatio == "" {
		cfg.Limits.WarningRatio = DefaultWarningRatio
	}

	// Ledger defaults
	if cfg.Ledger.Backend == "" {
		cfg.Ledger.Backend = DefaultLedgerBackend
	}
	if cfg.Ledger.Path == "" {
		cfg.Ledger.Path = filepath.Join(dir, DefaultStatsFileName)
	}
	if cfg.Ledger.SQLitePath == "" {
		cfg.Ledger.SQLitePath = filepath.Join(dir, DefaultLedgerSQLiteName)
	}
	if cfg.Ledger.DailyHistory == 0 {
		cfg.Ledger.DailyHistory = DefaultDailyHistory
	}
	if cfg.Ledger.MonthlyHistory == 0 {
		cfg.Ledger.MonthlyHistory = DefaultMonthlyHistory
	}
	if cfg.Ledger.AutoSave == nil {
		v := enabled
		cfg.Ledger.AutoSave = &v
	}

	// Journal defaults
	if cfg.Journal.Enabled == nil {
		v := enabled
		cfg.Journal.Enabled = &v
	}
	if cfg.Journal.Backend == "" {
		cfg.Journal.Backend = DefaultJournalBackend
	}
	if cfg.Journal.SQLite.Path == "" {
		cfg.Journal.SQLite.Path = filepath.Join(dir, DefaultJournalSQLiteName)
	}
	if cfg.Journal.SQLite.MaxOpenConns == 0 {
		cfg.Journal.SQLite.MaxOpenConns = DefaultJournalMaxOpenConns
	}
	if cfg.Journal.SQLite.MaxIdleConns == 0 {
		cfg.Journal.SQLite.MaxIdleConns = DefaultJournalMaxIdleConns
	}
	if cfg.Journal.SQLite.BusyTimeout == 0 {
		cfg.Journal.SQLite.BusyTimeout = DefaultJournalBusyTimeout
	}
	if cfg.Journal.Recorder.Buffer == 0 {
		cfg.Journal.Recorder.Buffer = DefaultRecorderBuffer
	}
	if cfg.Journal.Recorder.WriteTimeout == 0 {
		cfg.Journal.Recorder.WriteTimeout = DefaultRecorderTimeout
	}
	if cfg.Journal.Retention.Days == 0 {
		cfg.Journal.Retention.Days = DefaultRetentionDays
	}
	if cfg.Journal.Retention.Schedule == "" {
		cfg.Journal.Retention.Schedule = DefaultRetentionSchedule
	}
	if cfg.Journal.Retention.ArchivePath == "" {
		cfg.Journal.Retention.ArchivePath = filepath.Join(dir, DefaultArchiveDirName)
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Enabled == nil {
		v := enabled
		cfg.Telemetry.Metrics.Enabled = &v
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Telemetry.Metrics.CostBuckets) == 0 {
		cfg.Telemetry.Metrics.CostBuckets = DefaultCostBuckets
	}
}
