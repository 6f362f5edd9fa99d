package config

import "time"

// Config is the root configuration structure for SpendGuard. It covers
// the pricing sheet, spending limits, ledger persistence, the usage
// journal, and telemetry settings.
type Config struct {
	// Enabled is the master tracking switch. When false the monitor
	// records nothing and reports come back marked untracked.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Pricing contains the model price sheet and fallback settings.
	Pricing PricingConfig `yaml:"pricing"`

	// Limits contains spending and token limits with the warning ratio
	// and enforcement switch.
	Limits LimitsConfig `yaml:"limits"`

	// Ledger contains usage aggregate persistence settings.
	Ledger LedgerConfig `yaml:"ledger"`

	// Journal contains per-event history settings.
	Journal JournalConfig `yaml:"journal"`

	// Telemetry contains logging and metrics settings.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// PricingConfig contains the model price sheet.
type PricingConfig struct {
	// IncludeDefaults starts the table from the built-in price sheet;
	// entries in Models override matching model identifiers.
	// Default: true
	IncludeDefaults *bool `yaml:"include_defaults"`

	// Models lists price sheet entries. Prices are decimal strings in
	// USD per 1000 tokens, e.g. "0.03".
	Models []ModelPricingConfig `yaml:"models"`

	// FallbackModel, when set, prices events for unconfigured models
	// using this model's entry instead of failing the lookup. The miss
	// is still logged and counted.
	// Default: "" (unset, lookup misses are errors)
	FallbackModel string `yaml:"fallback_model"`
}

// ModelPricingConfig is one price sheet entry. Prices are kept as
// strings in the document so they parse to exact decimals, never
// binary floats.
type ModelPricingConfig struct {
	// Model is the model identifier (unique key, exact match).
	Model string `yaml:"model"`

	// InputPer1K is the cost per 1000 input tokens, a decimal string.
	InputPer1K string `yaml:"input_per_1k"`

	// OutputPer1K is the cost per 1000 output tokens, a decimal string.
	OutputPer1K string `yaml:"output_per_1k"`

	// MaxTokens is the model's context window size, when known.
	MaxTokens int `yaml:"max_tokens"`
}

// LimitsConfig contains spending limits. A zero or empty limit is
// unconfigured: no constraint, never a zero budget.
type LimitsConfig struct {
	// DailyCostLimit caps the current day's cost in USD (decimal string).
	DailyCostLimit string `yaml:"daily_cost_limit"`

	// MonthlyCostLimit caps the current month's cost in USD.
	MonthlyCostLimit string `yaml:"monthly_cost_limit"`

	// DailyTokenLimit caps the current day's token count.
	DailyTokenLimit int64 `yaml:"daily_token_limit"`

	// MonthlyTokenLimit caps the current month's token count.
	MonthlyTokenLimit int64 `yaml:"monthly_token_limit"`

	// WarningRatio is the fraction of a limit at which warnings begin,
	// a decimal string in (0, 1].
	// Default: "0.8"
	WarningRatio string `yaml:"warning_ratio"`

	// EnforceHardLimit makes an exceeded limit block tracking with a
	// typed error. With enforcement off breaches are callback-only.
	// Default: false
	EnforceHardLimit bool `yaml:"enforce_hard_limit"`
}

// LedgerConfig contains usage aggregate persistence settings.
type LedgerConfig struct {
	// Backend selects the statistics store.
	// Options: "file" (JSON document), "sqlite", "memory"
	// Default: "file"
	Backend string `yaml:"backend"`

	// Path is the statistics document location for the file backend.
	// Default: "<config dir>/stats.json"
	Path string `yaml:"path"`

	// SQLitePath is the database location for the sqlite backend.
	// Default: "<config dir>/ledger.db"
	SQLitePath string `yaml:"sqlite_path"`

	// DailyHistory bounds how many closed daily records are retained.
	// Default: 90
	DailyHistory int `yaml:"daily_history"`

	// MonthlyHistory bounds how many closed monthly records are retained.
	// Default: 24
	MonthlyHistory int `yaml:"monthly_history"`

	// AutoSave persists state inside every commit, which is what makes
	// a committed event crash-durable. Turning it off trades that for
	// fewer writes.
	// Default: true
	AutoSave *bool `yaml:"auto_save"`
}

// JournalConfig contains per-event history settings.
type JournalConfig struct {
	// Enabled turns the journal on.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Backend selects the journal store.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains journal database settings.
	SQLite JournalSQLiteConfig `yaml:"sqlite"`

	// Recorder contains async write-behind settings.
	Recorder RecorderConfig `yaml:"recorder"`

	// Retention contains pruning settings.
	Retention RetentionConfig `yaml:"retention"`
}

// JournalSQLiteConfig contains journal database settings.
type JournalSQLiteConfig struct {
	// Path is the journal database location.
	// Default: "<config dir>/journal.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the connection pool ceiling.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the idle connection pool size.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// BusyTimeout is how long a locked database is retried.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RecorderConfig contains async journal recorder settings.
type RecorderConfig struct {
	// Buffer is the async write channel size. A full buffer drops
	// entries rather than block tracking.
	// Default: 1000
	Buffer int `yaml:"buffer"`

	// WriteTimeout bounds a single storage write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RetentionConfig contains journal pruning settings.
type RetentionConfig struct {
	// Days is how long entries are retained. 0 keeps them forever.
	// Default: 90
	Days int `yaml:"days"`

	// MaxEntries caps the journal size. 0 means unlimited.
	// Default: 0
	MaxEntries int64 `yaml:"max_entries"`

	// Schedule is the cron expression for automatic pruning in daemon
	// mode.
	// Default: "0 3 * * *" (daily at 3 AM)
	Schedule string `yaml:"schedule"`

	// ArchiveBeforeDelete exports pruned entries to JSON first.
	// Default: false
	ArchiveBeforeDelete bool `yaml:"archive_before_delete"`

	// ArchivePath is the directory for archive files.
	// Default: "<config dir>/archives/"
	ArchivePath string `yaml:"archive_path"`
}

// TelemetryConfig contains observability settings.
type TelemetryConfig struct {
	// Logging contains logging settings.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls log output.
	// Options: "json", "text"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// ListenAddress is the daemon's metrics listener, "host:port".
	// Empty disables the listener (metrics still collect in-process).
	// Default: ""
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "spendguard"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "" (none)
	Subsystem string `yaml:"subsystem"`

	// CostBuckets defines histogram buckets for per-event cost in USD.
	// Default: [0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0]
	CostBuckets []float64 `yaml:"cost_buckets"`
}

// IsEnabled reports the master switch with its default applied.
func (c *Config) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// IncludesDefaults reports whether the built-in price sheet seeds the
// table, with the default applied.
func (c *PricingConfig) IncludesDefaults() bool {
	return c.IncludeDefaults == nil || *c.IncludeDefaults
}

// AutoSaveEnabled reports the auto-save switch with its default applied.
func (c *LedgerConfig) AutoSaveEnabled() bool {
	return c.AutoSave == nil || *c.AutoSave
}

// JournalEnabled reports the journal switch with its default applied.
func (c *Config) JournalEnabled() bool {
	return c.Journal.Enabled == nil || *c.Journal.Enabled
}

// MetricsEnabled reports the metrics switch with its default applied.
func (c *Config) MetricsEnabled() bool {
	return c.Telemetry.Metrics.IsEnabled()
}

// IsEnabled reports the metrics switch with its default applied.
func (c *MetricsConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}
