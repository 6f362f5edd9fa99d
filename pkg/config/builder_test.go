package config

// ConfigBuilder provides a fluent API for building Config instances in tests.
// It starts with default values and allows selective overrides.
type ConfigBuilder struct {
	cfg Config
}

// NewTestConfig creates a new ConfigBuilder with sensible defaults for testing.
// The resulting configuration is valid, keeps every store in memory, and can
// be used immediately.
func NewTestConfig() *ConfigBuilder {
	cfg := Config{}
	ApplyDefaults(&cfg)

	// Tests should never touch the user's home directory.
	cfg.Ledger.Backend = "memory"
	cfg.Journal.Backend = "memory"

	return &ConfigBuilder{cfg: cfg}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return &b.cfg
}

// WithEnabled sets the master tracking switch.
func (b *ConfigBuilder) WithEnabled(enabled bool) *ConfigBuilder {
	b.cfg.Enabled = &enabled
	return b
}

// WithModel adds a price sheet entry.
func (b *ConfigBuilder) WithModel(model, inputPer1K, outputPer1K string) *ConfigBuilder {
	b.cfg.Pricing.Models = append(b.cfg.Pricing.Models, ModelPricingConfig{
		Model:       model,
		InputPer1K:  inputPer1K,
		OutputPer1K: outputPer1K,
	})
	return b
}

// WithFallbackModel sets the pricing fallback model.
func (b *ConfigBuilder) WithFallbackModel(model string) *ConfigBuilder {
	b.cfg.Pricing.FallbackModel = model
	return b
}

// WithIncludeDefaults sets whether the built-in price sheet seeds the table.
func (b *ConfigBuilder) WithIncludeDefaults(include bool) *ConfigBuilder {
	b.cfg.Pricing.IncludeDefaults = &include
	return b
}

// WithDailyCostLimit sets the daily cost limit.
func (b *ConfigBuilder) WithDailyCostLimit(limit string) *ConfigBuilder {
	b.cfg.Limits.DailyCostLimit = limit
	return b
}

// WithMonthlyCostLimit sets the monthly cost limit.
func (b *ConfigBuilder) WithMonthlyCostLimit(limit string) *ConfigBuilder {
	b.cfg.Limits.MonthlyCostLimit = limit
	return b
}

// WithDailyTokenLimit sets the daily token limit.
func (b *ConfigBuilder) WithDailyTokenLimit(limit int64) *ConfigBuilder {
	b.cfg.Limits.DailyTokenLimit = limit
	return b
}

// WithMonthlyTokenLimit sets the monthly token limit.
func (b *ConfigBuilder) WithMonthlyTokenLimit(limit int64) *ConfigBuilder {
	b.cfg.Limits.MonthlyTokenLimit = limit
	return b
}

// WithWarningRatio sets the warning ratio.
func (b *ConfigBuilder) WithWarningRatio(ratio string) *ConfigBuilder {
	b.cfg.Limits.WarningRatio = ratio
	return b
}

// WithEnforceHardLimit sets whether exceeded limits block tracking.
func (b *ConfigBuilder) WithEnforceHardLimit(enforce bool) *ConfigBuilder {
	b.cfg.Limits.EnforceHardLimit = enforce
	return b
}

// WithLedgerBackend sets the ledger backend.
func (b *ConfigBuilder) WithLedgerBackend(backend string) *ConfigBuilder {
	b.cfg.Ledger.Backend = backend
	return b
}

// WithLedgerPath sets the statistics document path and selects the file
// backend.
func (b *ConfigBuilder) WithLedgerPath(path string) *ConfigBuilder {
	b.cfg.Ledger.Backend = "file"
	b.cfg.Ledger.Path = path
	return b
}

// WithAutoSave sets the ledger auto-save switch.
func (b *ConfigBuilder) WithAutoSave(autoSave bool) *ConfigBuilder {
	b.cfg.Ledger.AutoSave = &autoSave
	return b
}

// WithJournalEnabled sets whether the journal records events.
func (b *ConfigBuilder) WithJournalEnabled(enabled bool) *ConfigBuilder {
	b.cfg.Journal.Enabled = &enabled
	return b
}

// WithJournalSQLitePath sets the journal database path and selects the
// sqlite backend.
func (b *ConfigBuilder) WithJournalSQLitePath(path string) *ConfigBuilder {
	b.cfg.Journal.Backend = "sqlite"
	b.cfg.Journal.SQLite.Path = path
	return b
}

// WithRetention sets journal retention bounds.
func (b *ConfigBuilder) WithRetention(days int, maxEntries int64) *ConfigBuilder {
	b.cfg.Journal.Retention.Days = days
	b.cfg.Journal.Retention.MaxEntries = maxEntries
	return b
}

// WithLoggingLevel sets the logging level.
func (b *ConfigBuilder) WithLoggingLevel(level string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Level = level
	return b
}

// WithLoggingFormat sets the logging format.
func (b *ConfigBuilder) WithLoggingFormat(format string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Format = format
	return b
}

// WithMetricsEnabled sets whether metrics are collected.
func (b *ConfigBuilder) WithMetricsEnabled(enabled bool) *ConfigBuilder {
	b.cfg.Telemetry.Metrics.Enabled = &enabled
	return b
}

// MinimalConfig returns a minimal valid configuration for testing.
// This is useful for tests that don't care about most configuration values.
func MinimalConfig() *Config {
	return NewTestConfig().Build()
}
