package storage

import (
	"fmt"

	"meterline/spendguard/pkg/config"
	"meterline/spendguard/pkg/journal"
)

// FromConfig builds a journal storage backend from the configuration's
// journal section.
func FromConfig(cfg *config.JournalConfig) (journal.Storage, error) {
	switch cfg.Backend {
	case "sqlite":
		return NewSQLiteStorage(&SQLiteConfig{
			Path:         cfg.SQLite.Path,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.SQLite.MaxIdleConns,
			WALMode:      true,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		})
	case "memory":
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown journal backend %q", cfg.Backend)
	}
}
