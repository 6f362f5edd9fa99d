package storage

import (
	"fmt"

	"meterline/spendguard/pkg/config"
	"meterline/spendguard/pkg/ledger"
)

// FromConfig builds a ledger backend from the configuration's ledger
// section. The backend name has already been validated; an unknown name
// here still fails rather than guess.
func FromConfig(cfg *config.LedgerConfig) (ledger.Backend, error) {
	switch cfg.Backend {
	case "file":
		return NewFileBackend(cfg.Path)
	case "sqlite":
		return NewSQLiteBackend(cfg.SQLitePath)
	case "memory":
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}
