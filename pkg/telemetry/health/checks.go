package health

import (
	"context"
	"fmt"

	"meterline/spendguard/pkg/journal"
	"meterline/spendguard/pkg/ledger"
)

// LedgerCheck probes the statistics document by flushing current totals
// through the backend. It performs a real write, which is exactly the
// question readiness asks: can usage still be persisted.
func LedgerCheck(led *ledger.Ledger) CheckFunc {
	return func(ctx context.Context) error {
		if err := led.Flush(); err != nil {
			return fmt.Errorf("ledger flush: %w", err)
		}
		return nil
	}
}

// JournalCheck probes the journal store with a one-row count. Read-only.
func JournalCheck(store journal.Storage) CheckFunc {
	return func(ctx context.Context) error {
		if _, err := store.Count(ctx, &journal.Query{Limit: 1}); err != nil {
			return fmt.Errorf("journal count: %w", err)
		}
		return nil
	}
}
