// Package journal provides the append-only usage event history behind
// the ledger's aggregates.
//
// Every tracked exchange becomes one Entry: which model, how many
// tokens in and out, exact cost, when it happened and when it was
// recorded, and whether it arrived late. Entries are queryable,
// exportable, and prunable; losing the journal never affects the
// ledger's totals.
//
// Subpackages:
//   - storage: memory and SQLite backends
//   - recorder: asynchronous write-behind recording
//   - export: JSON and CSV exporters
//   - retention: age/count pruning and its cron schedule
package journal
