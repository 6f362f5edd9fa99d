// Package storage provides ledger state persistence backends.
//
// Three implementations are available:
//
//   - FileBackend: a single JSON statistics document written with
//     temp-then-rename semantics, the default for local deployments.
//   - MemoryBackend: process-lifetime state for tests and ephemeral
//     embedding.
//   - SQLiteBackend: scope/period rows in a SQLite database (pure-Go
//     driver), for deployments preferring a database file over a flat
//     document.
//
// All backends persist monetary values as exact decimal strings.
package storage
