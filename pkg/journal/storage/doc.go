// Package storage provides journal storage backends: an in-memory map
// for tests and a SQLite database for deployments.
package storage
