package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // SQLite driver

	"meterline/spendguard/pkg/ledger"
)

// Row scopes used by the SQLite backend. Current records use the
// ledger scope names; closed history uses dedicated scopes so the
// primary key (scope, period_key) stays unique across a rollover.
const (
	rowScopeDaily       = "daily"
	rowScopeMonthly     = "monthly"
	rowScopeAllTime     = "all_time"
	rowScopeClosedDay   = "closed_day"
	rowScopeClosedMonth = "closed_month"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS usage_records (
	scope TEXT NOT NULL,
	period_key TEXT NOT NULL,
	input_tokens INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	cost TEXT NOT NULL,
	requests INTEGER NOT NULL,
	started_at INTEGER NOT NULL,
	position INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (scope, period_key)
);

CREATE TABLE IF NOT EXISTS ledger_meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SQLiteBackend persists ledger state as scope/period rows in a SQLite
// database. Costs are stored as exact decimal strings, never floats.
// Saves rewrite the full state in one transaction, which SQLite makes
// atomic; the state is small (three current rows plus bounded history),
// so a full rewrite stays cheap.
type SQLiteBackend struct {
	db        *sql.DB
	dbPath    string
	mu        sync.Mutex
	done      chan struct{}
	closeOnce sync.Once

	insertStmt *sql.Stmt
	metaStmt   *sql.Stmt
}

// SQLiteBackendConfig configures the SQLite ledger backend.
type SQLiteBackendConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds.
	BusyTimeout time.Duration

	// CheckpointInterval is how often to checkpoint the WAL.
	// Default: 5 minutes.
	CheckpointInterval time.Duration
}

// NewSQLiteBackend opens a SQLite ledger backend with default settings.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	return NewSQLiteBackendWithConfig(SQLiteBackendConfig{DBPath: dbPath})
}

// NewSQLiteBackendWithConfig opens a SQLite ledger backend with custom
// configuration.
func NewSQLiteBackendWithConfig(cfg SQLiteBackendConfig) (*SQLiteBackend, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.CheckpointInterval == 0 {
		cfg.CheckpointInterval = 5 * time.Minute
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	b := &SQLiteBackend{
		db:     db,
		dbPath: cfg.DBPath,
		done:   make(chan struct{}),
	}

	b.insertStmt, err = db.Prepare(`
		INSERT INTO usage_records (scope, period_key, input_tokens, output_tokens, cost, requests, started_at, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	b.metaStmt, err = db.Prepare(`
		INSERT INTO ledger_meta (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare meta statement: %w", err)
	}

	go b.checkpointLoop(cfg.CheckpointInterval)

	return b, nil
}

// Load rebuilds ledger state from the stored rows.
func (b *SQLiteBackend) Load() (*ledger.State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state := &ledger.State{}

	rows, err := b.db.Query(`
		SELECT scope, period_key, input_tokens, output_tokens, cost, requests, started_at, position
		FROM usage_records
		ORDER BY scope, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			scope     string
			rec       ledger.Record
			costStr   string
			startedAt int64
			position  int
		)
		if err := rows.Scan(&scope, &rec.PeriodKey, &rec.InputTokens, &rec.OutputTokens,
			&costStr, &rec.Requests, &startedAt, &position); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		rec.Cost, err = decimal.NewFromString(costStr)
		if err != nil {
			return nil, fmt.Errorf("invalid stored cost %q: %w", costStr, err)
		}
		rec.StartedAt = time.Unix(startedAt, 0).UTC()

		switch scope {
		case rowScopeDaily:
			state.Daily = rec
		case rowScopeMonthly:
			state.Monthly = rec
		case rowScopeAllTime:
			state.AllTime = rec
		case rowScopeClosedDay:
			state.ClosedDays = append(state.ClosedDays, rec)
		case rowScopeClosedMonth:
			state.ClosedMonths = append(state.ClosedMonths, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	if err := b.loadMeta(state); err != nil {
		return nil, err
	}
	return state, nil
}

func (b *SQLiteBackend) loadMeta(state *ledger.State) error {
	rows, err := b.db.Query(`SELECT key, value FROM ledger_meta`)
	if err != nil {
		return fmt.Errorf("failed to query meta: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("failed to scan meta: %w", err)
		}
		switch key {
		case "anomalies":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				state.Anomalies = n
			}
		case "updated_at":
			if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
				state.UpdatedAt = ts
			}
		}
	}
	return rows.Err()
}

// Save rewrites the full state in one transaction.
func (b *SQLiteBackend) Save(state *ledger.State) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM usage_records`); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}

	insert := tx.Stmt(b.insertStmt)
	writeRecord := func(scope string, rec ledger.Record, position int) error {
		_, err := insert.Exec(scope, rec.PeriodKey, rec.InputTokens, rec.OutputTokens,
			rec.Cost.String(), rec.Requests, rec.StartedAt.Unix(), position)
		return err
	}

	if err := writeRecord(rowScopeDaily, state.Daily, 0); err != nil {
		return fmt.Errorf("failed to save daily record: %w", err)
	}
	if err := writeRecord(rowScopeMonthly, state.Monthly, 0); err != nil {
		return fmt.Errorf("failed to save monthly record: %w", err)
	}
	if err := writeRecord(rowScopeAllTime, state.AllTime, 0); err != nil {
		return fmt.Errorf("failed to save all-time record: %w", err)
	}
	for i, rec := range state.ClosedDays {
		if err := writeRecord(rowScopeClosedDay, rec, i); err != nil {
			return fmt.Errorf("failed to save closed day %s: %w", rec.PeriodKey, err)
		}
	}
	for i, rec := range state.ClosedMonths {
		if err := writeRecord(rowScopeClosedMonth, rec, i); err != nil {
			return fmt.Errorf("failed to save closed month %s: %w", rec.PeriodKey, err)
		}
	}

	meta := tx.Stmt(b.metaStmt)
	if _, err := meta.Exec("anomalies", strconv.FormatInt(state.Anomalies, 10)); err != nil {
		return fmt.Errorf("failed to save meta: %w", err)
	}
	if _, err := meta.Exec("updated_at", state.UpdatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to save meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit state: %w", err)
	}
	return nil
}

// Close stops the checkpoint loop and closes the database.
// Close is idempotent.
func (b *SQLiteBackend) Close() error {
	var closeErr error

	b.closeOnce.Do(func() {
		close(b.done)

		if b.insertStmt != nil {
			b.insertStmt.Close()
		}
		if b.metaStmt != nil {
			b.metaStmt.Close()
		}
		if b.db != nil {
			_, _ = b.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = b.db.Close()
		}
	})

	return closeErr
}

// checkpointLoop runs periodic WAL checkpoints.
func (b *SQLiteBackend) checkpointLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = b.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-b.done:
			return
		}
	}
}
