package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"meterline/spendguard/pkg/journal"
)

// SQLiteConfig contains configuration for the SQLite journal backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/journal.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements journal.Storage using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage creates a new SQLite journal backend.
// It initializes the database schema and enables WAL mode if configured.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "journal.storage.sqlite")

	if dir := filepath.Dir(config.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, journal.NewStorageError("sqlite", "mkdir", err)
		}
	}

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, journal.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("journal storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

// initialize sets up the database schema and enables WAL mode.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return journal.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return journal.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return journal.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return journal.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return journal.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return journal.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// Store appends one journal entry.
func (s *SQLiteStorage) Store(ctx context.Context, entry *journal.Entry) error {
	if entry == nil {
		return journal.NewStorageError("sqlite", "store", fmt.Errorf("entry cannot be nil"))
	}
	if entry.ID == "" {
		return journal.NewStorageError("sqlite", "store", fmt.Errorf("entry id cannot be empty"))
	}

	costValue, _ := entry.Cost.Float64()

	var note interface{}
	if entry.Note != "" {
		note = entry.Note
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal (
			id, model, input_tokens, output_tokens, total_tokens,
			cost, cost_value, event_time, recorded_time, anomalous, note
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID, entry.Model, entry.InputTokens, entry.OutputTokens, entry.TotalTokens(),
		entry.Cost.String(), costValue, entry.EventTime, entry.RecordedTime, entry.Anomalous, note,
	)
	if err != nil {
		return journal.NewStorageError("sqlite", "store", err)
	}
	return nil
}

// Query retrieves entries matching the query filters.
func (s *SQLiteStorage) Query(ctx context.Context, query *journal.Query) ([]*journal.Entry, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	query.ApplyDefaults()

	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT id, model, input_tokens, output_tokens, cost, event_time, recorded_time, anomalous, note FROM journal"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}
	sqlQuery += fmt.Sprintf(" ORDER BY %s %s", sortColumn(query.SortBy), sortDirection(query.SortOrder))
	sqlQuery += fmt.Sprintf(" LIMIT %d", query.Limit)
	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, journal.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	entries := []*journal.Entry{}
	for rows.Next() {
		entry, err := scanRow(rows)
		if err != nil {
			return nil, journal.NewStorageError("sqlite", "scan", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, journal.NewStorageError("sqlite", "query", err)
	}

	return entries, nil
}

// Count returns the number of entries matching the query filters.
func (s *SQLiteStorage) Count(ctx context.Context, query *journal.Query) (int64, error) {
	if err := query.Validate(); err != nil {
		return 0, err
	}

	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT COUNT(*) FROM journal"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, journal.NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete removes entries matching the query filters.
// Returns the number of entries deleted.
func (s *SQLiteStorage) Delete(ctx context.Context, query *journal.Query) (int64, error) {
	if err := query.Validate(); err != nil {
		return 0, err
	}

	whereClause, args := buildWhereClause(query)

	sqlQuery := "DELETE FROM journal"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return 0, journal.NewStorageError("sqlite", "delete", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, journal.NewStorageError("sqlite", "delete", err)
	}
	return count, nil
}

// Close releases resources held by the storage backend.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return journal.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("journal storage closed")
	return nil
}

// buildWhereClause builds a SQL WHERE clause from query filters.
// Returns the clause (without "WHERE") and the query arguments.
func buildWhereClause(query *journal.Query) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if query.StartTime != nil {
		conditions = append(conditions, "recorded_time >= ?")
		args = append(args, *query.StartTime)
	}
	if query.EndTime != nil {
		conditions = append(conditions, "recorded_time <= ?")
		args = append(args, *query.EndTime)
	}
	if query.Model != "" {
		conditions = append(conditions, "model = ?")
		args = append(args, query.Model)
	}
	if query.AnomalousOnly {
		conditions = append(conditions, "anomalous = 1")
	}
	if query.MinCost != nil {
		v, _ := query.MinCost.Float64()
		conditions = append(conditions, "cost_value >= ?")
		args = append(args, v)
	}
	if query.MaxCost != nil {
		v, _ := query.MaxCost.Float64()
		conditions = append(conditions, "cost_value <= ?")
		args = append(args, v)
	}
	if query.MinTokens != nil {
		conditions = append(conditions, "total_tokens >= ?")
		args = append(args, *query.MinTokens)
	}
	if query.MaxTokens != nil {
		conditions = append(conditions, "total_tokens <= ?")
		args = append(args, *query.MaxTokens)
	}

	whereClause := ""
	for i, condition := range conditions {
		if i > 0 {
			whereClause += " AND "
		}
		whereClause += condition
	}
	return whereClause, args
}

// sortColumn maps a validated sort field to its column. Cost sorts on
// the REAL shadow column.
func sortColumn(field string) string {
	if field == "cost" {
		return "cost_value"
	}
	return field
}

// sortDirection normalizes the validated sort order for SQL.
func sortDirection(order string) string {
	if order == "asc" {
		return "ASC"
	}
	return "DESC"
}

// scanRow scans a database row into a journal Entry.
func scanRow(rows *sql.Rows) (*journal.Entry, error) {
	var entry journal.Entry
	var costStr string
	var note sql.NullString

	err := rows.Scan(
		&entry.ID, &entry.Model, &entry.InputTokens, &entry.OutputTokens,
		&costStr, &entry.EventTime, &entry.RecordedTime, &entry.Anomalous, &note,
	)
	if err != nil {
		return nil, err
	}

	entry.Cost, err = decimal.NewFromString(costStr)
	if err != nil {
		return nil, fmt.Errorf("invalid stored cost %q: %w", costStr, err)
	}
	if note.Valid {
		entry.Note = note.String
	}

	return &entry, nil
}
