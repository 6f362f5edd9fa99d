package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the journal schema.
//
// Cost is stored twice: `cost` holds the exact decimal string (the
// authoritative value), `cost_value` holds a REAL copy used only for
// range filters and sorting, where float precision is acceptable.
const Schema = `
-- Usage journal entries
CREATE TABLE IF NOT EXISTS journal (
    id TEXT PRIMARY KEY,

    model TEXT NOT NULL,
    input_tokens INTEGER NOT NULL,
    output_tokens INTEGER NOT NULL,
    total_tokens INTEGER NOT NULL,

    cost TEXT NOT NULL,
    cost_value REAL NOT NULL,

    event_time TIMESTAMP,
    recorded_time TIMESTAMP NOT NULL,

    anomalous BOOLEAN NOT NULL DEFAULT 0,
    note TEXT
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_journal_recorded_time ON journal(recorded_time);
CREATE INDEX IF NOT EXISTS idx_journal_model ON journal(model);
CREATE INDEX IF NOT EXISTS idx_journal_anomalous ON journal(anomalous);
CREATE INDEX IF NOT EXISTS idx_journal_cost_value ON journal(cost_value);
CREATE INDEX IF NOT EXISTS idx_journal_total_tokens ON journal(total_tokens);
`

// InsertSchemaVersion records the schema version.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
