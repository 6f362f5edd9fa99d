package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"meterline/spendguard/pkg/ledger"
)

// FileBackend persists ledger state as one JSON statistics document.
// Every Save writes a temp file in the document's directory and renames
// it over the target, so a crash mid-write can never leave a truncated
// document behind: readers observe either the old state or the new one.
type FileBackend struct {
	path   string
	logger *slog.Logger
}

// NewFileBackend creates a file backend for the given document path,
// creating parent directories as needed.
func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		return nil, fmt.Errorf("statistics document path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	return &FileBackend{
		path:   path,
		logger: slog.Default().With("component", "ledger.storage"),
	}, nil
}

// Path returns the statistics document location.
func (f *FileBackend) Path() string {
	return f.path
}

// Load reads the statistics document. A missing document is a fresh
// start, not an error. An unparseable document (external edit, disk
// fault predating this process) is quarantined under a timestamped
// name and the ledger starts fresh. The engine keeps running and the
// quarantined file remains as evidence.
func (f *FileBackend) Load() (*ledger.State, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return &ledger.State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read statistics document: %w", err)
	}

	var state ledger.State
	if err := json.Unmarshal(data, &state); err != nil {
		quarantine := fmt.Sprintf("%s.corrupt-%d", f.path, time.Now().Unix())
		if renameErr := os.Rename(f.path, quarantine); renameErr != nil {
			return nil, fmt.Errorf("statistics document corrupt and quarantine failed: %v (parse error: %w)", renameErr, err)
		}
		f.logger.Error("statistics document corrupt, quarantined and starting fresh",
			"path", f.path,
			"quarantined_as", quarantine,
			"error", err,
		)
		return &ledger.State{}, nil
	}

	return &state, nil
}

// Save atomically replaces the statistics document with the given state.
func (f *FileBackend) Save(state *ledger.State) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace statistics document: %w", err)
	}
	return nil
}

// Close is a no-op for the file backend.
func (f *FileBackend) Close() error {
	return nil
}
