// Package recorder provides asynchronous write-behind recording of
// journal entries. Recording never blocks the tracking path: when the
// buffer is full the entry is dropped, counted, and logged.
package recorder

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"meterline/spendguard/pkg/journal"
)

// Config contains configuration for the journal recorder.
type Config struct {
	// Enabled enables journal recording.
	Enabled bool

	// Buffer is the size of the async write channel buffer.
	// Default: 1000
	Buffer int

	// WriteTimeout is the timeout for writing an entry to storage.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		Buffer:       1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder records usage journal entries asynchronously.
//
// Entries are enqueued onto a buffered channel and written by a
// background worker. A full buffer drops the entry rather than block
// the caller: the journal is history, not accounting, and aggregate
// correctness lives in the ledger.
type Recorder struct {
	storage   journal.Storage
	config    *Config
	entryChan chan *journal.Entry
	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
	dropped   atomic.Int64
	logger    *slog.Logger
}

// NewRecorder creates a new journal recorder over the given storage.
func NewRecorder(storage journal.Storage, config *Config) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}

	r := &Recorder{
		storage:   storage,
		config:    config,
		entryChan: make(chan *journal.Entry, config.Buffer),
		done:      make(chan struct{}),
		logger:    slog.Default().With("component", "journal.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("journal recorder initialized",
		"buffer", config.Buffer,
		"write_timeout", config.WriteTimeout,
	)

	return r
}

// Record enqueues one entry for async writing. It assigns the entry a
// UUID and a recorded time if missing, and returns immediately.
//
// When the recorder is disabled, shutting down, or the buffer is full,
// the entry is not recorded; overflow drops are counted and logged.
func (r *Recorder) Record(entry *journal.Entry) {
	if !r.config.Enabled || entry == nil {
		return
	}

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.RecordedTime.IsZero() {
		entry.RecordedTime = time.Now().UTC()
	}

	select {
	case <-r.done:
		r.logger.Warn("recorder shutting down, dropping entry", "entry_id", entry.ID)
	case r.entryChan <- entry:
	default:
		dropped := r.dropped.Add(1)
		r.logger.Error("journal buffer full, dropping entry",
			"entry_id", entry.ID,
			"dropped_total", dropped,
			"buffer", r.config.Buffer,
		)
	}
}

// Dropped returns how many entries were dropped due to buffer overflow.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close shuts the recorder down: no new entries are accepted, the
// buffer is drained, and pending writes complete. Close is idempotent.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.logger.Info("shutting down journal recorder")
		close(r.done)
		r.wg.Wait()
		r.logger.Info("journal recorder shut down", "dropped_total", r.dropped.Load())
	})
	return nil
}

// worker drains the entry channel and writes entries to storage.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case entry := <-r.entryChan:
			r.writeEntry(entry)

		case <-r.done:
			// Drain what is already buffered before exiting.
			for {
				select {
				case entry := <-r.entryChan:
					r.writeEntry(entry)
				default:
					return
				}
			}
		}
	}
}

// writeEntry writes a single entry to storage.
func (r *Recorder) writeEntry(entry *journal.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	if err := r.storage.Store(ctx, entry); err != nil {
		r.logger.Error("failed to store journal entry",
			"entry_id", entry.ID,
			"model", entry.Model,
			"error", err,
		)
		return
	}

	r.logger.Debug("journal entry recorded",
		"entry_id", entry.ID,
		"model", entry.Model,
		"anomalous", entry.Anomalous,
	)
}
