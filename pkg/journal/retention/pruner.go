// Package retention enforces journal retention: age-based and
// count-based pruning with optional archive-before-delete, driven
// manually or by a cron schedule in daemon mode.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"meterline/spendguard/pkg/journal"
	"meterline/spendguard/pkg/journal/export"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is the number of days to retain entries.
	// 0 means keep entries forever (no age-based pruning).
	RetentionDays int

	// MaxEntries is the maximum number of entries to keep.
	// 0 means unlimited.
	MaxEntries int64

	// PruneSchedule is a cron expression for scheduled pruning,
	// e.g. "0 3 * * *" (daily at 3 AM). Empty disables the schedule.
	PruneSchedule string

	// ArchiveBeforeDelete exports entries to JSON before deletion.
	ArchiveBeforeDelete bool

	// ArchivePath is the directory for archive files.
	ArchivePath string

	// OnPrune, when set, observes every pruning run with the number of
	// deleted entries and the run's error. The daemon feeds metrics
	// through it.
	OnPrune func(deleted int64, err error)
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays:       90,
		MaxEntries:          0,
		PruneSchedule:       "0 3 * * *",
		ArchiveBeforeDelete: false,
		ArchivePath:         "archives/",
	}
}

// Pruner enforces retention policy on journal entries.
type Pruner struct {
	storage   journal.Storage
	config    *Config
	logger    *slog.Logger
	scheduler *Scheduler
}

// NewPruner creates a new retention pruner.
func NewPruner(storage journal.Storage, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}

	pruner := &Pruner{
		storage: storage,
		config:  config,
		logger:  slog.Default().With("component", "journal.retention"),
	}
	pruner.scheduler = NewScheduler(pruner)
	return pruner
}

// Prune deletes entries older than the retention period or exceeding
// the max entry count.
//
// Pruning happens in two phases: age-based first, then count-based.
// Both can apply in one run. Returns the total number of entries
// deleted.
func (p *Pruner) Prune(ctx context.Context) (total int64, err error) {
	if p.config.OnPrune != nil {
		defer func() { p.config.OnPrune(total, err) }()
	}

	if p.config.RetentionDays > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by age failed: %w", err)
		}
		total += deleted
	}

	if p.config.MaxEntries > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by count failed: %w", err)
		}
		total += deleted
	}

	if total > 0 {
		p.logger.Info("journal pruning completed",
			"total_deleted", total,
			"retention_days", p.config.RetentionDays,
			"max_entries", p.config.MaxEntries,
		)
	}
	return total, nil
}

// pruneByAge deletes entries recorded before the retention cutoff.
func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -p.config.RetentionDays)
	query := &journal.Query{EndTime: &cutoff}

	if p.config.ArchiveBeforeDelete {
		if err := p.archiveQuery(ctx, query, "age"); err != nil {
			return 0, journal.NewRetentionError(err)
		}
	}

	deleted, err := p.storage.Delete(ctx, query)
	if err != nil {
		return 0, journal.NewRetentionError(err)
	}
	if deleted > 0 {
		p.logger.Info("pruned entries by age",
			"deleted", deleted,
			"cutoff", cutoff,
		)
	}
	return deleted, nil
}

// pruneByCount deletes the oldest entries when the total exceeds
// MaxEntries.
func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &journal.Query{})
	if err != nil {
		return 0, journal.NewRetentionError(err)
	}
	if count <= p.config.MaxEntries {
		return 0, nil
	}

	toDelete := count - p.config.MaxEntries
	p.logger.Info("entry count exceeds limit, pruning oldest",
		"current", count,
		"max_entries", p.config.MaxEntries,
		"to_delete", toDelete,
	)

	// Fetch the oldest entries to find the deletion cutoff.
	oldest, err := p.storage.Query(ctx, &journal.Query{
		Limit:     int(min64(toDelete, journal.MaxLimit)),
		SortBy:    "recorded_time",
		SortOrder: "asc",
	})
	if err != nil {
		return 0, journal.NewRetentionError(err)
	}
	if len(oldest) == 0 {
		return 0, nil
	}
	cutoff := oldest[len(oldest)-1].RecordedTime
	deleteQuery := &journal.Query{EndTime: &cutoff}

	if p.config.ArchiveBeforeDelete {
		if err := p.archiveEntries(ctx, oldest, "count"); err != nil {
			return 0, journal.NewRetentionError(err)
		}
	}

	deleted, err := p.storage.Delete(ctx, deleteQuery)
	if err != nil {
		return 0, journal.NewRetentionError(err)
	}
	return deleted, nil
}

// archiveQuery exports the entries a query matches before deletion.
func (p *Pruner) archiveQuery(ctx context.Context, query *journal.Query, reason string) error {
	entries, err := p.storage.Query(ctx, &journal.Query{
		EndTime: query.EndTime,
		Limit:   journal.MaxLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to query entries for archiving: %w", err)
	}
	return p.archiveEntries(ctx, entries, reason)
}

// archiveEntries writes entries to a timestamped JSON archive file.
func (p *Pruner) archiveEntries(ctx context.Context, entries []*journal.Entry, reason string) error {
	if len(entries) == 0 {
		return nil
	}

	if err := os.MkdirAll(p.config.ArchivePath, 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	name := fmt.Sprintf("journal-%s-%s.json", reason, time.Now().Format("2006-01-02-150405"))
	archiveFile := filepath.Join(p.config.ArchivePath, name)
	f, err := os.Create(archiveFile)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer f.Close()

	exporter := export.NewJSONExporter(true)
	if err := exporter.Export(ctx, entries, f); err != nil {
		return fmt.Errorf("failed to export entries to archive: %w", err)
	}

	p.logger.Info("journal entries archived",
		"archive_file", archiveFile,
		"entries", len(entries),
	)
	return nil
}

// Start starts the automatic pruning scheduler.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the automatic pruning scheduler.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled pruning.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
