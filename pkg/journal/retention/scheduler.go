package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"meterline/spendguard/pkg/journal"
)

// Scheduler runs pruning on a cron schedule.
type Scheduler struct {
	pruner *Pruner
	cron   *cron.Cron
	logger *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a scheduler for the given pruner.
func NewScheduler(pruner *Pruner) *Scheduler {
	return &Scheduler{
		pruner: pruner,
		logger: slog.Default().With("component", "journal.retention.scheduler"),
	}
}

// Start begins scheduled pruning. It validates the cron expression and
// registers the prune job. A background goroutine stops the scheduler
// when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return journal.NewRetentionError(fmt.Errorf("scheduler already running"))
	}

	schedule := s.pruner.config.PruneSchedule
	if schedule == "" {
		return journal.NewRetentionError(fmt.Errorf("prune schedule is empty"))
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return journal.NewRetentionError(fmt.Errorf("invalid cron expression %q: %w", schedule, err))
	}

	s.cron = cron.New()
	_, err := s.cron.AddFunc(schedule, func() {
		pruneCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		deleted, err := s.pruner.Prune(pruneCtx)
		if err != nil {
			s.logger.Error("scheduled pruning failed", "error", err)
			return
		}
		s.logger.Info("scheduled pruning completed", "deleted", deleted)
	})
	if err != nil {
		return journal.NewRetentionError(fmt.Errorf("failed to register prune job: %w", err))
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("retention scheduler started", "schedule", schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop halts scheduled pruning and waits for any in-flight prune run
// to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.cron == nil {
		return
	}

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()

	s.running = false
	s.logger.Info("retention scheduler stopped")
}

// IsRunning reports whether the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the time of the next scheduled pruning, or nil when
// the scheduler is not running.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.cron == nil {
		return nil
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
