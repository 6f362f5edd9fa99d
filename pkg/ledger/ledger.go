package ledger

import (
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// dayKeyLayout and monthKeyLayout are the bucket key formats.
	dayKeyLayout   = "2006-01-02"
	monthKeyLayout = "2006-01"

	// allTimeKey is the period key of the unbounded record.
	allTimeKey = "all_time"

	// DefaultDailyHistory and DefaultMonthlyHistory bound how many
	// closed-period records the statistics document retains.
	DefaultDailyHistory   = 90
	DefaultMonthlyHistory = 24
)

// Config tunes ledger behavior. The zero value is not usable; call
// DefaultConfig and adjust.
type Config struct {
	// AutoSave persists the state inside every Commit, which is what
	// gives Commit its durability-before-return contract. Turning it
	// off trades that contract for fewer writes; Flush then persists
	// on demand.
	AutoSave bool

	// DailyHistory is the number of closed daily records to retain.
	DailyHistory int

	// MonthlyHistory is the number of closed monthly records to retain.
	MonthlyHistory int
}

// DefaultConfig returns the standard ledger configuration.
func DefaultConfig() *Config {
	return &Config{
		AutoSave:       true,
		DailyHistory:   DefaultDailyHistory,
		MonthlyHistory: DefaultMonthlyHistory,
	}
}

// Ledger owns the scoped usage aggregates. All mutation happens in
// Commit and Reset under one mutex; the three scoped updates for a
// single event share one critical section so a concurrent reader can
// never observe the daily total updated but the monthly one missing.
//
// Bucket keys always come from the wall clock at commit time, in UTC,
// never from the caller-supplied event timestamp, which would permit
// backdated manipulation of closed periods.
type Ledger struct {
	mu      sync.Mutex
	backend Backend
	state   *State
	config  *Config
	logger  *slog.Logger

	// dirty is set when AutoSave is off and memory is ahead of the
	// backend.
	dirty bool

	// now is the clock; replaced in tests to exercise rollover.
	now func() time.Time
}

// New opens a ledger over the given backend, loading any previously
// persisted state. A corrupt document is the backend's concern (the
// file backend quarantines it); an I/O failure here is escalated.
func New(backend Backend, cfg *Config) (*Ledger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	state, err := backend.Load()
	if err != nil {
		return nil, &PersistenceError{Op: "load", Err: err}
	}
	if state == nil {
		state = &State{}
	}

	return &Ledger{
		backend: backend,
		state:   state,
		config:  cfg,
		logger:  slog.Default().With("component", "ledger"),
		now:     time.Now,
	}, nil
}

// Commit adds one event's usage and cost to the daily, monthly, and
// all-time aggregates and persists the result before returning.
//
// On a persistence failure the returned CommitResult is still valid:
// the in-memory aggregates retain the delta (dropping it would corrupt
// accounting), the error reports that the on-disk copy is stale, and
// the next Commit or Flush retries the full-state write.
func (l *Ledger) Commit(event UsageEvent, cost decimal.Decimal) (CommitResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().UTC()
	l.rollover(now)

	anomalous := l.isLate(event, now)
	if anomalous {
		l.state.Anomalies++
		l.logger.Warn("late event from closed period recorded in current buckets",
			"model", event.Model,
			"event_time", event.Timestamp,
			"current_day", l.state.Daily.PeriodKey,
		)
	}

	l.state.Daily.add(event, cost)
	l.state.Monthly.add(event, cost)
	l.state.AllTime.add(event, cost)

	result := CommitResult{Totals: l.totalsLocked(), Anomalous: anomalous}

	if err := l.saveLocked(now); err != nil {
		return result, err
	}
	return result, nil
}

// Snapshot returns the current totals without mutating anything. When
// the wall clock has advanced past a stored period, the snapshot shows
// a fresh empty record for the new period; the stored state itself
// rolls over on the next Commit.
func (l *Ledger) Snapshot() Totals {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.viewLocked(l.now().UTC())
}

// Project returns the totals as they would stand after committing the
// event, without mutating the ledger. This is the admission-control
// input: evaluate limits against the projection and decline the call
// before it costs anything.
func (l *Ledger) Project(event UsageEvent, cost decimal.Decimal) Totals {
	l.mu.Lock()
	defer l.mu.Unlock()

	view := l.viewLocked(l.now().UTC())
	view.Daily.add(event, cost)
	view.Monthly.add(event, cost)
	view.AllTime.add(event, cost)
	return view
}

// Reset zeroes the given scope and persists. ScopeDaily and
// ScopeMonthly start a fresh current record without touching anything
// else (the zeroed record does not join closed history; a reset is an
// operator decision, not a rollover). ScopeAllTime clears everything:
// all three records, closed history, and the anomaly count.
func (l *Ledger) Reset(scope Scope) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().UTC()
	switch scope {
	case ScopeDaily:
		l.state.Daily = freshRecord(now.Format(dayKeyLayout), now)
	case ScopeMonthly:
		l.state.Monthly = freshRecord(now.Format(monthKeyLayout), now)
	case ScopeAllTime:
		l.state.Daily = freshRecord(now.Format(dayKeyLayout), now)
		l.state.Monthly = freshRecord(now.Format(monthKeyLayout), now)
		l.state.AllTime = freshRecord(allTimeKey, now)
		l.state.ClosedDays = nil
		l.state.ClosedMonths = nil
		l.state.Anomalies = 0
	default:
		return nil
	}

	l.logger.Info("usage reset", "scope", string(scope))
	return l.saveLocked(now)
}

// History returns a copy of the closed records for a scope, newest
// first. ScopeAllTime has no closed history.
func (l *Ledger) History(scope Scope) []Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	var src []Record
	switch scope {
	case ScopeDaily:
		src = l.state.ClosedDays
	case ScopeMonthly:
		src = l.state.ClosedMonths
	}
	out := make([]Record, len(src))
	copy(out, src)
	return out
}

// Anomalies returns the count of late-arriving events observed.
func (l *Ledger) Anomalies() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Anomalies
}

// Flush persists the in-memory state if it is ahead of the backend.
// With AutoSave on this is a no-op unless a previous save failed.
func (l *Ledger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.dirty {
		return nil
	}
	now := l.now().UTC()
	l.state.UpdatedAt = now
	if err := l.backend.Save(l.state); err != nil {
		return &PersistenceError{Op: "save", Err: err}
	}
	l.dirty = false
	return nil
}

// Close flushes pending state and closes the backend.
func (l *Ledger) Close() error {
	if err := l.Flush(); err != nil {
		l.backend.Close()
		return err
	}
	return l.backend.Close()
}

// rollover freezes expired current records into closed history and
// starts fresh ones. Caller holds the mutex.
func (l *Ledger) rollover(now time.Time) {
	dayKey := now.Format(dayKeyLayout)
	monthKey := now.Format(monthKeyLayout)

	if l.state.Daily.PeriodKey == "" {
		l.state.Daily = freshRecord(dayKey, now)
	} else if l.state.Daily.PeriodKey != dayKey {
		if l.state.Daily.Requests > 0 {
			l.state.ClosedDays = prependBounded(l.state.ClosedDays, l.state.Daily, l.config.DailyHistory)
		}
		l.logger.Info("daily period rolled over",
			"closed", l.state.Daily.PeriodKey,
			"current", dayKey,
		)
		l.state.Daily = freshRecord(dayKey, now)
	}

	if l.state.Monthly.PeriodKey == "" {
		l.state.Monthly = freshRecord(monthKey, now)
	} else if l.state.Monthly.PeriodKey != monthKey {
		if l.state.Monthly.Requests > 0 {
			l.state.ClosedMonths = prependBounded(l.state.ClosedMonths, l.state.Monthly, l.config.MonthlyHistory)
		}
		l.logger.Info("monthly period rolled over",
			"closed", l.state.Monthly.PeriodKey,
			"current", monthKey,
		)
		l.state.Monthly = freshRecord(monthKey, now)
	}

	if l.state.AllTime.PeriodKey == "" {
		l.state.AllTime = freshRecord(allTimeKey, now)
	}
}

// isLate reports whether the event's own timestamp belongs to a day
// bucket earlier than the current one. Keys are ISO dates, so string
// order is chronological order.
func (l *Ledger) isLate(event UsageEvent, now time.Time) bool {
	if event.Timestamp.IsZero() {
		return false
	}
	return event.Timestamp.UTC().Format(dayKeyLayout) < now.Format(dayKeyLayout)
}

// viewLocked builds the current-period view without mutating state:
// records whose period has passed appear as fresh empty records.
func (l *Ledger) viewLocked(now time.Time) Totals {
	t := l.totalsLocked()

	dayKey := now.Format(dayKeyLayout)
	if t.Daily.PeriodKey != dayKey {
		t.Daily = freshRecord(dayKey, now)
	}
	monthKey := now.Format(monthKeyLayout)
	if t.Monthly.PeriodKey != monthKey {
		t.Monthly = freshRecord(monthKey, now)
	}
	if t.AllTime.PeriodKey == "" {
		t.AllTime = freshRecord(allTimeKey, now)
	}
	return t
}

func (l *Ledger) totalsLocked() Totals {
	return Totals{
		Daily:   l.state.Daily,
		Monthly: l.state.Monthly,
		AllTime: l.state.AllTime,
	}
}

// saveLocked persists state per the AutoSave setting. Caller holds the
// mutex.
func (l *Ledger) saveLocked(now time.Time) error {
	if !l.config.AutoSave {
		l.dirty = true
		return nil
	}

	l.state.UpdatedAt = now
	if err := l.backend.Save(l.state); err != nil {
		l.dirty = true
		l.logger.Error("state save failed, in-memory totals retained", "error", err)
		return &PersistenceError{Op: "save", Err: err}
	}
	l.dirty = false
	return nil
}

func freshRecord(key string, now time.Time) Record {
	return Record{
		PeriodKey: key,
		Cost:      decimal.Zero,
		StartedAt: now,
	}
}

func prependBounded(list []Record, r Record, limit int) []Record {
	list = append([]Record{r}, list...)
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list
}
