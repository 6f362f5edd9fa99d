package storage

import (
	"context"
	"sort"
	"sync"

	"meterline/spendguard/pkg/journal"
)

// MemoryStorage implements journal.Storage using an in-memory map.
// Intended for tests and ephemeral embedding; nothing survives the
// process.
type MemoryStorage struct {
	entries map[string]*journal.Entry
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory journal backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		entries: make(map[string]*journal.Entry),
	}
}

// Store appends one journal entry.
func (s *MemoryStorage) Store(ctx context.Context, entry *journal.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryCopy := *entry
	s.entries[entry.ID] = &entryCopy
	return nil
}

// Query retrieves entries matching the query filters.
func (s *MemoryStorage) Query(ctx context.Context, query *journal.Query) ([]*journal.Entry, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	query.ApplyDefaults()

	s.mu.RLock()
	var results []*journal.Entry
	for _, entry := range s.entries {
		if matchesQuery(entry, query) {
			entryCopy := *entry
			results = append(results, &entryCopy)
		}
	}
	s.mu.RUnlock()

	sortEntries(results, query.SortBy, query.SortOrder)

	start := query.Offset
	if start > len(results) {
		return []*journal.Entry{}, nil
	}
	end := start + query.Limit
	if end > len(results) {
		end = len(results)
	}
	return results[start:end], nil
}

// Count returns the number of entries matching the query filters.
func (s *MemoryStorage) Count(ctx context.Context, query *journal.Query) (int64, error) {
	if err := query.Validate(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, entry := range s.entries {
		if matchesQuery(entry, query) {
			count++
		}
	}
	return count, nil
}

// Delete removes entries matching the query filters.
func (s *MemoryStorage) Delete(ctx context.Context, query *journal.Query) (int64, error) {
	if err := query.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, entry := range s.entries {
		if matchesQuery(entry, query) {
			delete(s.entries, id)
			deleted++
		}
	}
	return deleted, nil
}

// Close releases the backend.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*journal.Entry)
	return nil
}

// Size returns the number of stored entries (for tests).
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// GetByID retrieves a single entry by ID (for tests).
func (s *MemoryStorage) GetByID(id string) *journal.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil
	}
	entryCopy := *entry
	return &entryCopy
}

// matchesQuery checks if an entry matches the query filters.
func matchesQuery(entry *journal.Entry, query *journal.Query) bool {
	if query.StartTime != nil && entry.RecordedTime.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && entry.RecordedTime.After(*query.EndTime) {
		return false
	}
	if query.Model != "" && entry.Model != query.Model {
		return false
	}
	if query.AnomalousOnly && !entry.Anomalous {
		return false
	}
	if query.MinCost != nil && entry.Cost.LessThan(*query.MinCost) {
		return false
	}
	if query.MaxCost != nil && entry.Cost.GreaterThan(*query.MaxCost) {
		return false
	}
	if query.MinTokens != nil && entry.TotalTokens() < *query.MinTokens {
		return false
	}
	if query.MaxTokens != nil && entry.TotalTokens() > *query.MaxTokens {
		return false
	}
	return true
}

// sortEntries orders results by the validated sort field.
func sortEntries(entries []*journal.Entry, sortBy, sortOrder string) {
	less := func(a, b *journal.Entry) bool {
		switch sortBy {
		case "event_time":
			return a.EventTime.Before(b.EventTime)
		case "cost":
			return a.Cost.LessThan(b.Cost)
		case "total_tokens":
			return a.TotalTokens() < b.TotalTokens()
		default:
			return a.RecordedTime.Before(b.RecordedTime)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if sortOrder == "asc" {
			return less(entries[i], entries[j])
		}
		return less(entries[j], entries[i])
	})
}
