package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"meterline/spendguard/pkg/journal"
)

var testBase = time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

// seedEntries returns three fixed entries spanning models, costs, and
// recorded times, for filter tests.
func seedEntries() []*journal.Entry {
	return []*journal.Entry{
		{
			ID:           "entry-1",
			Model:        "gpt-4",
			InputTokens:  1000,
			OutputTokens: 500,
			Cost:         decimal.RequireFromString("0.06"),
			EventTime:    testBase.Add(-5 * time.Minute),
			RecordedTime: testBase,
		},
		{
			ID:           "entry-2",
			Model:        "gpt-4o-mini",
			InputTokens:  200,
			OutputTokens: 100,
			Cost:         decimal.RequireFromString("0.00012"),
			EventTime:    testBase.Add(-26 * time.Hour),
			RecordedTime: testBase.Add(1 * time.Hour),
			Anomalous:    true,
			Note:         "event time in closed period",
		},
		{
			ID:           "entry-3",
			Model:        "gpt-4",
			InputTokens:  5000,
			OutputTokens: 2500,
			Cost:         decimal.RequireFromString("0.3"),
			EventTime:    testBase.Add(115 * time.Minute),
			RecordedTime: testBase.Add(2 * time.Hour),
		},
	}
}

func seedStorage(t *testing.T, store journal.Storage) {
	t.Helper()
	ctx := context.Background()
	for _, entry := range seedEntries() {
		if err := store.Store(ctx, entry); err != nil {
			t.Fatalf("Store(%s) failed: %v", entry.ID, err)
		}
	}
}

func TestMemoryStorage_StoreAndQuery(t *testing.T) {
	store := NewMemoryStorage()
	defer store.Close()
	seedStorage(t, store)

	results, err := store.Query(context.Background(), &journal.Query{})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(results))
	}

	// Default sort is recorded_time descending.
	if results[0].ID != "entry-3" || results[2].ID != "entry-1" {
		t.Errorf("Expected order [entry-3, entry-2, entry-1], got [%s, %s, %s]",
			results[0].ID, results[1].ID, results[2].ID)
	}
}

func TestMemoryStorage_QueryFilters(t *testing.T) {
	store := NewMemoryStorage()
	defer store.Close()
	seedStorage(t, store)

	minCost := decimal.RequireFromString("0.05")
	maxCost := decimal.RequireFromString("0.001")
	minTokens := int64(1000)
	maxTokens := int64(500)
	midpoint := testBase.Add(30 * time.Minute)

	tests := []struct {
		name          string
		query         *journal.Query
		expectedCount int
	}{
		{"filter by model", &journal.Query{Model: "gpt-4"}, 2},
		{"filter anomalous only", &journal.Query{AnomalousOnly: true}, 1},
		{"filter by min cost", &journal.Query{MinCost: &minCost}, 2},
		{"filter by max cost", &journal.Query{MaxCost: &maxCost}, 1},
		{"filter by min tokens", &journal.Query{MinTokens: &minTokens}, 2},
		{"filter by max tokens", &journal.Query{MaxTokens: &maxTokens}, 1},
		{"filter by start time", &journal.Query{StartTime: &midpoint}, 2},
		{"filter by end time", &journal.Query{EndTime: &midpoint}, 1},
		{"combined model and cost", &journal.Query{Model: "gpt-4", MinCost: &minCost}, 2},
		{"no match", &journal.Query{Model: "claude-3-opus"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := store.Query(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("Query() failed: %v", err)
			}
			if len(results) != tt.expectedCount {
				t.Errorf("Expected %d entries, got %d", tt.expectedCount, len(results))
			}
		})
	}
}

func TestMemoryStorage_QuerySortByCost(t *testing.T) {
	store := NewMemoryStorage()
	defer store.Close()
	seedStorage(t, store)

	results, err := store.Query(context.Background(), &journal.Query{
		SortBy:    "cost",
		SortOrder: "asc",
	})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(results))
	}
	if results[0].ID != "entry-2" || results[1].ID != "entry-1" || results[2].ID != "entry-3" {
		t.Errorf("Expected cost-ascending order [entry-2, entry-1, entry-3], got [%s, %s, %s]",
			results[0].ID, results[1].ID, results[2].ID)
	}
}

func TestMemoryStorage_QueryPagination(t *testing.T) {
	store := NewMemoryStorage()
	defer store.Close()
	seedStorage(t, store)

	page1, err := store.Query(context.Background(), &journal.Query{Limit: 2})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(page1) != 2 {
		t.Fatalf("Expected 2 entries on first page, got %d", len(page1))
	}

	page2, err := store.Query(context.Background(), &journal.Query{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(page2) != 1 {
		t.Fatalf("Expected 1 entry on second page, got %d", len(page2))
	}
	if page2[0].ID == page1[0].ID || page2[0].ID == page1[1].ID {
		t.Error("Second page repeats an entry from the first page")
	}

	empty, err := store.Query(context.Background(), &journal.Query{Offset: 10})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Expected 0 entries past the end, got %d", len(empty))
	}
}

func TestMemoryStorage_QueryRejectsInvalid(t *testing.T) {
	store := NewMemoryStorage()
	defer store.Close()

	_, err := store.Query(context.Background(), &journal.Query{SortBy: "nope"})
	if err == nil {
		t.Fatal("Expected error for invalid sort field, got nil")
	}
}

func TestMemoryStorage_Count(t *testing.T) {
	store := NewMemoryStorage()
	defer store.Close()
	seedStorage(t, store)

	count, err := store.Count(context.Background(), &journal.Query{})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected count 3, got %d", count)
	}

	count, err = store.Count(context.Background(), &journal.Query{Model: "gpt-4"})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected count 2 for gpt-4, got %d", count)
	}
}

func TestMemoryStorage_Delete(t *testing.T) {
	store := NewMemoryStorage()
	defer store.Close()
	seedStorage(t, store)

	cutoff := testBase.Add(90 * time.Minute)
	deleted, err := store.Delete(context.Background(), &journal.Query{EndTime: &cutoff})
	if err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted, got %d", deleted)
	}
	if store.Size() != 1 {
		t.Errorf("Expected 1 entry remaining, got %d", store.Size())
	}
	if store.GetByID("entry-3") == nil {
		t.Error("Expected entry-3 to survive the delete")
	}
}

// TestMemoryStorage_Isolation verifies that stored entries are copies:
// mutating the caller's entry after Store must not change what is
// stored.
func TestMemoryStorage_Isolation(t *testing.T) {
	store := NewMemoryStorage()
	defer store.Close()

	entry := &journal.Entry{
		ID:    "iso-1",
		Model: "gpt-4",
		Cost:  decimal.RequireFromString("0.01"),
	}
	if err := store.Store(context.Background(), entry); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	entry.Model = "mutated"

	stored := store.GetByID("iso-1")
	if stored == nil {
		t.Fatal("Entry not found")
	}
	if stored.Model != "gpt-4" {
		t.Errorf("Stored entry was mutated through caller's pointer: model = %q", stored.Model)
	}
}
