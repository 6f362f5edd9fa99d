package storage

import (
	"sync"

	"meterline/spendguard/pkg/ledger"
)

// MemoryBackend keeps ledger state in process memory. Used by tests and
// by embeddings that explicitly opt out of durability.
type MemoryBackend struct {
	mu    sync.Mutex
	state *ledger.State

	// saves counts Save calls, so tests can assert persistence
	// happened before a Commit returned.
	saves int
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Load returns a copy of the stored state, or an empty state.
func (m *MemoryBackend) Load() (*ledger.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		return &ledger.State{}, nil
	}
	return cloneState(m.state), nil
}

// Save stores a copy of the state.
func (m *MemoryBackend) Save(state *ledger.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = cloneState(state)
	m.saves++
	return nil
}

// Saves returns how many times Save has been called.
func (m *MemoryBackend) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Close is a no-op for the memory backend.
func (m *MemoryBackend) Close() error {
	return nil
}

// cloneState copies state so backend and ledger never alias slices.
// Decimal values are immutable under arithmetic, so sharing them is
// safe.
func cloneState(s *ledger.State) *ledger.State {
	out := *s
	out.ClosedDays = append([]ledger.Record(nil), s.ClosedDays...)
	out.ClosedMonths = append([]ledger.Record(nil), s.ClosedMonths...)
	return &out
}
