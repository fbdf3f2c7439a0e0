package ledger

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Store used when no Redis address is configured
// and throughout the tests.
type Memory struct {
	mu       sync.RWMutex
	balances map[string]int
	best     map[string]int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		balances: make(map[string]int),
		best:     make(map[string]int),
	}
}

func (m *Memory) Balance(_ context.Context, username string) (int, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	balance, ok := m.balances[username]
	return balance, ok, nil
}

func (m *Memory) SetBalance(_ context.Context, username string, balance int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[username] = balance
	return nil
}

func (m *Memory) UpsertHighScore(_ context.Context, username string, balance int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if balance > m.best[username] {
		m.best[username] = balance
	}
	return nil
}

func (m *Memory) Top(_ context.Context, n int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]Entry, 0, len(m.best))
	for username, score := range m.best {
		entries = append(entries, Entry{Username: username, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Username < entries[j].Username
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}
