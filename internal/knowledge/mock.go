package knowledge

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MockStore is an in-memory knowledge base for local runs and tests.
type MockStore struct {
	mu   sync.RWMutex
	rows map[Table][]mockRow

	FindTopErr error
}

type mockRow struct {
	Row
	active bool
}

func NewMockStore() *MockStore {
	return &MockStore{rows: make(map[Table][]mockRow)}
}

// Add registers a row; inactive rows are kept but never matched.
func (s *MockStore) Add(table Table, row Row, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[table] = append(s.rows[table], mockRow{Row: row, active: active})
}

func (s *MockStore) FindTop(_ context.Context, table Table, query string) (Row, error) {
	if s.FindTopErr != nil {
		return Row{}, s.FindTopErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(query)
	var matches []mockRow
	for _, r := range s.rows[table] {
		if !r.active {
			continue
		}
		if strings.Contains(strings.ToLower(r.Question), needle) ||
			strings.Contains(strings.ToLower(r.Intent), needle) {
			matches = append(matches, r)
		}
	}
	if len(matches) == 0 {
		return Row{}, ErrNoMatch
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Priority > matches[j].Priority
	})
	return matches[0].Row, nil
}

func (s *MockStore) Close() error { return nil }
