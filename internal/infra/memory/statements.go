package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/obrafin/recon-go/internal/domain"
)

// StatementStore keeps imported bank statement entries.
type StatementStore struct {
	mu      sync.RWMutex
	entries map[string]domain.StatementEntry
}

// NewStatementStore creates an empty statement store.
func NewStatementStore() *StatementStore {
	return &StatementStore{entries: make(map[string]domain.StatementEntry)}
}

func (s *StatementStore) SaveAll(_ context.Context, entries []*domain.StatementEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.entries[e.ID] = *e
	}
	return nil
}

func (s *StatementStore) GetByID(_ context.Context, id string) (*domain.StatementEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "statement_entry", ID: id}
	}
	out := e
	return &out, nil
}

func (s *StatementStore) ListByPeriod(_ context.Context, from, to time.Time) ([]*domain.StatementEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.StatementEntry
	for _, e := range s.entries {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		c := e
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
