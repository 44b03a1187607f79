package memory

import (
	"context"
	"sync"
	"time"

	"github.com/obrafin/recon-go/internal/domain"
)

// MatchStore keeps reconciliation matches. The one-active-match-per-
// entry and per-target invariants are enforced inside the store lock so
// concurrent matchers cannot double-link.
type MatchStore struct {
	mu            sync.RWMutex
	matches       map[string]domain.ReconciliationMatch
	activeEntries map[string]string // entry id -> active match id
	activeTargets map[string]string // targetType/targetID -> active match id
}

// NewMatchStore creates an empty match store.
func NewMatchStore() *MatchStore {
	return &MatchStore{
		matches:       make(map[string]domain.ReconciliationMatch),
		activeEntries: make(map[string]string),
		activeTargets: make(map[string]string),
	}
}

func targetKey(t domain.MatchTargetType, id string) string {
	return string(t) + "/" + id
}

func (s *MatchStore) Save(_ context.Context, m *domain.ReconciliationMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.activeEntries[m.EntryID]; ok {
		return &domain.ErrConflict{Resource: "match", ID: id, Message: "entry already has an active match"}
	}
	key := targetKey(m.TargetType, m.TargetID)
	if id, ok := s.activeTargets[key]; ok {
		return &domain.ErrConflict{Resource: "match", ID: id, Message: "target already has an active match"}
	}
	s.matches[m.ID] = *m
	s.activeEntries[m.EntryID] = m.ID
	s.activeTargets[key] = m.ID
	return nil
}

// Invalidate stamps the match and releases its entry and target for
// re-matching. Invalidating twice is a no-op.
func (s *MatchStore) Invalidate(_ context.Context, id string, at time.Time) (*domain.ReconciliationMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "match", ID: id}
	}
	if m.InvalidatedAt == nil {
		m.InvalidatedAt = &at
		s.matches[id] = m
		delete(s.activeEntries, m.EntryID)
		delete(s.activeTargets, targetKey(m.TargetType, m.TargetID))
	}
	out := m
	return &out, nil
}

func (s *MatchStore) GetByID(_ context.Context, id string) (*domain.ReconciliationMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "match", ID: id}
	}
	out := m
	return &out, nil
}

func (s *MatchStore) ActiveByEntry(_ context.Context, entryID string) (*domain.ReconciliationMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.activeEntries[entryID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "match", ID: entryID}
	}
	m := s.matches[id]
	return &m, nil
}

func (s *MatchStore) ActiveByTarget(_ context.Context, targetType domain.MatchTargetType, targetID string) (*domain.ReconciliationMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.activeTargets[targetKey(targetType, targetID)]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "match", ID: targetID}
	}
	m := s.matches[id]
	return &m, nil
}

func (s *MatchStore) ListActive(_ context.Context) ([]*domain.ReconciliationMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.ReconciliationMatch
	for _, id := range s.activeEntries {
		m := s.matches[id]
		out = append(out, &m)
	}
	return out, nil
}

func (s *MatchStore) ListManual(_ context.Context) ([]*domain.ReconciliationMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.ReconciliationMatch
	for _, id := range s.activeEntries {
		m := s.matches[id]
		if m.Method == domain.MatchManual {
			out = append(out, &m)
		}
	}
	return out, nil
}
