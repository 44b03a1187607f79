package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/obrafin/recon-go/internal/domain"
)

// CnabBatchStore keeps generated remittances and parsed returns.
type CnabBatchStore struct {
	mu      sync.RWMutex
	batches map[string]domain.CnabBatch
}

// NewCnabBatchStore creates an empty batch store.
func NewCnabBatchStore() *CnabBatchStore {
	return &CnabBatchStore{batches: make(map[string]domain.CnabBatch)}
}

func (s *CnabBatchStore) Save(_ context.Context, b *domain.CnabBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[b.ID] = *b
	return nil
}

func (s *CnabBatchStore) GetByID(_ context.Context, id string) (*domain.CnabBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.batches[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "cnab_batch", ID: id}
	}
	out := b
	return &out, nil
}

func (s *CnabBatchStore) List(_ context.Context, direction domain.CnabDirection) ([]*domain.CnabBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.CnabBatch
	for _, b := range s.batches {
		if direction != "" && b.Direction != direction {
			continue
		}
		c := b
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GeneratedAt.Before(out[j].GeneratedAt) })
	return out, nil
}
