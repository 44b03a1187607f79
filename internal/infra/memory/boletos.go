package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/obrafin/recon-go/internal/domain"
)

// BoletoStore keeps titles indexed by id and by (config, our-number).
type BoletoStore struct {
	mu          sync.RWMutex
	boletos     map[string]domain.Boleto
	byOurNumber map[string]string // configID/ourNumber -> boleto id
}

// NewBoletoStore creates an empty boleto store.
func NewBoletoStore() *BoletoStore {
	return &BoletoStore{
		boletos:     make(map[string]domain.Boleto),
		byOurNumber: make(map[string]string),
	}
}

func ourNumberKey(configID string, ourNumber int64) string {
	return fmt.Sprintf("%s/%d", configID, ourNumber)
}

func (s *BoletoStore) Save(_ context.Context, b *domain.Boleto) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ourNumberKey(b.ConfigID, b.OurNumber)
	if existing, ok := s.byOurNumber[key]; ok && existing != b.ID {
		return &domain.ErrConflict{Resource: "boleto", ID: b.ID, Message: "our-number already in use"}
	}
	s.boletos[b.ID] = *b
	s.byOurNumber[key] = b.ID
	return nil
}

// Update persists the new state only if the stored status still matches
// what the caller read. A mismatch means a concurrent writer won.
func (s *BoletoStore) Update(_ context.Context, b *domain.Boleto, expectStatus domain.BoletoStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.boletos[b.ID]
	if !ok {
		return &domain.ErrNotFound{Resource: "boleto", ID: b.ID}
	}
	if current.Status != expectStatus {
		return &domain.ErrConflict{Resource: "boleto", ID: b.ID, Message: fmt.Sprintf("status changed to %s by a concurrent update", current.Status)}
	}
	s.boletos[b.ID] = *b
	return nil
}

func (s *BoletoStore) GetByID(_ context.Context, id string) (*domain.Boleto, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.boletos[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "boleto", ID: id}
	}
	out := b
	return &out, nil
}

func (s *BoletoStore) GetByOurNumber(_ context.Context, configID string, ourNumber int64) (*domain.Boleto, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byOurNumber[ourNumberKey(configID, ourNumber)]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "boleto", ID: fmt.Sprintf("our_number=%d", ourNumber)}
	}
	b := s.boletos[id]
	return &b, nil
}

func (s *BoletoStore) FindByOurNumber(_ context.Context, ourNumber int64) ([]*domain.Boleto, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Boleto
	for _, b := range s.boletos {
		if b.OurNumber == ourNumber {
			c := b
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *BoletoStore) ListByStatus(_ context.Context, status domain.BoletoStatus) ([]*domain.Boleto, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Boleto
	for _, b := range s.boletos {
		if b.Status == status {
			c := b
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *BoletoStore) ListOpen(_ context.Context) ([]*domain.Boleto, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Boleto
	for _, b := range s.boletos {
		if b.Status == domain.BoletoOpen || b.Status == domain.BoletoRegistered {
			c := b
			out = append(out, &c)
		}
	}
	return out, nil
}
