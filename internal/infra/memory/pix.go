package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/obrafin/recon-go/internal/domain"
)

// PixKeyStore keeps receiving keys indexed by id and value.
type PixKeyStore struct {
	mu      sync.RWMutex
	keys    map[string]domain.PixKey
	byValue map[string]string
}

// NewPixKeyStore creates an empty key store.
func NewPixKeyStore() *PixKeyStore {
	return &PixKeyStore{
		keys:    make(map[string]domain.PixKey),
		byValue: make(map[string]string),
	}
}

func (s *PixKeyStore) Save(_ context.Context, k *domain.PixKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[k.ID] = *k
	s.byValue[k.KeyValue] = k.ID
	return nil
}

func (s *PixKeyStore) GetByID(_ context.Context, id string) (*domain.PixKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.keys[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "pix_key", ID: id}
	}
	out := k
	return &out, nil
}

func (s *PixKeyStore) GetByValue(_ context.Context, value string) (*domain.PixKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byValue[value]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "pix_key", ID: value}
	}
	k := s.keys[id]
	return &k, nil
}

func (s *PixKeyStore) List(_ context.Context) ([]*domain.PixKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.PixKey
	for _, k := range s.keys {
		c := k
		out = append(out, &c)
	}
	return out, nil
}

// PixStore keeps charges indexed by id and end-to-end id.
type PixStore struct {
	mu      sync.RWMutex
	charges map[string]domain.PixTransaction
	byTxID  map[string]string
}

// NewPixStore creates an empty charge store.
func NewPixStore() *PixStore {
	return &PixStore{
		charges: make(map[string]domain.PixTransaction),
		byTxID:  make(map[string]string),
	}
}

func (s *PixStore) Save(_ context.Context, tx *domain.PixTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byTxID[tx.TxID]; ok && existing != tx.ID {
		return &domain.ErrConflict{Resource: "pix", ID: tx.TxID, Message: "txid already in use"}
	}
	s.charges[tx.ID] = *tx
	s.byTxID[tx.TxID] = tx.ID
	return nil
}

// Update persists only if the stored status still matches what the
// caller read.
func (s *PixStore) Update(_ context.Context, tx *domain.PixTransaction, expectStatus domain.PixStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.charges[tx.ID]
	if !ok {
		return &domain.ErrNotFound{Resource: "pix", ID: tx.ID}
	}
	if current.Status != expectStatus {
		return &domain.ErrConflict{Resource: "pix", ID: tx.ID, Message: fmt.Sprintf("status changed to %s by a concurrent update", current.Status)}
	}
	s.charges[tx.ID] = *tx
	return nil
}

func (s *PixStore) GetByID(_ context.Context, id string) (*domain.PixTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.charges[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "pix", ID: id}
	}
	out := tx
	return &out, nil
}

func (s *PixStore) GetByTxID(_ context.Context, txid string) (*domain.PixTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byTxID[txid]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "pix", ID: txid}
	}
	tx := s.charges[id]
	return &tx, nil
}

func (s *PixStore) ListByStatus(_ context.Context, status domain.PixStatus) ([]*domain.PixTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.PixTransaction
	for _, tx := range s.charges {
		if tx.Status == status {
			c := tx
			out = append(out, &c)
		}
	}
	return out, nil
}
