// Package memory provides mutex-guarded in-memory implementations of
// the port store contracts. Stored values are copied on the way in and
// out so callers never share mutable state with the store.
package memory

import (
	"context"
	"sync"

	"github.com/obrafin/recon-go/internal/domain"
)

// AccountStore keeps issuing account configurations.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]domain.BankAccountConfig
}

// NewAccountStore creates an empty account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[string]domain.BankAccountConfig)}
}

func (s *AccountStore) Save(_ context.Context, cfg *domain.BankAccountConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[cfg.ID] = *cfg
	return nil
}

func (s *AccountStore) GetByID(_ context.Context, id string) (*domain.BankAccountConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.accounts[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "account_config", ID: id}
	}
	out := cfg
	return &out, nil
}

func (s *AccountStore) ListActive(_ context.Context) ([]*domain.BankAccountConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.BankAccountConfig
	for _, cfg := range s.accounts {
		if cfg.Active {
			c := cfg
			out = append(out, &c)
		}
	}
	return out, nil
}
