// Package port defines the store and collaborator contracts the service
// layer depends on. Implementations live under internal/infra.
package port

import (
	"context"
	"time"

	"github.com/obrafin/recon-go/internal/domain"
)

// BankAccountStore persists beneficiary account configurations.
type BankAccountStore interface {
	Save(ctx context.Context, cfg *domain.BankAccountConfig) error
	GetByID(ctx context.Context, id string) (*domain.BankAccountConfig, error)
	ListActive(ctx context.Context) ([]*domain.BankAccountConfig, error)
}

// SequenceAllocator hands out our-numbers. Allocations are serialized
// per config so two concurrent issues never share a number and the
// sequence has no gaps.
type SequenceAllocator interface {
	Next(ctx context.Context, configID string) (int64, error)
}

// BoletoStore persists boleto titles. Update takes the status the
// caller read as an optimistic version marker; a stale update returns
// ErrConflict.
type BoletoStore interface {
	Save(ctx context.Context, b *domain.Boleto) error
	Update(ctx context.Context, b *domain.Boleto, expectStatus domain.BoletoStatus) error
	GetByID(ctx context.Context, id string) (*domain.Boleto, error)
	GetByOurNumber(ctx context.Context, configID string, ourNumber int64) (*domain.Boleto, error)
	FindByOurNumber(ctx context.Context, ourNumber int64) ([]*domain.Boleto, error)
	ListByStatus(ctx context.Context, status domain.BoletoStatus) ([]*domain.Boleto, error)
	ListOpen(ctx context.Context) ([]*domain.Boleto, error)
}

// PixKeyStore persists registered receiving keys.
type PixKeyStore interface {
	Save(ctx context.Context, k *domain.PixKey) error
	GetByID(ctx context.Context, id string) (*domain.PixKey, error)
	GetByValue(ctx context.Context, value string) (*domain.PixKey, error)
	List(ctx context.Context) ([]*domain.PixKey, error)
}

// PixStore persists charges. Update semantics mirror BoletoStore.
type PixStore interface {
	Save(ctx context.Context, tx *domain.PixTransaction) error
	Update(ctx context.Context, tx *domain.PixTransaction, expectStatus domain.PixStatus) error
	GetByID(ctx context.Context, id string) (*domain.PixTransaction, error)
	GetByTxID(ctx context.Context, txid string) (*domain.PixTransaction, error)
	ListByStatus(ctx context.Context, status domain.PixStatus) ([]*domain.PixTransaction, error)
}

// CnabBatchStore persists generated remittances and parsed returns.
type CnabBatchStore interface {
	Save(ctx context.Context, b *domain.CnabBatch) error
	GetByID(ctx context.Context, id string) (*domain.CnabBatch, error)
	List(ctx context.Context, direction domain.CnabDirection) ([]*domain.CnabBatch, error)
}

// StatementStore persists imported bank statement entries.
type StatementStore interface {
	SaveAll(ctx context.Context, entries []*domain.StatementEntry) error
	GetByID(ctx context.Context, id string) (*domain.StatementEntry, error)
	ListByPeriod(ctx context.Context, from, to time.Time) ([]*domain.StatementEntry, error)
}

// MatchStore persists reconciliation matches. Matches are immutable;
// Invalidate stamps InvalidatedAt instead of deleting. Save must reject
// a second active match for the same entry or target with ErrConflict.
type MatchStore interface {
	Save(ctx context.Context, m *domain.ReconciliationMatch) error
	Invalidate(ctx context.Context, id string, at time.Time) (*domain.ReconciliationMatch, error)
	GetByID(ctx context.Context, id string) (*domain.ReconciliationMatch, error)
	ActiveByEntry(ctx context.Context, entryID string) (*domain.ReconciliationMatch, error)
	ActiveByTarget(ctx context.Context, targetType domain.MatchTargetType, targetID string) (*domain.ReconciliationMatch, error)
	ListActive(ctx context.Context) ([]*domain.ReconciliationMatch, error)
	ListManual(ctx context.Context) ([]*domain.ReconciliationMatch, error)
}

// Notifier publishes payment lifecycle events to interested systems.
// Delivery failures are reported, never fatal to the triggering flow.
type Notifier interface {
	NotifyPayment(ctx context.Context, ev domain.PaymentEvent) error
}

// RemittanceDeliverer ships a generated remittance file to the bank
// integration endpoint.
type RemittanceDeliverer interface {
	Deliver(ctx context.Context, batch *domain.CnabBatch) error
}
