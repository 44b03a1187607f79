package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PixKeyType enumerates the registered key kinds.
type PixKeyType string

const (
	PixKeyCPF    PixKeyType = "cpf"
	PixKeyCNPJ   PixKeyType = "cnpj"
	PixKeyEmail  PixKeyType = "email"
	PixKeyPhone  PixKeyType = "phone"
	PixKeyRandom PixKeyType = "random"
)

// PixKey is a registered receiving key. Deactivation is blocked while
// any PENDING transaction references it.
type PixKey struct {
	ID        string     `json:"id"`
	KeyType   PixKeyType `json:"key_type"`
	KeyValue  string     `json:"key_value"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
}

// PixStatus is the lifecycle state of a PIX charge.
type PixStatus string

const (
	PixPending   PixStatus = "PENDING"
	PixApproved  PixStatus = "APPROVED"
	PixRejected  PixStatus = "REJECTED"
	PixCancelled PixStatus = "CANCELLED"
	PixExpired   PixStatus = "EXPIRED"
	PixRefunded  PixStatus = "REFUNDED"
)

var pixTransitions = map[PixStatus][]PixStatus{
	PixPending:   {PixApproved, PixRejected, PixCancelled, PixExpired},
	PixApproved:  {PixRefunded},
	PixRejected:  {},
	PixCancelled: {},
	PixExpired:   {},
	PixRefunded:  {},
}

// CanTransitionPix reports whether a PIX charge may move between statuses.
func CanTransitionPix(from, to PixStatus) bool {
	for _, allowed := range pixTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// PixTransaction is one PIX charge identified by its end-to-end id.
// Once APPROVED or REFUNDED the record is terminal.
type PixTransaction struct {
	ID          string          `json:"id"`
	TxID        string          `json:"txid"` // end-to-end id, provider-assigned, unique
	KeyID       string          `json:"key_id"`
	Value       decimal.Decimal `json:"value"`
	Description string          `json:"description,omitempty"`
	Status      PixStatus       `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	ExpiresAt   time.Time       `json:"expires_at"`
	ApprovedAt  *time.Time      `json:"approved_at,omitempty"`
}
