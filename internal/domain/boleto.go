package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BoletoStatus is the lifecycle state of a bank-slip charge.
type BoletoStatus string

const (
	BoletoOpen       BoletoStatus = "OPEN"
	BoletoRegistered BoletoStatus = "REGISTERED"
	BoletoPaid       BoletoStatus = "PAID"
	BoletoOverdue    BoletoStatus = "OVERDUE" // derived, never persisted
	BoletoCancelled  BoletoStatus = "CANCELLED"
)

// boletoTransitions is the closed table of allowed status transitions.
// OVERDUE is a query-time view of OPEN/REGISTERED past due, not a
// persisted state, so it never appears here.
var boletoTransitions = map[BoletoStatus][]BoletoStatus{
	BoletoOpen:       {BoletoRegistered, BoletoPaid, BoletoCancelled},
	BoletoRegistered: {BoletoPaid, BoletoCancelled},
	BoletoPaid:       {},
	BoletoCancelled:  {},
}

// CanTransitionBoleto reports whether a boleto may move from one status
// to another. All call sites validate here, never ad hoc.
func CanTransitionBoleto(from, to BoletoStatus) bool {
	for _, allowed := range boletoTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Boleto represents one bank-slip charge.
type Boleto struct {
	ID             string          `json:"id"`
	ConfigID       string          `json:"config_id"`
	OurNumber      int64           `json:"our_number"` // sequential, unique per config
	DocumentNumber string          `json:"document_number"`
	IssueDate      time.Time       `json:"issue_date"`
	DueDate        time.Time       `json:"due_date"`
	FaceValue      decimal.Decimal `json:"face_value"`
	InterestAmount decimal.Decimal `json:"interest_amount"`
	PenaltyAmount  decimal.Decimal `json:"penalty_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	PaymentDate    *time.Time      `json:"payment_date,omitempty"`
	Status         BoletoStatus    `json:"status"`
	Payer          Payer           `json:"payer"`
	Barcode        string          `json:"barcode"`        // 44 digits
	DigitableLine  string          `json:"digitable_line"` // 47 digits, dot/space formatted
	CreatedAt      time.Time       `json:"created_at"`
}

// EffectiveStatus derives OVERDUE for open instruments past due.
func (b *Boleto) EffectiveStatus(asOf time.Time) BoletoStatus {
	if (b.Status == BoletoOpen || b.Status == BoletoRegistered) && b.DueDate.Before(asOf) {
		return BoletoOverdue
	}
	return b.Status
}

// Open reports whether the boleto can still receive a payment.
func (b *Boleto) Open() bool {
	return b.Status == BoletoOpen || b.Status == BoletoRegistered
}
