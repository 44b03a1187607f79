package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MatchMethod says how a statement entry was linked to an instrument.
type MatchMethod string

const (
	MatchExactReference    MatchMethod = "EXACT_REFERENCE"
	MatchTolerantValueDate MatchMethod = "TOLERANT_VALUE_DATE"
	MatchManual            MatchMethod = "MANUAL"
)

// MatchTargetType discriminates the matched instrument kind.
type MatchTargetType string

const (
	TargetBoleto MatchTargetType = "BOLETO"
	TargetPix    MatchTargetType = "PIX"
)

// ReconciliationMatch links one statement entry to exactly one boleto or
// one PIX transaction. Matches are immutable: corrections create a new
// match and invalidate the old one, preserving the audit trail.
type ReconciliationMatch struct {
	ID            string          `json:"id"`
	EntryID       string          `json:"entry_id"`
	TargetType    MatchTargetType `json:"target_type"`
	TargetID      string          `json:"target_id"`
	Method        MatchMethod     `json:"method"`
	Confidence    float64         `json:"confidence"` // 1.0 exact, 0.8 tolerant, 1.0 manual
	CreatedAt     time.Time       `json:"created_at"`
	InvalidatedAt *time.Time      `json:"invalidated_at,omitempty"`
}

// Active reports whether the match still stands.
func (m *ReconciliationMatch) Active() bool {
	return m.InvalidatedAt == nil
}

// MatchResult is the per-entry outcome of a matching pass.
type MatchResult struct {
	EntryID string               `json:"entry_id"`
	Match   *ReconciliationMatch `json:"match,omitempty"`
	// Candidates counts tolerant candidates when no match was created;
	// zero or >1 means the entry was left for manual resolution.
	Candidates int    `json:"candidates"`
	Reason     string `json:"reason,omitempty"`
}

// ReconciliationSummary aggregates match statistics for a period.
type ReconciliationSummary struct {
	From                time.Time       `json:"from"`
	To                  time.Time       `json:"to"`
	MatchedCount        int             `json:"matched_count"`
	UnmatchedCount      int             `json:"unmatched_count"`
	ManualCount         int             `json:"manual_count"`
	TotalMatchedValue   decimal.Decimal `json:"total_matched_value"`
	TotalUnmatchedValue decimal.Decimal `json:"total_unmatched_value"`
}

// PaymentEvent is handed to the notification collaborator when a
// payment is confirmed by reconciliation or a PIX charge expires.
type PaymentEvent struct {
	Kind       string          `json:"kind"` // boleto_paid, pix_approved, pix_expired
	TargetType MatchTargetType `json:"target_type"`
	TargetID   string          `json:"target_id"`
	Value      decimal.Decimal `json:"value"`
	OccurredAt time.Time       `json:"occurred_at"`
}
