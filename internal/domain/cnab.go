package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CnabLayout selects between the 240 and 400 byte record standards.
type CnabLayout int

const (
	Cnab240 CnabLayout = 240
	Cnab400 CnabLayout = 400
)

// CnabDirection tells remittance (outbound) from return (inbound) files.
type CnabDirection string

const (
	CnabOutbound CnabDirection = "OUTBOUND"
	CnabInbound  CnabDirection = "INBOUND"
)

// CnabBatchStatus is the per-batch state machine:
// BUILDING -> GENERATED (outbound), PARSING -> PARSED (inbound).
// Both end states are terminal; re-processing requires a new batch.
type CnabBatchStatus string

const (
	CnabBuilding  CnabBatchStatus = "BUILDING"
	CnabGenerated CnabBatchStatus = "GENERATED"
	CnabParsing   CnabBatchStatus = "PARSING"
	CnabParsed    CnabBatchStatus = "PARSED"
)

// ReturnOccurrence classifies the bank occurrence code on a return entry.
type ReturnOccurrence string

const (
	OccurrenceConfirmed  ReturnOccurrence = "CONFIRMED"  // entry registered by the bank
	OccurrenceLiquidated ReturnOccurrence = "LIQUIDATED" // boleto was paid
	OccurrenceDischarged ReturnOccurrence = "DISCHARGED" // baixa/cancellation acknowledged
	OccurrenceRejected   ReturnOccurrence = "REJECTED"   // entry rejected by the bank
	OccurrenceUnknown    ReturnOccurrence = "UNKNOWN"    // surfaced, never guessed
)

// ReturnEntry is one decoded detail line from an inbound return file.
type ReturnEntry struct {
	LineNumber     int              `json:"line_number"`
	OurNumber      int64            `json:"our_number"`
	OccurrenceCode string           `json:"occurrence_code"`
	Occurrence     ReturnOccurrence `json:"occurrence"`
	PaidValue      decimal.Decimal  `json:"paid_value"`
	PaymentDate    *time.Time       `json:"payment_date,omitempty"`
}

// ParseWarning flags a malformed line without discarding the batch.
type ParseWarning struct {
	LineNumber int    `json:"line_number"`
	Reason     string `json:"reason"`
}

// CnabBatch is one remittance or return file instance. Immutable once
// GENERATED or PARSED.
type CnabBatch struct {
	ID          string          `json:"id"`
	Layout      CnabLayout      `json:"layout"`
	Direction   CnabDirection   `json:"direction"`
	Status      CnabBatchStatus `json:"status"`
	Sequence    int             `json:"sequence"`
	GeneratedAt time.Time       `json:"generated_at"`
	Lines       []string        `json:"lines,omitempty"`
	Entries     []ReturnEntry   `json:"entries,omitempty"`
	Warnings    []ParseWarning  `json:"warnings,omitempty"`
}

// Content renders the batch as file text, one record per line.
func (b *CnabBatch) Content() string {
	out := ""
	for i, l := range b.Lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
