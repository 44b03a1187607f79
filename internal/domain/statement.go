package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementEntry is one tokenized line from an imported bank statement.
// Read-only once imported; the raw OFX/CSV parsing happens upstream.
type StatementEntry struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Value       decimal.Decimal `json:"value"` // signed
	Description string          `json:"description"`
	Reference   string          `json:"reference,omitempty"` // external token, if extractable
	RawLine     string          `json:"raw_line,omitempty"`
	ImportedAt  time.Time       `json:"imported_at"`
}
