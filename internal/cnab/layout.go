// Package cnab builds outbound remittance files and parses inbound
// return files in the CNAB 240 and CNAB 400 interbank layouts. Record
// shapes are declared as explicit field-spec tables consumed by the
// fixed-width codec; each segment kind is a distinct record spec
// assembled in the layout-defined order.
package cnab

import (
	"strings"

	"github.com/obrafin/recon-go/internal/domain"
)

// Movement/occurrence codes follow the CNAB convention. Outbound details
// carry movement 01 (entrada de título); inbound returns are classified
// by the occurrence table below.
const (
	MovementEntry = "01"

	occConfirmed       = "02"
	occRejected        = "03"
	occLiquidated      = "06"
	occDischargeByBank = "09"
	occDischarge       = "10"
	occLiquidatedLate  = "17"
)

// OccurrenceFromCode maps a bank occurrence code to its classification.
// Unrecognized codes are surfaced as UNKNOWN, never guessed.
func OccurrenceFromCode(code string) domain.ReturnOccurrence {
	switch strings.TrimSpace(code) {
	case occConfirmed:
		return domain.OccurrenceConfirmed
	case occLiquidated, occLiquidatedLate:
		return domain.OccurrenceLiquidated
	case occDischargeByBank, occDischarge:
		return domain.OccurrenceDischarged
	case occRejected:
		return domain.OccurrenceRejected
	default:
		return domain.OccurrenceUnknown
	}
}

// OnlyDigits strips formatting from documents and account numbers before
// they enter numeric fields.
func OnlyDigits(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
