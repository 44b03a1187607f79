package cnab

import (
	"fmt"
	"strconv"
	"time"

	"github.com/obrafin/recon-go/internal/codec"
	"github.com/obrafin/recon-go/internal/domain"

	"github.com/shopspring/decimal"
)

// centsString renders a 2dp decimal as a zero-friendly cents integer
// string for right-aligned numeric fields.
func centsString(v decimal.Decimal) string {
	return strconv.FormatInt(v.Round(2).Shift(2).IntPart(), 10)
}

func centsValue(raw string) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}
	cents, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return decimal.Zero
	}
	return decimal.New(cents, -2)
}

// BuildRemittance emits the full outbound record sequence for the given
// layout and boletos: file header, lot header (240 only), one detail set
// per boleto (segments P/Q/R on 240, a single flat detail on 400) and
// the trailers. Trailer counts are re-decoded and checked against the
// emitted records before returning; a mismatch is an ErrFormat and the
// batch is discarded.
func BuildRemittance(layout domain.CnabLayout, cfg *domain.BankAccountConfig, boletos []*domain.Boleto, sequence int, now time.Time, warn codec.WarnFunc) ([]string, error) {
	var (
		lines []string
		err   error
	)
	switch layout {
	case domain.Cnab240:
		lines, err = buildRemittance240(cfg, boletos, sequence, now, warn)
	case domain.Cnab400:
		lines, err = buildRemittance400(cfg, boletos, sequence, now, warn)
	default:
		return nil, &domain.ErrValidation{Field: "layout", Message: fmt.Sprintf("unsupported CNAB layout %d", layout)}
	}
	if err != nil {
		return nil, err
	}
	if err := verifyRemittance(layout, lines, len(boletos)); err != nil {
		return nil, err
	}
	return lines, nil
}

func buildRemittance240(cfg *domain.BankAccountConfig, boletos []*domain.Boleto, sequence int, now time.Time, warn codec.WarnFunc) ([]string, error) {
	lines := make([]string, 0, 4+3*len(boletos))

	header, err := codec.Encode(fileHeader240, map[string]string{
		"bank":             cfg.BankCode,
		"lot":              "0000",
		"record_type":      "0",
		"company_document": OnlyDigits(cfg.BeneficiaryDocument),
		"agency":           OnlyDigits(cfg.Agency),
		"account":          OnlyDigits(cfg.AccountNumber),
		"company_name":     cfg.BeneficiaryName,
		"bank_name":        "BANCO " + cfg.BankCode,
		"generation_date":  now.Format("02012006"),
		"generation_time":  now.Format("150405"),
		"sequence":         strconv.Itoa(sequence),
		"layout_version":   "103",
	}, warn)
	if err != nil {
		return nil, err
	}
	lines = append(lines, header)

	lotHeader, err := codec.Encode(lotHeader240, map[string]string{
		"bank":             cfg.BankCode,
		"lot":              "1",
		"record_type":      "1",
		"operation":        "R",
		"service":          "01",
		"company_document": OnlyDigits(cfg.BeneficiaryDocument),
		"agency":           OnlyDigits(cfg.Agency),
		"account":          OnlyDigits(cfg.AccountNumber),
		"company_name":     cfg.BeneficiaryName,
	}, warn)
	if err != nil {
		return nil, err
	}
	lines = append(lines, lotHeader)

	total := decimal.Zero
	recordSeq := 0
	for _, b := range boletos {
		total = total.Add(b.FaceValue)

		recordSeq++
		segP, err := codec.Encode(segmentP240, map[string]string{
			"bank":            cfg.BankCode,
			"lot":             "1",
			"record_type":     "3",
			"record_seq":      strconv.Itoa(recordSeq),
			"segment":         "P",
			"movement_code":   MovementEntry,
			"agency":          OnlyDigits(cfg.Agency),
			"account":         OnlyDigits(cfg.AccountNumber),
			"our_number":      strconv.FormatInt(b.OurNumber, 10),
			"wallet":          cfg.Wallet,
			"document_number": b.DocumentNumber,
			"due_date":        b.DueDate.Format("02012006"),
			"face_value":      centsString(b.FaceValue),
		}, warn)
		if err != nil {
			return nil, err
		}

		recordSeq++
		segQ, err := codec.Encode(segmentQ240, map[string]string{
			"bank":                cfg.BankCode,
			"lot":                 "1",
			"record_type":         "3",
			"record_seq":          strconv.Itoa(recordSeq),
			"segment":             "Q",
			"movement_code":       MovementEntry,
			"payer_document_type": payerDocumentType(b.Payer.Document),
			"payer_document":      OnlyDigits(b.Payer.Document),
			"payer_name":          b.Payer.Name,
			"payer_address":       b.Payer.Address,
			"payer_city":          b.Payer.City,
			"payer_state":         b.Payer.State,
			"payer_zip":           OnlyDigits(b.Payer.ZipCode),
		}, warn)
		if err != nil {
			return nil, err
		}

		recordSeq++
		fine := cfg.PenaltyPct.Mul(b.FaceValue).Div(decimal.NewFromInt(100)).Round(2)
		interest := cfg.MonthlyInterestPct.Mul(b.FaceValue).Div(decimal.NewFromInt(100)).Round(2)
		segR, err := codec.Encode(segmentR240, map[string]string{
			"bank":           cfg.BankCode,
			"lot":            "1",
			"record_type":    "3",
			"record_seq":     strconv.Itoa(recordSeq),
			"segment":        "R",
			"movement_code":  MovementEntry,
			"fine_code":      "1", // flat value, charged once
			"fine_date":      b.DueDate.AddDate(0, 0, 1).Format("02012006"),
			"fine_value":     centsString(fine),
			"interest_code":  "1",
			"interest_date":  b.DueDate.AddDate(0, 0, 1).Format("02012006"),
			"interest_value": centsString(interest),
		}, warn)
		if err != nil {
			return nil, err
		}

		lines = append(lines, segP, segQ, segR)
	}

	// Lot record count includes the lot header and lot trailer.
	lotTrailer, err := codec.Encode(lotTrailer240, map[string]string{
		"bank":             cfg.BankCode,
		"lot":              "1",
		"record_type":      "5",
		"lot_record_count": strconv.Itoa(recordSeq + 2),
		"total_value":      centsString(total),
	}, warn)
	if err != nil {
		return nil, err
	}
	lines = append(lines, lotTrailer)

	fileTrailer, err := codec.Encode(fileTrailer240, map[string]string{
		"bank":         cfg.BankCode,
		"lot":          "9999",
		"record_type":  "9",
		"lot_count":    "1",
		"record_count": strconv.Itoa(len(lines) + 1),
	}, warn)
	if err != nil {
		return nil, err
	}
	lines = append(lines, fileTrailer)

	return lines, nil
}

func buildRemittance400(cfg *domain.BankAccountConfig, boletos []*domain.Boleto, sequence int, now time.Time, warn codec.WarnFunc) ([]string, error) {
	lines := make([]string, 0, 2+len(boletos))

	header, err := codec.Encode(fileHeader400, map[string]string{
		"record_type":        "0",
		"remittance_code":    "1",
		"remittance_literal": "REMESSA",
		"service_code":       "01",
		"service_literal":    "COBRANCA",
		"agency":             OnlyDigits(cfg.Agency),
		"account":            OnlyDigits(cfg.AccountNumber),
		"company_name":       cfg.BeneficiaryName,
		"bank":               cfg.BankCode,
		"bank_name":          "BANCO " + cfg.BankCode,
		"generation_date":    now.Format("020106"),
		"sequence":           "1",
	}, warn)
	if err != nil {
		return nil, err
	}
	lines = append(lines, header)

	for i, b := range boletos {
		detail, err := codec.Encode(detail400, map[string]string{
			"record_type":           "1",
			"company_document_type": "02", // CNPJ beneficiary
			"company_document":      OnlyDigits(cfg.BeneficiaryDocument),
			"agency":                OnlyDigits(cfg.Agency),
			"account":               OnlyDigits(cfg.AccountNumber),
			"our_number":            strconv.FormatInt(b.OurNumber, 10),
			"our_number_dv":         "0",
			"occurrence_code":       MovementEntry,
			"document_number":       b.DocumentNumber,
			"due_date":              b.DueDate.Format("020106"),
			"face_value":            centsString(b.FaceValue),
			"bank":                  cfg.BankCode,
			"charge_agency":         OnlyDigits(cfg.Agency),
			"payer_document":        OnlyDigits(b.Payer.Document),
			"payer_name":            b.Payer.Name,
			"sequence":              strconv.Itoa(i + 2),
		}, warn)
		if err != nil {
			return nil, err
		}
		lines = append(lines, detail)
	}

	trailer, err := codec.Encode(fileTrailer400, map[string]string{
		"record_type": "9",
		"sequence":    strconv.Itoa(len(lines) + 1),
	}, warn)
	if err != nil {
		return nil, err
	}
	lines = append(lines, trailer)

	return lines, nil
}

func payerDocumentType(document string) string {
	if len(OnlyDigits(document)) == 14 {
		return "2" // CNPJ
	}
	return "1" // CPF
}

// verifyRemittance re-decodes the trailers and checks the declared
// counts against the emitted records (self-consistency invariant).
func verifyRemittance(layout domain.CnabLayout, lines []string, boletoCount int) error {
	if len(lines) == 0 {
		return &domain.ErrFormat{Message: "empty remittance"}
	}
	for i, l := range lines {
		if len(l) != int(layout) {
			return &domain.ErrFormat{Message: fmt.Sprintf("record %d is %d columns, expected %d", i+1, len(l), int(layout))}
		}
	}

	switch layout {
	case domain.Cnab240:
		trailer, err := codec.Decode(fileTrailer240, lines[len(lines)-1])
		if err != nil {
			return err
		}
		declared, _ := strconv.Atoi(trailer["record_count"])
		if declared != len(lines) {
			return &domain.ErrFormat{Message: fmt.Sprintf("file trailer declares %d records, emitted %d", declared, len(lines))}
		}
		lot, err := codec.Decode(lotTrailer240, lines[len(lines)-2])
		if err != nil {
			return err
		}
		declaredLot, _ := strconv.Atoi(lot["lot_record_count"])
		if declaredLot != 3*boletoCount+2 {
			return &domain.ErrFormat{Message: fmt.Sprintf("lot trailer declares %d records, emitted %d", declaredLot, 3*boletoCount+2)}
		}
	case domain.Cnab400:
		trailer, err := codec.Decode(fileTrailer400, lines[len(lines)-1])
		if err != nil {
			return err
		}
		declared, _ := strconv.Atoi(trailer["sequence"])
		if declared != len(lines) {
			return &domain.ErrFormat{Message: fmt.Sprintf("trailer sequence %d, emitted %d records", declared, len(lines))}
		}
	}
	return nil
}
