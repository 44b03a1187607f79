package cnab

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/obrafin/recon-go/internal/codec"
	"github.com/obrafin/recon-go/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *domain.BankAccountConfig {
	return &domain.BankAccountConfig{
		ID:                  "cfg-1",
		BankCode:            "341",
		Agency:              "1234",
		AccountNumber:       "56789",
		Wallet:              "09",
		BeneficiaryName:     "CONSTRUMAT MATERIAIS DE CONSTRUCAO",
		BeneficiaryDocument: "12.345.678/0001-90",
		PenaltyPct:          decimal.NewFromFloat(2.0),
		MonthlyInterestPct:  decimal.NewFromFloat(2.0),
		Active:              true,
	}
}

func testBoleto(ourNumber int64, value string) *domain.Boleto {
	return &domain.Boleto{
		ID:             fmt.Sprintf("bol-%d", ourNumber),
		ConfigID:       "cfg-1",
		OurNumber:      ourNumber,
		DocumentNumber: fmt.Sprintf("NF-%d", ourNumber),
		IssueDate:      time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		DueDate:        time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		FaceValue:      decimal.RequireFromString(value),
		Status:         domain.BoletoOpen,
		Payer: domain.Payer{
			Name:     "JOAO DA SILVA",
			Document: "123.456.789-09",
			Address:  "RUA DAS OBRAS 100",
			City:     "SAO PAULO",
			State:    "SP",
			ZipCode:  "01310-000",
		},
	}
}

func TestBuildRemittance240(t *testing.T) {
	cfg := testConfig()
	boletos := []*domain.Boleto{testBoleto(101, "150.00"), testBoleto(102, "99.90")}

	lines, err := BuildRemittance(domain.Cnab240, cfg, boletos, 7, time.Date(2025, 2, 1, 10, 30, 0, 0, time.UTC), nil)
	require.NoError(t, err)

	// file header + lot header + P/Q/R per boleto + lot trailer + file trailer
	require.Len(t, lines, 4+3*len(boletos))
	for i, l := range lines {
		assert.Len(t, l, 240, "record %d", i+1)
	}

	p, err := codec.Decode(segmentP240, lines[2])
	require.NoError(t, err)
	assert.Equal(t, "101", p["our_number"])
	assert.Equal(t, "15000", p["face_value"])
	assert.Equal(t, "10012025", p["due_date"])

	q, err := codec.Decode(segmentQ240, lines[3])
	require.NoError(t, err)
	assert.Equal(t, "JOAO DA SILVA", q["payer_name"])
	assert.Equal(t, "1", q["payer_document_type"])

	trailer, err := codec.Decode(fileTrailer240, lines[len(lines)-1])
	require.NoError(t, err)
	assert.Equal(t, "10", trailer["record_count"])

	lot, err := codec.Decode(lotTrailer240, lines[len(lines)-2])
	require.NoError(t, err)
	assert.Equal(t, "8", lot["lot_record_count"])
	assert.Equal(t, "24990", lot["total_value"]) // 150.00 + 99.90 in cents
}

func TestBuildRemittance400(t *testing.T) {
	cfg := testConfig()
	boletos := []*domain.Boleto{testBoleto(55, "1200.00")}

	lines, err := BuildRemittance(domain.Cnab400, cfg, boletos, 1, time.Now().UTC(), nil)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	for _, l := range lines {
		assert.Len(t, l, 400)
	}

	header, err := codec.Decode(fileHeader400, lines[0])
	require.NoError(t, err)
	assert.Equal(t, "REMESSA", header["remittance_literal"])

	detail, err := codec.Decode(detail400, lines[1])
	require.NoError(t, err)
	assert.Equal(t, "55", detail["our_number"])
	assert.Equal(t, "120000", detail["face_value"])
}

func returnDetail400(t *testing.T, ourNumber int64, occurrence, paidCents, date string, seq int) string {
	t.Helper()
	line, err := codec.Encode(detail400, map[string]string{
		"record_type":     "1",
		"our_number":      fmt.Sprintf("%d", ourNumber),
		"occurrence_code": occurrence,
		"occurrence_date": date,
		"paid_value":      paidCents,
		"sequence":        fmt.Sprintf("%d", seq),
	}, nil)
	require.NoError(t, err)
	return line
}

// A 400-layout return with 50 valid detail lines and one line of wrong
// length yields 50 entries plus exactly one warning; the batch is still
// usable.
func TestParseReturn400_PartialFailure(t *testing.T) {
	var lines []string
	header, err := codec.Encode(fileHeader400, map[string]string{"record_type": "0", "remittance_code": "2", "remittance_literal": "RETORNO", "sequence": "1"}, nil)
	require.NoError(t, err)
	lines = append(lines, header)

	for i := 0; i < 50; i++ {
		lines = append(lines, returnDetail400(t, int64(1000+i), "06", "10050", "200125", i+2))
	}
	lines = append(lines, "THIS LINE HAS THE WRONG LENGTH")
	trailer, err := codec.Encode(fileTrailer400, map[string]string{"record_type": "9", "sequence": "53"}, nil)
	require.NoError(t, err)
	lines = append(lines, trailer)

	res, err := ParseReturn(domain.Cnab400, strings.Join(lines, "\n")+"\n")
	require.NoError(t, err)
	assert.Len(t, res.Entries, 50)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, 52, res.Warnings[0].LineNumber)

	first := res.Entries[0]
	assert.Equal(t, int64(1000), first.OurNumber)
	assert.Equal(t, "06", first.OccurrenceCode)
	assert.Equal(t, domain.OccurrenceLiquidated, first.Occurrence)
	assert.True(t, first.PaidValue.Equal(decimal.RequireFromString("100.50")))
	require.NotNil(t, first.PaymentDate)
	assert.Equal(t, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), *first.PaymentDate)
}

func TestParseReturn240_SegmentT(t *testing.T) {
	line, err := codec.Encode(segmentT240, map[string]string{
		"bank":          "341",
		"lot":           "1",
		"record_type":   "3",
		"record_seq":    "1",
		"segment":       "T",
		"movement_code": "17",
		"our_number":    "4242",
		"paid_value":    "500000",
		"payment_date":  "05012025",
	}, nil)
	require.NoError(t, err)

	res, err := ParseReturn(domain.Cnab240, line)
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Empty(t, res.Warnings)

	e := res.Entries[0]
	assert.Equal(t, int64(4242), e.OurNumber)
	assert.Equal(t, domain.OccurrenceLiquidated, e.Occurrence)
	assert.True(t, e.PaidValue.Equal(decimal.RequireFromString("5000.00")))
	require.NotNil(t, e.PaymentDate)
	assert.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), *e.PaymentDate)
}

func TestOccurrenceFromCode(t *testing.T) {
	assert.Equal(t, domain.OccurrenceConfirmed, OccurrenceFromCode("02"))
	assert.Equal(t, domain.OccurrenceLiquidated, OccurrenceFromCode("06"))
	assert.Equal(t, domain.OccurrenceLiquidated, OccurrenceFromCode("17"))
	assert.Equal(t, domain.OccurrenceDischarged, OccurrenceFromCode("09"))
	assert.Equal(t, domain.OccurrenceRejected, OccurrenceFromCode("03"))
	assert.Equal(t, domain.OccurrenceUnknown, OccurrenceFromCode("99"))
}
