package service_test

import (
	"strings"
	"testing"
	"time"

	"github.com/obrafin/recon-go/internal/domain"
	"github.com/obrafin/recon-go/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func barcodeConfig() *domain.BankAccountConfig {
	return &domain.BankAccountConfig{
		ID:            "cfg-1",
		BankCode:      "341",
		Agency:        "1234",
		AccountNumber: "56789",
		Wallet:        "09",
		Active:        true,
	}
}

func TestBuildBarcode(t *testing.T) {
	b := &domain.Boleto{
		OurNumber: 101,
		DueDate:   time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		FaceValue: decimal.RequireFromString("150.00"),
	}

	barcode, err := service.BuildBarcode(barcodeConfig(), b)
	require.NoError(t, err)
	assert.Equal(t, "34196995700000150000900000000101123400056789", barcode)
	assert.NoError(t, service.ValidateBarcode(barcode))
}

func TestBuildBarcode_FactorWrapsPastHorizon(t *testing.T) {
	// 2025-03-01 is 10007 days past the factor epoch; it wraps to 1007.
	b := &domain.Boleto{
		OurNumber: 1,
		DueDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		FaceValue: decimal.RequireFromString("10.00"),
	}

	barcode, err := service.BuildBarcode(barcodeConfig(), b)
	require.NoError(t, err)
	assert.Equal(t, "1007", barcode[5:9])
}

func TestBuildBarcode_NoDueDate(t *testing.T) {
	b := &domain.Boleto{
		OurNumber: 1,
		FaceValue: decimal.RequireFromString("10.00"),
	}

	barcode, err := service.BuildBarcode(barcodeConfig(), b)
	require.NoError(t, err)
	assert.Equal(t, "0000", barcode[5:9])
}

func TestBuildBarcode_RejectsNonPositiveValue(t *testing.T) {
	b := &domain.Boleto{OurNumber: 1, FaceValue: decimal.Zero}

	_, err := service.BuildBarcode(barcodeConfig(), b)
	var formatErr *domain.ErrFormat
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, "face_value", formatErr.Field)
}

func TestDigitableLine(t *testing.T) {
	line, err := service.DigitableLine("34196995700000150000900000000101123400056789")
	require.NoError(t, err)
	assert.Equal(t, "34190.90000 00000.101121 34000.567890 6 99570000015000", line)
}

func TestReconstructBarcode_RoundTrip(t *testing.T) {
	barcode := "34196995700000150000900000000101123400056789"
	line, err := service.DigitableLine(barcode)
	require.NoError(t, err)

	got, err := service.ReconstructBarcode(line)
	require.NoError(t, err)
	assert.Equal(t, barcode, got)

	// Unformatted digits reconstruct too.
	raw := strings.NewReplacer(".", "", " ", "").Replace(line)
	got, err = service.ReconstructBarcode(raw)
	require.NoError(t, err)
	assert.Equal(t, barcode, got)
}

func TestReconstructBarcode_DetectsTypo(t *testing.T) {
	line := "34190.90000 00000.101121 34000.567890 6 99570000015000"

	// Flip one digit inside field 2; its mod10 check digit must catch it.
	corrupted := strings.Replace(line, "00000.101121", "00000.102121", 1)
	_, err := service.ReconstructBarcode(corrupted)
	var formatErr *domain.ErrFormat
	require.ErrorAs(t, err, &formatErr)
}

func TestReconstructBarcode_WrongLength(t *testing.T) {
	_, err := service.ReconstructBarcode("12345")
	var formatErr *domain.ErrFormat
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, "digitable_line", formatErr.Field)
}
