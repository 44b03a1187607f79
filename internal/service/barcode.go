package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/obrafin/recon-go/internal/checkdigit"
	"github.com/obrafin/recon-go/internal/cnab"
	"github.com/obrafin/recon-go/internal/domain"
)

// Barcode layout (44 digits):
//
//	[0:3]   bank code
//	[3]     currency, always 9 (BRL)
//	[4]     general check digit, mod11 over the other 43 positions
//	[5:9]   due date factor, days since 1997-10-07
//	[9:19]  value in cents, zero padded
//	[19:44] free field: wallet(2) + our number(11) + agency(4) + account(8)
var factorEpoch = time.Date(1997, 10, 7, 0, 0, 0, 0, time.UTC)

const currencyBRL = "9"

// dueDateFactor converts a due date into the 4-digit factor. Dates past
// the 9999 horizon wrap back into the 1000-9999 window, matching what
// the banks adopted in 2025. A zero due date yields 0000.
func dueDateFactor(due time.Time) string {
	if due.IsZero() {
		return "0000"
	}
	days := int(due.Sub(factorEpoch) / (24 * time.Hour))
	if days > 9999 {
		days = (days-1000)%9000 + 1000
	}
	return fmt.Sprintf("%04d", days)
}

// padDigits strips formatting from raw and left-pads the digits to
// width. Too many digits is an ErrFormat, never silent truncation.
func padDigits(field, raw string, width int) (string, error) {
	digits := cnab.OnlyDigits(raw)
	if len(digits) > width {
		return "", &domain.ErrFormat{Field: field, Message: fmt.Sprintf("%q does not fit in %d digits", raw, width)}
	}
	for len(digits) < width {
		digits = "0" + digits
	}
	return digits, nil
}

// BuildBarcode assembles the 44-digit barcode for a boleto drawn
// against the given account.
func BuildBarcode(cfg *domain.BankAccountConfig, b *domain.Boleto) (string, error) {
	bank, err := padDigits("bank_code", cfg.BankCode, 3)
	if err != nil {
		return "", err
	}

	cents := b.FaceValue.Round(2).Shift(2).IntPart()
	if cents <= 0 {
		return "", &domain.ErrFormat{Field: "face_value", Message: "value must be positive"}
	}
	value := strconv.FormatInt(cents, 10)
	if len(value) > 10 {
		return "", &domain.ErrFormat{Field: "face_value", Message: "value exceeds 10 digits in cents"}
	}
	value, _ = padDigits("face_value", value, 10)

	wallet, err := padDigits("wallet", cfg.Wallet, 2)
	if err != nil {
		return "", err
	}
	ourNumber, err := padDigits("our_number", strconv.FormatInt(b.OurNumber, 10), 11)
	if err != nil {
		return "", err
	}
	agency, err := padDigits("agency", cfg.Agency, 4)
	if err != nil {
		return "", err
	}
	account, err := padDigits("account", cfg.AccountNumber, 8)
	if err != nil {
		return "", err
	}

	free := wallet + ourNumber + agency + account
	factor := dueDateFactor(b.DueDate)

	dv, err := checkdigit.Mod11Boleto(bank + currencyBRL + factor + value + free)
	if err != nil {
		return "", err
	}

	return bank + currencyBRL + strconv.Itoa(dv) + factor + value + free, nil
}

// ValidateBarcode checks length, digit content and the general check
// digit of a 44-digit barcode.
func ValidateBarcode(barcode string) error {
	if len(barcode) != 44 {
		return &domain.ErrFormat{Field: "barcode", Message: fmt.Sprintf("expected 44 digits, got %d", len(barcode))}
	}
	for _, r := range barcode {
		if r < '0' || r > '9' {
			return &domain.ErrFormat{Field: "barcode", Message: "barcode must be numeric"}
		}
	}
	dv, err := checkdigit.Mod11Boleto(barcode[0:4] + barcode[5:44])
	if err != nil {
		return err
	}
	if strconv.Itoa(dv) != string(barcode[4]) {
		return &domain.ErrFormat{Field: "barcode", Message: "general check digit mismatch"}
	}
	return nil
}

// DigitableLine derives the 47-digit typeable representation from a
// barcode. Fields one to three interleave the free field with their own
// mod10 check digits; field four repeats the general check digit and
// field five carries factor plus value.
func DigitableLine(barcode string) (string, error) {
	if err := ValidateBarcode(barcode); err != nil {
		return "", err
	}

	free := barcode[19:44]

	f1 := barcode[0:4] + free[0:5]
	dv1, err := checkdigit.Mod10(f1)
	if err != nil {
		return "", err
	}
	f1 += strconv.Itoa(dv1)

	f2 := free[5:15]
	dv2, err := checkdigit.Mod10(f2)
	if err != nil {
		return "", err
	}
	f2 += strconv.Itoa(dv2)

	f3 := free[15:25]
	dv3, err := checkdigit.Mod10(f3)
	if err != nil {
		return "", err
	}
	f3 += strconv.Itoa(dv3)

	f4 := string(barcode[4])
	f5 := barcode[5:19]

	return fmt.Sprintf("%s.%s %s.%s %s.%s %s %s",
		f1[0:5], f1[5:10],
		f2[0:5], f2[5:11],
		f3[0:5], f3[5:11],
		f4, f5,
	), nil
}

// ReconstructBarcode rebuilds and validates the 44-digit barcode from a
// digitable line, with or without its dot and space formatting. All
// four check digits are verified.
func ReconstructBarcode(line string) (string, error) {
	d := cnab.OnlyDigits(line)
	if len(d) != 47 {
		return "", &domain.ErrFormat{Field: "digitable_line", Message: fmt.Sprintf("expected 47 digits, got %d", len(d))}
	}

	for _, f := range []struct {
		data string
		dv   byte
		name string
	}{
		{d[0:9], d[9], "field 1"},
		{d[10:20], d[20], "field 2"},
		{d[21:31], d[31], "field 3"},
	} {
		dv, err := checkdigit.Mod10(f.data)
		if err != nil {
			return "", err
		}
		if byte('0'+dv) != f.dv {
			return "", &domain.ErrFormat{Field: "digitable_line", Message: f.name + " check digit mismatch"}
		}
	}

	free := d[4:9] + d[10:20] + d[21:31]
	barcode := d[0:4] + string(d[32]) + d[33:47] + free

	if err := ValidateBarcode(barcode); err != nil {
		return "", err
	}
	return barcode, nil
}
