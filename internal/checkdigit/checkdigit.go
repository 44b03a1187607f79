// Package checkdigit implements the modulo-10 and modulo-11 check-digit
// algorithms used by boleto barcodes, digitable lines and fiscal keys.
// Both functions are pure and deterministic.
package checkdigit

import "github.com/obrafin/recon-go/internal/domain"

// Mod10 computes the Luhn-style check digit: weights alternate 2,1 from
// the rightmost digit, digits of products greater than 9 are summed, and
// the result is (10 - sum%10) % 10.
func Mod10(digits string) (int, error) {
	if err := validate(digits); err != nil {
		return 0, err
	}
	sum := 0
	weight := 2
	for i := len(digits) - 1; i >= 0; i-- {
		p := int(digits[i]-'0') * weight
		if p > 9 {
			p = p/10 + p%10
		}
		sum += p
		if weight == 2 {
			weight = 1
		} else {
			weight = 2
		}
	}
	return (10 - sum%10) % 10, nil
}

// Mod11Boleto computes the general boleto check digit: cyclic weights
// 2..9 applied from the rightmost digit, dv = 11 - sum%11. Banks reject
// dv values of 0, 1, 10 and 11, which the convention remaps to 1; that
// mapping is preserved exactly.
func Mod11Boleto(digits string) (int, error) {
	if err := validate(digits); err != nil {
		return 0, err
	}
	sum := 0
	weight := 2
	for i := len(digits) - 1; i >= 0; i-- {
		sum += int(digits[i]-'0') * weight
		weight++
		if weight > 9 {
			weight = 2
		}
	}
	dv := 11 - sum%11
	if dv == 0 || dv == 1 || dv == 10 || dv == 11 {
		return 1, nil
	}
	return dv, nil
}

func validate(digits string) error {
	if digits == "" {
		return &domain.ErrFormat{Message: "empty digit string"}
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return &domain.ErrFormat{Message: "digit string contains non-digit characters"}
		}
	}
	return nil
}
