// Package cpf validates Brazilian CPF tax-id numbers.
package cpf

import "bloodbank/internal/domain"

type validator struct{}

// NewValidator returns a CPFValidator implementing the standard CPF
// mod-11 check-digit algorithm.
func NewValidator() domain.CPFValidator {
	return validator{}
}

// IsValid reports whether s is a well-formed CPF. Punctuation
// ("123.456.789-09") is accepted and ignored.
func (validator) IsValid(s string) bool {
	digits := make([]int, 0, 11)
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits = append(digits, int(r-'0'))
		case r == '.' || r == '-' || r == ' ':
			// formatting characters
		default:
			return false
		}
	}
	if len(digits) != 11 {
		return false
	}
	// CPFs with all digits equal pass the checksum but are not issued.
	allEqual := true
	for _, d := range digits[1:] {
		if d != digits[0] {
			allEqual = false
			break
		}
	}
	if allEqual {
		return false
	}
	return digits[9] == checkDigit(digits[:9]) && digits[10] == checkDigit(digits[:10])
}

func checkDigit(digits []int) int {
	weight := len(digits) + 1
	sum := 0
	for _, d := range digits {
		sum += d * weight
		weight--
	}
	rest := (sum * 10) % 11
	if rest == 10 {
		return 0
	}
	return rest
}
