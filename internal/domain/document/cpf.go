// Package document implements normalization and checksum validation of the
// Brazilian individual taxpayer number (CPF).
package document

import (
	"strings"

	"github.com/beneficios/backend/internal/domain/shared"
)

// CPFLength is the number of digits of a normalized CPF
const CPFLength = 11

// Result is the outcome of FormatAndValidate
type Result struct {
	Formatted string `json:"formatted"`
	IsValid   bool   `json:"is_valid"`
}

// Clean strips every non-digit character from the input
func Clean(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for i := 0; i < len(input); i++ {
		if c := input[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Format renders the input in the XXX.XXX.XXX-XX presentation form.
// It never fails: short inputs are left-padded with zeros and digits beyond
// the eleventh are dropped.
func Format(input string) string {
	digits := Clean(input)
	if len(digits) > CPFLength {
		digits = digits[:CPFLength]
	}
	if len(digits) < CPFLength {
		digits = strings.Repeat("0", CPFLength-len(digits)) + digits
	}
	return digits[0:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:11]
}

// IsValid reports whether the input is an 11-digit CPF whose two check digits match
func IsValid(input string) bool {
	digits := Clean(input)
	if len(digits) != CPFLength {
		return false
	}
	if allSame(digits) {
		return false
	}
	if checkDigit(digits, 9) != int(digits[9]-'0') {
		return false
	}
	return checkDigit(digits, 10) == int(digits[10]-'0')
}

// FormatAndValidate formats and validates the input independently
func FormatAndValidate(input string) Result {
	return Result{
		Formatted: Format(input),
		IsValid:   IsValid(input),
	}
}

// checkDigit computes the check digit over the first n digits.
// Weights run from n+1 down to 2.
func checkDigit(digits string, n int) int {
	sum := 0
	for i := 0; i < n; i++ {
		sum += int(digits[i]-'0') * (n + 1 - i)
	}
	rest := (sum * 10) % 11
	if rest == 10 || rest == 11 {
		return 0
	}
	return rest
}

func allSame(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}

// ErrInvalidDocument is returned when a document number fails validation
var ErrInvalidDocument = shared.NewDomainError("INVALID_DOCUMENT", "Invalid document number")

// CPF is a validated, normalized document number
type CPF struct {
	digits string
}

// Parse cleans and validates the input
func Parse(input string) (CPF, error) {
	if !IsValid(input) {
		return CPF{}, ErrInvalidDocument
	}
	return CPF{digits: Clean(input)}, nil
}

// String returns the 11 bare digits
func (c CPF) String() string {
	return c.digits
}

// Formatted returns the XXX.XXX.XXX-XX form
func (c CPF) Formatted() string {
	return Format(c.digits)
}

// Masked hides the first three and last two digits, e.g. ***.444.777-**.
// Use it wherever a CPF ends up in logs.
func (c CPF) Masked() string {
	return Mask(c.digits)
}

// IsZero reports whether c was never parsed
func (c CPF) IsZero() bool {
	return c.digits == ""
}

// Mask renders any input in masked form without validating it
func Mask(input string) string {
	f := Format(input)
	return "***" + f[3:11] + "-**"
}
