package utils

import "github.com/thanhpk/randstr"

const (
	digits        = "0123456789"
	leadingDigits = "123456789"
)

// NumericCode returns an n-digit code whose first digit is never zero.
func NumericCode(n int) string {
	if n <= 0 {
		return ""
	}
	return randstr.String(1, leadingDigits) + randstr.String(n-1, digits)
}

// ResetTokenLength is the number of hex characters in a reset token.
const ResetTokenLength = 64

// SecureToken returns ResetTokenLength random hex characters.
func SecureToken() string {
	return randstr.Hex(ResetTokenLength)
}
