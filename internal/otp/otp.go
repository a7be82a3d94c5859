// Package otp generates the short numeric one-time codes used for admin login.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Length is the number of digits in a generated code.
const Length = 6

// Generate returns a 6-digit numeric code (100000-999999) drawn from
// crypto/rand. It fails only if the entropy source is unavailable.
func Generate() (string, error) {
	// Range: 100000 to 999999 (900000 values)
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
