package helpers

import (
	"crypto/rand"
	"fmt"
	"io"
)

// OTPGenerator produces fixed-width numeric one-time codes. Rand defaults to
// crypto/rand and is injectable so tests can pin the output.
type OTPGenerator struct {
	Digits int
	Rand   io.Reader
}

// NewOTPGenerator returns a generator for codes of the given width.
func NewOTPGenerator(digits int) *OTPGenerator {
	if digits <= 0 {
		digits = 4
	}
	return &OTPGenerator{Digits: digits, Rand: rand.Reader}
}

// Generate returns a zero-padded numeric code of exactly Digits characters.
// Widths outside 1..18 are clamped so the decimal modulus cannot overflow.
func (g *OTPGenerator) Generate() (string, error) {
	digits := g.Digits
	if digits <= 0 {
		digits = 4
	}
	if digits > 18 {
		digits = 18
	}
	src := g.Rand
	if src == nil {
		src = rand.Reader
	}
	b := make([]byte, 4)
	if _, err := io.ReadFull(src, b); err != nil {
		return "", err
	}
	n := uint64(b[0])<<24 | uint64(b[1])<<16 | uint64(b[2])<<8 | uint64(b[3])
	mod := uint64(1)
	for i := 0; i < digits; i++ {
		mod *= 10
	}
	return fmt.Sprintf("%0*d", digits, n%mod), nil
}
