package utils

import (
	"crypto/rand"
	"math/big"
)

// Ambiguous glyphs (0/O, 1/I/L) are left out so references survive being read over the phone.
const referenceAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// NewBookingReference returns a short human-facing code such as GS-7K3M9Q2X.
func NewBookingReference() (string, error) {
	s, err := randomString(referenceAlphabet, 8)
	if err != nil {
		return "", err
	}
	return "GS-" + s, nil
}

// NewPIN returns a numeric guest PIN of the given length.
func NewPIN(n int) (string, error) {
	return randomString("0123456789", n)
}

func randomString(alphabet string, n int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[v.Int64()]
	}
	return string(out), nil
}
