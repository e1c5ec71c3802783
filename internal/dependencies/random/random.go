package random

import (
	"crypto/rand"
	"math/big"
)

// TokenAlphabet omits characters that are easy to confuse when typed (0/O, 1/I/L)
const TokenAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// Random produces identifiers and can be mocked for testing
type Random interface {
	// Token returns a random string of the given length drawn from TokenAlphabet
	Token(length int) string
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

func (r *CryptoRandom) Token(length int) string {
	if length <= 0 {
		return ""
	}
	limit := big.NewInt(int64(len(TokenAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(err)
		}
		out[i] = TokenAlphabet[n.Int64()]
	}
	return string(out)
}
