package otpgen

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/go-otp-auth/internal/domain"
)

// Generator produces fixed-length decimal passcodes, uniformly distributed
// over [0, 10^length) and zero-padded.
type Generator interface {
	Code(length int) (string, error)
}

// CryptoSource draws passcodes from crypto/rand. It reads length*4 random
// bits and reduces modulo 10^length; the modulo bias on a bit-width that
// much wider than the output range is negligible. An entropy failure is
// fatal for the request; there is no weaker fallback.
type CryptoSource struct{}

func NewCryptoSource() CryptoSource { return CryptoSource{} }

func (CryptoSource) Code(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("otp length must be positive, got %d: %w", length, domain.ErrBadRequest)
	}
	bound := new(big.Int).Lsh(big.NewInt(1), uint(length*4)) // 2^(length*4)
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return "", fmt.Errorf("draw random bits: %v: %w", err, domain.ErrEntropy)
	}
	mod := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n.Mod(n, mod)
	return fmt.Sprintf("%0*d", length, n), nil
}
