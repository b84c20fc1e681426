package account

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// NewAccountNumber generates a 10-digit account number. Uniqueness is
// enforced by the database constraint, not here.
func NewAccountNumber() string {
	max := big.NewInt(10_000_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		// crypto/rand only fails when the platform source is broken
		panic(fmt.Sprintf("account number generation: %v", err))
	}
	return fmt.Sprintf("%010d", n)
}
