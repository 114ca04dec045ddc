package rng

import (
	"crypto/rand"
	"math/big"
)

// Crypto draws from crypto/rand. It is the source used for live tables.
type Crypto struct{}

// Intn returns a random number in [0, n)
func (Crypto) Intn(n int) int {
	b, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(err)
	}

	return int(b.Int64())
}
