package rng

import "math/rand/v2"

// Seeded is a deterministic generator. Two Seeded values built from the
// same seed produce the same sequence.
type Seeded struct {
	r *rand.Rand
}

// NewSeeded returns a deterministic generator for seed.
func NewSeeded(seed uint64) *Seeded {
	return &Seeded{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Intn returns a random number in [0, n)
func (s *Seeded) Intn(n int) int {
	return s.r.IntN(n)
}
