// Package rng provides the random sources used to shuffle decks.
package rng

// Generator provides a simple random number
type Generator interface {
	// Intn returns a random number in [0, n)
	Intn(n int) int
}
