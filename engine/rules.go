package engine

import "time"

// HouseRules holds configurable game rule settings.
type HouseRules struct {
	HandSize    int           // cards dealt to each player
	NumJokers   int           // 0, 1, or 2 special cards in the deck
	ClaimWindow time.Duration // how long an addon window stays open
	RevealDelay time.Duration // how long a reveal step is shown before it settles
	PeekTimeout time.Duration // 0 = wait for every player to press ready
	TargetScore int           // game ends once any score reaches this
	CaboPenalty int           // added to a CABO caller who is not tied-lowest
	LogCap      int           // entries kept in the shared log
}

// DefaultHouseRules returns the standard Cabo house rules.
func DefaultHouseRules() HouseRules {
	return HouseRules{
		HandSize:    4,
		NumJokers:   0,
		ClaimWindow: 5 * time.Second,
		RevealDelay: 3 * time.Second,
		PeekTimeout: 0,
		TargetScore: 100,
		CaboPenalty: 10,
		LogCap:      25,
	}
}

// numJokers clamps the configured special card count to 0..2.
func (r *HouseRules) numJokers() int {
	switch {
	case r.NumJokers < 0:
		return 0
	case r.NumJokers > 2:
		return 2
	}
	return r.NumJokers
}

func (r *HouseRules) handSize() int {
	if r.HandSize <= 0 {
		return 4
	}
	return r.HandSize
}

func (r *HouseRules) logCap() int {
	if r.LogCap <= 0 {
		return 25
	}
	return r.LogCap
}
