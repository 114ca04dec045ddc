package engine

import "maps"

// KnownCards is one player's memory of their own hand, keyed by position.
type KnownCards map[int]Card

// Set records that the card at pos is c.
func (k KnownCards) Set(pos int, c Card) { k[pos] = c }

// Forget drops whatever was remembered at pos.
func (k KnownCards) Forget(pos int) { delete(k, pos) }

// Get returns the remembered card at pos.
func (k KnownCards) Get(pos int) (Card, bool) {
	c, ok := k[pos]
	return c, ok
}

// Remove renumbers the map after the card at pos left the hand: entries below
// pos stay, pos is dropped, entries above pos shift down by one.
func (k KnownCards) Remove(pos int) {
	old := maps.Clone(k)
	clear(k)
	for i, c := range old {
		switch {
		case i < pos:
			k[i] = c
		case i > pos:
			k[i-1] = c
		}
	}
}

// removeCard takes the card at s out of its owner's hand and renumbers known in
// the same step.
func (g *GameState) removeCard(s Slot, known KnownCards) Card {
	hand := g.Hands[s.Owner]
	c := hand[s.Pos]
	next := make(Pile, 0, len(hand)-1)
	next = append(next, hand[:s.Pos]...)
	next = append(next, hand[s.Pos+1:]...)
	g.Hands[s.Owner] = next
	if known != nil {
		known.Remove(s.Pos)
	}
	return c
}
