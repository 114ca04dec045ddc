package engine

import "github.com/jason-s-yu/cabo/engine/rng"

// DeckSize is the number of regular cards in a deck.
const DeckSize = 52

// NewDeck builds an unshuffled deck: every face in every suit, plus the
// requested number of special cards (clamped to 0..2).
func NewDeck(numJokers int) Pile {
	rules := HouseRules{NumJokers: numJokers}
	n := rules.numJokers()

	deck := make(Pile, 0, DeckSize+n)
	for face := FaceAce; face <= FaceKing; face++ {
		for _, s := range Suits {
			deck = append(deck, NewCard(face, s))
		}
	}
	for i := 0; i < n; i++ {
		deck = append(deck, NewCard(FaceJoker, SuitJoker))
	}
	return deck
}

// Shuffle permutes p in place with a Fisher-Yates pass driven by gen.
func Shuffle(p Pile, gen rng.Generator) {
	for i := len(p) - 1; i > 0; i-- {
		j := gen.Intn(i + 1)
		p[i], p[j] = p[j], p[i]
	}
}

// Draw removes and returns the front card. An empty pile refuses the draw.
func (p *Pile) Draw() (Card, error) {
	if len(*p) == 0 {
		return Card{}, ErrDeckEmpty
	}
	c := (*p)[0]
	*p = (*p)[1:]
	return c, nil
}
