package engine

import (
	"testing"

	"github.com/jason-s-yu/cabo/engine/rng"
)

func TestNewDeckComposition(t *testing.T) {
	deck := NewDeck(0)
	if len(deck) != DeckSize {
		t.Fatalf("expected %d cards, got %d", DeckSize, len(deck))
	}
	seen := make(map[Card]bool)
	for _, c := range deck {
		if seen[c] {
			t.Errorf("duplicate card %s", c.Label())
		}
		seen[c] = true
	}
	for face := FaceAce; face <= FaceKing; face++ {
		for _, s := range Suits {
			if !seen[NewCard(face, s)] {
				t.Errorf("missing card %s", NewCard(face, s).Label())
			}
		}
	}
}

func TestNewDeckJokers(t *testing.T) {
	if got := len(NewDeck(2)); got != 54 {
		t.Errorf("expected 54 cards with two jokers, got %d", got)
	}
	if got := len(NewDeck(7)); got != 54 {
		t.Errorf("joker count should clamp to 2, got %d cards", got)
	}
	if got := len(NewDeck(-1)); got != 52 {
		t.Errorf("negative joker count should clamp to 0, got %d cards", got)
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	deck := NewDeck(0)
	shuffled := NewDeck(0)
	Shuffle(shuffled, rng.NewSeeded(1))

	count := make(map[Card]int)
	for _, c := range deck {
		count[c]++
	}
	for _, c := range shuffled {
		count[c]--
	}
	for c, n := range count {
		if n != 0 {
			t.Errorf("card %s count off by %d after shuffle", c.Label(), n)
		}
	}

	same := true
	for i := range deck {
		if deck[i] != shuffled[i] {
			same = false
			break
		}
	}
	if same {
		t.Errorf("shuffle left the deck in order")
	}
}

func TestShuffleSeededDeterministic(t *testing.T) {
	a, b := NewDeck(0), NewDeck(0)
	Shuffle(a, rng.NewSeeded(99))
	Shuffle(b, rng.NewSeeded(99))
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("position %d differs: %s vs %s", i, a[i].Label(), b[i].Label())
		}
	}
}

func TestDrawFromFront(t *testing.T) {
	p := hand(cs(1), ch(2))
	c, err := p.Draw()
	if err != nil || c != cs(1) {
		t.Fatalf("expected A♠, got %v (%v)", c, err)
	}
	if len(p) != 1 {
		t.Errorf("expected 1 card left, got %d", len(p))
	}
	p.Draw()
	if _, err := p.Draw(); err != ErrDeckEmpty {
		t.Errorf("expected ErrDeckEmpty, got %v", err)
	}
}
