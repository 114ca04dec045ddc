package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/cabo/engine/rng"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestBook returns a Rulebook with a seeded shuffle and a frozen clock.
func newTestBook() *Rulebook {
	return &Rulebook{
		Rules: DefaultHouseRules(),
		Rand:  rng.NewSeeded(42),
		Now:   func() time.Time { return testNow },
	}
}

func testPlayers(n int) []Player {
	names := []string{"Ana", "Ben", "Cy", "Dee", "Eve", "Fox"}
	out := make([]Player, n)
	for i := range out {
		out[i] = Player{ID: uuid.New(), Name: names[i]}
	}
	return out
}

// makePlayState deals a game, replaces the hands with the given ones and
// moves straight to play with the first player on turn.
func makePlayState(t *testing.T, hands ...Pile) (*Rulebook, *GameState, []uuid.UUID) {
	t.Helper()
	b := newTestBook()
	g, err := b.NewGame(testPlayers(len(hands)))
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	for i, id := range g.PlayerOrder {
		g.Hands[id] = hands[i]
	}
	g.Phase = PhasePlay
	return b, g, g.PlayerOrder
}

func hand(cards ...Card) Pile { return Pile(cards) }

func cs(face int) Card { return NewCard(face, SuitSpades) }
func ch(face int) Card { return NewCard(face, SuitHearts) }
func cd(face int) Card { return NewCard(face, SuitDiamonds) }
func cc(face int) Card { return NewCard(face, SuitClubs) }

// giveDrawn puts c in the turn holder's drawn slot.
func giveDrawn(g *GameState, c Card) {
	g.DrawnCard = &c
}
