package engine

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewGameDeal(t *testing.T) {
	b := newTestBook()
	for n := 2; n <= 6; n++ {
		g, err := b.NewGame(testPlayers(n))
		if err != nil {
			t.Fatalf("%d players: %v", n, err)
		}
		if g.Round != 1 {
			t.Errorf("expected round 1, got %d", g.Round)
		}
		if g.Phase != PhaseInitialPeek {
			t.Errorf("expected initial-peek, got %s", g.Phase)
		}
		if g.CurrentTurn != g.PlayerOrder[0] {
			t.Errorf("first player should open")
		}
		for _, id := range g.PlayerOrder {
			if len(g.Hands[id]) != 4 {
				t.Errorf("expected 4 cards, got %d", len(g.Hands[id]))
			}
			if g.Scores[id] != 0 {
				t.Errorf("expected score 0, got %d", g.Scores[id])
			}
		}
		if len(g.Discard) != 1 {
			t.Errorf("expected one card on the discard pile, got %d", len(g.Discard))
		}
		assertDeckIntegrity(t, g, 52)
	}
}

// assertDeckIntegrity checks that every card is in exactly one place and the
// full deck is accounted for.
func assertDeckIntegrity(t *testing.T, g *GameState, size int) {
	t.Helper()
	if got := g.CardCount(); got != size {
		t.Errorf("expected %d cards in play, got %d", size, got)
	}
	seen := make(map[Card]int)
	add := func(p Pile) {
		for _, c := range p {
			seen[c]++
		}
	}
	add(g.Deck)
	add(g.Discard)
	for _, h := range g.Hands {
		add(h)
	}
	for _, c := range NewDeck(0) {
		if seen[c] != 1 {
			t.Errorf("card %s seen %d times", c.Label(), seen[c])
		}
	}
}

func TestNewGameRejectsBadTables(t *testing.T) {
	b := newTestBook()
	if _, err := b.NewGame(testPlayers(1)); err != ErrNotEnoughPlayers {
		t.Errorf("expected ErrNotEnoughPlayers, got %v", err)
	}
	b.Rules.HandSize = 13
	if _, err := b.NewGame(testPlayers(4)); err != ErrTooManyPlayers {
		t.Errorf("expected ErrTooManyPlayers, got %v", err)
	}
}

func TestNewRoundCarriesScoresAndTurn(t *testing.T) {
	b := newTestBook()
	g, _ := b.NewGame(testPlayers(3))
	g.Scores[g.PlayerOrder[1]] = 17
	g.CurrentTurn = g.PlayerOrder[2]
	g.CaboCallerID = uuid.NullUUID{UUID: g.PlayerOrder[0], Valid: true}
	g.Log = []string{"old"}

	next, err := b.NewRound(g)
	if err != nil {
		t.Fatalf("NewRound: %v", err)
	}
	if next.Round != 2 {
		t.Errorf("expected round 2, got %d", next.Round)
	}
	if next.Scores[g.PlayerOrder[1]] != 17 {
		t.Errorf("scores should carry over")
	}
	if next.CurrentTurn != g.PlayerOrder[2] {
		t.Errorf("turn holder should carry over")
	}
	if next.CaboCallerID.Valid || len(next.LastTurns) != 0 || len(next.Log) != 0 {
		t.Errorf("round fields should reset")
	}
	if next.Phase != PhaseInitialPeek {
		t.Errorf("expected initial-peek, got %s", next.Phase)
	}
	assertDeckIntegrity(t, next, 52)
}

func TestInitialPeekAndReady(t *testing.T) {
	b := newTestBook()
	g, _ := b.NewGame(testPlayers(2))
	a, c := g.PlayerOrder[0], g.PlayerOrder[1]

	peek := g.InitialPeek(a)
	if len(peek) != 2 || peek[0].Pos != 1 || peek[1].Pos != 2 {
		t.Fatalf("expected positions 1 and 2, got %+v", peek)
	}
	if peek[0].Card != g.Hands[a][1] {
		t.Errorf("reveal should show the card at position 1")
	}

	if _, err := b.Draw(g, a); err != ErrWrongPhase {
		t.Errorf("draw during initial peek should be refused, got %v", err)
	}
	out, err := b.MarkReady(g, a)
	if err != nil {
		t.Fatalf("MarkReady: %v", err)
	}
	if g.Phase != PhaseInitialPeek {
		t.Errorf("phase should wait for every player")
	}
	if _, ok := out.Patch["peekReady/"+a.String()]; !ok {
		t.Errorf("patch should record the ready flag")
	}
	if _, err := b.MarkReady(g, a); err != ErrAlreadyReady {
		t.Errorf("expected ErrAlreadyReady, got %v", err)
	}
	out, err = b.MarkReady(g, c)
	if err != nil {
		t.Fatalf("MarkReady: %v", err)
	}
	if g.Phase != PhasePlay || out.Patch["phase"] != PhasePlay {
		t.Errorf("expected play once everyone is ready")
	}
}

func TestForceReady(t *testing.T) {
	b := newTestBook()
	g, _ := b.NewGame(testPlayers(3))
	if _, err := b.ForceReady(g); err != nil {
		t.Fatalf("ForceReady: %v", err)
	}
	if g.Phase != PhasePlay {
		t.Errorf("expected play, got %s", g.Phase)
	}
	if _, err := b.ForceReady(g); err != ErrWrongPhase {
		t.Errorf("expected ErrWrongPhase, got %v", err)
	}
}

func TestLogIsCapped(t *testing.T) {
	b, g, _ := makePlayState(t, hand(cs(1), cs(2)), hand(ch(1), ch(2)))
	b.Rules.LogCap = 3
	for i := 0; i < 5; i++ {
		actor := g.CurrentTurn
		if _, err := b.Draw(g, actor); err != nil {
			t.Fatalf("Draw: %v", err)
		}
		if _, err := b.DiscardDrawn(g, actor); err != nil {
			t.Fatalf("DiscardDrawn: %v", err)
		}
	}
	if len(g.Log) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(g.Log))
	}
}
