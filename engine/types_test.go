package engine

import "testing"

func TestCardValue(t *testing.T) {
	tests := []struct {
		card Card
		want int
	}{
		{cs(FaceAce), 1},
		{ch(7), 7},
		{cd(FaceJack), 11},
		{cc(FaceQueen), 12},
		{ch(FaceKing), 13},
		{cs(FaceKing), 0},
		{NewCard(FaceJoker, SuitJoker), 0},
	}
	for _, tt := range tests {
		if got := tt.card.Points(); got != tt.want {
			t.Errorf("%s: expected %d points, got %d", tt.card.Label(), tt.want, got)
		}
	}
}

func TestCardPower(t *testing.T) {
	want := map[int]Power{
		1: PowerNone, 6: PowerNone,
		7: PowerPeek, 8: PowerPeek,
		9: PowerSpy, 10: PowerSpy,
		FaceJack:  PowerBlindSwap,
		FaceQueen: PowerPeekSwap,
		FaceKing:  PowerKingSwap,
	}
	for face, p := range want {
		if got := ch(face).Power(); got != p {
			t.Errorf("face %d: expected %q, got %q", face, p, got)
		}
	}
	if got := NewCard(FaceJoker, SuitJoker).Power(); got != PowerNone {
		t.Errorf("special card should have no power, got %q", got)
	}
}

func TestCardLabelAndMatchRank(t *testing.T) {
	if got := cd(10).Label(); got != "10♦" {
		t.Errorf("expected 10♦, got %s", got)
	}
	if got := cs(FaceKing).Label(); got != "K♠" {
		t.Errorf("expected K♠, got %s", got)
	}
	joker := NewCard(FaceJoker, SuitJoker)
	if got := joker.Label(); got != "★" {
		t.Errorf("expected ★, got %s", got)
	}
	if _, ok := joker.MatchRank(); ok {
		t.Errorf("special card must not have a match rank")
	}
	if r, ok := ch(FaceQueen).MatchRank(); !ok || r != 12 {
		t.Errorf("expected match rank 12, got %d (%v)", r, ok)
	}
}

func TestPileTotalAndTop(t *testing.T) {
	p := hand(cs(1), ch(2), cd(3), cc(4))
	if p.Total() != 10 {
		t.Errorf("expected total 10, got %d", p.Total())
	}
	top, ok := p.Top()
	if !ok || top != cc(4) {
		t.Errorf("expected top 4♣, got %v", top)
	}
	if _, ok := (Pile{}).Top(); ok {
		t.Errorf("empty pile should have no top")
	}
}
