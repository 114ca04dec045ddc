package engine

import (
	"testing"

	"github.com/google/uuid"
)

// makeRoundEnd builds a finished round with the given hands.
func makeRoundEnd(t *testing.T, hands ...Pile) (*Rulebook, *GameState, []uuid.UUID) {
	t.Helper()
	b, g, ids := makePlayState(t, hands...)
	g.Phase = PhaseRoundEnd
	return b, g, ids
}

func TestScoreRoundNoCabo(t *testing.T) {
	b, g, ids := makeRoundEnd(t,
		hand(cs(FaceAce), ch(2), cd(3), cc(4)),
		hand(cs(5), ch(6), cd(7), cc(8)),
	)
	res := b.ScoreRound(g)
	if res.Results[0].ID != ids[0] || res.Results[0].Total != 10 || res.Results[1].Total != 26 {
		t.Errorf("expected totals 10 and 26 in ascending order, got %+v", res.Results)
	}
	if res.Scores[ids[0]] != 10 || res.Scores[ids[1]] != 26 {
		t.Errorf("expected scores 10 and 26, got %v", res.Scores)
	}
	if res.GameOver {
		t.Errorf("game should not be over")
	}
	if g.Scores[ids[0]] != 0 {
		t.Errorf("ScoreRound must not mutate the state")
	}
}

func TestScoreRoundCaboTieScoresZero(t *testing.T) {
	b, g, ids := makeRoundEnd(t,
		hand(cs(5), ch(10)),
		hand(cd(7), cc(8)),
		hand(ch(9), cd(9)),
	)
	g.CaboCallerID = uuid.NullUUID{UUID: ids[0], Valid: true}
	res := b.ScoreRound(g)
	if res.Scores[ids[0]] != 0 {
		t.Errorf("tied-lowest caller should score 0, got %d", res.Scores[ids[0]])
	}
	if res.Scores[ids[1]] != 15 {
		t.Errorf("non-caller scores their total, got %d", res.Scores[ids[1]])
	}
}

func TestScoreRoundCaboPenalty(t *testing.T) {
	b, g, ids := makeRoundEnd(t,
		hand(ch(10), cd(10)),
		hand(cd(7), cc(8)),
	)
	g.CaboCallerID = uuid.NullUUID{UUID: ids[0], Valid: true}
	res := b.ScoreRound(g)
	if res.Scores[ids[0]] != 30 {
		t.Errorf("caller who is not lowest scores total+10, got %d", res.Scores[ids[0]])
	}
	if res.Scores[ids[1]] != 15 {
		t.Errorf("expected 15, got %d", res.Scores[ids[1]])
	}
}

func TestScoreRoundSpadeKing(t *testing.T) {
	b, g, ids := makeRoundEnd(t,
		hand(cs(FaceKing), ch(FaceKing)),
		hand(cd(1)),
	)
	res := b.ScoreRound(g)
	if res.Scores[ids[0]] != 13 {
		t.Errorf("spade King counts 0, expected 13 got %d", res.Scores[ids[0]])
	}
}

func TestFinishRoundScoresOnce(t *testing.T) {
	b, g, ids := makeRoundEnd(t,
		hand(cs(FaceAce), ch(2), cd(3), cc(4)),
		hand(cs(5), ch(6), cd(7), cc(8)),
	)
	g.Scores[ids[0]] = 5

	_, out, err := b.FinishRound(g)
	if err != nil {
		t.Fatalf("FinishRound: %v", err)
	}
	if g.Scores[ids[0]] != 15 || g.Scores[ids[1]] != 26 {
		t.Fatalf("unexpected scores %v", g.Scores)
	}
	if g.Phase != PhaseRoundScored || out.Patch["phase"] != PhaseRoundScored {
		t.Errorf("expected round-scored, got %s", g.Phase)
	}

	if _, _, err := b.FinishRound(g); err != ErrWrongPhase {
		t.Errorf("second scoring must be refused, got %v", err)
	}
	if g.Scores[ids[0]] != 15 {
		t.Errorf("scores must not be counted twice, got %d", g.Scores[ids[0]])
	}
}

func TestFinishRoundGameOver(t *testing.T) {
	b, g, ids := makeRoundEnd(t,
		hand(ch(FaceQueen), cd(FaceQueen)),
		hand(cd(1)),
	)
	g.Scores[ids[0]] = 80
	res, _, err := b.FinishRound(g)
	if err != nil {
		t.Fatalf("FinishRound: %v", err)
	}
	if !res.GameOver || g.Phase != PhaseGameOver {
		t.Errorf("104 points should end the game")
	}
	if _, err := b.NextRound(g); err != ErrWrongPhase {
		t.Errorf("no next round after game over, got %v", err)
	}
	fresh, err := b.NewGameFrom(g)
	if err != nil {
		t.Fatalf("NewGameFrom: %v", err)
	}
	if fresh.Round != 1 || fresh.Scores[ids[0]] != 0 {
		t.Errorf("new game resets round and scores")
	}
}

func TestFinishRoundRefusedDuringPlay(t *testing.T) {
	b, g, _ := makePlayState(t, hand(cs(1)), hand(ch(1)))
	if _, _, err := b.FinishRound(g); err != ErrWrongPhase {
		t.Errorf("expected ErrWrongPhase, got %v", err)
	}
}

func TestNextRoundAfterScoring(t *testing.T) {
	b, g, ids := makeRoundEnd(t, hand(cs(1), cs(2)), hand(ch(3), ch(4)))
	if _, err := b.NextRound(g); err != ErrWrongPhase {
		t.Errorf("round must be scored before the next one, got %v", err)
	}
	b.FinishRound(g)
	next, err := b.NextRound(g)
	if err != nil {
		t.Fatalf("NextRound: %v", err)
	}
	if next.Round != 2 || next.Scores[ids[0]] != 3 {
		t.Errorf("expected round 2 with carried scores, got round %d scores %v", next.Round, next.Scores)
	}
}
