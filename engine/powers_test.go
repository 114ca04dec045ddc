package engine

import (
	"testing"

	"github.com/google/uuid"
)

// startPower gives the turn holder drawn and activates its power.
func startPower(t *testing.T, b *Rulebook, g *GameState, drawn Card) ActionInProgress {
	t.Helper()
	giveDrawn(g, drawn)
	act, err := b.Activate(g, g.CurrentTurn, nil)
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	return act
}

func mustSelect(t *testing.T, b *Rulebook, g *GameState, act ActionInProgress, owner uuid.UUID, pos int) (ActionInProgress, Outcome) {
	t.Helper()
	next, out, err := b.Select(g, act, Slot{Owner: owner, Pos: pos})
	if err != nil {
		t.Fatalf("Select(%d): %v", pos, err)
	}
	return next, out
}

func mustSettle(t *testing.T, b *Rulebook, g *GameState, act ActionInProgress) (ActionInProgress, Outcome) {
	t.Helper()
	next, out, err := b.Settle(g, act)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	return next, out
}

// assertCommitted checks the drawn card was discarded and the turn moved on.
func assertCommitted(t *testing.T, g *GameState, drawn Card, out Outcome, next uuid.UUID) {
	t.Helper()
	if g.DrawnCard != nil {
		t.Errorf("drawn card should be cleared")
	}
	if top, _ := g.DiscardTop(); top != drawn {
		t.Errorf("drawn card %s should top the discard pile, got %s", drawn.Label(), top.Label())
	}
	if out.Discarded == nil || *out.Discarded != drawn {
		t.Errorf("outcome should report the discarded card")
	}
	if g.CurrentTurn != next {
		t.Errorf("turn should have moved on")
	}
	for _, k := range []string{"drawnCard", "discard", "currentTurn", "log"} {
		if _, ok := out.Patch[k]; !ok {
			t.Errorf("commit patch is missing %s", k)
		}
	}
}

func TestActivatePreconditions(t *testing.T) {
	b, g, ids := makePlayState(t, hand(cs(1), cs(2)), hand(ch(1), ch(2)))
	if _, err := b.Activate(g, ids[0], nil); err != ErrNoDrawnCard {
		t.Errorf("expected ErrNoDrawnCard, got %v", err)
	}
	giveDrawn(g, cs(5))
	if _, err := b.Activate(g, ids[0], nil); err != ErrNoPower {
		t.Errorf("expected ErrNoPower, got %v", err)
	}
	giveDrawn(g, cs(7))
	if _, err := b.Activate(g, ids[1], nil); err != ErrNotYourTurn {
		t.Errorf("expected ErrNotYourTurn, got %v", err)
	}
	act, err := b.Activate(g, ids[0], nil)
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if _, err := b.Activate(g, ids[0], act); err != ErrActionPending {
		t.Errorf("expected ErrActionPending, got %v", err)
	}
	if g.DrawnCard == nil {
		t.Errorf("activation must not discard the drawn card")
	}
}

func TestActivateSteps(t *testing.T) {
	tests := []struct {
		face  int
		power Power
		step  Step
	}{
		{7, PowerPeek, StepPick},
		{10, PowerSpy, StepPickOpp},
		{FaceJack, PowerBlindSwap, StepPickMine},
		{FaceQueen, PowerPeekSwap, StepPickOpp},
		{FaceKing, PowerKingSwap, StepPickOpp},
	}
	for _, tt := range tests {
		b, g, _ := makePlayState(t, hand(cs(1), cs(2)), hand(ch(1), ch(2)))
		act := startPower(t, b, g, cd(tt.face))
		if act.Power() != tt.power || act.Step() != tt.step {
			t.Errorf("face %d: expected %s/%s, got %s/%s", tt.face, tt.power, tt.step, act.Power(), act.Step())
		}
	}
}

func TestPeekPower(t *testing.T) {
	b, g, ids := makePlayState(t, hand(cs(1), cs(2), cs(3)), hand(ch(1), ch(2)))
	act := startPower(t, b, g, cd(8))

	if _, _, err := b.Select(g, act, Slot{Owner: ids[1], Pos: 0}); err != ErrInvalidTarget {
		t.Errorf("peek must target own hand, got %v", err)
	}
	next, out := mustSelect(t, b, g, act, ids[0], 2)
	if next != nil {
		t.Fatalf("peek should commit in one step")
	}
	if len(out.Reveals) != 1 || out.Reveals[0].Card != cs(3) {
		t.Errorf("expected reveal of 3♠, got %+v", out.Reveals)
	}
	if len(out.Events) != 1 || out.Events[0].Type != EventPeek || *out.Events[0].Pos != 2 {
		t.Errorf("expected a peek event at position 2, got %+v", out.Events)
	}
	assertCommitted(t, g, cd(8), out, ids[1])
}

func TestSpyPower(t *testing.T) {
	b, g, ids := makePlayState(t, hand(cs(1), cs(2)), hand(ch(4), ch(5)), hand(cc(6), cc(7)))
	act := startPower(t, b, g, cd(9))

	next, out := mustSelect(t, b, g, act, ids[2], 1)
	if next.Step() != StepRevealed {
		t.Fatalf("expected revealed, got %s", next.Step())
	}
	if out.Patch != nil {
		t.Errorf("reveal step must not write shared state")
	}
	if len(out.Reveals) != 1 || out.Reveals[0].Card != cc(7) {
		t.Errorf("expected reveal of 7♣, got %+v", out.Reveals)
	}
	ev := out.Events[0]
	if ev.Type != EventSpy || *ev.TargetID != ids[2] || ev.CardLabel != "7♣" {
		t.Errorf("unexpected spy event %+v", ev)
	}
	if _, _, err := b.Select(g, next, Slot{Owner: ids[1], Pos: 0}); err != ErrWrongStep {
		t.Errorf("selection during a reveal should be refused, got %v", err)
	}

	done, out := mustSettle(t, b, g, next)
	if done != nil {
		t.Fatalf("settled spy should commit")
	}
	assertCommitted(t, g, cd(9), out, ids[1])
}

func TestBlindSwapPower(t *testing.T) {
	b, g, ids := makePlayState(t, hand(cs(1), cs(2)), hand(ch(4), ch(5)))
	act := startPower(t, b, g, cd(FaceJack))

	act, _ = mustSelect(t, b, g, act, ids[0], 0)
	if act.Step() != StepPickOpp {
		t.Fatalf("expected pick-opp, got %s", act.Step())
	}
	if g.Hands[ids[0]][0] != cs(1) {
		t.Fatalf("nothing should move before the second pick")
	}
	next, out := mustSelect(t, b, g, act, ids[1], 1)
	if next != nil {
		t.Fatalf("blind swap should commit")
	}
	if g.Hands[ids[0]][0] != ch(5) || g.Hands[ids[1]][1] != cs(1) {
		t.Errorf("cards were not exchanged: %v / %v", g.Hands[ids[0]], g.Hands[ids[1]])
	}
	if len(out.Reveals) != 0 {
		t.Errorf("blind swap reveals nothing")
	}
	if len(out.Touched) != 2 {
		t.Errorf("both positions should be reported as touched")
	}
	for _, id := range ids {
		if _, ok := out.Patch["hands/"+id.String()]; !ok {
			t.Errorf("both hands belong in the same patch")
		}
	}
	assertCommitted(t, g, cd(FaceJack), out, ids[1])
}

func TestPeekSwapPower(t *testing.T) {
	b, g, ids := makePlayState(t, hand(cs(1), cs(2)), hand(ch(4), ch(5)))
	act := startPower(t, b, g, cd(FaceQueen))

	act, out := mustSelect(t, b, g, act, ids[1], 0)
	if act.Step() != StepPeekDone || out.Reveals[0].Card != ch(4) {
		t.Fatalf("expected peek-done with 4♥ revealed")
	}
	act, _ = mustSettle(t, b, g, act)
	if act.Step() != StepPickMine {
		t.Fatalf("expected pick-mine, got %s", act.Step())
	}
	next, out := mustSelect(t, b, g, act, ids[0], 1)
	if next != nil {
		t.Fatalf("peek swap should commit")
	}
	if g.Hands[ids[0]][1] != ch(4) || g.Hands[ids[1]][0] != cs(2) {
		t.Errorf("cards were not exchanged")
	}
	if len(out.Reveals) != 1 || out.Reveals[0].Pos != 1 || out.Reveals[0].Card != ch(4) {
		t.Errorf("player should now know position 1, got %+v", out.Reveals)
	}
	if out.Events[0].Type != EventSwap {
		t.Errorf("expected swap event, got %s", out.Events[0].Type)
	}
	assertCommitted(t, g, cd(FaceQueen), out, ids[1])
}

func TestKingSwapPower(t *testing.T) {
	b, g, ids := makePlayState(t, hand(cs(1), cs(2)), hand(ch(4), ch(5)), hand(cc(8), cc(9)))
	act := startPower(t, b, g, ch(FaceKing))

	act, _ = mustSelect(t, b, g, act, ids[1], 1)
	if act.Step() != StepPeekDone {
		t.Fatalf("expected peek-done, got %s", act.Step())
	}
	act, _ = mustSettle(t, b, g, act)
	act, out := mustSelect(t, b, g, act, ids[0], 0)
	if act.Step() != StepPeekMine || out.Reveals[0].Card != cs(1) {
		t.Fatalf("expected own card revealed")
	}
	act, _ = mustSettle(t, b, g, act)
	if act.Step() != StepPickOppSwap {
		t.Fatalf("expected pick-opp-swap, got %s", act.Step())
	}
	if _, _, err := b.Select(g, act, Slot{Owner: ids[0], Pos: 1}); err != ErrInvalidTarget {
		t.Errorf("final pick must be an opponent card, got %v", err)
	}
	next, out := mustSelect(t, b, g, act, ids[1], 1)
	if next != nil {
		t.Fatalf("king swap should commit")
	}
	if g.Hands[ids[0]][0] != ch(5) || g.Hands[ids[1]][1] != cs(1) {
		t.Errorf("revealed positions were not exchanged")
	}
	if len(out.Reveals) != 1 || out.Reveals[0].Card != ch(5) {
		t.Errorf("player saw the card they took, got %+v", out.Reveals)
	}
	assertCommitted(t, g, ch(FaceKing), out, ids[1])
}

func TestKingSwapOtherTargetStaysUnknown(t *testing.T) {
	b, g, ids := makePlayState(t, hand(cs(1), cs(2)), hand(ch(4), ch(5)), hand(cc(8), cc(9)))
	act := startPower(t, b, g, ch(FaceKing))
	act, _ = mustSelect(t, b, g, act, ids[1], 1)
	act, _ = mustSettle(t, b, g, act)
	act, _ = mustSelect(t, b, g, act, ids[0], 0)
	act, _ = mustSettle(t, b, g, act)

	_, out := mustSelect(t, b, g, act, ids[2], 0)
	if g.Hands[ids[0]][0] != cc(8) || g.Hands[ids[2]][0] != cs(1) {
		t.Errorf("expected swap with the third player")
	}
	if len(out.Reveals) != 0 {
		t.Errorf("a card never looked at must not be revealed")
	}
}

func TestStaleAction(t *testing.T) {
	b, g, ids := makePlayState(t, hand(cs(1), cs(2)), hand(ch(4), ch(5)))
	act := startPower(t, b, g, cd(FaceQueen))
	act, _ = mustSelect(t, b, g, act, ids[1], 1)

	// a fresh snapshot where the turn has moved on
	g.CurrentTurn = ids[1]
	if _, _, err := b.Settle(g, act); err != ErrStaleAction {
		t.Errorf("expected ErrStaleAction, got %v", err)
	}
	g.CurrentTurn = ids[0]
	giveDrawn(g, cd(3))
	if err := Check(g, act); err != ErrStaleAction {
		t.Errorf("changed drawn card should be stale, got %v", err)
	}
	giveDrawn(g, cd(FaceQueen))
	g.Hands[ids[1]] = hand(ch(4))
	if err := Check(g, act); err != ErrStaleAction {
		t.Errorf("vanished selection should be stale, got %v", err)
	}
}

func TestReindex(t *testing.T) {
	actor, opp := uuid.New(), uuid.New()
	act := &KingSwapAction{
		actionBase: actionBase{ActorID: actor, DrawnCard: cs(FaceKing)},
		At:         StepPickOppSwap,
		Opp:        &Slot{Owner: opp, Pos: 3},
		Mine:       &Slot{Owner: actor, Pos: 2},
	}

	next, ok := Reindex(act, Slot{Owner: opp, Pos: 1})
	if !ok {
		t.Fatalf("removal below the selection should keep the action")
	}
	k := next.(*KingSwapAction)
	if k.Opp.Pos != 2 || k.Mine.Pos != 2 {
		t.Errorf("expected opp shifted to 2 and mine untouched, got %d/%d", k.Opp.Pos, k.Mine.Pos)
	}
	if act.Opp.Pos != 3 {
		t.Errorf("Reindex must not mutate its input")
	}

	if _, ok := Reindex(act, Slot{Owner: actor, Pos: 2}); ok {
		t.Errorf("removing the selected card should abandon the action")
	}
	same, ok := Reindex(act, Slot{Owner: actor, Pos: 3})
	if !ok || same.(*KingSwapAction).Mine.Pos != 2 {
		t.Errorf("removal above the selection changes nothing")
	}
	if n, ok := Reindex(nil, Slot{}); n != nil || !ok {
		t.Errorf("nil action reindexes to nil")
	}
}

func TestHelpText(t *testing.T) {
	b, g, ids := makePlayState(t, hand(cs(1), cs(2)), hand(ch(4), ch(5)))
	if got := HelpText(g, ids[1], nil); got != "Waiting for Ana..." {
		t.Errorf("unexpected help %q", got)
	}
	act := startPower(t, b, g, cd(FaceJack))
	if got := HelpText(g, ids[0], act); got != "Pick YOUR card for blind swap" {
		t.Errorf("unexpected help %q", got)
	}
}
