package engine

import (
	"fmt"

	"github.com/google/uuid"
)

// Step names the point a power has reached. Steps named pick* wait for a
// selection; the others are reveal steps that wait for Settle.
type Step string

const (
	StepPick        Step = "pick"
	StepPickOpp     Step = "pick-opp"
	StepPickMine    Step = "pick-mine"
	StepRevealed    Step = "revealed"
	StepPeekDone    Step = "peek-done"
	StepPeekMine    Step = "peek-mine"
	StepPickOppSwap Step = "pick-opp-swap"
)

// ActionInProgress is the transient state of a power being resolved by the
// turn holder. It is never written to the shared document; nil means no power
// is in progress. The concrete types are PeekAction, SpyAction,
// BlindSwapAction, PeekSwapAction and KingSwapAction.
type ActionInProgress interface {
	Power() Power
	Step() Step
	Actor() uuid.UUID
	Drawn() Card
	// Revealed reports whether the actor has already been shown a card.
	Revealed() bool

	slots() []*Slot
	clone() ActionInProgress
}

type actionBase struct {
	ActorID   uuid.UUID
	DrawnCard Card
}

func (a actionBase) Actor() uuid.UUID { return a.ActorID }
func (a actionBase) Drawn() Card      { return a.DrawnCard }

// PeekAction: pick one of your cards, see it, done.
type PeekAction struct {
	actionBase
}

func (PeekAction) Power() Power              { return PowerPeek }
func (PeekAction) Step() Step                { return StepPick }
func (PeekAction) Revealed() bool            { return false }
func (a *PeekAction) slots() []*Slot         { return nil }
func (a *PeekAction) clone() ActionInProgress { c := *a; return &c }

// SpyAction: pick an opponent card, see it, settle.
type SpyAction struct {
	actionBase
	Target *Slot
}

func (SpyAction) Power() Power { return PowerSpy }
func (a SpyAction) Step() Step {
	if a.Target == nil {
		return StepPickOpp
	}
	return StepRevealed
}
func (a SpyAction) Revealed() bool { return a.Target != nil }
func (a *SpyAction) slots() []*Slot {
	return []*Slot{a.Target}
}
func (a *SpyAction) clone() ActionInProgress {
	c := *a
	c.Target = cloneSlot(a.Target)
	return &c
}

// BlindSwapAction: pick one of yours, pick one of theirs, swap unseen.
type BlindSwapAction struct {
	actionBase
	Mine *Slot
}

func (BlindSwapAction) Power() Power { return PowerBlindSwap }
func (a BlindSwapAction) Step() Step {
	if a.Mine == nil {
		return StepPickMine
	}
	return StepPickOpp
}
func (BlindSwapAction) Revealed() bool { return false }
func (a *BlindSwapAction) slots() []*Slot {
	return []*Slot{a.Mine}
}
func (a *BlindSwapAction) clone() ActionInProgress {
	c := *a
	c.Mine = cloneSlot(a.Mine)
	return &c
}

// PeekSwapAction: see an opponent card, then swap it with one of yours.
type PeekSwapAction struct {
	actionBase
	At  Step
	Opp *Slot
}

func (PeekSwapAction) Power() Power    { return PowerPeekSwap }
func (a PeekSwapAction) Step() Step    { return a.At }
func (a PeekSwapAction) Revealed() bool { return a.Opp != nil }
func (a *PeekSwapAction) slots() []*Slot {
	return []*Slot{a.Opp}
}
func (a *PeekSwapAction) clone() ActionInProgress {
	c := *a
	c.Opp = cloneSlot(a.Opp)
	return &c
}

// KingSwapAction: see an opponent card, see one of yours, then swap yours
// with an opponent card of your choice.
type KingSwapAction struct {
	actionBase
	At   Step
	Opp  *Slot
	Mine *Slot
}

func (KingSwapAction) Power() Power    { return PowerKingSwap }
func (a KingSwapAction) Step() Step    { return a.At }
func (a KingSwapAction) Revealed() bool { return a.Opp != nil }
func (a *KingSwapAction) slots() []*Slot {
	return []*Slot{a.Opp, a.Mine}
}
func (a *KingSwapAction) clone() ActionInProgress {
	c := *a
	c.Opp = cloneSlot(a.Opp)
	c.Mine = cloneSlot(a.Mine)
	return &c
}

func cloneSlot(s *Slot) *Slot {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// IsRevealStep reports whether the step waits for Settle rather than input.
func IsRevealStep(s Step) bool {
	return s == StepRevealed || s == StepPeekDone || s == StepPeekMine
}

// ---------------------------------------------------------------------------
// Transitions
// ---------------------------------------------------------------------------

// Activate starts the power of the drawn card. The drawn card stays in hand
// until the power commits.
func (b *Rulebook) Activate(g *GameState, actor uuid.UUID, current ActionInProgress) (ActionInProgress, error) {
	if err := g.requireTurn(actor); err != nil {
		return nil, err
	}
	if current != nil {
		return nil, ErrActionPending
	}
	if g.DrawnCard == nil {
		return nil, ErrNoDrawnCard
	}
	base := actionBase{ActorID: actor, DrawnCard: *g.DrawnCard}
	switch g.DrawnCard.Power() {
	case PowerPeek:
		return &PeekAction{actionBase: base}, nil
	case PowerSpy:
		return &SpyAction{actionBase: base}, nil
	case PowerBlindSwap:
		return &BlindSwapAction{actionBase: base}, nil
	case PowerPeekSwap:
		return &PeekSwapAction{actionBase: base, At: StepPickOpp}, nil
	case PowerKingSwap:
		return &KingSwapAction{actionBase: base, At: StepPickOpp}, nil
	}
	return nil, ErrNoPower
}

// Check verifies that act still fits g. A power is stale once the turn has
// moved, the drawn card changed, the phase left play, or a selected position
// no longer exists.
func Check(g *GameState, act ActionInProgress) error {
	if act == nil {
		return ErrNoAction
	}
	if g.Phase != PhasePlay || g.CurrentTurn != act.Actor() {
		return ErrStaleAction
	}
	if g.DrawnCard == nil || *g.DrawnCard != act.Drawn() {
		return ErrStaleAction
	}
	for _, s := range act.slots() {
		if s != nil && !g.validPos(s.Owner, s.Pos) {
			return ErrStaleAction
		}
	}
	return nil
}

// Select applies the actor's choice of target to act. It returns the next
// step, or nil once the power has committed.
func (b *Rulebook) Select(g *GameState, act ActionInProgress, target Slot) (ActionInProgress, Outcome, error) {
	if err := Check(g, act); err != nil {
		return act, Outcome{}, err
	}
	actor := act.Actor()
	if !g.validPos(target.Owner, target.Pos) {
		return act, Outcome{}, ErrInvalidPosition
	}
	mine := target.Owner == actor
	wantMine := act.Step() == StepPick || act.Step() == StepPickMine
	wantOpp := act.Step() == StepPickOpp || act.Step() == StepPickOppSwap
	switch {
	case wantMine && !mine, wantOpp && mine:
		return act, Outcome{}, ErrInvalidTarget
	case !wantMine && !wantOpp:
		return act, Outcome{}, ErrWrongStep
	}

	card := g.Hands[target.Owner][target.Pos]
	next := act.clone()
	switch a := next.(type) {
	case *PeekAction:
		out := Outcome{Patch: Patch{}}
		out.Reveals = []Reveal{{Slot: target, Card: card}}
		ev := g.newEvent(EventPeek, actor)
		ev.Pos = intPtr(target.Pos)
		ev.CardLabel = card.Label()
		out.Events = []Event{ev}
		b.commit(g, &out, fmt.Sprintf("%s peeked at their own card", g.PlayerNames[actor]))
		return nil, out, nil

	case *SpyAction:
		a.Target = &target
		return a, b.revealOpponent(g, actor, target, card), nil

	case *BlindSwapAction:
		if a.Mine == nil {
			a.Mine = &target
			return a, Outcome{}, nil
		}
		out := Outcome{Patch: Patch{}}
		swapCards(g, *a.Mine, target, &out)
		ev := g.newEvent(EventBlindSwap, actor).withTarget(g, target.Owner)
		ev.MyPos, ev.OppPos = intPtr(a.Mine.Pos), intPtr(target.Pos)
		out.Events = []Event{ev}
		b.commit(g, &out, fmt.Sprintf("%s blind-swapped with %s", g.PlayerNames[actor], g.PlayerNames[target.Owner]))
		return nil, out, nil

	case *PeekSwapAction:
		if a.At == StepPickOpp {
			a.Opp = &target
			a.At = StepPeekDone
			return a, b.revealOpponent(g, actor, target, card), nil
		}
		oppCard := g.Hands[a.Opp.Owner][a.Opp.Pos]
		out := Outcome{Patch: Patch{}}
		swapCards(g, target, *a.Opp, &out)
		out.Reveals = []Reveal{{Slot: target, Card: oppCard}}
		ev := g.newEvent(EventSwap, actor).withTarget(g, a.Opp.Owner)
		ev.MyPos, ev.OppPos = intPtr(target.Pos), intPtr(a.Opp.Pos)
		out.Events = []Event{ev}
		b.commit(g, &out, fmt.Sprintf("%s peeked & swapped with %s", g.PlayerNames[actor], g.PlayerNames[a.Opp.Owner]))
		return nil, out, nil

	case *KingSwapAction:
		switch a.At {
		case StepPickOpp:
			a.Opp = &target
			a.At = StepPeekDone
			return a, b.revealOpponent(g, actor, target, card), nil
		case StepPickMine:
			a.Mine = &target
			a.At = StepPeekMine
			ev := g.newEvent(EventPeek, actor)
			ev.Pos = intPtr(target.Pos)
			ev.CardLabel = card.Label()
			return a, Outcome{
				Reveals: []Reveal{{Slot: target, Card: card}},
				Events:  []Event{ev},
			}, nil
		}
		out := Outcome{Patch: Patch{}}
		swapCards(g, *a.Mine, target, &out)
		if target == *a.Opp {
			out.Reveals = []Reveal{{Slot: *a.Mine, Card: card}}
		}
		ev := g.newEvent(EventSwap, actor).withTarget(g, target.Owner)
		ev.MyPos, ev.OppPos = intPtr(a.Mine.Pos), intPtr(target.Pos)
		out.Events = []Event{ev}
		b.commit(g, &out, fmt.Sprintf("%s used King Swap with %s", g.PlayerNames[actor], g.PlayerNames[target.Owner]))
		return nil, out, nil
	}
	return act, Outcome{}, ErrWrongStep
}

// Settle moves a power past a reveal step once the reveal delay has passed.
// A settled spy commits; the swap powers move on to their next selection.
func (b *Rulebook) Settle(g *GameState, act ActionInProgress) (ActionInProgress, Outcome, error) {
	if err := Check(g, act); err != nil {
		return act, Outcome{}, err
	}
	next := act.clone()
	switch a := next.(type) {
	case *SpyAction:
		if a.Target == nil {
			break
		}
		out := Outcome{Patch: Patch{}}
		b.commit(g, &out, fmt.Sprintf("%s spied on %s", g.PlayerNames[a.ActorID], g.PlayerNames[a.Target.Owner]))
		return nil, out, nil
	case *PeekSwapAction:
		if a.At == StepPeekDone {
			a.At = StepPickMine
			return a, Outcome{}, nil
		}
	case *KingSwapAction:
		switch a.At {
		case StepPeekDone:
			a.At = StepPickMine
			return a, Outcome{}, nil
		case StepPeekMine:
			a.At = StepPickOppSwap
			return a, Outcome{}, nil
		}
	}
	return act, Outcome{}, ErrWrongStep
}

// Reindex renumbers act after removed left a hand. Selections above the
// removed position shift down by one. ok is false when act pointed at the
// removed card and has to be abandoned.
func Reindex(act ActionInProgress, removed Slot) (next ActionInProgress, ok bool) {
	if act == nil {
		return nil, true
	}
	next = act.clone()
	for _, s := range next.slots() {
		if s == nil || s.Owner != removed.Owner {
			continue
		}
		switch {
		case s.Pos == removed.Pos:
			return nil, false
		case s.Pos > removed.Pos:
			s.Pos--
		}
	}
	return next, true
}

// revealOpponent shows an opponent card to the actor. The label goes out to
// everyone in the spy event.
func (b *Rulebook) revealOpponent(g *GameState, actor uuid.UUID, target Slot, card Card) Outcome {
	ev := g.newEvent(EventSpy, actor).withTarget(g, target.Owner)
	ev.Pos = intPtr(target.Pos)
	ev.CardLabel = card.Label()
	return Outcome{
		Reveals: []Reveal{{Slot: target, Card: card}},
		Events:  []Event{ev},
	}
}

// commit discards the drawn card and ends the turn in the same patch as the
// power's own changes.
func (b *Rulebook) commit(g *GameState, out *Outcome, entry string) {
	drawn := *g.DrawnCard
	b.discardDrawn(g, out.Patch)
	b.appendLog(g, out.Patch, entry)
	advance(g, out.Patch)
	out.Discarded = &drawn
}

// swapCards exchanges two hand positions. Both hands are written in one patch.
func swapCards(g *GameState, x, y Slot, out *Outcome) {
	hx, hy := g.Hands[x.Owner], g.Hands[y.Owner]
	hx[x.Pos], hy[y.Pos] = hy[y.Pos], hx[x.Pos]
	g.patchHand(out.Patch, x.Owner)
	g.patchHand(out.Patch, y.Owner)
	out.Touched = append(out.Touched, x, y)
}
