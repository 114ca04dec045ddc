package engine

import (
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"
)

// TurnAdvance is the result of moving the turn on. LastTurns is nil and Phase
// empty when no CABO has been called.
type TurnAdvance struct {
	CurrentTurn uuid.UUID
	LastTurns   map[uuid.UUID]int
	Phase       Phase
}

// NextTurn computes the next turn holder without mutating g. Once CABO is
// called, the player finishing their turn spends one of their remaining turns;
// the caller never has a counter and is left out of the all-done check. When
// every other player has spent theirs, the round ends.
func NextTurn(g *GameState) TurnAdvance {
	order := g.PlayerOrder
	next := order[(slices.Index(order, g.CurrentTurn)+1)%len(order)]
	adv := TurnAdvance{CurrentTurn: next}
	if !g.CaboCallerID.Valid {
		return adv
	}

	caller := g.CaboCallerID.UUID
	lt := maps.Clone(g.LastTurns)
	if lt == nil {
		lt = map[uuid.UUID]int{}
	}
	if n, ok := lt[g.CurrentTurn]; ok && g.CurrentTurn != caller {
		lt[g.CurrentTurn] = n - 1
	}
	adv.LastTurns = lt

	done := true
	for _, p := range order {
		if p == caller {
			continue
		}
		if lt[p] > 0 {
			done = false
			break
		}
	}
	if done {
		adv.Phase = PhaseRoundEnd
	}
	return adv
}

// advance applies NextTurn to g and records the changed fields in p.
func advance(g *GameState, p Patch) {
	adv := NextTurn(g)
	g.CurrentTurn = adv.CurrentTurn
	p["currentTurn"] = adv.CurrentTurn
	if adv.LastTurns != nil {
		g.LastTurns = adv.LastTurns
		p["lastTurns"] = maps.Clone(adv.LastTurns)
	}
	if adv.Phase != "" {
		g.Phase = adv.Phase
		p["phase"] = adv.Phase
	}
}

func (g *GameState) requireTurn(actor uuid.UUID) error {
	if !g.IsSeated(actor) {
		return ErrUnknownPlayer
	}
	if g.Phase != PhasePlay {
		return ErrWrongPhase
	}
	if g.CurrentTurn != actor {
		return ErrNotYourTurn
	}
	return nil
}

// ---------------------------------------------------------------------------
// Initial peek
// ---------------------------------------------------------------------------

// InitialPeek returns the cards a player is shown before play starts.
func (g *GameState) InitialPeek(id uuid.UUID) []Reveal {
	var out []Reveal
	for _, pos := range InitialPeekPositions {
		if g.validPos(id, pos) {
			out = append(out, Reveal{Slot: Slot{Owner: id, Pos: pos}, Card: g.Hands[id][pos]})
		}
	}
	return out
}

// MarkReady records that a player has memorised their initial cards. When
// every player is ready the round moves to play.
func (b *Rulebook) MarkReady(g *GameState, id uuid.UUID) (Outcome, error) {
	if !g.IsSeated(id) {
		return Outcome{}, ErrUnknownPlayer
	}
	if g.Phase != PhaseInitialPeek {
		return Outcome{}, ErrWrongPhase
	}
	if g.PeekReady[id] {
		return Outcome{}, ErrAlreadyReady
	}
	if g.PeekReady == nil {
		g.PeekReady = map[uuid.UUID]bool{}
	}
	g.PeekReady[id] = true

	out := Outcome{Patch: Patch{"peekReady/" + id.String(): true}}
	if g.allReady() {
		g.Phase = PhasePlay
		out.Patch["phase"] = PhasePlay
	}
	return out, nil
}

// ForceReady marks every player ready and starts play.
func (b *Rulebook) ForceReady(g *GameState) (Outcome, error) {
	if g.Phase != PhaseInitialPeek {
		return Outcome{}, ErrWrongPhase
	}
	if g.PeekReady == nil {
		g.PeekReady = map[uuid.UUID]bool{}
	}
	for _, id := range g.PlayerOrder {
		g.PeekReady[id] = true
	}
	g.Phase = PhasePlay
	return Outcome{Patch: Patch{"peekReady": maps.Clone(g.PeekReady), "phase": PhasePlay}}, nil
}

func (g *GameState) allReady() bool {
	for _, id := range g.PlayerOrder {
		if !g.PeekReady[id] {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Turn actions
// ---------------------------------------------------------------------------

// Draw takes the front card of the deck into the turn holder's drawn slot. An
// empty deck refuses the draw and emits a deck-empty notice. Once CABO has been
// called the turn holder has no other move, so the refused draw also passes
// the turn and the returned Outcome carries that patch alongside the error.
func (b *Rulebook) Draw(g *GameState, actor uuid.UUID) (Outcome, error) {
	if err := g.requireTurn(actor); err != nil {
		return Outcome{}, err
	}
	if g.DrawnCard != nil {
		return Outcome{}, ErrAlreadyDrawn
	}
	c, err := g.Deck.Draw()
	if err != nil {
		out := Outcome{Events: []Event{g.newEvent(EventDeckEmpty, actor)}}
		if g.CaboCallerID.Valid {
			out.Patch = Patch{}
			b.appendLog(g, out.Patch, fmt.Sprintf("%s has nothing to draw and passes", g.PlayerNames[actor]))
			advance(g, out.Patch)
		}
		return out, err
	}
	g.DrawnCard = &c
	return Outcome{
		Patch: Patch{"deck": cloneCards(g.Deck), "drawnCard": c},
	}, nil
}

// DiscardDrawn puts the drawn card on the discard pile and ends the turn. It is
// also how a player declines a power.
func (b *Rulebook) DiscardDrawn(g *GameState, actor uuid.UUID) (Outcome, error) {
	if err := g.requireTurn(actor); err != nil {
		return Outcome{}, err
	}
	if g.DrawnCard == nil {
		return Outcome{}, ErrNoDrawnCard
	}
	c := *g.DrawnCard
	out := Outcome{Patch: Patch{}}
	b.discardDrawn(g, out.Patch)
	b.appendLog(g, out.Patch, fmt.Sprintf("%s discarded %s", g.PlayerNames[actor], c.Label()))
	advance(g, out.Patch)
	out.Discarded = &c
	return out, nil
}

// Replace swaps the drawn card into the actor's hand at pos. The card it
// replaces goes to the discard pile and the turn ends.
func (b *Rulebook) Replace(g *GameState, actor uuid.UUID, pos int) (Outcome, error) {
	if err := g.requireTurn(actor); err != nil {
		return Outcome{}, err
	}
	if g.DrawnCard == nil {
		return Outcome{}, ErrNoDrawnCard
	}
	if !g.validPos(actor, pos) {
		return Outcome{}, ErrInvalidPosition
	}
	drawn := *g.DrawnCard
	hand := g.Hands[actor]
	old := hand[pos]
	hand[pos] = drawn
	g.Discard = append(g.Discard, old)
	g.DrawnCard = nil

	out := Outcome{Patch: Patch{
		"drawnCard": nil,
		"discard":   cloneCards(g.Discard),
	}}
	g.patchHand(out.Patch, actor)
	b.appendLog(g, out.Patch, fmt.Sprintf("%s swapped %s into position %d", g.PlayerNames[actor], drawn.Label(), pos+1))
	advance(g, out.Patch)

	slot := Slot{Owner: actor, Pos: pos}
	out.Discarded = &old
	out.Touched = []Slot{slot}
	out.Reveals = []Reveal{{Slot: slot, Card: drawn}}
	return out, nil
}

// CallCabo starts the final round. Every other player gets exactly one more
// turn; the caller gets none.
func (b *Rulebook) CallCabo(g *GameState, actor uuid.UUID) (Outcome, error) {
	if err := g.requireTurn(actor); err != nil {
		return Outcome{}, err
	}
	if g.CaboCallerID.Valid {
		return Outcome{}, ErrCaboAlreadyCalled
	}
	if g.DrawnCard != nil {
		return Outcome{}, ErrAlreadyDrawn
	}
	g.CaboCallerID = uuid.NullUUID{UUID: actor, Valid: true}
	g.LastTurns = map[uuid.UUID]int{}
	for _, p := range g.PlayerOrder {
		if p != actor {
			g.LastTurns[p] = 1
		}
	}

	out := Outcome{Patch: Patch{"caboCallerId": g.CaboCallerID}}
	b.appendLog(g, out.Patch, fmt.Sprintf("%s called CABO!", g.PlayerNames[actor]))
	advance(g, out.Patch)
	out.Patch["lastTurns"] = maps.Clone(g.LastTurns)
	out.Events = []Event{g.newEvent(EventCabo, actor)}
	return out, nil
}

func (b *Rulebook) discardDrawn(g *GameState, p Patch) {
	g.Discard = append(g.Discard, *g.DrawnCard)
	g.DrawnCard = nil
	p["drawnCard"] = nil
	p["discard"] = cloneCards(g.Discard)
}
