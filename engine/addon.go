package engine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// OpenAddonWindow opens a claim window for a card that just landed on the
// discard pile. A newer window replaces any older one. No window opens for
// the special card or outside of play.
func (b *Rulebook) OpenAddonWindow(g *GameState, discarded Card) (Outcome, bool) {
	rank, ok := discarded.MatchRank()
	if !ok || g.Phase != PhasePlay {
		return Outcome{}, false
	}
	g.AddonDiscard = &AddonWindow{
		ID:               ulid.Make().String(),
		Active:           true,
		DiscardFaceValue: rank,
		ExpiresAt:        b.now().Add(b.Rules.ClaimWindow).UnixMilli(),
	}
	return Outcome{Patch: Patch{"addonDiscard": *g.AddonDiscard}}, true
}

// ClaimAddon is the compare-and-set at the heart of the addon race: it names
// claimant as the winner of window only if nobody has claimed it yet. The
// nominated position is validated up front so a bad request cannot burn the
// window.
func (b *Rulebook) ClaimAddon(g *GameState, claimant uuid.UUID, windowID string, pos int) (Outcome, error) {
	if !g.IsSeated(claimant) {
		return Outcome{}, ErrUnknownPlayer
	}
	w := g.AddonDiscard
	if g.Phase != PhasePlay || w == nil || !w.Active || w.ID != windowID {
		return Outcome{}, ErrWindowClosed
	}
	if b.now().UnixMilli() > w.ExpiresAt {
		return Outcome{}, ErrWindowClosed
	}
	if w.Claimant.Valid {
		return Outcome{}, ErrWindowClaimed
	}
	if len(g.Hands[claimant]) <= 1 {
		return Outcome{}, ErrLastCard
	}
	if !g.validPos(claimant, pos) {
		return Outcome{}, ErrInvalidPosition
	}
	w.Claimant = uuid.NullUUID{UUID: claimant, Valid: true}
	return Outcome{Patch: Patch{"addonDiscard": *w}}, nil
}

// ResolveAddon settles a won window. A matching card leaves the claimant's
// hand for the discard pile; anything else costs one penalty card from the
// deck, skipped when the deck is empty. The window closes either way.
func (b *Rulebook) ResolveAddon(g *GameState, claimant uuid.UUID, pos int, known KnownCards) (Outcome, error) {
	w := g.AddonDiscard
	if w == nil || !w.Active || !w.Claimant.Valid || w.Claimant.UUID != claimant {
		return Outcome{}, ErrNotClaimant
	}
	if !g.validPos(claimant, pos) {
		return Outcome{}, ErrInvalidPosition
	}

	out := Outcome{Patch: Patch{}}
	name := g.PlayerNames[claimant]
	nominated := g.Hands[claimant][pos]
	rank, ok := nominated.MatchRank()
	match := ok && rank == w.DiscardFaceValue && len(g.Hands[claimant]) > 1

	ev := g.newEvent(EventAddon, claimant)
	ev.Pos = intPtr(pos)
	ev.CardLabel = nominated.Label()
	ev.Success = boolPtr(match)

	if match {
		slot := Slot{Owner: claimant, Pos: pos}
		c := g.removeCard(slot, known)
		g.Discard = append(g.Discard, c)
		out.Patch["discard"] = cloneCards(g.Discard)
		out.Removed = &slot
		b.appendLog(g, out.Patch, fmt.Sprintf("%s added on %s", name, c.Label()))
	} else if penalty, err := g.Deck.Draw(); err == nil {
		g.Hands[claimant] = append(g.Hands[claimant], penalty)
		out.Patch["deck"] = cloneCards(g.Deck)
		b.appendLog(g, out.Patch, fmt.Sprintf("%s missed an addon and drew a penalty card", name))
	} else {
		b.appendLog(g, out.Patch, fmt.Sprintf("%s missed an addon; the deck is empty", name))
	}
	g.patchHand(out.Patch, claimant)

	w.Active = false
	out.Patch["addonDiscard"] = *w
	out.Events = []Event{ev}
	return out, nil
}

// ExpireAddon closes window if it is still the open one. Nothing else changes.
func (b *Rulebook) ExpireAddon(g *GameState, windowID string) (Outcome, bool) {
	w := g.AddonDiscard
	if w == nil || !w.Active || (windowID != "" && w.ID != windowID) {
		return Outcome{}, false
	}
	w.Active = false
	return Outcome{Patch: Patch{"addonDiscard": *w}}, true
}
