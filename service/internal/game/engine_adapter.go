// internal/game/engine_adapter.go
package game

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/cabo/engine"
	"github.com/jason-s-yu/cabo/service/internal/models"
	"github.com/jason-s-yu/cabo/service/internal/store"
)

// apply publishes what an engine operation produced: it updates per-seat
// knowledge, writes the patch, broadcasts the events, opens an addon window
// for a fresh discard and scores the round if it just ended.
// Assumes it runs on the run loop.
func (g *CaboGame) apply(actor uuid.UUID, out engine.Outcome) {
	for _, s := range out.Touched {
		if st, ok := g.seats[s.Owner]; ok {
			st.known.Forget(s.Pos)
		}
	}
	if st, ok := g.seats[actor]; ok {
		for _, r := range out.Reveals {
			if r.Owner == actor {
				st.known.Set(r.Pos, r.Card)
			}
			g.fireEventToPlayer(actor, GameEvent{
				Type: EventPrivateReveal,
				Card: eventCard(r.Card, r.Owner, r.Pos),
			})
		}
	}
	if out.Removed != nil {
		g.reindexActions(*out.Removed)
	}

	if len(out.Patch) > 0 {
		g.write(out.Patch)
	}
	for _, ev := range out.Events {
		g.broadcastEngineEvent(ev)
	}
	if out.Discarded != nil {
		g.openAddon(*out.Discarded)
	}
	g.checkRoundEnd()
}

// write applies a partial update to the shared document.
func (g *CaboGame) write(p engine.Patch) {
	ctx, cancel := g.storeCtx()
	defer cancel()
	if err := g.gw.Update(ctx, g.path, map[string]any(p)); err != nil {
		g.log.WithError(err).WithField("fields", len(p)).Error("could not write game document")
	}
}

// broadcastEngineEvent stamps ev with a fresh id on the shared document and
// forwards it to every player.
func (g *CaboGame) broadcastEngineEvent(ev engine.Event) {
	ctx, cancel := g.storeCtx()
	defer cancel()
	id, err := g.gw.BroadcastEvent(ctx, g.path, ev)
	if err != nil {
		g.log.WithError(err).WithField("type", ev.Type).Error("could not broadcast event")
		id = store.NewEventID()
	}
	ev.ID = id
	g.state.Event = &ev
	g.fireEvent(GameEvent{Type: EventGame, Event: &ev})
	g.logAction(ev.ActorID, "event_"+string(ev.Type), map[string]any{"id": id, "card": ev.CardLabel})
}

// reindexActions renumbers pending powers after a card left a hand. A power
// that pointed at the removed card is abandoned.
func (g *CaboGame) reindexActions(removed engine.Slot) {
	for id, st := range g.seats {
		if st.action == nil {
			continue
		}
		next, ok := engine.Reindex(st.action, removed)
		if !ok {
			g.clearAction(st)
			g.fireEventToPlayer(id, GameEvent{
				Type:    EventPrivatePowerAbandoned,
				Payload: map[string]any{"message": "the card you picked was matched away"},
			})
			continue
		}
		st.action = next
	}
}

// openAddon starts the claim window for a card that just hit the discard pile.
func (g *CaboGame) openAddon(c engine.Card) {
	out, ok := g.book.OpenAddonWindow(g.state, c)
	if !ok {
		return
	}
	g.write(out.Patch)
	w := *g.state.AddonDiscard
	if g.claimTimer != nil {
		g.claimTimer.Stop()
	}
	g.claimTimer = time.AfterFunc(g.book.Rules.ClaimWindow, func() {
		g.enqueue(func() { g.expireAddon(w.ID) })
	})
	g.fireEvent(GameEvent{Type: EventAddonOpen, Addon: &w, Card: &EventCard{
		Rank: c.Rank(), Suit: string(c.Suit), Value: c.Points(), Label: c.Label(),
	}})
}

func (g *CaboGame) expireAddon(windowID string) {
	if g.state == nil {
		return
	}
	out, ok := g.book.ExpireAddon(g.state, windowID)
	if !ok {
		return
	}
	g.write(out.Patch)
	w := *g.state.AddonDiscard
	g.fireEvent(GameEvent{Type: EventAddonClosed, Addon: &w})
	g.broadcastSyncStateToAll()
}

// checkRoundEnd scores the round once it reaches round-end.
func (g *CaboGame) checkRoundEnd() {
	if g.state.Phase != engine.PhaseRoundEnd {
		return
	}
	res, out, err := g.book.FinishRound(g.state)
	if err != nil {
		g.log.WithError(err).Error("could not score round")
		return
	}
	g.stopTimers()
	for _, st := range g.seats {
		g.clearAction(st)
	}
	g.write(out.Patch)
	g.lastResult = &res
	g.fireEvent(GameEvent{Type: EventRoundEnd, Result: &res})
	g.logAction(uuid.Nil, string(EventRoundEnd), map[string]any{
		"scores":   res.Scores,
		"gameOver": res.GameOver,
	})
	g.log.WithField("round", g.state.Round).WithField("gameOver", res.GameOver).Info("round scored")
}

// ---------------------------------------------------------------------------
// Turn commands
// ---------------------------------------------------------------------------

func (g *CaboGame) handleReady(p uuid.UUID) error {
	out, err := g.book.MarkReady(g.state, p)
	if err != nil {
		return err
	}
	g.logAction(p, models.ActionReady, nil)
	g.apply(p, out)
	if g.state.Phase == engine.PhasePlay && g.peekTimer != nil {
		g.peekTimer.Stop()
		g.peekTimer = nil
	}
	return nil
}

func (g *CaboGame) handleDraw(p uuid.UUID) error {
	if st := g.seats[p]; st.action != nil {
		return engine.ErrActionPending
	}
	out, err := g.book.Draw(g.state, p)
	g.apply(p, out)
	if err != nil {
		if out.Patch != nil {
			g.logAction(p, "pass", map[string]any{"reason": "deck_empty"})
		}
		return err
	}
	c := *g.state.DrawnCard
	g.fireEventToPlayer(p, GameEvent{Type: EventPrivateDrawn, Card: &EventCard{
		Rank: c.Rank(), Suit: string(c.Suit), Value: c.Points(), Label: c.Label(),
	}, Payload: map[string]any{"power": c.Power()}})
	g.logAction(p, models.ActionDraw, nil)
	return nil
}

// handleDiscard discards the drawn card. With a power pending this declines
// the power, which is only allowed before anything has been revealed.
func (g *CaboGame) handleDiscard(st *seat) error {
	if err := g.dropUnrevealed(st); err != nil {
		return err
	}
	p := st.player.ID
	out, err := g.book.DiscardDrawn(g.state, p)
	if err != nil {
		return err
	}
	g.logAction(p, models.ActionDiscard, map[string]any{"card": out.Discarded.Label()})
	g.apply(p, out)
	return nil
}

func (g *CaboGame) handleReplace(st *seat, a models.GameAction) error {
	if a.Pos == nil {
		return ErrMissingPos
	}
	if err := g.dropUnrevealed(st); err != nil {
		return err
	}
	p := st.player.ID
	out, err := g.book.Replace(g.state, p, *a.Pos)
	if err != nil {
		return err
	}
	g.logAction(p, models.ActionReplace, map[string]any{"pos": *a.Pos, "discarded": out.Discarded.Label()})
	g.apply(p, out)
	return nil
}

func (g *CaboGame) handleCabo(p uuid.UUID) error {
	out, err := g.book.CallCabo(g.state, p)
	if err != nil {
		return err
	}
	g.logAction(p, models.ActionCabo, nil)
	g.apply(p, out)
	return nil
}

// dropUnrevealed abandons a pending power that has not shown anything yet.
func (g *CaboGame) dropUnrevealed(st *seat) error {
	if st.action == nil {
		return nil
	}
	if engine.Check(g.state, st.action) != nil {
		g.clearAction(st)
		return nil
	}
	if st.action.Revealed() {
		return engine.ErrActionPending
	}
	g.clearAction(st)
	return nil
}

// handleAddon races for the open claim window. The claim is a transaction on
// the shared document, so exactly one claimant wins even across processes.
func (g *CaboGame) handleAddon(st *seat, a models.GameAction) error {
	if a.Pos == nil {
		return ErrMissingPos
	}
	p, pos := st.player.ID, *a.Pos
	windowID := a.WindowID
	if windowID == "" && g.state.AddonDiscard != nil {
		windowID = g.state.AddonDiscard.ID
	}

	var claimErr error
	ctx, cancel := g.storeCtx()
	defer cancel()
	committed, err := g.gw.Transaction(ctx, g.path, func(cur []byte) ([]byte, error) {
		doc, err := engine.DecodeState(cur)
		if err != nil {
			return nil, err
		}
		out, err := g.book.ClaimAddon(doc, p, windowID, pos)
		if err != nil {
			claimErr = err
			return nil, store.ErrAbort
		}
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(cur, &raw); err != nil {
			return nil, err
		}
		if raw["addonDiscard"], err = json.Marshal(out.Patch["addonDiscard"]); err != nil {
			return nil, err
		}
		return json.Marshal(raw)
	})
	if err != nil {
		return err
	}
	if !committed {
		if claimErr == nil {
			claimErr = engine.ErrWindowClaimed
		}
		return claimErr
	}

	if _, err := g.book.ClaimAddon(g.state, p, windowID, pos); err != nil {
		// the document and the room disagree; the room is authoritative
		g.log.WithError(err).Error("addon claim committed but rejected locally")
		return err
	}
	out, err := g.book.ResolveAddon(g.state, p, pos, st.known)
	if err != nil {
		return err
	}
	if g.claimTimer != nil {
		g.claimTimer.Stop()
		g.claimTimer = nil
	}
	g.logAction(p, models.ActionAddon, map[string]any{"pos": pos, "window": windowID, "matched": out.Removed != nil})
	g.apply(p, out)
	return nil
}

func (g *CaboGame) handleNextRound(p uuid.UUID) error {
	if p != g.state.Host() {
		return ErrNotHost
	}
	next, err := g.book.NextRound(g.state)
	if err != nil {
		return err
	}
	g.logAction(p, models.ActionNextRound, nil)
	g.startRound(next)
	return nil
}

func (g *CaboGame) handleNewGame(p uuid.UUID) error {
	if p != g.state.Host() {
		return ErrNotHost
	}
	next, err := g.book.NewGameFrom(g.state)
	if err != nil {
		return err
	}
	g.logAction(p, models.ActionNewGame, nil)
	g.startRound(next)
	return nil
}

func (g *CaboGame) firePrivateInitialCards(playerID uuid.UUID, reveals []engine.Reveal) {
	ev := GameEvent{Type: EventPrivateInitialCards}
	if len(reveals) > 0 {
		ev.Card1 = eventCard(reveals[0].Card, playerID, reveals[0].Pos)
	}
	if len(reveals) > 1 {
		ev.Card2 = eventCard(reveals[1].Card, playerID, reveals[1].Pos)
	}
	g.fireEventToPlayer(playerID, ev)
}
