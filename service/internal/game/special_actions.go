// internal/game/special_actions.go
package game

import (
	"errors"
	"time"

	"github.com/jason-s-yu/cabo/engine"
	"github.com/jason-s-yu/cabo/service/internal/models"
)

// handlePower starts the power of the drawn card for the turn holder.
func (g *CaboGame) handlePower(st *seat) error {
	p := st.player.ID
	act, err := g.book.Activate(g.state, p, st.action)
	if err != nil {
		return err
	}
	st.action = act
	g.logAction(p, models.ActionPower, map[string]any{"power": act.Power()})
	g.sendPowerPrompt(st)
	return nil
}

// handleSelect feeds one target choice into the pending power. Target defaults
// to the sender's own hand.
func (g *CaboGame) handleSelect(st *seat, a models.GameAction) error {
	if st.action == nil {
		return engine.ErrNoAction
	}
	if a.Pos == nil {
		return ErrMissingPos
	}
	p := st.player.ID
	target := engine.Slot{Owner: p, Pos: *a.Pos}
	if a.Target != nil {
		target.Owner = *a.Target
	}

	next, out, err := g.book.Select(g.state, st.action, target)
	if errors.Is(err, engine.ErrStaleAction) {
		g.clearAction(st)
		return err
	}
	if err != nil {
		return err
	}
	g.logAction(p, models.ActionSelect, map[string]any{
		"power":  st.action.Power(),
		"step":   st.action.Step(),
		"target": target.Owner,
		"pos":    target.Pos,
	})
	g.apply(p, out)
	g.setAction(st, next)
	return nil
}

// setAction installs the next step of a power. Reveal steps settle on their
// own after the reveal delay.
func (g *CaboGame) setAction(st *seat, next engine.ActionInProgress) {
	g.clearAction(st)
	st.action = next
	if next == nil {
		return
	}
	if engine.IsRevealStep(next.Step()) {
		d := g.book.Rules.RevealDelay
		if d <= 0 {
			g.settle(st, st.gen)
			return
		}
		gen := st.gen
		st.settle = time.AfterFunc(d, func() {
			g.enqueue(func() {
				g.settle(st, gen)
				g.afterCommand()
			})
		})
	}
	g.sendPowerPrompt(st)
}

// settle moves a power past its reveal step. It does nothing if the power has
// moved on or been dropped since gen was taken.
func (g *CaboGame) settle(st *seat, gen uint64) {
	if st.action == nil || st.gen != gen {
		return
	}
	st.settle = nil
	next, out, err := g.book.Settle(g.state, st.action)
	if err != nil {
		g.log.WithError(err).WithField("player", st.player.ID).Debug("could not settle power")
		g.clearAction(st)
		return
	}
	g.apply(st.player.ID, out)
	g.setAction(st, next)
}

func (g *CaboGame) clearAction(st *seat) {
	if st.settle != nil {
		st.settle.Stop()
		st.settle = nil
	}
	st.action = nil
	st.gen++
}

func (g *CaboGame) sendPowerPrompt(st *seat) {
	act := st.action
	if act == nil {
		return
	}
	g.fireEventToPlayer(st.player.ID, GameEvent{
		Type: EventPrivatePowerPrompt,
		Payload: map[string]any{
			"power": act.Power(),
			"step":  act.Step(),
			"help":  engine.HelpText(g.state, st.player.ID, act),
		},
	})
}
