// internal/client/bot.go
package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/cabo/engine"
	"github.com/jason-s-yu/cabo/service/internal/game"
	"github.com/jason-s-yu/cabo/service/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrGameOver is returned by Bot.Run once the game has ended.
var ErrGameOver = errors.New("game over")

// Transport is the part of Conn a Bot needs.
type Transport interface {
	Send(ctx context.Context, a models.GameAction) error
	Recv(ctx context.Context) (game.GameEvent, error)
}

// Bot plays one seat with a simple strategy: keep low cards, look at unknown
// cards with peek powers, claim addons it can match and call CABO once its
// whole hand is known and small.
type Bot struct {
	Me uuid.UUID
	// CaboAt is the highest known hand total the bot calls CABO on.
	CaboAt int

	t     Transport
	dedup *Deduper
	view  *game.ObfGameState
	last  string
	log   *logrus.Entry
}

// NewBot plays seat me over t.
func NewBot(t Transport, me uuid.UUID) *Bot {
	d, _ := NewDeduper(DefaultDedupSize)
	return &Bot{
		Me:     me,
		CaboAt: 5,
		t:      t,
		dedup:  d,
		log:    logrus.WithField("bot", me),
	}
}

// Run plays until ctx ends, the connection drops or the game is over.
func (b *Bot) Run(ctx context.Context) error {
	for {
		ev, err := b.t.Recv(ctx)
		if err != nil {
			return err
		}
		if ev.State != nil && ev.State.Phase == engine.PhaseGameOver {
			return ErrGameOver
		}
		a := b.Decide(ev)
		if a == nil {
			continue
		}
		b.log.WithField("action", a.Type).Debug("acting")
		if err := b.t.Send(ctx, *a); err != nil {
			return err
		}
	}
}

// Decide returns the bot's answer to ev, or nil.
func (b *Bot) Decide(ev game.GameEvent) *models.GameAction {
	switch ev.Type {
	case game.EventGame:
		if ev.Event != nil && b.dedup.First(ev.Event.ID) {
			b.log.WithField("event", ev.Event.Type).WithField("actor", ev.Event.ActorName).Info("table event")
		}
	case game.EventPrivateError:
		b.log.WithField("payload", ev.Payload).Debug("action refused")
	case game.EventAddonOpen:
		return b.decideAddon(ev.Addon)
	case game.EventPrivateSyncState:
		if ev.State == nil {
			return nil
		}
		b.view = ev.State
		return b.decideState(ev.State)
	}
	return nil
}

func (b *Bot) self(s *game.ObfGameState) *game.ObfPlayerState {
	for i := range s.Players {
		if s.Players[i].PlayerID == b.Me {
			return &s.Players[i]
		}
	}
	return nil
}

// once suppresses sending the same answer to an unchanged view.
func (b *Bot) once(s *game.ObfGameState, a models.GameAction) *models.GameAction {
	sig := fmt.Sprintf("%s|%d|%s|%d|%d|%v|%v|%s", s.Phase, s.Round, s.CurrentPlayerID,
		s.DeckSize, s.DiscardSize, s.DrawnCard != nil, s.Action != nil, a.Type)
	if sig == b.last {
		return nil
	}
	b.last = sig
	return &a
}

func (b *Bot) decideState(s *game.ObfGameState) *models.GameAction {
	me := b.self(s)
	if me == nil {
		return nil
	}
	switch s.Phase {
	case engine.PhaseInitialPeek:
		if !me.Ready {
			return b.once(s, models.GameAction{Type: models.ActionReady})
		}
	case engine.PhaseRoundScored:
		if me.IsHost {
			return b.once(s, models.GameAction{Type: models.ActionNextRound})
		}
	case engine.PhasePlay:
		if s.CurrentPlayerID == b.Me {
			return b.decideTurn(s, me)
		}
	}
	return nil
}

func (b *Bot) decideTurn(s *game.ObfGameState, me *game.ObfPlayerState) *models.GameAction {
	if s.Action != nil {
		if s.Action.Power == engine.PowerPeek && s.Action.Step == engine.StepPick {
			pos := unknownPos(me.Hand)
			if pos < 0 {
				pos = 0
			}
			return b.once(s, models.GameAction{Type: models.ActionSelect, Pos: intPtr(pos)})
		}
		// other powers are never started by the bot
		return nil
	}
	if s.DrawnCard == nil {
		if s.CaboCallerID == nil && unknownPos(me.Hand) < 0 && total(me.Hand) <= b.CaboAt {
			return b.once(s, models.GameAction{Type: models.ActionCabo})
		}
		if s.DeckSize == 0 && s.CaboCallerID == nil {
			// nothing to draw; end the round if nobody has yet
			return b.once(s, models.GameAction{Type: models.ActionCabo})
		}
		// after CABO a draw from an empty deck passes the turn
		return b.once(s, models.GameAction{Type: models.ActionDraw})
	}

	drawn := *s.DrawnCard
	if hi := highestKnown(me.Hand); hi >= 0 && drawn.Value < me.Hand[hi].Value {
		return b.once(s, models.GameAction{Type: models.ActionReplace, Pos: intPtr(hi)})
	}
	if u := unknownPos(me.Hand); u >= 0 {
		if drawn.Value <= 3 {
			return b.once(s, models.GameAction{Type: models.ActionReplace, Pos: intPtr(u)})
		}
		if drawn.Rank == "7" || drawn.Rank == "8" {
			return b.once(s, models.GameAction{Type: models.ActionPower})
		}
	}
	return b.once(s, models.GameAction{Type: models.ActionDiscard})
}

// decideAddon claims a window when the bot knows it holds a matching card.
func (b *Bot) decideAddon(w *engine.AddonWindow) *models.GameAction {
	if w == nil || !w.Active || b.view == nil {
		return nil
	}
	me := b.self(b.view)
	if me == nil || len(me.Hand) < 2 {
		return nil
	}
	want := engine.NewCard(w.DiscardFaceValue, engine.SuitClubs).Rank()
	for i, c := range me.Hand {
		if c.Known && c.Rank == want {
			return &models.GameAction{Type: models.ActionAddon, Pos: intPtr(i), WindowID: w.ID}
		}
	}
	return nil
}

func unknownPos(hand []game.ObfCard) int {
	for i, c := range hand {
		if !c.Known {
			return i
		}
	}
	return -1
}

func highestKnown(hand []game.ObfCard) int {
	best := -1
	for i, c := range hand {
		if c.Known && (best < 0 || c.Value > hand[best].Value) {
			best = i
		}
	}
	return best
}

func total(hand []game.ObfCard) int {
	n := 0
	for _, c := range hand {
		n += c.Value
	}
	return n
}

func intPtr(i int) *int { return &i }
