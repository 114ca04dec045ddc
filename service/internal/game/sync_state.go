// internal/game/sync_state.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/cabo/engine"
)

// ObfCard is a card as one observer sees it. Rank, suit and value are only
// filled in when Known is true.
type ObfCard struct {
	Known bool   `json:"known"`
	Rank  string `json:"rank,omitempty"`
	Suit  string `json:"suit,omitempty"`
	Value int    `json:"value,omitempty"`
	Label string `json:"label,omitempty"`
	Idx   *int   `json:"idx,omitempty"`
}

// ObfPlayerState is one seat as seen by the observer.
type ObfPlayerState struct {
	PlayerID      uuid.UUID `json:"playerId"`
	Name          string    `json:"name"`
	HandSize      int       `json:"handSize"`
	Score         int       `json:"score"`
	CalledCabo    bool      `json:"calledCabo"`
	LastTurns     *int      `json:"lastTurns,omitempty"`
	Ready         bool      `json:"ready"`
	Connected     bool      `json:"connected"`
	IsCurrentTurn bool      `json:"isCurrentTurn"`
	IsHost        bool      `json:"isHost"`
	// Hand is filled in for the observer's own seat only; unknown positions
	// stay face down.
	Hand []ObfCard `json:"hand,omitempty"`
}

// ObfAction is the observer's own pending power.
type ObfAction struct {
	Power engine.Power `json:"power"`
	Step  engine.Step  `json:"step"`
}

// ObfGameState is the whole table as one observer may see it.
type ObfGameState struct {
	RoomCode        string              `json:"roomCode"`
	Round           int                 `json:"round"`
	Phase           engine.Phase        `json:"phase"`
	CurrentPlayerID uuid.UUID           `json:"currentPlayerId"`
	DeckSize        int                 `json:"deckSize"`
	DiscardSize     int                 `json:"discardSize"`
	DiscardTop      *ObfCard            `json:"discardTop,omitempty"`
	DrawnCard       *ObfCard            `json:"drawnCard,omitempty"`
	CaboCallerID    *uuid.UUID          `json:"caboCallerId,omitempty"`
	Players         []ObfPlayerState    `json:"players"`
	Action          *ObfAction          `json:"action,omitempty"`
	Addon           *engine.AddonWindow `json:"addon,omitempty"`
	LastResult      *engine.RoundResult `json:"lastResult,omitempty"`
	Log             []string            `json:"log"`
	Help            string              `json:"help"`
}

func knownCard(c engine.Card) *ObfCard {
	return &ObfCard{Known: true, Rank: c.Rank(), Suit: string(c.Suit), Value: c.Points(), Label: c.Label()}
}

// GetCurrentObfuscatedGameState builds the view of the table for forUser.
// Runs on the run loop.
func (g *CaboGame) GetCurrentObfuscatedGameState(forUser uuid.UUID) ObfGameState {
	s := g.state
	obf := ObfGameState{RoomCode: g.Code, Players: []ObfPlayerState{}, Log: []string{}}
	if s == nil {
		return obf
	}
	obf.Round = s.Round
	obf.Phase = s.Phase
	obf.DeckSize = len(s.Deck)
	obf.DiscardSize = len(s.Discard)
	obf.Log = append(obf.Log, s.Log...)
	obf.LastResult = g.lastResult
	if s.Phase == engine.PhasePlay {
		obf.CurrentPlayerID = s.CurrentTurn
	}
	if top, ok := s.DiscardTop(); ok {
		obf.DiscardTop = knownCard(top)
	}
	if s.CaboCallerID.Valid {
		id := s.CaboCallerID.UUID
		obf.CaboCallerID = &id
	}
	if s.AddonDiscard != nil && s.AddonDiscard.Active {
		w := *s.AddonDiscard
		obf.Addon = &w
	}
	if s.DrawnCard != nil && s.CurrentTurn == forUser {
		obf.DrawnCard = knownCard(*s.DrawnCard)
	}

	self := g.seats[forUser]
	var act engine.ActionInProgress
	if self != nil && self.action != nil {
		act = self.action
		obf.Action = &ObfAction{Power: act.Power(), Step: act.Step()}
	}
	obf.Help = engine.HelpText(s, forUser, act)

	for _, id := range s.PlayerOrder {
		ps := ObfPlayerState{
			PlayerID:      id,
			Name:          s.PlayerNames[id],
			HandSize:      len(s.Hands[id]),
			Score:         s.Scores[id],
			CalledCabo:    s.CaboCallerID.Valid && s.CaboCallerID.UUID == id,
			Ready:         s.PeekReady[id],
			IsCurrentTurn: s.Phase == engine.PhasePlay && s.CurrentTurn == id,
			IsHost:        s.Host() == id,
		}
		if n, ok := s.LastTurns[id]; ok {
			ps.LastTurns = &n
		}
		if st, ok := g.seats[id]; ok {
			ps.Connected = st.player.Connected
		}
		if id == forUser && self != nil {
			ps.Hand = g.ownHand(s, id, self.known)
		}
		obf.Players = append(obf.Players, ps)
	}
	return obf
}

// ownHand shows the observer their own cards. Once the round is over every
// card is face up.
func (g *CaboGame) ownHand(s *engine.GameState, id uuid.UUID, known engine.KnownCards) []ObfCard {
	hand := s.Hands[id]
	out := make([]ObfCard, len(hand))
	reveal := s.Phase == engine.PhaseRoundScored || s.Phase == engine.PhaseGameOver
	for i := range hand {
		idx := i
		c, ok := known.Get(i)
		if reveal {
			c, ok = hand[i], true
		}
		if ok {
			out[i] = *knownCard(c)
		}
		out[i].Idx = &idx
	}
	return out
}

// sendSyncState sends forUser their current view.
func (g *CaboGame) sendSyncState(playerID uuid.UUID) {
	state := g.GetCurrentObfuscatedGameState(playerID)
	g.fireEventToPlayer(playerID, GameEvent{Type: EventPrivateSyncState, State: &state})
}

// broadcastSyncStateToAll sends every connected player their own view.
func (g *CaboGame) broadcastSyncStateToAll() {
	for _, p := range g.Players {
		if p.Connected {
			g.sendSyncState(p.ID)
		}
	}
}
