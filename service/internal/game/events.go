// internal/game/events.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/cabo/engine"
)

// GameEventType names a message sent to connected players.
type GameEventType string

const (
	EventGame                  GameEventType = "game_event"            // Public: an engine event (peek, spy, swap, cabo, addon, ...).
	EventPlayerTurn            GameEventType = "game_player_turn"      // Public: the turn moved.
	EventAddonOpen             GameEventType = "addon_open"            // Public: a discard can be matched.
	EventAddonClosed           GameEventType = "addon_closed"          // Public: the claim window expired.
	EventRoundEnd              GameEventType = "round_end"             // Public: score sheet for the round.
	EventRoundStart            GameEventType = "round_start"           // Public: a new round was dealt.
	EventPrivateInitialCards   GameEventType = "private_initial_cards" // Private: the two cards shown before play.
	EventPrivateReveal         GameEventType = "private_reveal"        // Private: a card the player was shown.
	EventPrivateDrawn          GameEventType = "private_drawn"         // Private: the card the player drew.
	EventPrivatePowerPrompt    GameEventType = "private_power_prompt"  // Private: what the pending power wants next.
	EventPrivatePowerAbandoned GameEventType = "private_power_abandoned"
	EventPrivateSyncState      GameEventType = "private_sync_state" // Private: full view for one player.
	EventPrivateError          GameEventType = "private_error"      // Private: an action was refused.
)

// EventUser identifies a player within a GameEvent.
type EventUser struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name,omitempty"`
}

// EventCard describes a card within a GameEvent.
type EventCard struct {
	Rank  string     `json:"rank,omitempty"`
	Suit  string     `json:"suit,omitempty"`
	Value int        `json:"value"`
	Label string     `json:"label,omitempty"`
	Idx   *int       `json:"idx,omitempty"`
	User  *EventUser `json:"user,omitempty"`
}

// GameEvent is the envelope for everything pushed to clients.
type GameEvent struct {
	Type    GameEventType       `json:"type"`
	User    *EventUser          `json:"user,omitempty"`
	Card    *EventCard          `json:"card,omitempty"`
	Card1   *EventCard          `json:"card1,omitempty"`
	Card2   *EventCard          `json:"card2,omitempty"`
	Event   *engine.Event       `json:"event,omitempty"`
	Addon   *engine.AddonWindow `json:"addon,omitempty"`
	Result  *engine.RoundResult `json:"result,omitempty"`
	Payload map[string]any      `json:"payload,omitempty"`
	State   *ObfGameState       `json:"state,omitempty"`
}

func eventCard(c engine.Card, owner uuid.UUID, pos int) *EventCard {
	idx := pos
	return &EventCard{
		Rank:  c.Rank(),
		Suit:  string(c.Suit),
		Value: c.Points(),
		Label: c.Label(),
		Idx:   &idx,
		User:  &EventUser{ID: owner},
	}
}
