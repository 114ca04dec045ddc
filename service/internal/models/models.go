// internal/models/models.go
package models

import (
	"github.com/google/uuid"
)

// Player is a seat at a room, as the service tracks it.
type Player struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Connected bool      `json:"connected"`
}

// Action types a client can send over the socket.
const (
	ActionReady     = "ready"
	ActionDraw      = "draw"
	ActionDiscard   = "discard"
	ActionReplace   = "replace"
	ActionPower     = "power"
	ActionSelect    = "select"
	ActionCabo      = "cabo"
	ActionAddon     = "addon"
	ActionNextRound = "next_round"
	ActionNewGame   = "new_game"
	ActionSync      = "sync"
)

// GameAction is one command from a client. Pos addresses a hand position;
// Target names the owner of that position when it is not the sender.
type GameAction struct {
	Type     string     `json:"type"`
	Pos      *int       `json:"pos,omitempty"`
	Target   *uuid.UUID `json:"target,omitempty"`
	WindowID string     `json:"windowId,omitempty"`
}
