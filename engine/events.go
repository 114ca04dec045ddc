package engine

import "github.com/google/uuid"

// EventType tags a transient event written to the shared document.
type EventType string

const (
	EventPeek      EventType = "peek"
	EventSpy       EventType = "spy"
	EventSwap      EventType = "swap"
	EventBlindSwap EventType = "blindswap"
	EventCabo      EventType = "cabo"
	EventAddon     EventType = "addon"
	EventDeckEmpty EventType = "deck-empty"
)

// Event is an ephemeral, self-identifying notice. ID is assigned when the
// event is broadcast; consumers drop IDs they have already handled.
type Event struct {
	ID         string     `json:"id"`
	Type       EventType  `json:"type"`
	ActorID    uuid.UUID  `json:"actorId"`
	ActorName  string     `json:"actorName"`
	TargetID   *uuid.UUID `json:"targetId,omitempty"`
	TargetName string     `json:"targetName,omitempty"`
	Pos        *int       `json:"pos,omitempty"`
	MyPos      *int       `json:"myPos,omitempty"`
	OppPos     *int       `json:"oppPos,omitempty"`
	CardLabel  string     `json:"cardLabel,omitempty"`
	Success    *bool      `json:"success,omitempty"`
}

func (g *GameState) newEvent(t EventType, actor uuid.UUID) Event {
	return Event{Type: t, ActorID: actor, ActorName: g.PlayerNames[actor]}
}

func (e Event) withTarget(g *GameState, target uuid.UUID) Event {
	id := target
	e.TargetID = &id
	e.TargetName = g.PlayerNames[target]
	return e
}

func intPtr(i int) *int { return &i }

func boolPtr(b bool) *bool { return &b }
