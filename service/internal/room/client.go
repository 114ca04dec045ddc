// internal/room/client.go
package room

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/cabo/service/internal/game"
	"github.com/jason-s-yu/cabo/service/internal/models"
	"github.com/sirupsen/logrus"
)

const sendBuffer = 256

// Client is one player's connection to a room.
type Client struct {
	PlayerID uuid.UUID

	// send carries outgoing messages. The transport drains it.
	send chan game.GameEvent

	// Close receives a reason when the room wants the connection gone.
	Close chan string

	room *Room
}

func newClient(playerID uuid.UUID, r *Room) *Client {
	return &Client{
		PlayerID: playerID,
		send:     make(chan game.GameEvent, sendBuffer),
		Close:    make(chan string, 1),
		room:     r,
	}
}

// Send queues ev for the client. It returns false if the client is too far
// behind; the message is dropped.
func (c *Client) Send(ev game.GameEvent) bool {
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

// SendChan returns a read-only channel of outgoing messages.
func (c *Client) SendChan() <-chan game.GameEvent {
	return c.send
}

// Room returns the room the client is seated in.
func (c *Client) Room() *Room {
	return c.room
}

// String returns a traceable identifier for the player and room.
func (c *Client) String() string {
	return fmt.Sprintf("%s:%s", c.PlayerID, c.room.Code)
}

// ReceivedMessage forwards a command from the client to its game. Refusals
// already reach the client as private errors, so they are only logged here.
func (c *Client) ReceivedMessage(a models.GameAction) {
	if err := c.room.Game.HandlePlayerAction(c.PlayerID, a); err != nil {
		logrus.WithField("client", c.String()).WithError(err).Trace("action refused")
	}
}
