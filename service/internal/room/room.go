// internal/room/room.go
package room

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/cabo/engine"
	"github.com/jason-s-yu/cabo/service/internal/game"
	"github.com/jason-s-yu/cabo/service/internal/models"
	"github.com/sirupsen/logrus"
)

// Room is one table: its game and the connections watching it.
type Room struct {
	Code    string
	Players []models.Player
	Game    *game.CaboGame

	mu      sync.Mutex
	clients map[uuid.UUID]*Client
	// idle fires if nobody connects after the room opens.
	idle *time.Timer
}

// Info is the public summary of a room.
type Info struct {
	Code    string       `json:"code"`
	Round   int          `json:"round"`
	Phase   engine.Phase `json:"phase"`
	Players []PlayerInfo `json:"players"`
}

// PlayerInfo is one seat in Info.
type PlayerInfo struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Score     int       `json:"score"`
	Connected bool      `json:"connected"`
	IsHost    bool      `json:"isHost"`
}

func newRoom(code string, players []models.Player) *Room {
	return &Room{
		Code:    code,
		Players: players,
		clients: make(map[uuid.UUID]*Client),
	}
}

// Info summarizes the room. It never includes cards.
func (r *Room) Info() (Info, error) {
	view, err := r.Game.View(r.Players[0].ID)
	if err != nil {
		return Info{}, err
	}
	info := Info{Code: r.Code, Round: view.Round, Phase: view.Phase}
	for _, p := range view.Players {
		info.Players = append(info.Players, PlayerInfo{
			ID:        p.PlayerID,
			Name:      p.Name,
			Score:     p.Score,
			Connected: p.Connected,
			IsHost:    p.IsHost,
		})
	}
	return info, nil
}

// Seated reports whether playerID has a seat in the room.
func (r *Room) Seated(playerID uuid.UUID) bool {
	for _, p := range r.Players {
		if p.ID == playerID {
			return true
		}
	}
	return false
}

func (r *Room) attach(playerID uuid.UUID) (*Client, error) {
	if !r.Seated(playerID) {
		return nil, ErrNotSeated
	}
	c := newClient(playerID, r)
	r.mu.Lock()
	old := r.clients[playerID]
	r.clients[playerID] = c
	if r.idle != nil {
		r.idle.Stop()
		r.idle = nil
	}
	r.mu.Unlock()
	if old != nil {
		askClose(old, "connected from another session")
	}
	return c, nil
}

// detach removes c if it is still the player's current connection.
func (r *Room) detach(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clients[c.PlayerID] != c {
		return false
	}
	delete(r.clients, c.PlayerID)
	return true
}

func (r *Room) armIdle(d time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idle = time.AfterFunc(d, fn)
}

func (r *Room) disarmIdle() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.idle != nil {
		r.idle.Stop()
		r.idle = nil
	}
}

func (r *Room) empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients) == 0
}

func (r *Room) closeClients(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clients {
		askClose(c, reason)
	}
}

func askClose(c *Client, reason string) {
	select {
	case c.Close <- reason:
	default:
	}
}

// broadcast is the game's BroadcastFn.
func (r *Room) broadcast(ev game.GameEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clients {
		if !c.Send(ev) {
			logrus.WithField("client", c.String()).WithField("type", ev.Type).Warn("client is behind, dropped message")
		}
	}
}

// broadcastToPlayer is the game's BroadcastToPlayerFn.
func (r *Room) broadcastToPlayer(playerID uuid.UUID, ev game.GameEvent) {
	r.mu.Lock()
	c := r.clients[playerID]
	r.mu.Unlock()
	if c == nil {
		return
	}
	if !c.Send(ev) {
		logrus.WithField("client", c.String()).WithField("type", ev.Type).Warn("client is behind, dropped message")
	}
}
