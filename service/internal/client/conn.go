// internal/client/conn.go
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/jason-s-yu/cabo/service/internal/game"
	"github.com/jason-s-yu/cabo/service/internal/models"
)

// Seat is one player as returned by room creation.
type Seat struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// NewRoom is the server's answer to a room creation.
type NewRoom struct {
	Code    string `json:"code"`
	Players []Seat `json:"players"`
}

// CreateRoom asks the server at baseURL to open a room for names.
func CreateRoom(ctx context.Context, baseURL string, names []string) (NewRoom, error) {
	body, err := json.Marshal(map[string][]string{"players": names})
	if err != nil {
		return NewRoom{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/rooms", bytes.NewReader(body))
	if err != nil {
		return NewRoom{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return NewRoom{}, fmt.Errorf("create room: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return NewRoom{}, fmt.Errorf("create room: %s: %s", resp.Status, e.Message)
	}
	var out NewRoom
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return NewRoom{}, fmt.Errorf("create room: %w", err)
	}
	return out, nil
}

// Conn is one player's websocket to a room.
type Conn struct {
	ws *websocket.Conn
}

// Dial connects player to the room code on the server at baseURL
// (http or https).
func Dial(ctx context.Context, baseURL, code string, player uuid.UUID) (*Conn, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	u.Path += "/rooms/" + code + "/ws"
	u.RawQuery = url.Values{"player": {player.String()}}.Encode()

	ws, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", code, err)
	}
	ws.SetReadLimit(1 << 20)
	return &Conn{ws: ws}, nil
}

// Send writes one command.
func (c *Conn) Send(ctx context.Context, a models.GameAction) error {
	return wsjson.Write(ctx, c.ws, a)
}

// Recv blocks for the next message from the room.
func (c *Conn) Recv(ctx context.Context) (game.GameEvent, error) {
	var ev game.GameEvent
	err := wsjson.Read(ctx, c.ws, &ev)
	return ev, err
}

// Close says goodbye to the server.
func (c *Conn) Close() error {
	return c.ws.Close(websocket.StatusNormalClosure, "")
}
