// internal/room/pitboss.go
package room

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/cabo/engine"
	"github.com/jason-s-yu/cabo/engine/rng"
	"github.com/jason-s-yu/cabo/service/internal/game"
	"github.com/jason-s-yu/cabo/service/internal/historian"
	"github.com/jason-s-yu/cabo/service/internal/models"
	"github.com/jason-s-yu/cabo/service/internal/store"
	"github.com/sirupsen/logrus"
)

const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	codeLength   = 4
)

// DefaultIdleTimeout is how long a new room waits for its first connection.
const DefaultIdleTimeout = 10 * time.Minute

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrEmptyName    = errors.New("player names must not be empty")
	ErrNotSeated    = errors.New("player is not seated in this room")
)

// Options configure every room a PitBoss opens.
type Options struct {
	Rules     engine.HouseRules
	Gateway   store.Gateway
	Historian historian.Publisher
	// NewRand returns the deck shuffler for a new room. Each room gets its
	// own. Defaults to a crypto source.
	NewRand func() rng.Generator
	// Codes generates room codes. Defaults to a crypto source.
	Codes rng.Generator
	// IdleTimeout closes a room nobody has connected to within it. Zero means
	// DefaultIdleTimeout; negative never closes.
	IdleTimeout time.Duration
}

// PitBoss keeps track of the open rooms and routes connections to them.
type PitBoss struct {
	opts Options

	mu    sync.Mutex
	rooms map[string]*Room
}

// NewPitBoss returns an empty registry.
func NewPitBoss(opts Options) *PitBoss {
	if opts.Gateway == nil {
		opts.Gateway = store.NewMemoryGateway()
	}
	if opts.Historian == nil {
		opts.Historian = historian.Nop{}
	}
	if opts.NewRand == nil {
		opts.NewRand = func() rng.Generator { return rng.Crypto{} }
	}
	if opts.Codes == nil {
		opts.Codes = rng.Crypto{}
	}
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	return &PitBoss{opts: opts, rooms: make(map[string]*Room)}
}

// CreateRoom seats the named players in order and deals the first round. The
// first name is the host.
func (p *PitBoss) CreateRoom(ctx context.Context, names []string) (*Room, error) {
	players := make([]models.Player, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			return nil, ErrEmptyName
		}
		players = append(players, models.Player{ID: uuid.New(), Name: n})
	}

	p.mu.Lock()
	code := p.newCode()
	r := newRoom(code, players)
	p.rooms[code] = r
	p.mu.Unlock()

	r.Game = game.NewCaboGame(code, players, game.Options{
		Rules:     p.opts.Rules,
		Gateway:   p.opts.Gateway,
		Historian: p.opts.Historian,
		Rand:      p.opts.NewRand(),
	})
	r.Game.BroadcastFn = r.broadcast
	r.Game.BroadcastToPlayerFn = r.broadcastToPlayer

	if err := r.Game.Start(ctx); err != nil {
		p.remove(code)
		r.Game.Stop()
		return nil, err
	}
	if p.opts.IdleTimeout > 0 {
		r.armIdle(p.opts.IdleTimeout, func() { p.closeIdle(r) })
	}
	logrus.WithField("room", code).WithField("players", len(players)).Info("room opened")
	return r, nil
}

// newCode picks a code no open room uses. Caller holds mu.
func (p *PitBoss) newCode() string {
	for {
		var b strings.Builder
		for i := 0; i < codeLength; i++ {
			b.WriteByte(codeAlphabet[p.opts.Codes.Intn(len(codeAlphabet))])
		}
		if _, taken := p.rooms[b.String()]; !taken {
			return b.String()
		}
	}
}

// Room looks up an open room by code. Codes are case-insensitive.
func (p *PitBoss) Room(code string) (*Room, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.rooms[strings.ToUpper(code)]
	return r, ok
}

// RoomCount returns how many rooms are open.
func (p *PitBoss) RoomCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.rooms)
}

// ClientConnected seats a connection for playerID. A previous connection for
// the same player is told to close.
func (p *PitBoss) ClientConnected(code string, playerID uuid.UUID) (*Client, error) {
	r, ok := p.Room(code)
	if !ok {
		return nil, ErrRoomNotFound
	}
	c, err := r.attach(playerID)
	if err != nil {
		return nil, err
	}
	logrus.WithField("client", c.String()).Debug("client connected")
	if err := r.Game.Connect(playerID); err != nil {
		r.detach(c)
		return nil, err
	}
	return c, nil
}

// ClientDisconnected releases a connection. The room closes once nobody is
// left in it.
func (p *PitBoss) ClientDisconnected(c *Client) {
	logrus.WithField("client", c.String()).Debug("client disconnected")
	r := c.room
	if !r.detach(c) {
		return
	}
	if err := r.Game.Disconnect(c.PlayerID); err != nil && !errors.Is(err, game.ErrStopped) {
		logrus.WithField("client", c.String()).WithError(err).Warn("could not mark player disconnected")
	}
	if r.empty() {
		p.CloseRoom(r.Code)
	}
}

// closeIdle closes r if it is still open and nobody ever connected.
func (p *PitBoss) closeIdle(r *Room) {
	if cur, ok := p.Room(r.Code); !ok || cur != r || !r.empty() {
		return
	}
	logrus.WithField("room", r.Code).Info("closing room nobody joined")
	p.CloseRoom(r.Code)
}

// CloseRoom stops a room's game and forgets it.
func (p *PitBoss) CloseRoom(code string) {
	r := p.remove(code)
	if r == nil {
		return
	}
	r.disarmIdle()
	r.closeClients("room closed")
	r.Game.Stop()
	logrus.WithField("room", r.Code).Info("room closed")
}

func (p *PitBoss) remove(code string) *Room {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.rooms[code]
	if !ok {
		return nil
	}
	delete(p.rooms, code)
	return r
}

// Shutdown closes every open room.
func (p *PitBoss) Shutdown() {
	p.mu.Lock()
	codes := make([]string, 0, len(p.rooms))
	for code := range p.rooms {
		codes = append(codes, code)
	}
	p.mu.Unlock()
	for _, code := range codes {
		p.CloseRoom(code)
	}
}
