// internal/game/game.go
package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/cabo/engine"
	"github.com/jason-s-yu/cabo/engine/rng"
	"github.com/jason-s-yu/cabo/service/internal/historian"
	"github.com/jason-s-yu/cabo/service/internal/models"
	"github.com/jason-s-yu/cabo/service/internal/store"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNotHost is returned when someone other than the host starts a round.
	ErrNotHost = errors.New("only the host can do that")
	// ErrUnknownAction is returned for an unrecognised action type.
	ErrUnknownAction = errors.New("unknown action type")
	// ErrStopped is returned once the game's run loop has ended.
	ErrStopped = errors.New("game stopped")
	// ErrMissingPos is returned when an action needs a hand position and got none.
	ErrMissingPos = errors.New("missing position")
)

// storeTimeout bounds every gateway call made from the run loop.
const storeTimeout = 5 * time.Second

// historyBuffer is how many action records may wait for the historian.
const historyBuffer = 1024

// Options configures a CaboGame.
type Options struct {
	Rules     engine.HouseRules
	Gateway   store.Gateway       // defaults to an in-memory gateway
	Historian historian.Publisher // defaults to historian.Nop
	Rand      rng.Generator       // defaults to a crypto shuffle
	Now       func() time.Time    // defaults to time.Now
}

// seat is the per-player state that never goes to the shared document.
type seat struct {
	player *models.Player
	action engine.ActionInProgress
	known  engine.KnownCards
	// settle is the pending reveal-delay timer for action, if any. gen changes
	// whenever a new step is installed, so a late timer can tell it is stale.
	settle *time.Timer
	gen    uint64
}

// CaboGame runs one room. All state is owned by a single run loop goroutine;
// exported methods hand work to it and wait for the result.
type CaboGame struct {
	Code string

	book *engine.Rulebook
	gw   store.Gateway
	path string
	hist historian.Publisher

	Players []*models.Player
	seats   map[uuid.UUID]*seat
	state   *engine.GameState

	lastResult    *engine.RoundResult
	announcedTurn uuid.UUID
	actionIndex   int

	claimTimer *time.Timer
	peekTimer  *time.Timer

	// history feeds publishLoop in ActionIndex order. histClosed is set on the
	// run loop once history is closed.
	history    chan historian.ActionRecord
	histDone   chan struct{}
	histClosed bool

	// BroadcastFn sends an event to every connected player.
	BroadcastFn func(ev GameEvent)
	// BroadcastToPlayerFn sends an event to a single player.
	BroadcastToPlayerFn func(playerID uuid.UUID, ev GameEvent)

	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	exec     chan func()
	done     chan struct{}
	stopOnce sync.Once
	log      *logrus.Entry
}

// NewCaboGame seats players in the given order. The first player is the host.
// Call Start to deal the first round.
func NewCaboGame(code string, players []models.Player, opts Options) *CaboGame {
	if opts.Gateway == nil {
		opts.Gateway = store.NewMemoryGateway()
	}
	if opts.Historian == nil {
		opts.Historian = historian.Nop{}
	}
	book := engine.NewRulebook(opts.Rules)
	if opts.Rand != nil {
		book.Rand = opts.Rand
	}
	if opts.Now != nil {
		book.Now = opts.Now
	}

	g := &CaboGame{
		Code:  code,
		book:  book,
		gw:    opts.Gateway,
		path:  store.GamePath(code),
		hist:  opts.Historian,
		seats: make(map[uuid.UUID]*seat, len(players)),
		exec:  make(chan func(), 256),
		done:  make(chan struct{}),

		history:  make(chan historian.ActionRecord, historyBuffer),
		histDone: make(chan struct{}),
		log:   logrus.WithField("room", code),
	}
	for _, p := range players {
		pl := p
		g.Players = append(g.Players, &pl)
		g.seats[p.ID] = &seat{player: &pl, known: engine.KnownCards{}}
	}
	return g
}

// Start launches the run loop and deals round one.
func (g *CaboGame) Start(ctx context.Context) error {
	if g.started {
		return errors.New("game already started")
	}
	g.started = true
	g.ctx, g.cancel = context.WithCancel(context.WithoutCancel(ctx))
	go g.runLoop()
	go g.publishLoop()

	return g.do(func() error {
		players := make([]engine.Player, 0, len(g.Players))
		for _, p := range g.Players {
			players = append(players, engine.Player{ID: p.ID, Name: p.Name})
		}
		st, err := g.book.NewGame(players)
		if err != nil {
			return err
		}
		g.logAction(uuid.Nil, "game_start", map[string]any{"players": len(players)})
		g.startRound(st)
		return nil
	})
}

// Stop ends the run loop and removes the room's document and history.
func (g *CaboGame) Stop() {
	g.stopOnce.Do(func() {
		if !g.started {
			close(g.done)
			return
		}
		_ = g.do(func() error {
			g.stopTimers()
			ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
			defer cancel()
			if err := g.gw.Delete(ctx, g.path); err != nil {
				g.log.WithError(err).Warn("could not delete game document")
			}
			g.histClosed = true
			close(g.history)
			<-g.histDone
			if err := g.hist.Drop(ctx, g.Code); err != nil {
				g.log.WithError(err).Warn("could not drop history")
			}
			return nil
		})
		close(g.done)
		if g.cancel != nil {
			g.cancel()
		}
		g.log.Debug("game stopped")
	})
}

func (g *CaboGame) runLoop() {
	g.log.Debug("starting game run loop")
	for {
		select {
		case fn := <-g.exec:
			fn()
		case <-g.done:
			g.log.Debug("terminating game run loop")
			return
		}
	}
}

// enqueue hands fn to the run loop without waiting. Timers use it.
func (g *CaboGame) enqueue(fn func()) {
	select {
	case g.exec <- fn:
	case <-g.done:
	}
}

// do runs fn on the run loop and waits for it.
func (g *CaboGame) do(fn func() error) error {
	errc := make(chan error, 1)
	select {
	case g.exec <- func() { errc <- fn() }:
	case <-g.done:
		return ErrStopped
	}
	select {
	case err := <-errc:
		return err
	case <-g.done:
		return ErrStopped
	}
}

// HandlePlayerAction applies one command from a player. Refusals are also sent
// to the player as a private error event.
func (g *CaboGame) HandlePlayerAction(playerID uuid.UUID, action models.GameAction) error {
	return g.do(func() error {
		err := g.route(playerID, action)
		if err != nil {
			g.log.WithFields(logrus.Fields{
				"player": playerID,
				"action": action.Type,
			}).WithError(err).Debug("action refused")
			g.fireEventToPlayer(playerID, GameEvent{
				Type:    EventPrivateError,
				Payload: map[string]any{"action": action.Type, "message": err.Error()},
			})
		}
		g.afterCommand()
		return err
	})
}

// route dispatches an action. Runs on the run loop.
func (g *CaboGame) route(p uuid.UUID, a models.GameAction) error {
	st, ok := g.seats[p]
	if !ok {
		return engine.ErrUnknownPlayer
	}
	switch a.Type {
	case models.ActionSync:
		g.sendSyncState(p)
		return nil
	case models.ActionReady:
		return g.handleReady(p)
	case models.ActionDraw:
		return g.handleDraw(p)
	case models.ActionDiscard:
		return g.handleDiscard(st)
	case models.ActionReplace:
		return g.handleReplace(st, a)
	case models.ActionCabo:
		return g.handleCabo(p)
	case models.ActionPower:
		return g.handlePower(st)
	case models.ActionSelect:
		return g.handleSelect(st, a)
	case models.ActionAddon:
		return g.handleAddon(st, a)
	case models.ActionNextRound:
		return g.handleNextRound(p)
	case models.ActionNewGame:
		return g.handleNewGame(p)
	}
	return ErrUnknownAction
}

// Connect marks a player connected and sends them the current view.
func (g *CaboGame) Connect(playerID uuid.UUID) error {
	return g.do(func() error {
		st, ok := g.seats[playerID]
		if !ok {
			return engine.ErrUnknownPlayer
		}
		st.player.Connected = true
		g.logAction(playerID, "player_connect", nil)
		if g.state != nil && g.state.Phase == engine.PhaseInitialPeek && !g.state.PeekReady[playerID] {
			g.firePrivateInitialCards(playerID, g.state.InitialPeek(playerID))
		}
		g.broadcastSyncStateToAll()
		return nil
	})
}

// Disconnect marks a player disconnected. The seat is kept for reconnects.
func (g *CaboGame) Disconnect(playerID uuid.UUID) error {
	return g.do(func() error {
		st, ok := g.seats[playerID]
		if !ok {
			return engine.ErrUnknownPlayer
		}
		st.player.Connected = false
		g.logAction(playerID, "player_disconnect", nil)
		g.broadcastSyncStateToAll()
		return nil
	})
}

// ConnectedCount returns how many players are connected.
func (g *CaboGame) ConnectedCount() int {
	n := 0
	_ = g.do(func() error {
		for _, p := range g.Players {
			if p.Connected {
				n++
			}
		}
		return nil
	})
	return n
}

// View returns the state as playerID is allowed to see it.
func (g *CaboGame) View(playerID uuid.UUID) (ObfGameState, error) {
	var view ObfGameState
	err := g.do(func() error {
		if _, ok := g.seats[playerID]; !ok {
			return engine.ErrUnknownPlayer
		}
		view = g.GetCurrentObfuscatedGameState(playerID)
		return nil
	})
	return view, err
}

// startRound installs a freshly dealt round. Runs on the run loop.
func (g *CaboGame) startRound(st *engine.GameState) {
	g.stopTimers()
	g.state = st
	g.lastResult = nil
	g.announcedTurn = uuid.Nil
	for id, s := range g.seats {
		g.clearAction(s)
		s.known = engine.KnownCards{}
		for _, r := range st.InitialPeek(id) {
			s.known.Set(r.Pos, r.Card)
		}
	}

	ctx, cancel := g.storeCtx()
	defer cancel()
	if err := g.gw.Set(ctx, g.path, st); err != nil {
		g.log.WithError(err).Error("could not write round")
	}

	for id := range g.seats {
		g.firePrivateInitialCards(id, st.InitialPeek(id))
	}
	if d := g.book.Rules.PeekTimeout; d > 0 {
		round := st.Round
		g.peekTimer = time.AfterFunc(d, func() {
			g.enqueue(func() { g.forceReady(round) })
		})
	}
	g.fireEvent(GameEvent{Type: EventRoundStart, Payload: map[string]any{"round": st.Round}})
	g.logAction(uuid.Nil, "round_start", map[string]any{"round": st.Round})
	g.log.WithField("round", st.Round).Info("round dealt")
}

func (g *CaboGame) forceReady(round int) {
	if g.state == nil || g.state.Round != round || g.state.Phase != engine.PhaseInitialPeek {
		return
	}
	out, err := g.book.ForceReady(g.state)
	if err != nil {
		return
	}
	g.logAction(uuid.Nil, "peek_timeout", nil)
	g.apply(uuid.Nil, out)
	g.afterCommand()
}

// afterCommand announces turn changes and pushes fresh views.
func (g *CaboGame) afterCommand() {
	if g.state == nil {
		return
	}
	if g.state.Phase == engine.PhasePlay && g.state.CurrentTurn != g.announcedTurn {
		g.announcedTurn = g.state.CurrentTurn
		g.fireEvent(GameEvent{
			Type: EventPlayerTurn,
			User: &EventUser{ID: g.state.CurrentTurn, Name: g.state.PlayerNames[g.state.CurrentTurn]},
		})
	}
	g.broadcastSyncStateToAll()
}

func (g *CaboGame) stopTimers() {
	for _, t := range []*time.Timer{g.claimTimer, g.peekTimer} {
		if t != nil {
			t.Stop()
		}
	}
	g.claimTimer, g.peekTimer = nil, nil
	for _, s := range g.seats {
		if s.settle != nil {
			s.settle.Stop()
			s.settle = nil
		}
	}
}

func (g *CaboGame) storeCtx() (context.Context, context.CancelFunc) {
	parent := g.ctx
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, storeTimeout)
}

// fireEvent broadcasts an event to all connected players.
func (g *CaboGame) fireEvent(ev GameEvent) {
	if g.BroadcastFn == nil {
		g.log.WithField("type", ev.Type).Warn("BroadcastFn is nil, dropping event")
		return
	}
	g.BroadcastFn(ev)
}

// fireEventToPlayer sends an event to one connected player.
func (g *CaboGame) fireEventToPlayer(playerID uuid.UUID, ev GameEvent) {
	if g.BroadcastToPlayerFn == nil {
		g.log.WithField("type", ev.Type).Warn("BroadcastToPlayerFn is nil, dropping event")
		return
	}
	if st, ok := g.seats[playerID]; ok && st.player.Connected {
		g.BroadcastToPlayerFn(playerID, ev)
	}
}

// logAction queues an action record for the historian. Runs on the run loop.
func (g *CaboGame) logAction(actorID uuid.UUID, actionType string, payload map[string]any) {
	if g.histClosed {
		return
	}
	g.actionIndex++
	if payload == nil {
		payload = map[string]any{}
	}
	round := 0
	if g.state != nil {
		round = g.state.Round
	}
	rec := historian.ActionRecord{
		RoomCode:      g.Code,
		Round:         round,
		ActionIndex:   g.actionIndex,
		ActorUserID:   actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	select {
	case g.history <- rec:
	default:
		g.log.WithField("index", rec.ActionIndex).Warn("history backlog full, dropping action")
	}
}

// publishLoop hands records to the historian one at a time until history is
// closed.
func (g *CaboGame) publishLoop() {
	defer close(g.histDone)
	for rec := range g.history {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := g.hist.Publish(ctx, rec); err != nil {
			g.log.WithError(err).WithField("index", rec.ActionIndex).Error("could not publish action")
		}
		cancel()
	}
}
