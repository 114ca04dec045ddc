// Package engine implements the Cabo card game rules.
//
// The package is pure: every operation takes the shared GameState, mutates it
// in place and reports the document fields it changed as a Patch, so callers
// can write partial updates to a replicated store. Nothing here blocks or
// touches the network.
package engine

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/cabo/engine/rng"
)

// InitialPeekPositions are the two hand positions each player is shown before
// play starts.
var InitialPeekPositions = [2]int{1, 2}

// Rulebook applies operations to a GameState under fixed house rules.
type Rulebook struct {
	Rules HouseRules
	Rand  rng.Generator
	Now   func() time.Time
}

// NewRulebook returns a Rulebook with a crypto shuffle and the wall clock.
func NewRulebook(rules HouseRules) *Rulebook {
	return &Rulebook{Rules: rules, Rand: rng.Crypto{}, Now: time.Now}
}

func (b *Rulebook) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}

func (b *Rulebook) rand() rng.Generator {
	if b.Rand == nil {
		return rng.Crypto{}
	}
	return b.Rand
}

// ---------------------------------------------------------------------------
// NewGame and NewRound
// ---------------------------------------------------------------------------

// NewGame seats players in the given order and deals round one. Scores start
// at zero and the first player opens.
func (b *Rulebook) NewGame(players []Player) (*GameState, error) {
	if len(players) < 2 {
		return nil, ErrNotEnoughPlayers
	}
	g := &GameState{
		PlayerOrder: make([]uuid.UUID, 0, len(players)),
		PlayerNames: make(map[uuid.UUID]string, len(players)),
		Scores:      make(map[uuid.UUID]int, len(players)),
	}
	for _, p := range players {
		g.PlayerOrder = append(g.PlayerOrder, p.ID)
		g.PlayerNames[p.ID] = p.Name
		g.Scores[p.ID] = 0
	}
	g.CurrentTurn = g.PlayerOrder[0]
	if err := b.deal(g); err != nil {
		return nil, err
	}
	g.Round = 1
	return g, nil
}

// NewRound builds the next round from prev. Order, names, scores and the turn
// holder carry over; everything else is rebuilt from a fresh deck.
func (b *Rulebook) NewRound(prev *GameState) (*GameState, error) {
	if len(prev.PlayerOrder) < 2 {
		return nil, ErrNotEnoughPlayers
	}
	g := &GameState{
		PlayerOrder: slices.Clone(prev.PlayerOrder),
		PlayerNames: make(map[uuid.UUID]string, len(prev.PlayerNames)),
		Scores:      make(map[uuid.UUID]int, len(prev.PlayerOrder)),
		CurrentTurn: prev.CurrentTurn,
	}
	for id, name := range prev.PlayerNames {
		g.PlayerNames[id] = name
	}
	for _, id := range g.PlayerOrder {
		g.Scores[id] = prev.Scores[id]
	}
	if !slices.Contains(g.PlayerOrder, g.CurrentTurn) {
		g.CurrentTurn = g.PlayerOrder[0]
	}
	if err := b.deal(g); err != nil {
		return nil, err
	}
	g.Round = max(prev.Round, 0) + 1
	return g, nil
}

// deal shuffles a fresh deck, hands out cards one player at a time from the
// front of the deck, and turns one card onto the discard pile.
func (b *Rulebook) deal(g *GameState) error {
	size := b.Rules.handSize()
	deck := NewDeck(b.Rules.NumJokers)
	if len(deck) < size*len(g.PlayerOrder)+1 {
		return ErrTooManyPlayers
	}
	Shuffle(deck, b.rand())

	g.Hands = make(map[uuid.UUID]Pile, len(g.PlayerOrder))
	for _, id := range g.PlayerOrder {
		hand := make(Pile, 0, size)
		for i := 0; i < size; i++ {
			c, _ := deck.Draw()
			hand = append(hand, c)
		}
		g.Hands[id] = hand
	}
	top, _ := deck.Draw()

	g.Deck = deck
	g.Discard = Pile{top}
	g.CaboCallerID = uuid.NullUUID{}
	g.LastTurns = map[uuid.UUID]int{}
	g.Phase = PhaseInitialPeek
	g.DrawnCard = nil
	g.PeekReady = map[uuid.UUID]bool{}
	g.AddonDiscard = nil
	g.Log = []string{}
	g.Event = nil
	return nil
}

// ---------------------------------------------------------------------------
// Query methods
// ---------------------------------------------------------------------------

// IsSeated reports whether id is in the player order.
func (g *GameState) IsSeated(id uuid.UUID) bool {
	return slices.Contains(g.PlayerOrder, id)
}

// Opponents returns every seated player except id, in turn order.
func (g *GameState) Opponents(id uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(g.PlayerOrder))
	for _, p := range g.PlayerOrder {
		if p != id {
			out = append(out, p)
		}
	}
	return out
}

// DiscardTop returns the top of the discard pile.
func (g *GameState) DiscardTop() (Card, bool) { return g.Discard.Top() }

// CardCount counts every card in deck, discard, hands and the drawn slot.
func (g *GameState) CardCount() int {
	n := len(g.Deck) + len(g.Discard)
	for _, h := range g.Hands {
		n += len(h)
	}
	if g.DrawnCard != nil {
		n++
	}
	return n
}

// Host returns the player allowed to start rounds and games.
func (g *GameState) Host() uuid.UUID {
	if len(g.PlayerOrder) == 0 {
		return uuid.Nil
	}
	return g.PlayerOrder[0]
}

func (g *GameState) validPos(owner uuid.UUID, pos int) bool {
	return pos >= 0 && pos < len(g.Hands[owner])
}

// appendLog adds an entry and drops the oldest beyond the cap.
func (b *Rulebook) appendLog(g *GameState, p Patch, entry string) {
	g.Log = append(g.Log, entry)
	if over := len(g.Log) - b.Rules.logCap(); over > 0 {
		g.Log = slices.Clone(g.Log[over:])
	}
	p["log"] = slices.Clone(g.Log)
}
