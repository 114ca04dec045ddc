package engine

import (
	"strconv"

	"github.com/google/uuid"
)

// Suit identifies one of the four suits, or the suitless special card.
type Suit string

const (
	SuitSpades   Suit = "♠"
	SuitHearts   Suit = "♥"
	SuitDiamonds Suit = "♦"
	SuitClubs    Suit = "♣"
	SuitJoker    Suit = "★"
)

// Suits lists the four regular suits in deck-building order.
var Suits = [4]Suit{SuitSpades, SuitHearts, SuitDiamonds, SuitClubs}

// Face constants. Faces 2 through 10 are their own number.
const (
	FaceJoker = 0
	FaceAce   = 1
	FaceJack  = 11
	FaceQueen = 12
	FaceKing  = 13
)

// Card is an immutable playing card. Value is derived from Face and Suit when
// the card is built and travels with it on the wire.
type Card struct {
	Face  int  `json:"face"`
	Suit  Suit `json:"suit"`
	Value int  `json:"value"`
}

// NewCard builds a card and fills in its point value.
//   - Spade King → 0
//   - special card → 0
//   - everything else → face
func NewCard(face int, suit Suit) Card {
	c := Card{Face: face, Suit: suit, Value: face}
	if c.IsJoker() || (face == FaceKing && suit == SuitSpades) {
		c.Value = 0
	}
	return c
}

// IsJoker reports whether c is the suitless special card.
func (c Card) IsJoker() bool { return c.Suit == SuitJoker || c.Face == FaceJoker }

// Points returns the card's contribution to a hand total.
func (c Card) Points() int { return c.Value }

// Rank returns the short rank name: A, 2..10, J, Q, K, or ★ for the special card.
func (c Card) Rank() string {
	switch {
	case c.IsJoker():
		return "★"
	case c.Face == FaceAce:
		return "A"
	case c.Face == FaceJack:
		return "J"
	case c.Face == FaceQueen:
		return "Q"
	case c.Face == FaceKing:
		return "K"
	}
	return strconv.Itoa(c.Face)
}

// Label returns rank and suit, e.g. "Q♥". The special card is just "★".
func (c Card) Label() string {
	if c.IsJoker() {
		return "★"
	}
	return c.Rank() + string(c.Suit)
}

// MatchRank returns the rank used for addon matching. The special card has
// no match rank and reports ok=false.
func (c Card) MatchRank() (rank int, ok bool) {
	if c.IsJoker() {
		return 0, false
	}
	return c.Face, true
}

// Power is the one-time ability granted by discarding a drawn card.
type Power string

const (
	PowerNone      Power = ""
	PowerPeek      Power = "peek"      // 7, 8: look at one of your cards
	PowerSpy       Power = "spy"       // 9, 10: look at an opponent's card
	PowerBlindSwap Power = "blindswap" // J: swap unseen
	PowerPeekSwap  Power = "peekswap"  // Q: look at an opponent's card, then swap
	PowerKingSwap  Power = "kingswap"  // K: look at one of each, then swap
)

// Power returns the ability bound to the card's face.
func (c Card) Power() Power {
	if c.IsJoker() {
		return PowerNone
	}
	switch c.Face {
	case 7, 8:
		return PowerPeek
	case 9, 10:
		return PowerSpy
	case FaceJack:
		return PowerBlindSwap
	case FaceQueen:
		return PowerPeekSwap
	case FaceKing:
		return PowerKingSwap
	}
	return PowerNone
}

// Pile is an ordered run of cards: the deck (draw from the front), the discard
// pile (top is the last element) or a hand (position is identity).
type Pile []Card

// Top returns the last card of the pile.
func (p Pile) Top() (Card, bool) {
	if len(p) == 0 {
		return Card{}, false
	}
	return p[len(p)-1], true
}

// Total sums the point values of every card in the pile.
func (p Pile) Total() int {
	total := 0
	for _, c := range p {
		total += c.Points()
	}
	return total
}

// Phase is the round lifecycle stage stored on the shared document.
type Phase string

const (
	PhaseInitialPeek Phase = "initial-peek"
	PhasePlay        Phase = "play"
	PhaseRoundEnd    Phase = "round-end"
	PhaseRoundScored Phase = "round-scored"
	PhaseGameOver    Phase = "game-over"
)

// AddonWindow describes the open claim on the most recent discard.
type AddonWindow struct {
	ID               string        `json:"id"`
	Active           bool          `json:"active"`
	DiscardFaceValue int           `json:"discardFaceValue"`
	Claimant         uuid.NullUUID `json:"claimant"`
	ExpiresAt        int64         `json:"expiresAt"` // unix millis
}

// Player identifies a seat at the table.
type Player struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// GameState is the shared round document. Every field is part of the
// replicated state; per-seat transient data (pending powers, known cards)
// lives elsewhere.
type GameState struct {
	Round        int                  `json:"round"`
	Deck         Pile                 `json:"deck"`
	Discard      Pile                 `json:"discard"`
	Hands        map[uuid.UUID]Pile   `json:"hands"`
	PlayerOrder  []uuid.UUID          `json:"playerOrder"`
	PlayerNames  map[uuid.UUID]string `json:"playerNames"`
	Scores       map[uuid.UUID]int    `json:"scores"`
	CurrentTurn  uuid.UUID            `json:"currentTurn"`
	CaboCallerID uuid.NullUUID        `json:"caboCallerId"`
	LastTurns    map[uuid.UUID]int    `json:"lastTurns"`
	Phase        Phase                `json:"phase"`
	DrawnCard    *Card                `json:"drawnCard"`
	PeekReady    map[uuid.UUID]bool   `json:"peekReady"`
	AddonDiscard *AddonWindow         `json:"addonDiscard"`
	Log          []string             `json:"log"`
	Event        *Event               `json:"event"`
}

// Slot addresses one hand position.
type Slot struct {
	Owner uuid.UUID
	Pos   int
}

// Reveal is a card shown privately to the acting player.
type Reveal struct {
	Slot
	Card Card
}

// Outcome is everything an operation produced besides its in-place mutation of
// the GameState: the document fields to write, the public events, the private
// reveals for the actor, and bookkeeping the room needs afterwards.
type Outcome struct {
	Patch   Patch
	Events  []Event
	Reveals []Reveal

	// Discarded is set when a card landed on the discard pile.
	Discarded *Card
	// Touched lists hand positions whose card changed.
	Touched []Slot
	// Removed is set when a hand shrank; later positions shifted down.
	Removed *Slot
}

func (o *Outcome) merge(other Outcome) {
	if o.Patch == nil {
		o.Patch = Patch{}
	}
	o.Patch.Merge(other.Patch)
	o.Events = append(o.Events, other.Events...)
	o.Reveals = append(o.Reveals, other.Reveals...)
	o.Touched = append(o.Touched, other.Touched...)
	if other.Discarded != nil {
		o.Discarded = other.Discarded
	}
	if other.Removed != nil {
		o.Removed = other.Removed
	}
}
