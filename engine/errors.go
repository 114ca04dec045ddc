package engine

import "errors"

// Precondition failures. Callers treat these as refusals: the state is left
// untouched and the offending player is told privately.
var (
	ErrNotEnoughPlayers  = errors.New("engine: at least two players are required")
	ErrTooManyPlayers    = errors.New("engine: not enough cards to deal every player")
	ErrUnknownPlayer     = errors.New("engine: player is not seated")
	ErrWrongPhase        = errors.New("engine: not allowed in the current phase")
	ErrNotYourTurn       = errors.New("engine: not your turn")
	ErrAlreadyDrawn      = errors.New("engine: a card is already drawn")
	ErrNoDrawnCard       = errors.New("engine: no card drawn")
	ErrDeckEmpty         = errors.New("engine: deck is empty")
	ErrInvalidPosition   = errors.New("engine: invalid hand position")
	ErrInvalidTarget     = errors.New("engine: invalid target player")
	ErrNoPower           = errors.New("engine: drawn card has no power")
	ErrActionPending     = errors.New("engine: a power is already in progress")
	ErrNoAction          = errors.New("engine: no power in progress")
	ErrWrongStep         = errors.New("engine: selection does not fit the current step")
	ErrStaleAction       = errors.New("engine: power no longer matches the game state")
	ErrCaboAlreadyCalled = errors.New("engine: CABO has already been called")
	ErrAlreadyReady      = errors.New("engine: player is already ready")
	ErrWindowClosed      = errors.New("engine: no open addon window")
	ErrWindowClaimed     = errors.New("engine: addon window already claimed")
	ErrLastCard          = errors.New("engine: cannot claim with a single card")
	ErrNotClaimant       = errors.New("engine: player did not win the addon window")
)
