package engine

import "github.com/google/uuid"

var stepHelp = map[Power]map[Step]string{
	PowerPeek: {
		StepPick: "Click one of YOUR cards to peek at it",
	},
	PowerSpy: {
		StepPickOpp:  "Click an OPPONENT'S card to spy on it",
		StepRevealed: "Spied! Ending turn...",
	},
	PowerBlindSwap: {
		StepPickMine: "Pick YOUR card for blind swap",
		StepPickOpp:  "Now pick OPPONENT'S card to swap with",
	},
	PowerPeekSwap: {
		StepPickOpp:  "Pick OPPONENT'S card to peek at first",
		StepPeekDone: "Saw their card, pick YOUR card to swap out",
		StepPickMine: "Click YOUR card to swap out",
	},
	PowerKingSwap: {
		StepPickOpp:     "Pick OPPONENT'S card to peek at",
		StepPeekDone:    "Now pick YOUR card to peek at",
		StepPickMine:    "Click YOUR card to peek at it",
		StepPeekMine:    "Now pick OPPONENT'S card to swap with",
		StepPickOppSwap: "Pick OPPONENT'S card to complete the swap",
	},
}

// HelpText tells player what they can do right now.
func HelpText(g *GameState, player uuid.UUID, act ActionInProgress) string {
	switch g.Phase {
	case PhaseInitialPeek:
		return "Peek at your two inner cards, then click Ready when memorized"
	case PhaseRoundEnd, PhaseRoundScored:
		return "Round over"
	case PhaseGameOver:
		return "Game over"
	}
	if g.CurrentTurn != player {
		return "Waiting for " + g.PlayerNames[g.CurrentTurn] + "..."
	}
	if act != nil {
		return stepHelp[act.Power()][act.Step()]
	}
	if g.DrawnCard == nil {
		return "Draw a card from the deck, or call CABO!"
	}
	return "Discard the drawn card, or click one of your cards to swap it in"
}
