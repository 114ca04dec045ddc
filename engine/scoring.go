package engine

import (
	"maps"
	"slices"

	"github.com/google/uuid"
)

// PlayerResult is one line of a round's score sheet.
type PlayerResult struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Hand   Pile      `json:"hand"`
	Total  int       `json:"total"`  // raw hand value
	Points int       `json:"points"` // what the round adds to the score
}

// RoundResult is the score sheet for a finished round.
type RoundResult struct {
	Results  []PlayerResult    `json:"results"` // ascending by Total
	Scores   map[uuid.UUID]int `json:"scores"`  // cumulative, after this round
	GameOver bool              `json:"gameOver"`
}

// ScoreRound computes a round's score sheet without touching g.
//
// Scoring rules:
//   - Every player adds their raw hand total.
//   - The CABO caller adds 0 if their total is the lowest (ties count), and
//     their total plus the penalty otherwise.
//   - The game is over once any cumulative score reaches the target.
func (b *Rulebook) ScoreRound(g *GameState) RoundResult {
	results := make([]PlayerResult, 0, len(g.PlayerOrder))
	for _, id := range g.PlayerOrder {
		hand := g.Hands[id]
		results = append(results, PlayerResult{
			ID:    id,
			Name:  g.PlayerNames[id],
			Hand:  cloneCards(hand),
			Total: hand.Total(),
		})
	}
	slices.SortStableFunc(results, func(x, y PlayerResult) int { return x.Total - y.Total })

	lowest := 0
	if len(results) > 0 {
		lowest = results[0].Total
	}
	scores := maps.Clone(g.Scores)
	if scores == nil {
		scores = map[uuid.UUID]int{}
	}
	gameOver := false
	for i := range results {
		r := &results[i]
		r.Points = r.Total
		if g.CaboCallerID.Valid && r.ID == g.CaboCallerID.UUID {
			if r.Total == lowest {
				r.Points = 0
			} else {
				r.Points = r.Total + b.Rules.CaboPenalty
			}
		}
		scores[r.ID] += r.Points
	}
	for _, s := range scores {
		if s >= b.Rules.TargetScore {
			gameOver = true
		}
	}
	return RoundResult{Results: results, Scores: scores, GameOver: gameOver}
}

// FinishRound scores a round that has just ended and applies the result. It
// only runs from round-end, so a round can never be scored twice.
func (b *Rulebook) FinishRound(g *GameState) (RoundResult, Outcome, error) {
	if g.Phase != PhaseRoundEnd {
		return RoundResult{}, Outcome{}, ErrWrongPhase
	}
	res := b.ScoreRound(g)
	g.Scores = res.Scores
	g.Phase = PhaseRoundScored
	if res.GameOver {
		g.Phase = PhaseGameOver
	}
	g.AddonDiscard = nil
	return res, Outcome{Patch: Patch{
		"scores":       maps.Clone(g.Scores),
		"phase":        g.Phase,
		"addonDiscard": nil,
	}}, nil
}

// NewGameFrom starts a fresh game with the same seats once the previous one is
// over. Scores and the round counter reset.
func (b *Rulebook) NewGameFrom(prev *GameState) (*GameState, error) {
	if prev.Phase != PhaseGameOver {
		return nil, ErrWrongPhase
	}
	players := make([]Player, 0, len(prev.PlayerOrder))
	for _, id := range prev.PlayerOrder {
		players = append(players, Player{ID: id, Name: prev.PlayerNames[id]})
	}
	return b.NewGame(players)
}

// NextRound deals the round after a scored one.
func (b *Rulebook) NextRound(prev *GameState) (*GameState, error) {
	if prev.Phase != PhaseRoundScored {
		return nil, ErrWrongPhase
	}
	return b.NewRound(prev)
}
