package engine

import (
	"strings"

	"github.com/google/uuid"
)

// Patch maps document paths to their new values. Paths are top-level JSON
// field names, or "field/key" for a single map entry such as "hands/<id>".
type Patch map[string]any

// Merge copies other into p, other winning on conflicts.
func (p Patch) Merge(other Patch) {
	for k, v := range other {
		p[k] = v
	}
}

// Paths returns the patch keys that touch the given top-level field.
func (p Patch) Paths(field string) []string {
	var out []string
	for k := range p {
		if k == field || strings.HasPrefix(k, field+"/") {
			out = append(out, k)
		}
	}
	return out
}

func handPath(id uuid.UUID) string { return "hands/" + id.String() }

func (g *GameState) patchHand(p Patch, id uuid.UUID) {
	p[handPath(id)] = cloneCards(g.Hands[id])
}

func cloneCards(p Pile) Pile {
	out := make(Pile, len(p))
	copy(out, p)
	return out
}
