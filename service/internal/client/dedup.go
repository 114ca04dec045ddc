// internal/client/dedup.go
package client

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultDedupSize is how many event ids a Deduper remembers.
const DefaultDedupSize = 512

// Deduper remembers recently handled event ids so an event that arrives
// again with a later document snapshot is handled once.
type Deduper struct {
	seen *lru.Cache[string, struct{}]
}

// NewDeduper remembers the last size ids.
func NewDeduper(size int) (*Deduper, error) {
	c, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, err
	}
	return &Deduper{seen: c}, nil
}

// First reports whether id has not been seen before and records it. An
// empty id cannot be tracked and always counts as new.
func (d *Deduper) First(id string) bool {
	if id == "" {
		return true
	}
	found, _ := d.seen.ContainsOrAdd(id, struct{}{})
	return !found
}

// Len returns how many ids are remembered.
func (d *Deduper) Len() int {
	return d.seen.Len()
}
