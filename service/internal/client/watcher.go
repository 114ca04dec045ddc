// internal/client/watcher.go
package client

import (
	"context"

	"github.com/jason-s-yu/cabo/engine"
	"github.com/jason-s-yu/cabo/service/internal/store"
	"github.com/sirupsen/logrus"
)

// Watcher follows a room's shared document directly from the store. Each
// snapshot is normalized, and the event it carries is reported once.
type Watcher struct {
	OnState func(s *engine.GameState)
	OnEvent func(ev engine.Event)

	gw    store.Gateway
	path  string
	dedup *Deduper
}

// NewWatcher watches roomCode's document in gw.
func NewWatcher(gw store.Gateway, roomCode string) (*Watcher, error) {
	d, err := NewDeduper(DefaultDedupSize)
	if err != nil {
		return nil, err
	}
	return &Watcher{gw: gw, path: store.GamePath(roomCode), dedup: d}, nil
}

// Run blocks until ctx ends or the subscription closes.
func (w *Watcher) Run(ctx context.Context) error {
	ch, err := w.gw.Subscribe(ctx, w.path)
	if err != nil {
		return err
	}
	for b := range ch {
		s, err := engine.DecodeState(b)
		if err != nil {
			logrus.WithError(err).WithField("path", w.path).Warn("skipping unreadable snapshot")
			continue
		}
		if w.OnState != nil {
			w.OnState(s)
		}
		if s.Event != nil && w.dedup.First(s.Event.ID) && w.OnEvent != nil {
			w.OnEvent(*s.Event)
		}
	}
	return ctx.Err()
}
