// internal/store/memory.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// MemoryGateway keeps documents in process. It is the default backend and the
// one the tests run against.
type MemoryGateway struct {
	mu     sync.Mutex
	docs   map[string][]byte
	subs   map[string]map[*memorySub]struct{}
	closed bool
}

// NewMemoryGateway returns an empty in-process gateway.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		docs: make(map[string][]byte),
		subs: make(map[string]map[*memorySub]struct{}),
	}
}

// memorySub buffers values for one subscriber. Values are queued under the
// gateway lock, so every subscriber sees commits in the order they happened;
// a pump goroutine drains the queue so a slow reader never blocks a writer.
type memorySub struct {
	out    chan []byte
	mu     sync.Mutex
	queue  [][]byte
	notify chan struct{}
}

func (s *memorySub) push(v []byte) {
	s.mu.Lock()
	s.queue = append(s.queue, v)
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *memorySub) pump(ctx context.Context, done func()) {
	defer close(s.out)
	defer done()
	for {
		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, v := range batch {
			select {
			case s.out <- v:
			case <-ctx.Done():
				return
			}
		}
		select {
		case <-s.notify:
		case <-ctx.Done():
			return
		}
	}
}

// Subscribe implements Gateway.
func (m *MemoryGateway) Subscribe(ctx context.Context, path string) (<-chan []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	sub := &memorySub{out: make(chan []byte), notify: make(chan struct{}, 1)}
	if cur, ok := m.docs[path]; ok {
		sub.push(cur)
	}
	if m.subs[path] == nil {
		m.subs[path] = make(map[*memorySub]struct{})
	}
	m.subs[path][sub] = struct{}{}

	go sub.pump(ctx, func() {
		m.mu.Lock()
		delete(m.subs[path], sub)
		m.mu.Unlock()
	})
	return sub.out, nil
}

// Get implements Gateway.
func (m *MemoryGateway) Get(_ context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	cur, ok := m.docs[path]
	if !ok {
		return nil, ErrNotFound
	}
	return cur, nil
}

// Update implements Gateway.
func (m *MemoryGateway) Update(ctx context.Context, path string, fields map[string]any) error {
	_, err := m.Transaction(ctx, path, func(cur []byte) ([]byte, error) {
		return mergeFields(cur, fields)
	})
	return err
}

// Set implements Gateway.
func (m *MemoryGateway) Set(ctx context.Context, path string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	_, err = m.Transaction(ctx, path, func([]byte) ([]byte, error) { return b, nil })
	return err
}

// Transaction implements Gateway. fn runs under the gateway lock, so
// transactions on the same gateway never interleave.
func (m *MemoryGateway) Transaction(_ context.Context, path string, fn TxFunc) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrClosed
	}
	next, err := fn(m.docs[path])
	if errors.Is(err, ErrAbort) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("transaction %s: %w", path, err)
	}
	m.commit(path, next)
	return true, nil
}

// BroadcastEvent implements Gateway.
func (m *MemoryGateway) BroadcastEvent(ctx context.Context, path string, ev any) (string, error) {
	obj, id, err := stampEvent(ev, NewEventID)
	if err != nil {
		return "", err
	}
	return id, m.Update(ctx, path, map[string]any{"event": obj})
}

// Delete implements Gateway.
func (m *MemoryGateway) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.docs, path)
	return nil
}

// Close implements Gateway. Open subscriptions end when their contexts do.
func (m *MemoryGateway) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// commit stores next and queues it for every subscriber. Caller holds m.mu.
func (m *MemoryGateway) commit(path string, next []byte) {
	m.docs[path] = next
	for sub := range m.subs[path] {
		sub.push(next)
	}
}
