// internal/store/redis.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// maxTxRetries bounds optimistic retries when a watched key changes under a
// transaction.
const maxTxRetries = 32

// RedisGateway stores each document as a string key and publishes every
// committed value on a channel of the same name.
type RedisGateway struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisGateway wraps an existing client. Keys are namespaced with prefix.
func NewRedisGateway(rdb *redis.Client, prefix string) *RedisGateway {
	if prefix == "" {
		prefix = "cabo:doc:"
	}
	return &RedisGateway{rdb: rdb, prefix: prefix}
}

func (r *RedisGateway) key(path string) string { return r.prefix + path }

// Subscribe implements Gateway.
func (r *RedisGateway) Subscribe(ctx context.Context, path string) (<-chan []byte, error) {
	sub := r.rdb.Subscribe(ctx, r.key(path))
	// wait for the subscription to be live before reading the current value,
	// so no commit can fall between the two
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", path, err)
	}
	cur, err := r.Get(ctx, path)
	if err != nil && !errors.Is(err, ErrNotFound) {
		sub.Close()
		return nil, err
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer sub.Close()
		if cur != nil {
			select {
			case out <- cur:
			case <-ctx.Done():
				return
			}
		}
		msgs := sub.Channel()
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Get implements Gateway.
func (r *RedisGateway) Get(ctx context.Context, path string) ([]byte, error) {
	b, err := r.rdb.Get(ctx, r.key(path)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return b, nil
}

// Update implements Gateway.
func (r *RedisGateway) Update(ctx context.Context, path string, fields map[string]any) error {
	_, err := r.Transaction(ctx, path, func(cur []byte) ([]byte, error) {
		return mergeFields(cur, fields)
	})
	return err
}

// Set implements Gateway.
func (r *RedisGateway) Set(ctx context.Context, path string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	key := r.key(path)
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, b, 0)
		pipe.Publish(ctx, key, b)
		return nil
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}

// Transaction implements Gateway with WATCH/MULTI/EXEC, retrying while other
// writers win the race for the key.
func (r *RedisGateway) Transaction(ctx context.Context, path string, fn TxFunc) (bool, error) {
	key := r.key(path)
	committed := false
	txf := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		next, err := fn(cur)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			pipe.Publish(ctx, key, next)
			return nil
		})
		if err == nil {
			committed = true
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		switch {
		case err == nil:
			return committed, nil
		case errors.Is(err, ErrAbort):
			return false, nil
		case errors.Is(err, redis.TxFailedErr):
			logrus.WithField("path", path).Debug("redis transaction lost a race, retrying")
			continue
		default:
			return false, fmt.Errorf("transaction %s: %w", path, err)
		}
	}
	return false, fmt.Errorf("transaction %s: too much contention", path)
}

// BroadcastEvent implements Gateway.
func (r *RedisGateway) BroadcastEvent(ctx context.Context, path string, ev any) (string, error) {
	obj, id, err := stampEvent(ev, NewEventID)
	if err != nil {
		return "", err
	}
	return id, r.Update(ctx, path, map[string]any{"event": obj})
}

// Delete implements Gateway.
func (r *RedisGateway) Delete(ctx context.Context, path string) error {
	if err := r.rdb.Del(ctx, r.key(path)).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

// Close implements Gateway.
func (r *RedisGateway) Close() error { return r.rdb.Close() }
