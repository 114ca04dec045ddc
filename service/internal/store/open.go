// internal/store/open.go
package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Options selects and configures a backend.
type Options struct {
	Driver        string // memory, redis or postgres
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PostgresDSN   string
}

// Open returns the gateway named by opts.Driver.
func Open(ctx context.Context, opts Options) (Gateway, error) {
	switch opts.Driver {
	case "", "memory":
		return NewMemoryGateway(), nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return NewRedisGateway(rdb, ""), nil
	case "postgres":
		return NewPostgresGateway(ctx, opts.PostgresDSN)
	}
	return nil, fmt.Errorf("store: unknown driver %q", opts.Driver)
}

// GamePath is the document path of a room's game state.
func GamePath(roomCode string) string { return "rooms/" + roomCode + "/game" }
