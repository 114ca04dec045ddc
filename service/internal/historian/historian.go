// internal/historian/historian.go
package historian

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ActionRecord is one entry in a room's action history.
type ActionRecord struct {
	RoomCode      string         `json:"roomCode"`
	Round         int            `json:"round"`
	ActionIndex   int            `json:"actionIndex"`
	ActorUserID   uuid.UUID      `json:"actorUserId"`
	ActionType    string         `json:"actionType"`
	ActionPayload map[string]any `json:"actionPayload"`
	Timestamp     int64          `json:"timestamp"`
}

// Publisher receives action records from game rooms.
type Publisher interface {
	Publish(ctx context.Context, rec ActionRecord) error
	// Drop discards a room's history once the room is gone.
	Drop(ctx context.Context, roomCode string) error
}

// Nop discards everything.
type Nop struct{}

func (Nop) Publish(context.Context, ActionRecord) error { return nil }
func (Nop) Drop(context.Context, string) error          { return nil }

// maxStreamLen caps each room stream; older entries are trimmed.
const maxStreamLen = 5000

// RedisPublisher appends records to one stream per room.
type RedisPublisher struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisPublisher writes to rdb. Streams expire ttl after their last write.
func NewRedisPublisher(rdb *redis.Client, ttl time.Duration) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, ttl: ttl}
}

// StreamKey is the stream holding a room's records.
func StreamKey(roomCode string) string { return "cabo:history:" + roomCode }

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, rec ActionRecord) error {
	payload, err := json.Marshal(rec.ActionPayload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	key := StreamKey(rec.RoomCode)
	_, err = p.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: key,
			MaxLen: maxStreamLen,
			Approx: true,
			Values: map[string]any{
				"round":   rec.Round,
				"index":   rec.ActionIndex,
				"actor":   rec.ActorUserID.String(),
				"type":    rec.ActionType,
				"payload": payload,
				"ts":      rec.Timestamp,
			},
		})
		if p.ttl > 0 {
			pipe.Expire(ctx, key, p.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish %s #%d: %w", rec.RoomCode, rec.ActionIndex, err)
	}
	return nil
}

// Drop implements Publisher.
func (p *RedisPublisher) Drop(ctx context.Context, roomCode string) error {
	return p.rdb.Del(ctx, StreamKey(roomCode)).Err()
}

// History reads a room's records back in order.
func (p *RedisPublisher) History(ctx context.Context, roomCode string) ([]ActionRecord, error) {
	msgs, err := p.rdb.XRange(ctx, StreamKey(roomCode), "-", "+").Result()
	if err != nil {
		return nil, err
	}
	out := make([]ActionRecord, 0, len(msgs))
	for _, m := range msgs {
		rec := ActionRecord{RoomCode: roomCode}
		rec.Round, _ = strconv.Atoi(str(m.Values["round"]))
		rec.ActionIndex, _ = strconv.Atoi(str(m.Values["index"]))
		rec.ActorUserID, _ = uuid.Parse(str(m.Values["actor"]))
		rec.ActionType = str(m.Values["type"])
		rec.Timestamp, _ = strconv.ParseInt(str(m.Values["ts"]), 10, 64)
		if raw := str(m.Values["payload"]); raw != "" {
			_ = json.Unmarshal([]byte(raw), &rec.ActionPayload)
		}
		out = append(out, rec)
	}
	return out, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
