// internal/store/postgres.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const notifyChannel = "cabo_documents"

// logKeep is how many committed versions of a document stay readable by
// subscribers that fall behind.
const logKeep = 1024

const schema = `
CREATE TABLE IF NOT EXISTS cabo_documents (
	path    TEXT PRIMARY KEY,
	body    JSONB NOT NULL,
	version BIGINT NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS cabo_document_log (
	seq  BIGSERIAL PRIMARY KEY,
	path TEXT NOT NULL,
	body JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS cabo_document_log_path ON cabo_document_log (path, seq)`

// PostgresGateway keeps one row per document plus a log of its committed
// bodies. Writes lock the row and append to the log, and a NOTIFY carrying the
// path tells listeners to read the log past the last version they sent.
type PostgresGateway struct {
	pool *pgxpool.Pool
}

// NewPostgresGateway connects to dsn and creates the documents table if
// needed.
func NewPostgresGateway(ctx context.Context, dsn string) (*PostgresGateway, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}
	return &PostgresGateway{pool: pool}, nil
}

// Subscribe implements Gateway. Each subscription holds one pooled
// connection for LISTEN.
func (p *PostgresGateway) Subscribe(ctx context.Context, path string) (<-chan []byte, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", path, err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("subscribe %s: %w", path, err)
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer func() {
			// the connection goes back to the pool, so stop listening first
			_, _ = conn.Exec(context.Background(), "UNLISTEN "+notifyChannel)
			conn.Release()
		}()

		var last int64
		var body []byte
		err := p.pool.QueryRow(ctx,
			`SELECT version, body FROM cabo_documents WHERE path = $1`, path).Scan(&last, &body)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
		case err != nil:
			logrus.WithError(err).WithField("path", path).Warn("postgres subscription fetch failed")
			return
		default:
			select {
			case out <- body:
			case <-ctx.Done():
				return
			}
		}

		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				return
			}
			if n.Payload != path {
				continue
			}
			if last, err = p.sendSince(ctx, path, last, out); err != nil {
				if ctx.Err() == nil {
					logrus.WithError(err).WithField("path", path).Warn("postgres subscription fetch failed")
				}
				return
			}
		}
	}()
	return out, nil
}

// sendSince sends every logged body of path newer than seq, oldest first, and
// returns the last seq sent.
func (p *PostgresGateway) sendSince(ctx context.Context, path string, seq int64, out chan<- []byte) (int64, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT seq, body FROM cabo_document_log WHERE path = $1 AND seq > $2 ORDER BY seq`, path, seq)
	if err != nil {
		return seq, err
	}
	type entry struct {
		seq  int64
		body []byte
	}
	var pending []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.seq, &e.body); err != nil {
			rows.Close()
			return seq, err
		}
		pending = append(pending, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return seq, err
	}

	for _, e := range pending {
		select {
		case out <- e.body:
			seq = e.seq
		case <-ctx.Done():
			return seq, ctx.Err()
		}
	}
	return seq, nil
}

// Get implements Gateway.
func (p *PostgresGateway) Get(ctx context.Context, path string) ([]byte, error) {
	var body []byte
	err := p.pool.QueryRow(ctx, `SELECT body FROM cabo_documents WHERE path = $1`, path).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return body, nil
}

// Update implements Gateway.
func (p *PostgresGateway) Update(ctx context.Context, path string, fields map[string]any) error {
	_, err := p.Transaction(ctx, path, func(cur []byte) ([]byte, error) {
		return mergeFields(cur, fields)
	})
	return err
}

// Set implements Gateway.
func (p *PostgresGateway) Set(ctx context.Context, path string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	_, err = p.Transaction(ctx, path, func([]byte) ([]byte, error) { return b, nil })
	return err
}

// Transaction implements Gateway. The row is locked with SELECT ... FOR
// UPDATE, so concurrent transactions on one document run one after another.
func (p *PostgresGateway) Transaction(ctx context.Context, path string, fn TxFunc) (bool, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("transaction %s: %w", path, err)
	}
	defer tx.Rollback(ctx)

	// make sure there is a row to lock
	if _, err := tx.Exec(ctx,
		`INSERT INTO cabo_documents (path, body) VALUES ($1, 'null') ON CONFLICT (path) DO NOTHING`, path); err != nil {
		return false, fmt.Errorf("transaction %s: %w", path, err)
	}
	var cur []byte
	if err := tx.QueryRow(ctx, `SELECT body FROM cabo_documents WHERE path = $1 FOR UPDATE`, path).Scan(&cur); err != nil {
		return false, fmt.Errorf("transaction %s: %w", path, err)
	}
	if string(cur) == "null" {
		cur = nil
	}

	next, err := fn(cur)
	if errors.Is(err, ErrAbort) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("transaction %s: %w", path, err)
	}

	// the row lock is held, so seq order is commit order for this path
	var seq int64
	if err := tx.QueryRow(ctx,
		`INSERT INTO cabo_document_log (path, body) VALUES ($1, $2) RETURNING seq`, path, next).Scan(&seq); err != nil {
		return false, fmt.Errorf("transaction %s: %w", path, err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE cabo_documents SET body = $2, version = $3 WHERE path = $1`, path, next, seq); err != nil {
		return false, fmt.Errorf("transaction %s: %w", path, err)
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM cabo_document_log WHERE path = $1 AND seq <= $2`, path, seq-logKeep); err != nil {
		return false, fmt.Errorf("transaction %s: %w", path, err)
	}
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, path); err != nil {
		return false, fmt.Errorf("transaction %s: %w", path, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("transaction %s: %w", path, err)
	}
	return true, nil
}

// BroadcastEvent implements Gateway.
func (p *PostgresGateway) BroadcastEvent(ctx context.Context, path string, ev any) (string, error) {
	obj, id, err := stampEvent(ev, NewEventID)
	if err != nil {
		return "", err
	}
	return id, p.Update(ctx, path, map[string]any{"event": obj})
}

// Delete implements Gateway.
func (p *PostgresGateway) Delete(ctx context.Context, path string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM cabo_documents WHERE path = $1`, path); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	if _, err := p.pool.Exec(ctx, `DELETE FROM cabo_document_log WHERE path = $1`, path); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

// Close implements Gateway.
func (p *PostgresGateway) Close() error {
	p.pool.Close()
	return nil
}
