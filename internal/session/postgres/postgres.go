// Package postgres provides a [session.Store] backed by PostgreSQL, for
// deployments where turns of one conversation may land on different
// replicas.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/presenter/internal/session"
)

const ddlSessionAttributes = `
CREATE TABLE IF NOT EXISTS session_attributes (
    session_id  TEXT         NOT NULL,
    name        TEXT         NOT NULL,
    value       BYTEA        NOT NULL,
    updated_at  TIMESTAMPTZ  NOT NULL DEFAULT now(),
    PRIMARY KEY (session_id, name)
);

CREATE INDEX IF NOT EXISTS idx_session_attributes_updated_at
    ON session_attributes (updated_at);
`

var _ session.Store = (*Store)(nil)

// Store keeps session attributes in the session_attributes table.
// All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to dsn, pings the server, and runs [Migrate].
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("session postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("session postgres: ping: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Migrate creates the session_attributes table if it does not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, ddlSessionAttributes); err != nil {
		return fmt.Errorf("session postgres: migrate: %w", err)
	}
	return nil
}

// Get implements [session.Store].
func (s *Store) Get(ctx context.Context, sessionID, key string) ([]byte, error) {
	const q = `SELECT value FROM session_attributes WHERE session_id = $1 AND name = $2`

	var v []byte
	err := s.pool.QueryRow(ctx, q, sessionID, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session postgres: get %q: %w", key, err)
	}
	return v, nil
}

// Set implements [session.Store].
func (s *Store) Set(ctx context.Context, sessionID, key string, value []byte) error {
	const q = `
		INSERT INTO session_attributes (session_id, name, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (session_id, name)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	if value == nil {
		value = []byte{}
	}
	if _, err := s.pool.Exec(ctx, q, sessionID, key, value); err != nil {
		return fmt.Errorf("session postgres: set %q: %w", key, err)
	}
	return nil
}

// Remove implements [session.Store].
func (s *Store) Remove(ctx context.Context, sessionID, key string) error {
	const q = `DELETE FROM session_attributes WHERE session_id = $1 AND name = $2`

	if _, err := s.pool.Exec(ctx, q, sessionID, key); err != nil {
		return fmt.Errorf("session postgres: remove %q: %w", key, err)
	}
	return nil
}

// Clear implements [session.Store].
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	const q = `DELETE FROM session_attributes WHERE session_id = $1`

	if _, err := s.pool.Exec(ctx, q, sessionID); err != nil {
		return fmt.Errorf("session postgres: clear: %w", err)
	}
	return nil
}

// Purge deletes attributes not written since before cutoff and returns the
// number of rows removed. Every save rewrites all of a session's
// attributes, so whole sessions expire together.
func (s *Store) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `DELETE FROM session_attributes WHERE updated_at < $1`

	tag, err := s.pool.Exec(ctx, q, cutoff)
	if err != nil {
		return 0, fmt.Errorf("session postgres: purge: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
