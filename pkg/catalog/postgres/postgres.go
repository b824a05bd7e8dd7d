// Package postgres provides a [catalog.Source] backed by a PostgreSQL table.
//
// The catalog lives in a single presentations table; the position column
// defines catalog order:
//
//	source, err := postgres.New(ctx, dsn)
//	if err != nil { … }
//	defer source.Close()
//
//	entries, err := source.Load(ctx)
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/presenter/pkg/catalog"
)

const ddlPresentations = `
CREATE TABLE IF NOT EXISTS presentations (
    position       INTEGER      PRIMARY KEY,
    name           TEXT         NOT NULL CHECK (btrim(name) <> ''),
    filename       TEXT         NOT NULL DEFAULT '',
    pronunciation  TEXT         NOT NULL DEFAULT '',
    updated_at     TIMESTAMPTZ  NOT NULL DEFAULT now()
);
`

var _ catalog.Source = (*Source)(nil)

// Source loads the catalog from PostgreSQL. All methods are safe for
// concurrent use.
type Source struct {
	pool  *pgxpool.Pool
	owned bool
}

// New connects to dsn, pings the server, and runs [Migrate].
func New(ctx context.Context, dsn string) (*Source, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres catalog: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres catalog: ping: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Source{pool: pool, owned: true}, nil
}

// NewFromPool wraps an existing pool. The caller keeps ownership of pool;
// [Source.Close] is then a no-op.
func NewFromPool(pool *pgxpool.Pool) *Source {
	return &Source{pool: pool}
}

// Migrate creates the presentations table if it does not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, ddlPresentations); err != nil {
		return fmt.Errorf("postgres catalog: migrate: %w", err)
	}
	return nil
}

// Load returns all presentations ordered by position.
func (s *Source) Load(ctx context.Context) ([]catalog.Entry, error) {
	const q = `
		SELECT name, filename, pronunciation
		FROM   presentations
		ORDER  BY position`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: postgres query: %w", catalog.ErrRetrieval, err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Entry, error) {
		var e catalog.Entry
		err := row.Scan(&e.Name, &e.Filename, &e.Pronunciation)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: postgres scan: %w", catalog.ErrRetrieval, err)
	}
	if entries == nil {
		entries = []catalog.Entry{}
	}
	if err := catalog.Validate(entries); err != nil {
		return nil, fmt.Errorf("%w: %w", catalog.ErrRetrieval, err)
	}
	return entries, nil
}

// Replace atomically swaps the stored catalog for entries, keeping their
// order. It is used by the catalog import tooling and by tests.
func (s *Source) Replace(ctx context.Context, entries []catalog.Entry) error {
	if err := catalog.Validate(entries); err != nil {
		return fmt.Errorf("postgres catalog: replace: %w", err)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM presentations`); err != nil {
			return fmt.Errorf("postgres catalog: clear: %w", err)
		}
		for i, e := range entries {
			if _, err := tx.Exec(ctx,
				`INSERT INTO presentations (position, name, filename, pronunciation) VALUES ($1, $2, $3, $4)`,
				i, e.Name, e.Filename, e.Pronunciation,
			); err != nil {
				return fmt.Errorf("postgres catalog: insert %q: %w", e.Name, err)
			}
		}
		return nil
	})
}

// Ping checks connectivity.
func (s *Source) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool if the Source created it.
func (s *Source) Close() {
	if s.owned {
		s.pool.Close()
	}
}
