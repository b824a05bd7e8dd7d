package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/presenter/internal/session"
	"github.com/MrWong99/presenter/internal/session/postgres"
	"github.com/MrWong99/presenter/internal/session/sessiontest"
)

// testDSN returns the test database DSN from the environment, or skips the
// test if PRESENTER_TEST_POSTGRES_DSN is not set.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("PRESENTER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PRESENTER_TEST_POSTGRES_DSN not set, skipping PostgreSQL integration tests")
	}
	return dsn
}

func newTestStore(t *testing.T) session.Store {
	t.Helper()
	dsn := testDSN(t)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)
	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS session_attributes CASCADE"); err != nil {
		t.Fatalf("drop: %v", err)
	}

	store, err := postgres.NewStore(ctx, dsn)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func TestStore_Contract(t *testing.T) {
	testDSN(t)
	sessiontest.RunStoreTests(t, newTestStore)
}

func TestStore_CacheRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	c := session.NewCache(store)

	if err := c.Save(ctx, "s1", &session.State{Status: session.StatusNoCatalog}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := c.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Status != session.StatusNoCatalog {
		t.Errorf("Status = %q, want no_catalog", got.Status)
	}
}

func TestStore_Purge(t *testing.T) {
	store := newTestStore(t).(*postgres.Store)
	ctx := context.Background()
	_ = store.Set(ctx, "s1", "k", []byte("v"))

	n, err := store.Purge(ctx, time.Now().Add(-time.Hour))
	if err != nil || n != 0 {
		t.Fatalf("Purge(old cutoff) = %d, %v; want 0", n, err)
	}
	n, err = store.Purge(ctx, time.Now().Add(time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("Purge(future cutoff) = %d, %v; want 1", n, err)
	}
	if _, err := store.Get(ctx, "s1", "k"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Get after purge err = %v, want ErrNotFound", err)
	}
}
