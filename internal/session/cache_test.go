package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/MrWong99/presenter/internal/match"
	"github.com/MrWong99/presenter/internal/session"
	"github.com/MrWong99/presenter/pkg/catalog"
)

func TestCache_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := session.NewCache(session.NewMemStore())

	want := &session.State{
		Status:  session.StatusAwaitingConfirmation,
		Catalog: entries,
		Pending: &match.Match{Spoken: "labmda", Confidence: 2.0 / 3.0, Entry: entries[1]},
	}
	if err := c.Save(ctx, "s1", want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := c.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Status != want.Status {
		t.Errorf("Status = %q, want %q", got.Status, want.Status)
	}
	if len(got.Catalog) != len(want.Catalog) || got.Catalog[1] != want.Catalog[1] {
		t.Errorf("Catalog = %+v, want %+v", got.Catalog, want.Catalog)
	}
	if got.Pending == nil || *got.Pending != *want.Pending {
		t.Errorf("Pending = %+v, want %+v", got.Pending, want.Pending)
	}
}

func TestCache_SaveClearsPending(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemStore()
	c := session.NewCache(store)

	st := &session.State{
		Status:  session.StatusAwaitingConfirmation,
		Catalog: entries,
		Pending: &match.Match{Spoken: "lamda", Confidence: 0.8, Entry: entries[1]},
	}
	if err := c.Save(ctx, "s1", st); err != nil {
		t.Fatalf("Save: %v", err)
	}
	st.Status, st.Pending = session.StatusIdle, nil
	if err := c.Save(ctx, "s1", st); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := store.Get(ctx, "s1", session.KeyPending); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("pending attribute err = %v, want ErrNotFound", err)
	}
	got, err := c.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Pending != nil || got.Status != session.StatusIdle {
		t.Errorf("Load = %+v, want idle without pending", got)
	}
}

func TestCache_EmptyCatalogRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := session.NewCache(session.NewMemStore())
	if err := c.Save(ctx, "s1", &session.State{Status: session.StatusNoCatalog}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := c.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Status != session.StatusNoCatalog || got.Catalog == nil || len(got.Catalog) != 0 {
		t.Errorf("Load = %+v", got)
	}
}

func TestCache_LoadMissing(t *testing.T) {
	t.Parallel()

	_, err := session.NewCache(session.NewMemStore()).Load(context.Background(), "nobody")
	if !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("Load err = %v, want ErrNoSession", err)
	}
}

func TestCache_LoadCorrupt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	good := &session.State{Status: session.StatusIdle, Catalog: entries}

	tests := []struct {
		name  string
		setup func(s session.Store)
	}{
		{"catalog not json", func(s session.Store) {
			_ = s.Set(ctx, "s1", session.KeyCatalog, []byte("{not json"))
		}},
		{"catalog missing", func(s session.Store) {
			_ = s.Remove(ctx, "s1", session.KeyCatalog)
		}},
		{"pending not json", func(s session.Store) {
			_ = s.Set(ctx, "s1", session.KeyPending, []byte("nope"))
		}},
		{"pending while idle", func(s session.Store) {
			_ = s.Set(ctx, "s1", session.KeyPending,
				[]byte(`{"spokenName":"lambda","confidence":0.7,"presentation":{"name":"lambda","filename":"lambda.pptx"}}`))
		}},
		{"unknown status", func(s session.Store) {
			_ = s.Set(ctx, "s1", session.KeyStatus, []byte("dancing"))
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			store := session.NewMemStore()
			c := session.NewCache(store)
			if err := c.Save(ctx, "s1", good.Clone()); err != nil {
				t.Fatalf("Save: %v", err)
			}
			tc.setup(store)

			if _, err := c.Load(ctx, "s1"); !errors.Is(err, session.ErrSerialization) {
				t.Fatalf("Load err = %v, want ErrSerialization", err)
			}
		})
	}
}

func TestCache_SaveRejectsInvalid(t *testing.T) {
	t.Parallel()

	c := session.NewCache(session.NewMemStore())
	err := c.Save(context.Background(), "s1", &session.State{Status: session.StatusAwaitingConfirmation, Catalog: entries})
	if err == nil {
		t.Fatal("Save accepted awaiting state without pending match")
	}
}

func TestCache_End(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := session.NewCache(session.NewMemStore())
	_ = c.Save(ctx, "s1", &session.State{Status: session.StatusIdle, Catalog: []catalog.Entry{{Name: "lambda"}}})

	if err := c.End(ctx, "s1"); err != nil {
		t.Fatalf("End: %v", err)
	}
	if _, err := c.Load(ctx, "s1"); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("Load after End err = %v, want ErrNoSession", err)
	}
}
