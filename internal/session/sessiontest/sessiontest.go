// Package sessiontest holds behaviour checks shared by every
// [session.Store] implementation.
package sessiontest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/MrWong99/presenter/internal/session"
)

// RunStoreTests exercises the [session.Store] contract against stores built
// by newStore. Each subtest gets a fresh store.
func RunStoreTests(t *testing.T, newStore func(t *testing.T) session.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Get(ctx, "s1", "k"); !errors.Is(err, session.ErrNotFound) {
			t.Fatalf("Get err = %v, want ErrNotFound", err)
		}
	})

	t.Run("set then get", func(t *testing.T) {
		s := newStore(t)
		if err := s.Set(ctx, "s1", "k", []byte("v1")); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, err := s.Get(ctx, "s1", "k")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !bytes.Equal(got, []byte("v1")) {
			t.Errorf("Get = %q, want v1", got)
		}

		if err := s.Set(ctx, "s1", "k", []byte("v2")); err != nil {
			t.Fatalf("Set overwrite: %v", err)
		}
		got, _ = s.Get(ctx, "s1", "k")
		if !bytes.Equal(got, []byte("v2")) {
			t.Errorf("Get after overwrite = %q, want v2", got)
		}
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		s := newStore(t)
		_ = s.Set(ctx, "s1", "k", []byte("one"))
		_ = s.Set(ctx, "s2", "k", []byte("two"))

		got, _ := s.Get(ctx, "s1", "k")
		if string(got) != "one" {
			t.Errorf("s1 = %q, want one", got)
		}
		if err := s.Clear(ctx, "s1"); err != nil {
			t.Fatalf("Clear: %v", err)
		}
		if _, err := s.Get(ctx, "s1", "k"); !errors.Is(err, session.ErrNotFound) {
			t.Errorf("s1 after Clear err = %v, want ErrNotFound", err)
		}
		got, err := s.Get(ctx, "s2", "k")
		if err != nil || string(got) != "two" {
			t.Errorf("s2 after clearing s1 = %q, %v; want two", got, err)
		}
	})

	t.Run("remove", func(t *testing.T) {
		s := newStore(t)
		_ = s.Set(ctx, "s1", "a", []byte("1"))
		_ = s.Set(ctx, "s1", "b", []byte("2"))
		if err := s.Remove(ctx, "s1", "a"); err != nil {
			t.Fatalf("Remove: %v", err)
		}
		if _, err := s.Get(ctx, "s1", "a"); !errors.Is(err, session.ErrNotFound) {
			t.Errorf("Get removed err = %v, want ErrNotFound", err)
		}
		if _, err := s.Get(ctx, "s1", "b"); err != nil {
			t.Errorf("Get sibling: %v", err)
		}
		if err := s.Remove(ctx, "s1", "missing"); err != nil {
			t.Errorf("Remove missing: %v", err)
		}
		if err := s.Remove(ctx, "nobody", "a"); err != nil {
			t.Errorf("Remove in unknown session: %v", err)
		}
	})

	t.Run("stored bytes are copied", func(t *testing.T) {
		s := newStore(t)
		v := []byte("abc")
		_ = s.Set(ctx, "s1", "k", v)
		v[0] = 'x'
		got, _ := s.Get(ctx, "s1", "k")
		if string(got) != "abc" {
			t.Errorf("Get = %q, want abc", got)
		}
	})

	t.Run("concurrent sessions", func(t *testing.T) {
		s := newStore(t)
		var wg sync.WaitGroup
		for i := range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				id := fmt.Sprintf("s%d", i)
				if err := s.Set(ctx, id, "k", []byte(id)); err != nil {
					t.Errorf("Set %s: %v", id, err)
					return
				}
				got, err := s.Get(ctx, id, "k")
				if err != nil || string(got) != id {
					t.Errorf("Get %s = %q, %v", id, got, err)
				}
			}()
		}
		wg.Wait()
	})
}
