package session

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemOption configures a [MemStore].
type MemOption func(*MemStore)

// WithTTL expires a session's attributes ttl after its last write. Zero (the
// default) keeps sessions until they are cleared.
func WithTTL(ttl time.Duration) MemOption {
	return func(s *MemStore) {
		s.ttl = ttl
	}
}

// WithClock replaces time.Now. Intended for tests.
func WithClock(now func() time.Time) MemOption {
	return func(s *MemStore) {
		s.now = now
	}
}

type memSession struct {
	attrs   map[string][]byte
	touched time.Time
}

// MemStore is a thread-safe, in-memory implementation of [Store].
// It is suitable for a single process and for testing.
type MemStore struct {
	mu       sync.Mutex
	sessions map[string]*memSession
	ttl      time.Duration
	now      func() time.Time
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore(opts ...MemOption) *MemStore {
	s := &MemStore{
		sessions: make(map[string]*memSession),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// live returns the session entry, dropping it first if it has expired.
// Callers must hold s.mu.
func (s *MemStore) live(sessionID string) (*memSession, bool) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	if s.expired(sess) {
		delete(s.sessions, sessionID)
		return nil, false
	}
	return sess, true
}

func (s *MemStore) expired(sess *memSession) bool {
	return s.ttl > 0 && s.now().Sub(sess.touched) >= s.ttl
}

// Get implements [Store.Get].
func (s *MemStore) Get(_ context.Context, sessionID, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.live(sessionID)
	if !ok {
		return nil, ErrNotFound
	}
	v, ok := sess.attrs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(v), nil
}

// Set implements [Store.Set].
func (s *MemStore) Set(_ context.Context, sessionID, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.live(sessionID)
	if !ok {
		sess = &memSession{attrs: make(map[string][]byte)}
		s.sessions[sessionID] = sess
	}
	sess.attrs[key] = slices.Clone(value)
	sess.touched = s.now()
	return nil
}

// Remove implements [Store.Remove].
func (s *MemStore) Remove(_ context.Context, sessionID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.live(sessionID); ok {
		delete(sess.attrs, key)
	}
	return nil
}

// Clear implements [Store.Clear].
func (s *MemStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

// Sweep drops every expired session and returns how many were removed.
func (s *MemStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	maps.DeleteFunc(s.sessions, func(_ string, sess *memSession) bool {
		if s.expired(sess) {
			n++
			return true
		}
		return false
	})
	return n
}

// Len returns the number of sessions currently held, expired or not.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Ping implements the readiness check; an in-memory store is always ready.
func (s *MemStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *MemStore) Close() {}
