package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrWong99/presenter/internal/match"
	"github.com/MrWong99/presenter/pkg/catalog"
)

// Attribute keys under which a [State] is stored.
const (
	KeyCatalog = "presenter.presentations"
	KeyPending = "presenter.selectedPresentation"
	KeyStatus  = "presenter.status"
)

var (
	// ErrNoSession is returned by [Cache.Load] when nothing is stored for the
	// session yet.
	ErrNoSession = errors.New("session: no stored state")

	// ErrSerialization is returned when stored state cannot be decoded or
	// fails validation.
	ErrSerialization = errors.New("session: cannot decode stored state")
)

// Cache reads and writes [State] values through a [Store].
type Cache struct {
	store Store
}

// NewCache returns a Cache over store.
func NewCache(store Store) *Cache {
	return &Cache{store: store}
}

// Store returns the underlying attribute store.
func (c *Cache) Store() Store { return c.store }

// Load returns the stored state of sessionID.
func (c *Cache) Load(ctx context.Context, sessionID string) (*State, error) {
	status, err := c.store.Get(ctx, sessionID, KeyStatus)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("session: load %s: %w", KeyStatus, err)
	}

	st := &State{Status: Status(status)}

	raw, err := c.store.Get(ctx, sessionID, KeyCatalog)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("%w: %s missing", ErrSerialization, KeyCatalog)
	case err != nil:
		return nil, fmt.Errorf("session: load %s: %w", KeyCatalog, err)
	}
	if err := json.Unmarshal(raw, &st.Catalog); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSerialization, KeyCatalog, err)
	}
	if st.Catalog == nil {
		st.Catalog = []catalog.Entry{}
	}

	raw, err = c.store.Get(ctx, sessionID, KeyPending)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("session: load %s: %w", KeyPending, err)
	default:
		var m match.Match
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrSerialization, KeyPending, err)
		}
		st.Pending = &m
	}

	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	return st, nil
}

// Save writes st for sessionID. A nil pending match removes the stored one.
func (c *Cache) Save(ctx context.Context, sessionID string, st *State) error {
	if err := st.Validate(); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}

	entries := st.Catalog
	if entries == nil {
		entries = []catalog.Entry{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("session: encode catalog: %w", err)
	}
	if err := c.store.Set(ctx, sessionID, KeyCatalog, raw); err != nil {
		return fmt.Errorf("session: save %s: %w", KeyCatalog, err)
	}

	if st.Pending == nil {
		if err := c.store.Remove(ctx, sessionID, KeyPending); err != nil {
			return fmt.Errorf("session: remove %s: %w", KeyPending, err)
		}
	} else {
		raw, err := json.Marshal(st.Pending)
		if err != nil {
			return fmt.Errorf("session: encode pending: %w", err)
		}
		if err := c.store.Set(ctx, sessionID, KeyPending, raw); err != nil {
			return fmt.Errorf("session: save %s: %w", KeyPending, err)
		}
	}

	// Status goes last: Load treats its presence as "the rest is written".
	if err := c.store.Set(ctx, sessionID, KeyStatus, []byte(st.Status)); err != nil {
		return fmt.Errorf("session: save %s: %w", KeyStatus, err)
	}
	return nil
}

// End discards everything stored for sessionID.
func (c *Cache) End(ctx context.Context, sessionID string) error {
	if err := c.store.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("session: end: %w", err)
	}
	return nil
}
