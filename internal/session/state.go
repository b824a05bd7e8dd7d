// Package session keeps per-conversation dialogue state between turns.
//
// A [State] is the whole of what the dialogue remembers for one session: its
// catalog snapshot, where the conversation stands, and the match awaiting
// confirmation. [Cache] serialises a State into named attributes of a
// session-scoped [Store], so any key/value backend that offers
// read-your-writes within a session can hold it.
package session

import (
	"errors"
	"fmt"
	"slices"

	"github.com/MrWong99/presenter/internal/match"
	"github.com/MrWong99/presenter/pkg/catalog"
)

// Status is the dialogue state of a session.
type Status string

const (
	// StatusNoCatalog is a session that started with an empty catalog.
	StatusNoCatalog Status = "no_catalog"

	// StatusIdle waits for the user to name or list presentations.
	StatusIdle Status = "idle"

	// StatusAwaitingConfirmation holds a pending match and waits for yes/no.
	StatusAwaitingConfirmation Status = "awaiting_confirmation"

	// StatusEnded is terminal.
	StatusEnded Status = "ended"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNoCatalog, StatusIdle, StatusAwaitingConfirmation, StatusEnded:
		return true
	}
	return false
}

// State is the dialogue state of one session. It is owned by that session
// and never shared.
type State struct {
	Status  Status
	Catalog []catalog.Entry
	Pending *match.Match
}

// Validate checks the structural invariants of s: a known status, a pending
// match exactly while awaiting confirmation, and a pending entry taken from
// the session's own catalog.
func (s *State) Validate() error {
	var errs []error
	if !s.Status.Valid() {
		errs = append(errs, fmt.Errorf("status: unknown value %q", s.Status))
	}
	awaiting := s.Status == StatusAwaitingConfirmation
	switch {
	case awaiting && s.Pending == nil:
		errs = append(errs, errors.New("pending: required while awaiting confirmation"))
	case !awaiting && s.Pending != nil:
		errs = append(errs, fmt.Errorf("pending: must be empty in status %q", s.Status))
	}
	if s.Pending != nil && !catalog.Contains(s.Catalog, s.Pending.Entry) {
		errs = append(errs, fmt.Errorf("pending: %q is not in the session catalog", s.Pending.Entry.Name))
	}
	if s.Status == StatusNoCatalog && len(s.Catalog) > 0 {
		errs = append(errs, errors.New("catalog: must be empty in status no_catalog"))
	}
	return errors.Join(errs...)
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	c := &State{Status: s.Status, Catalog: slices.Clone(s.Catalog)}
	if s.Pending != nil {
		p := *s.Pending
		c.Pending = &p
	}
	return c
}
