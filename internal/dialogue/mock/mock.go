// Package mock provides a test double for the dialogue.Dispatcher interface.
//
// Example:
//
//	d := &mock.Dispatcher{Started: true}
//	dlg := dialogue.New(d)
//	// … drive dlg …
//	if d.CallCount() != 1 { … }
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/presenter/internal/dialogue"
	"github.com/MrWong99/presenter/internal/match"
)

var _ dialogue.Dispatcher = (*Dispatcher)(nil)

// StartCall records a single invocation of Start.
type StartCall struct {
	// SessionID is the session the start was requested for.
	SessionID string
	// Match is the match passed to Start.
	Match match.Match
}

// Dispatcher is a mock implementation of dialogue.Dispatcher.
type Dispatcher struct {
	mu sync.Mutex

	// Started is returned as the started flag of every Start call.
	Started bool

	// Err, if non-nil, is returned as the error from Start.
	Err error

	// Calls records every call to Start in order.
	Calls []StartCall
}

// Start implements dialogue.Dispatcher.
func (d *Dispatcher) Start(_ context.Context, sessionID string, m match.Match) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls = append(d.Calls, StartCall{SessionID: sessionID, Match: m})
	if d.Err != nil {
		return false, d.Err
	}
	return d.Started, nil
}

// CallCount returns the number of Start calls so far.
func (d *Dispatcher) CallCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Calls)
}

// LastCall returns the most recent call. It panics if Start was never called.
func (d *Dispatcher) LastCall() StartCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Calls[len(d.Calls)-1]
}

// Reset clears the recorded calls.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls = nil
}
