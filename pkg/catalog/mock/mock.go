// Package mock provides a configurable test double for [catalog.Source].
//
// Typical usage:
//
//	src := &mock.Source{Entries: []catalog.Entry{{Name: "lambda"}}}
//	// inject src into the system under test …
//	if src.LoadCount() != 1 { … }
package mock

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/MrWong99/presenter/pkg/catalog"
)

var _ catalog.Source = (*Source)(nil)

// Source is a test double for [catalog.Source]. It is safe for concurrent use.
type Source struct {
	mu    sync.Mutex
	loads int

	// Entries is returned (as a copy) by Load.
	Entries []catalog.Entry

	// Err, when non-nil, is returned by Load wrapped with [catalog.ErrRetrieval].
	Err error
}

// Load implements [catalog.Source].
func (s *Source) Load(_ context.Context) ([]catalog.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.Err != nil {
		return nil, fmt.Errorf("%w: %w", catalog.ErrRetrieval, s.Err)
	}
	return slices.Clone(s.Entries), nil
}

// LoadCount returns how many times Load was called.
func (s *Source) LoadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}
