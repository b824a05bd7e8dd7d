// Package file provides a [catalog.Source] that reads a YAML or JSON catalog
// file on every load.
//
// The file is read while holding a shared advisory lock on "<path>.lock", so
// a publishing tool that takes the exclusive lock while rewriting the catalog
// never exposes a half-written file to a new session.
package file

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"

	"github.com/MrWong99/presenter/pkg/catalog"
)

const (
	defaultLockTimeout = 2 * time.Second
	lockRetryDelay     = 50 * time.Millisecond
)

var _ catalog.Source = (*Source)(nil)

// Option configures a [Source].
type Option func(*Source)

// WithLockTimeout bounds how long Load waits for the shared lock.
// Default: 2s.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// Source loads a catalog from a file path.
type Source struct {
	path        string
	lockTimeout time.Duration
}

// New returns a Source reading path. The file is not touched until Load.
func New(path string, opts ...Option) *Source {
	s := &Source{path: path, lockTimeout: defaultLockTimeout}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Path returns the catalog file path.
func (s *Source) Path() string { return s.path }

// Load reads, decodes, and validates the catalog file.
func (s *Source) Load(ctx context.Context) ([]catalog.Entry, error) {
	lock := flock.New(s.path + ".lock")

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	locked, err := lock.TryRLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%w: lock %q: %w", catalog.ErrRetrieval, s.path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: lock %q: not acquired", catalog.ErrRetrieval, s.path)
	}
	defer lock.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %w", catalog.ErrRetrieval, s.path, err)
	}
	defer f.Close()

	entries, err := catalog.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", catalog.ErrRetrieval, s.path, err)
	}
	return entries, nil
}
