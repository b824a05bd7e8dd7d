package config

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/MrWong99/presenter/internal/dispatch"
	"github.com/MrWong99/presenter/pkg/catalog"
)

// ErrKindNotRegistered is returned by Create* methods when no factory has
// been registered under the requested kind.
var ErrKindNotRegistered = errors.New("config: kind not registered")

// SourceFactory builds a catalog source from its configuration.
type SourceFactory func(ctx context.Context, cfg CatalogConfig) (catalog.Source, error)

// TargetFactory builds a dispatch target from its configuration.
type TargetFactory func(cfg TargetConfig) (dispatch.Target, error)

// Registry maps catalog source kinds and dispatch target kinds to their
// constructor functions. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]SourceFactory
	targets map[string]TargetFactory
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]SourceFactory),
		targets: make(map[string]TargetFactory),
	}
}

// RegisterSource registers a catalog source factory under kind.
// Subsequent calls with the same kind overwrite the previous registration.
func (r *Registry) RegisterSource(kind string, factory SourceFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[kind] = factory
}

// RegisterTarget registers a dispatch target factory under kind.
func (r *Registry) RegisterTarget(kind string, factory TargetFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets[kind] = factory
}

// CreateSource instantiates the catalog source selected by cfg.Source.
// Returns [ErrKindNotRegistered] if no factory has been registered for it.
func (r *Registry) CreateSource(ctx context.Context, cfg CatalogConfig) (catalog.Source, error) {
	r.mu.RLock()
	factory, ok := r.sources[cfg.Source]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: catalog/%q", ErrKindNotRegistered, cfg.Source)
	}
	return factory(ctx, cfg)
}

// CreateTarget instantiates the dispatch target selected by cfg.Kind.
func (r *Registry) CreateTarget(cfg TargetConfig) (dispatch.Target, error) {
	r.mu.RLock()
	factory, ok := r.targets[cfg.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: dispatch/%q", ErrKindNotRegistered, cfg.Kind)
	}
	t, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("config: target %q: %w", cfg.Name, err)
	}
	return t, nil
}

// SourceKinds returns the registered catalog source kinds, sorted.
func (r *Registry) SourceKinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.sources))
	for k := range r.sources {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// TargetKinds returns the registered dispatch target kinds, sorted.
func (r *Registry) TargetKinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.targets))
	for k := range r.targets {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
