// Package static provides a [catalog.Source] backed by an in-process list.
package static

import (
	"context"
	"fmt"
	"slices"

	"github.com/MrWong99/presenter/pkg/catalog"
)

var _ catalog.Source = (*Source)(nil)

// Source serves a fixed catalog. It is safe for concurrent use.
type Source struct {
	entries []catalog.Entry
}

// New returns a Source serving a copy of entries. The entries are validated
// up front so a bad list fails at construction, not mid-conversation.
func New(entries []catalog.Entry) (*Source, error) {
	if err := catalog.Validate(entries); err != nil {
		return nil, fmt.Errorf("static catalog: %w", err)
	}
	return &Source{entries: slices.Clone(entries)}, nil
}

// Demo returns the built-in demo catalog used when no catalog is configured.
func Demo() *Source {
	return &Source{entries: []catalog.Entry{
		{Name: "pikachu i can't see you", Filename: "pikachu.pptx"},
		{Name: "knock knock jokes for dummies", Filename: "knock_knock_for_dummies.pptx"},
		{Name: "lambda", Filename: "lambda.pptx"},
	}}
}

// Load returns a copy of the configured entries.
func (s *Source) Load(ctx context.Context) ([]catalog.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", catalog.ErrRetrieval, err)
	}
	return slices.Clone(s.entries), nil
}
