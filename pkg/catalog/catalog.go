// Package catalog defines the presentation catalog: the small, ordered list of
// named items a user can ask for by voice.
//
// A catalog is loaded once per conversational session through a [Source] and
// is never mutated afterwards. Entries are compared against spoken utterances
// by their [Entry.Name]; [Entry.Speech] is what the system says back.
//
// Implementations of [Source] live in sub-packages:
//   - static: an in-process list (including the built-in demo catalog)
//   - file: a YAML or JSON file on disk, read under a shared file lock
//   - postgres: a PostgreSQL table
package catalog

import (
	"context"
	"errors"
	"strings"
)

// ErrRetrieval marks a failure to load a catalog from its source. Every
// [Source] implementation wraps its errors with it so callers can classify
// the failure with [errors.Is].
var ErrRetrieval = errors.New("catalog: retrieval failed")

// ErrEmptyName is returned by [Validate] when an entry has a blank name.
var ErrEmptyName = errors.New("catalog: entry name must not be empty")

// Entry is a single selectable presentation.
type Entry struct {
	// Name is the canonical spoken form of the presentation, e.g. "lambda".
	Name string `yaml:"name" json:"name"`

	// Filename identifies the resource to start. It is opaque to the matcher
	// and forwarded verbatim to the dispatcher.
	Filename string `yaml:"filename" json:"filename"`

	// Pronunciation is SSML markup used when the name is spoken back to the
	// user. When blank, the escaped Name is used instead.
	Pronunciation string `yaml:"pronunciation,omitempty" json:"pronunciation,omitempty"`
}

// ssmlEscaper escapes the characters that would break SSML text content.
var ssmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Speech returns the SSML fragment used to say the entry's name aloud.
func (e Entry) Speech() string {
	if strings.TrimSpace(e.Pronunciation) != "" {
		return e.Pronunciation
	}
	return ssmlEscaper.Replace(e.Name)
}

// Source loads the catalog for a new session.
//
// Implementations must be safe for concurrent use and must wrap every
// failure with [ErrRetrieval]. The returned slice preserves catalog order,
// which is significant: the matcher breaks exact ties in favour of the
// earlier entry.
type Source interface {
	Load(ctx context.Context) ([]Entry, error)
}

// SourceFunc adapts an ordinary function to the [Source] interface.
type SourceFunc func(ctx context.Context) ([]Entry, error)

// Load calls f(ctx).
func (f SourceFunc) Load(ctx context.Context) ([]Entry, error) {
	return f(ctx)
}

// Contains reports whether entries holds an entry equal to e.
func Contains(entries []Entry, e Entry) bool {
	for _, c := range entries {
		if c == e {
			return true
		}
	}
	return false
}
