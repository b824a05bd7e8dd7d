package match

import (
	"context"
	"errors"
	"log/slog"

	"github.com/MrWong99/presenter/internal/observe"
	"github.com/MrWong99/presenter/pkg/catalog"
)

// ErrEmptyCatalog is returned by [Matcher.Best] when there is nothing to
// match against. Callers are expected to check for an empty catalog first.
var ErrEmptyCatalog = errors.New("match: empty catalog")

// Match pairs an utterance with the catalog entry it scored best against.
// The JSON shape is what the session store and dispatch targets see.
type Match struct {
	Spoken     string        `json:"spokenName"`
	Confidence float64       `json:"confidence"`
	Entry      catalog.Entry `json:"presentation"`
}

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithMetrics records each winning confidence to m.
func WithMetrics(m *observe.Metrics) Option {
	return func(mt *Matcher) {
		mt.metrics = m
	}
}

// Matcher selects the best catalog entry for an utterance. It is read-only
// after construction and safe for concurrent use.
type Matcher struct {
	metrics *observe.Metrics
}

// New returns a [Matcher] configured with opts.
func New(opts ...Option) *Matcher {
	m := &Matcher{}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Best scores spoken against every entry name and returns the highest
// confidence. Among exact ties the entry earliest in catalog order wins.
func (m *Matcher) Best(ctx context.Context, spoken string, entries []catalog.Entry) (Match, error) {
	if len(entries) == 0 {
		return Match{}, ErrEmptyCatalog
	}

	log := observe.Logger(ctx)
	best := -1
	var bestConf float64
	for i, e := range entries {
		sig := Score(spoken, e.Name)
		log.Debug("scored candidate",
			slog.String("spoken", spoken),
			slog.String("candidate", e.Name),
			slog.Float64("lexical", sig.Lexical),
			slog.Float64("phonetic", sig.Phonetic),
			slog.Float64("confidence", sig.Confidence),
		)
		if best < 0 || sig.Confidence > bestConf {
			best, bestConf = i, sig.Confidence
		}
	}

	if m.metrics != nil {
		m.metrics.MatchConfidence.Record(ctx, bestConf)
	}
	return Match{Spoken: spoken, Confidence: bestConf, Entry: entries[best]}, nil
}
