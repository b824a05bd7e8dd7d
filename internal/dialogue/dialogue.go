// Package dialogue implements the presentation-selection conversation: a
// small state machine that turns the confidence of a catalog match into one
// of three outcomes.
//
//   - confidence ≥ AutoStart: the presentation is started straight away.
//   - Confirm ≤ confidence < AutoStart: the user is asked "did you mean …".
//   - confidence < Confirm: the utterance is rejected with a help prompt.
//
// The dialogue is synchronous and keeps no state of its own; all
// per-conversation state lives in the [session.State] passed to
// [Dialogue.Handle], which the caller loads and saves around each turn.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/presenter/internal/match"
	"github.com/MrWong99/presenter/internal/observe"
	"github.com/MrWong99/presenter/internal/session"
	"github.com/MrWong99/presenter/pkg/catalog"
)

// ErrNoDispatcher is returned when a start is attempted without a configured
// [Dispatcher]. It is a configuration error, not a user-facing one.
var ErrNoDispatcher = errors.New("dialogue: no dispatcher configured")

// Dispatcher starts a matched presentation. Expected failures (target
// unreachable, rejected request) are reported as started == false; a non-nil
// error means something unexpected and aborts the turn.
type Dispatcher interface {
	Start(ctx context.Context, sessionID string, m match.Match) (started bool, err error)
}

// DispatcherFunc adapts a function to [Dispatcher].
type DispatcherFunc func(ctx context.Context, sessionID string, m match.Match) (bool, error)

// Start calls f.
func (f DispatcherFunc) Start(ctx context.Context, sessionID string, m match.Match) (bool, error) {
	return f(ctx, sessionID, m)
}

// Matcher picks the best catalog entry for an utterance. [*match.Matcher]
// is the production implementation.
type Matcher interface {
	Best(ctx context.Context, spoken string, entries []catalog.Entry) (match.Match, error)
}

// MatcherFunc adapts a function to [Matcher].
type MatcherFunc func(ctx context.Context, spoken string, entries []catalog.Entry) (match.Match, error)

// Best calls f.
func (f MatcherFunc) Best(ctx context.Context, spoken string, entries []catalog.Entry) (match.Match, error) {
	return f(ctx, spoken, entries)
}

// Thresholds are the confidence bounds of the three outcomes. Both bounds
// are inclusive.
type Thresholds struct {
	AutoStart float64
	Confirm   float64
}

// DefaultThresholds returns AutoStart 0.85 and Confirm 0.50.
func DefaultThresholds() Thresholds {
	return Thresholds{AutoStart: 0.85, Confirm: 0.50}
}

// Validate checks that Confirm does not exceed AutoStart.
func (t Thresholds) Validate() error {
	if t.Confirm > t.AutoStart {
		return fmt.Errorf("dialogue: confirm threshold %.2f exceeds auto-start threshold %.2f", t.Confirm, t.AutoStart)
	}
	return nil
}

// Outcome labels what a turn did. It is used for metrics and logs.
type Outcome string

const (
	OutcomeNoCatalog     Outcome = "no_catalog"
	OutcomeHelp          Outcome = "help"
	OutcomeListing       Outcome = "listing"
	OutcomeConfirm       Outcome = "confirm"
	OutcomeNotRecognized Outcome = "not_recognized"
	OutcomeStarted       Outcome = "started"
	OutcomeStartFailed   Outcome = "start_failed"
	OutcomeGoodbye       Outcome = "goodbye"
)

// Response is what the dialogue wants said. Speech and Reprompt are SSML
// documents; Reprompt is empty when EndSession is set.
type Response struct {
	Speech     string
	Reprompt   string
	EndSession bool
	Outcome    Outcome
}

// Option is a functional option for configuring a [Dialogue].
type Option func(*Dialogue)

// WithThresholds overrides [DefaultThresholds].
func WithThresholds(t Thresholds) Option {
	return func(d *Dialogue) {
		d.thresholds.Store(&t)
	}
}

// WithMatcher replaces the default [match.Matcher].
func WithMatcher(m Matcher) Option {
	return func(d *Dialogue) {
		d.matcher = m
	}
}

// WithMetrics records outcomes and turn latency to m.
func WithMetrics(m *observe.Metrics) Option {
	return func(d *Dialogue) {
		d.metrics = m
	}
}

// Dialogue runs the selection conversation. It is safe for concurrent use
// across sessions; turns of one session must be serialised by the caller.
type Dialogue struct {
	dispatcher Dispatcher
	matcher    Matcher
	metrics    *observe.Metrics
	thresholds atomic.Pointer[Thresholds]
}

// New returns a Dialogue that starts presentations through dispatcher.
// A nil dispatcher is accepted; starting then fails with [ErrNoDispatcher].
func New(dispatcher Dispatcher, opts ...Option) *Dialogue {
	d := &Dialogue{dispatcher: dispatcher}
	def := DefaultThresholds()
	d.thresholds.Store(&def)
	for _, o := range opts {
		o(d)
	}
	if d.matcher == nil {
		d.matcher = match.New(match.WithMetrics(d.metrics))
	}
	return d
}

// Thresholds returns the thresholds currently in effect.
func (d *Dialogue) Thresholds() Thresholds {
	return *d.thresholds.Load()
}

// SetThresholds replaces the thresholds for all subsequent turns.
func (d *Dialogue) SetThresholds(t Thresholds) {
	d.thresholds.Store(&t)
}

// Begin returns the initial state of a session over entries.
func (d *Dialogue) Begin(entries []catalog.Entry) *session.State {
	if len(entries) == 0 {
		return &session.State{Status: session.StatusNoCatalog, Catalog: []catalog.Entry{}}
	}
	return &session.State{Status: session.StatusIdle, Catalog: entries}
}

// Handle applies ev to st, mutating it in place, and returns what to say.
// An error is returned only for faults outside the conversation: a missing
// dispatcher or an unexpected dispatcher failure.
func (d *Dialogue) Handle(ctx context.Context, sessionID string, st *session.State, ev Event) (Response, error) {
	start := time.Now()
	ctx = observe.WithSession(ctx, sessionID)
	ctx, span := observe.StartSpan(ctx, "dialogue.turn",
		trace.WithAttributes(
			attribute.String("dialogue.event", ev.Kind.String()),
			attribute.String("dialogue.status.before", string(st.Status)),
		),
	)
	defer span.End()

	before := st.Status
	resp, err := d.handle(ctx, sessionID, st, ev)
	if err != nil {
		span.RecordError(err)
		return Response{}, err
	}

	span.SetAttributes(
		attribute.String("dialogue.outcome", string(resp.Outcome)),
		attribute.String("dialogue.status.after", string(st.Status)),
	)
	observe.Logger(ctx).Debug("dialogue turn",
		slog.String("event", ev.Kind.String()),
		slog.String("from", string(before)),
		slog.String("to", string(st.Status)),
		slog.String("outcome", string(resp.Outcome)),
	)
	if d.metrics != nil {
		d.metrics.RecordOutcome(ctx, string(resp.Outcome))
		d.metrics.TurnDuration.Record(ctx, time.Since(start).Seconds())
	}
	return resp, nil
}

func (d *Dialogue) handle(ctx context.Context, sessionID string, st *session.State, ev Event) (Response, error) {
	switch st.Status {
	case session.StatusEnded:
		return tell(goodbyeText, OutcomeGoodbye), nil
	case session.StatusNoCatalog:
		end(st)
		return tell(noCatalogText, OutcomeNoCatalog), nil
	}

	switch ev.Kind {
	case KindCancel:
		end(st)
		return tell(goodbyeText, OutcomeGoodbye), nil

	case KindList, KindNo:
		idle(st)
		return d.listing(st), nil

	case KindYes:
		if st.Status == session.StatusAwaitingConfirmation && st.Pending != nil {
			return d.dispatch(ctx, sessionID, st, *st.Pending)
		}
		idle(st)
		return d.listing(st), nil

	case KindStart:
		if ev.Slot == "" {
			idle(st)
			return d.listing(st), nil
		}
		return d.start(ctx, sessionID, st, ev.Slot)

	default:
		return ask(helpText, helpReprompt, OutcomeHelp), nil
	}
}

func (d *Dialogue) start(ctx context.Context, sessionID string, st *session.State, spoken string) (Response, error) {
	m, err := d.matcher.Best(ctx, spoken, st.Catalog)
	if err != nil {
		return Response{}, fmt.Errorf("dialogue: match: %w", err)
	}

	th := d.Thresholds()
	log := observe.Logger(ctx).With(
		slog.String("spoken", spoken),
		slog.String("best", m.Entry.Name),
		slog.Float64("confidence", m.Confidence),
	)

	switch {
	case m.Confidence >= th.AutoStart:
		log.Debug("confident match, starting")
		return d.dispatch(ctx, sessionID, st, m)

	case m.Confidence >= th.Confirm:
		log.Debug("uncertain match, asking for confirmation")
		st.Pending = &m
		st.Status = session.StatusAwaitingConfirmation
		return ask(confirmText(m.Entry), startReprompt, OutcomeConfirm), nil

	default:
		log.Debug("no acceptable match")
		idle(st)
		return ask(notRecognized+helpText, startReprompt, OutcomeNotRecognized), nil
	}
}

// dispatch makes exactly one dispatcher call for m. Either result ends the
// conversation.
func (d *Dialogue) dispatch(ctx context.Context, sessionID string, st *session.State, m match.Match) (Response, error) {
	if d.dispatcher == nil {
		return Response{}, ErrNoDispatcher
	}

	started, err := d.dispatcher.Start(ctx, sessionID, m)
	if err != nil {
		return Response{}, fmt.Errorf("dialogue: dispatch %q: %w", m.Entry.Name, err)
	}

	end(st)
	if !started {
		observe.Logger(ctx).Warn("presentation did not start",
			slog.String("presentation", m.Entry.Name),
		)
		return tell(startFailedText, OutcomeStartFailed), nil
	}
	observe.Logger(ctx).Info("presentation started",
		slog.String("presentation", m.Entry.Name),
		slog.String("filename", m.Entry.Filename),
		slog.Float64("confidence", m.Confidence),
	)
	return tell(startingText(m.Entry), OutcomeStarted), nil
}

func (d *Dialogue) listing(st *session.State) Response {
	return ask(Listing(st.Catalog), helpReprompt, OutcomeListing)
}

func idle(st *session.State) {
	st.Pending = nil
	st.Status = session.StatusIdle
}

func end(st *session.State) {
	st.Pending = nil
	st.Status = session.StatusEnded
}

func ask(speech, reprompt string, o Outcome) Response {
	return Response{Speech: SSML(speech), Reprompt: SSML(reprompt), Outcome: o}
}

func tell(speech string, o Outcome) Response {
	return Response{Speech: SSML(speech), EndSession: true, Outcome: o}
}
