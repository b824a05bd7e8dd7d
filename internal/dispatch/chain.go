package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/presenter/internal/dialogue"
	"github.com/MrWong99/presenter/internal/match"
	"github.com/MrWong99/presenter/internal/observe"
)

var _ dialogue.Dispatcher = (*Chain)(nil)

// ChainOption configures a [Chain].
type ChainOption func(*Chain)

// WithBreakerConfig sets the breaker configuration of every target.
func WithBreakerConfig(cfg BreakerConfig) ChainOption {
	return func(c *Chain) {
		c.breakerCfg = cfg
	}
}

// WithChainMetrics records one dispatch counter sample per target attempt.
func WithChainMetrics(m *observe.Metrics) ChainOption {
	return func(c *Chain) {
		c.metrics = m
	}
}

// WithTargets adds targets in order.
func WithTargets(targets ...Target) ChainOption {
	return func(c *Chain) {
		c.targets = append(c.targets, targets...)
	}
}

type chainEntry struct {
	target  Target
	breaker *Breaker
}

// Chain tries its targets in order until one accepts the message. Targets
// whose breaker is open are skipped.
//
// Chain implements dialogue.Dispatcher: target failures are folded into
// started == false and never surface as errors.
type Chain struct {
	targets    []Target
	entries    []chainEntry
	breakerCfg BreakerConfig
	metrics    *observe.Metrics
	now        func() time.Time
}

// NewChain returns a Chain configured by opts.
func NewChain(opts ...ChainOption) *Chain {
	c := &Chain{now: time.Now}
	for _, o := range opts {
		o(c)
	}
	for _, t := range c.targets {
		c.entries = append(c.entries, chainEntry{
			target:  t,
			breaker: NewBreaker(t.Name(), c.breakerCfg),
		})
	}
	return c
}

// Targets returns the target names in order.
func (c *Chain) Targets() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.target.Name()
	}
	return names
}

// Breaker returns the breaker guarding the named target, or nil.
func (c *Chain) Breaker(name string) *Breaker {
	for _, e := range c.entries {
		if e.target.Name() == name {
			return e.breaker
		}
	}
	return nil
}

// Start implements dialogue.Dispatcher.
func (c *Chain) Start(ctx context.Context, sessionID string, m match.Match) (bool, error) {
	msg := NewMessage(sessionID, m, c.now())
	ctx, span := observe.StartSpan(observe.WithSession(ctx, sessionID), "dispatch.start",
		trace.WithAttributes(
			attribute.String("dispatch.message_id", msg.ID),
			attribute.String("dispatch.presentation", m.Entry.Name),
		),
	)
	defer span.End()

	log := observe.Logger(ctx).With(
		slog.String("message_id", msg.ID),
		slog.String("presentation", m.Entry.Name),
	)

	for _, e := range c.entries {
		name := e.target.Name()
		err := e.breaker.Do(ctx, func(ctx context.Context) error {
			return e.target.Send(ctx, msg)
		})
		switch {
		case err == nil:
			c.record(ctx, name, "ok")
			span.SetAttributes(attribute.String("dispatch.target", name))
			log.Debug("dispatched", slog.String("target", name))
			return true, nil
		case errors.Is(err, ErrBreakerOpen):
			c.record(ctx, name, "skipped")
			log.Debug("skipping target (circuit open)", slog.String("target", name))
		default:
			c.record(ctx, name, "error")
			log.Warn("target failed, trying next", slog.String("target", name), slog.Any("err", err))
		}
		if ctx.Err() != nil {
			break
		}
	}

	log.Warn("no target accepted the start request", slog.Int("targets", len(c.entries)))
	span.SetStatus(codes.Error, "no target accepted")
	return false, nil
}

func (c *Chain) record(ctx context.Context, target, status string) {
	if c.metrics != nil {
		c.metrics.RecordDispatch(ctx, target, status)
	}
}
