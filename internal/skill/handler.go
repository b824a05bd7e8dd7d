package skill

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/MrWong99/presenter/internal/dialogue"
	"github.com/MrWong99/presenter/internal/observe"
	"github.com/MrWong99/presenter/internal/session"
	"github.com/MrWong99/presenter/pkg/catalog"
)

const defaultMaxBodyBytes = 256 << 10

// Option configures a [Handler].
type Option func(*Handler)

// WithMetrics tracks active sessions on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithMaxBodyBytes limits the request body size. Default: 256 KiB.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

// Handler serves the platform endpoint. It is safe for concurrent use;
// turns of the same session are serialised.
type Handler struct {
	dialogue *dialogue.Dialogue
	cache    *session.Cache
	source   catalog.Source
	metrics  *observe.Metrics
	maxBody  int64
	locks    *keyedMutex
}

// New returns a Handler that starts new sessions from source and keeps
// their state in cache.
func New(d *dialogue.Dialogue, cache *session.Cache, source catalog.Source, opts ...Option) *Handler {
	h := &Handler{
		dialogue: d,
		cache:    cache,
		source:   source,
		maxBody:  defaultMaxBodyBytes,
		locks:    newKeyedMutex(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// ServeHTTP implements [http.Handler].
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	req, err := ParseRequest(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := observe.WithSession(r.Context(), req.SessionID)
	env, err := h.Turn(ctx, req)
	if err != nil {
		observe.Logger(ctx).Error("turn failed",
			slog.String("request_type", req.Type),
			slog.Any("err", err),
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := env.Encode(w); err != nil {
		observe.Logger(ctx).Warn("write response", slog.Any("err", err))
	}
}

// Turn runs one request against the stored session state. Session-ended
// requests clear the state and return an empty envelope.
func (h *Handler) Turn(ctx context.Context, req Request) (Envelope, error) {
	ctx = observe.WithSession(ctx, req.SessionID)
	unlock := h.locks.Lock(req.SessionID)
	defer unlock()

	if req.Type == TypeSessionEnded {
		return Envelope{Version: "1.0", Response: ResponseBody{ShouldEndSession: true}}, h.endSession(ctx, req)
	}

	st, err := h.state(ctx, req)
	if err != nil {
		return Envelope{}, err
	}

	wasLive := st.Status != session.StatusEnded
	resp, err := h.dialogue.Handle(ctx, req.SessionID, st, req.Event())
	if err != nil {
		return Envelope{}, err
	}
	if err := h.cache.Save(ctx, req.SessionID, st); err != nil {
		return Envelope{}, fmt.Errorf("skill: %w", err)
	}
	if wasLive && st.Status == session.StatusEnded {
		h.sessionDelta(ctx, -1)
	}
	return NewEnvelope(resp), nil
}

// state loads the stored state, or starts a fresh session from the catalog
// source when the platform says the session is new or nothing is stored.
func (h *Handler) state(ctx context.Context, req Request) (*session.State, error) {
	if !req.NewSession {
		st, err := h.cache.Load(ctx, req.SessionID)
		switch {
		case err == nil:
			return st, nil
		case !errors.Is(err, session.ErrNoSession):
			return nil, fmt.Errorf("skill: %w", err)
		}
	}

	entries, err := h.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("skill: load catalog: %w", err)
	}
	st := h.dialogue.Begin(entries)
	observe.Logger(ctx).Info("session started",
		slog.Int("presentations", len(entries)),
	)
	h.sessionDelta(ctx, 1)
	return st, nil
}

func (h *Handler) endSession(ctx context.Context, req Request) error {
	st, err := h.cache.Load(ctx, req.SessionID)
	switch {
	case errors.Is(err, session.ErrNoSession):
		return nil
	case err == nil && st.Status != session.StatusEnded:
		h.sessionDelta(ctx, -1)
	}
	if err := h.cache.End(ctx, req.SessionID); err != nil {
		return fmt.Errorf("skill: %w", err)
	}
	observe.Logger(ctx).Info("session ended",
		slog.String("reason", req.Reason),
	)
	return nil
}

func (h *Handler) sessionDelta(ctx context.Context, n int64) {
	if h.metrics != nil {
		h.metrics.ActiveSessions.Add(ctx, n)
	}
}
