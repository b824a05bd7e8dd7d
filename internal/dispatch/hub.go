package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/MrWong99/presenter/internal/observe"
)

const defaultHubWriteTimeout = 5 * time.Second

// Hub is a websocket endpoint that presenter machines connect to. Every
// [Message] sent through the hub is written to all connected presenters;
// delivery succeeds if at least one presenter received it.
//
// Hub implements both [Target] and [http.Handler]. It is safe for
// concurrent use.
type Hub struct {
	name         string
	writeTimeout time.Duration
	origins      []string

	mu      sync.Mutex
	clients map[string]*websocket.Conn
	closed  bool
}

// HubOption configures a [Hub].
type HubOption func(*Hub)

// WithWriteTimeout bounds the write to each presenter. Default: 5s.
func WithWriteTimeout(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

// WithOriginPatterns allows cross-origin websocket handshakes from hosts
// matching patterns.
func WithOriginPatterns(patterns ...string) HubOption {
	return func(h *Hub) {
		h.origins = append(h.origins, patterns...)
	}
}

// NewHub returns an empty Hub called name.
func NewHub(name string, opts ...HubOption) *Hub {
	h := &Hub{
		name:         name,
		writeTimeout: defaultHubWriteTimeout,
		clients:      make(map[string]*websocket.Conn),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Name implements [Target].
func (h *Hub) Name() string { return h.name }

// Connected returns the number of connected presenters.
func (h *Hub) Connected() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and keeps the connection registered until
// the presenter disconnects or the hub is closed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		observe.Logger(r.Context()).Warn("presenter websocket handshake failed", "err", err)
		return
	}

	id := uuid.NewString()
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close(websocket.StatusGoingAway, "shutting down")
		return
	}
	h.clients[id] = conn
	h.mu.Unlock()

	log := slog.With("hub", h.name, "presenter_id", id, "remote_addr", r.RemoteAddr)
	log.Info("presenter connected")

	// Presenters only listen; CloseRead handles pings and close frames and
	// cancels ctx once the peer goes away.
	ctx := conn.CloseRead(context.Background())
	<-ctx.Done()

	h.mu.Lock()
	delete(h.clients, id)
	h.mu.Unlock()
	log.Info("presenter disconnected")
}

// Send implements [Target].
func (h *Hub) Send(ctx context.Context, msg Message) error {
	h.mu.Lock()
	conns := make(map[string]*websocket.Conn, len(h.clients))
	for id, c := range h.clients {
		conns[id] = c
	}
	h.mu.Unlock()

	if len(conns) == 0 {
		return fmt.Errorf("hub %s: %w", h.name, ErrNoListeners)
	}

	delivered := 0
	var lastErr error
	for id, c := range conns {
		wctx, cancel := context.WithTimeout(ctx, h.writeTimeout)
		err := wsjson.Write(wctx, c, msg)
		cancel()
		if err != nil {
			lastErr = err
			observe.Logger(ctx).Warn("presenter write failed",
				slog.String("hub", h.name),
				slog.String("presenter_id", id),
				slog.Any("err", err),
			)
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return fmt.Errorf("hub %s: %w: %w", h.name, ErrRejected, lastErr)
	}
	return nil
}

// Close disconnects every presenter and refuses new connections.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	conns := h.clients
	h.clients = make(map[string]*websocket.Conn)
	h.mu.Unlock()

	for _, c := range conns {
		c.Close(websocket.StatusGoingAway, "shutting down")
	}
}
