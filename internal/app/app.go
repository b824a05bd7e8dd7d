// Package app wires the presenter subsystems into a running HTTP server.
//
// New builds the catalog source, session store, dispatch chain, dialogue,
// and HTTP routes from a [config.Config]; Run serves until its context is
// cancelled; Shutdown releases stores and connections.
//
// For testing, inject doubles via functional options (WithSessionStore,
// WithCatalogSource, WithDispatcher). When an option is not provided, New
// creates the real implementation from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/presenter/internal/config"
	"github.com/MrWong99/presenter/internal/dialogue"
	"github.com/MrWong99/presenter/internal/dispatch"
	"github.com/MrWong99/presenter/internal/health"
	"github.com/MrWong99/presenter/internal/observe"
	"github.com/MrWong99/presenter/internal/session"
	sessionpg "github.com/MrWong99/presenter/internal/session/postgres"
	"github.com/MrWong99/presenter/internal/session/sqlite"
	"github.com/MrWong99/presenter/internal/skill"
	"github.com/MrWong99/presenter/pkg/catalog"
)

const (
	readHeaderTimeout = 10 * time.Second
	serverStopTimeout = 10 * time.Second
)

// App owns all subsystem lifetimes.
type App struct {
	cfg *config.Config
	reg *config.Registry

	metrics  *observe.Metrics
	scrape   http.Handler
	levelVar *slog.LevelVar
	watcher  *config.Watcher
	listener net.Listener

	source     catalog.Source
	store      session.Store
	dispatcher dialogue.Dispatcher
	hubs       map[string]*dispatch.Hub
	dialogue   *dialogue.Dialogue
	handler    http.Handler

	// closers are called in order during Shutdown.
	closers  []func()
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithSessionStore injects a session store instead of creating one from config.
func WithSessionStore(s session.Store) Option {
	return func(a *App) { a.store = s }
}

// WithCatalogSource injects a catalog source instead of creating one from config.
func WithCatalogSource(src catalog.Source) Option {
	return func(a *App) { a.source = src }
}

// WithDispatcher injects a dispatcher instead of building the target chain
// from config.
func WithDispatcher(d dialogue.Dispatcher) Option {
	return func(a *App) { a.dispatcher = d }
}

// WithTelemetry sets the metrics instruments and the handler served at the
// metrics path. Default: [observe.DefaultMetrics] and promhttp.Handler.
func WithTelemetry(m *observe.Metrics, scrape http.Handler) Option {
	return func(a *App) {
		a.metrics = m
		a.scrape = scrape
	}
}

// WithLogLevel lets config reloads change the log level through lv.
func WithLogLevel(lv *slog.LevelVar) Option {
	return func(a *App) { a.levelVar = lv }
}

// WithWatcher runs w alongside the server. Its callback should call
// [App.ApplyConfig].
func WithWatcher(w *config.Watcher) Option {
	return func(a *App) { a.watcher = w }
}

// WithListener serves on ln instead of listening on server.listen_addr.
func WithListener(ln net.Listener) Option {
	return func(a *App) { a.listener = ln }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. Components that
// need a connection (postgres sources and stores) connect here. On error,
// everything created so far is closed again.
func New(ctx context.Context, cfg *config.Config, reg *config.Registry, opts ...Option) (*App, error) {
	a := &App{
		cfg:  cfg,
		reg:  reg,
		hubs: make(map[string]*dispatch.Hub),
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	if a.scrape == nil {
		a.scrape = promhttp.Handler()
	}

	if err := a.init(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	// ── 1. Catalog source ────────────────────────────────────────────────
	if err := a.initSource(ctx); err != nil {
		return fmt.Errorf("app: init catalog: %w", err)
	}

	// ── 2. Session store ─────────────────────────────────────────────────
	if err := a.initStore(ctx); err != nil {
		return fmt.Errorf("app: init sessions: %w", err)
	}

	// ── 3. Dispatch ──────────────────────────────────────────────────────
	if err := a.initDispatch(); err != nil {
		return fmt.Errorf("app: init dispatch: %w", err)
	}

	// ── 4. Dialogue ──────────────────────────────────────────────────────
	th := dialogue.Thresholds{
		AutoStart: a.cfg.Matching.AutoStartThreshold,
		Confirm:   a.cfg.Matching.ConfirmThreshold,
	}
	if err := th.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	a.dialogue = dialogue.New(a.dispatcher,
		dialogue.WithThresholds(th),
		dialogue.WithMetrics(a.metrics),
	)

	// ── 5. HTTP routes ───────────────────────────────────────────────────
	a.handler = a.routes()
	return nil
}

func (a *App) initSource(ctx context.Context) error {
	if a.source != nil {
		return nil
	}
	src, err := a.reg.CreateSource(ctx, a.cfg.Catalog)
	if err != nil {
		return err
	}
	if c, ok := src.(interface{ Close() }); ok {
		a.closers = append(a.closers, c.Close)
	}
	a.source = src
	slog.Info("catalog source ready", "source", a.cfg.Catalog.Source)
	return nil
}

func (a *App) initStore(ctx context.Context) error {
	if a.store != nil {
		return nil
	}
	sc := a.cfg.Sessions
	switch sc.Backend {
	case config.BackendMemory:
		a.store = session.NewMemStore(session.WithTTL(sc.TTL))
	case config.BackendPostgres:
		s, err := sessionpg.NewStore(ctx, sc.PostgresDSN)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, s.Close)
		a.store = s
	case config.BackendSQLite:
		s, err := sqlite.Open(sc.SQLitePath)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, s.Close)
		a.store = s
	default:
		return fmt.Errorf("unknown sessions.backend %q", sc.Backend)
	}
	slog.Info("session store ready", "backend", sc.Backend, "ttl", sc.TTL)
	return nil
}

func (a *App) initDispatch() error {
	if a.dispatcher != nil {
		return nil
	}
	targets := make([]dispatch.Target, 0, len(a.cfg.Dispatch.Targets))
	for _, tc := range a.cfg.Dispatch.Targets {
		t, err := a.reg.CreateTarget(tc)
		if err != nil {
			return err
		}
		if hub, ok := t.(*dispatch.Hub); ok {
			a.hubs[tc.Path] = hub
			a.closers = append(a.closers, hub.Close)
		}
		targets = append(targets, t)
	}
	chain := dispatch.NewChain(
		dispatch.WithTargets(targets...),
		dispatch.WithBreakerConfig(dispatch.BreakerConfig{
			MaxFailures:  a.cfg.Dispatch.Breaker.MaxFailures,
			ResetTimeout: a.cfg.Dispatch.Breaker.ResetTimeout,
		}),
		dispatch.WithChainMetrics(a.metrics),
	)
	a.dispatcher = chain
	slog.Info("dispatch chain ready", "targets", chain.Targets())
	return nil
}

func (a *App) routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST "+a.cfg.Server.SkillPath, skill.New(a.dialogue, session.NewCache(a.store), a.source,
		skill.WithMetrics(a.metrics),
	))
	mux.Handle("GET "+a.cfg.Telemetry.MetricsPath, a.scrape)
	for path, hub := range a.hubs {
		mux.Handle("GET "+path, hub)
	}

	checkers := []health.Checker{health.CatalogChecker(a.source)}
	if p, ok := a.store.(health.Pinger); ok {
		checkers = append(checkers, health.PingChecker("sessions", p))
	}
	health.New(checkers...).Register(mux)

	return observe.Middleware(a.metrics)(mux)
}

// Handler returns the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Dialogue returns the selection dialogue, for callers that drive turns
// without HTTP.
func (a *App) Dialogue() *dialogue.Dialogue { return a.dialogue }

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves HTTP, sweeps expired sessions, and polls the config file until
// ctx is cancelled. It returns nil after a clean stop.
func (a *App) Run(ctx context.Context) error {
	ln := a.listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", a.cfg.Server.ListenAddr)
		if err != nil {
			return fmt.Errorf("app: listen: %w", err)
		}
	}

	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("http server listening",
			"addr", ln.Addr().String(),
			"skill_path", a.cfg.Server.SkillPath,
			"tls", a.cfg.Server.TLS != nil,
		)
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			err = srv.ServeTLS(ln, tls.CertFile, tls.KeyFile)
		} else {
			err = srv.Serve(ln)
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serve: %w", err)
	})
	g.Go(func() error {
		<-ctx.Done()
		// Presenter websockets are hijacked and not tracked by Shutdown.
		for _, hub := range a.hubs {
			hub.Close()
		}
		stopCtx, cancel := context.WithTimeout(context.Background(), serverStopTimeout)
		defer cancel()
		return srv.Shutdown(stopCtx)
	})
	if a.cfg.Sessions.TTL > 0 && a.cfg.Sessions.SweepInterval > 0 {
		g.Go(func() error {
			a.sweepLoop(ctx)
			return nil
		})
	}
	if a.watcher != nil {
		g.Go(func() error { return a.watcher.Run(ctx) })
	}
	return g.Wait()
}

func (a *App) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.Sessions.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Sweep(ctx)
		}
	}
}

// Sweep removes expired sessions from the store once.
func (a *App) Sweep(ctx context.Context) {
	switch s := a.store.(type) {
	case interface{ Sweep() int }:
		if n := s.Sweep(); n > 0 {
			slog.Debug("expired sessions swept", "sessions", n)
		}
	case interface {
		Purge(context.Context, time.Time) (int64, error)
	}:
		n, err := s.Purge(ctx, time.Now().Add(-a.cfg.Sessions.TTL))
		if err != nil {
			slog.Warn("session purge failed", "err", err)
			return
		}
		if n > 0 {
			slog.Debug("expired session attributes purged", "rows", n)
		}
	}
}

// ApplyConfig applies the hot-reloadable part of a config change. It is
// the callback of the config watcher.
func (a *App) ApplyConfig(old, new *config.Config) {
	d := config.Diff(old, new)
	if d.LogLevelChanged && a.levelVar != nil {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(d.NewLogLevel)); err == nil {
			a.levelVar.Set(lvl)
			slog.Info("log level changed", "level", d.NewLogLevel)
		}
	}
	if d.ThresholdsChanged {
		th := dialogue.Thresholds{
			AutoStart: d.NewMatching.AutoStartThreshold,
			Confirm:   d.NewMatching.ConfirmThreshold,
		}
		if err := th.Validate(); err != nil {
			slog.Warn("ignoring new thresholds", "err", err)
		} else {
			a.dialogue.SetThresholds(th)
			slog.Info("thresholds changed", "auto_start", th.AutoStart, "confirm", th.Confirm)
		}
	}
	if len(d.RestartRequired) > 0 {
		slog.Warn("config changes need a restart to take effect", "sections", d.RestartRequired)
	}
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown closes stores, sources, and presenter connections. It respects
// the context deadline: if ctx expires, remaining closers are skipped and
// the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))
		for i, closer := range a.closers {
			if err := ctx.Err(); err != nil {
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = err
				return
			}
			closer()
		}
		slog.Info("shutdown complete")
	})
	return shutdownErr
}

func (a *App) close() {
	for _, c := range a.closers {
		c()
	}
}
