// Command presenter serves the voice skill that starts slide presentations
// by name.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrWong99/presenter/internal/app"
	"github.com/MrWong99/presenter/internal/config"
	"github.com/MrWong99/presenter/internal/observe"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	utterance := flag.String("match", "", "score an utterance against the catalog and exit")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	var (
		application *app.App
		watcher     *config.Watcher
		cfg         *config.Config
		err         error
	)
	if _, statErr := os.Stat(*configPath); errors.Is(statErr, os.ErrNotExist) {
		cfg = config.Default()
	} else {
		watcher, err = config.NewWatcher(*configPath, func(old, new *config.Config) {
			application.ApplyConfig(old, new)
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "presenter: %v\n", err)
			return 1
		}
		cfg = watcher.Current()
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	levelVar := new(slog.LevelVar)
	slog.SetDefault(newLogger(os.Stderr, cfg.Server, levelVar))

	if watcher == nil {
		slog.Warn("config file not found, running the demo catalog", "config", *configPath)
	}

	reg := config.NewRegistry()
	app.RegisterBuiltins(reg)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *utterance != "" {
		if err := explain(ctx, os.Stdout, cfg, reg, *utterance); err != nil {
			slog.Error("match failed", "err", err)
			return 1
		}
		return 0
	}

	slog.Info("presenter starting",
		"version", version,
		"listen_addr", cfg.Server.ListenAddr,
		"catalog", cfg.Catalog.Source,
		"sessions", cfg.Sessions.Backend,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Telemetry ─────────────────────────────────────────────────────────────
	tel, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}

	opts := []app.Option{
		app.WithTelemetry(tel.Metrics, tel.Handler),
		app.WithLogLevel(levelVar),
	}
	if watcher != nil {
		opts = append(opts, app.WithWatcher(watcher))
	}
	application, err = app.New(ctx, cfg, reg, opts...)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	slog.Info("server ready, press Ctrl+C to shut down")

	code := 0
	if err := application.Run(ctx); err != nil {
		slog.Error("run error", "err", err)
		code = 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		code = 1
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		slog.Warn("telemetry shutdown error", "err", err)
	}
	slog.Info("goodbye")
	return code
}

// newLogger builds the process logger. Its level is read from lv so config
// reloads can change it.
func newLogger(w io.Writer, sc config.ServerConfig, lv *slog.LevelVar) *slog.Logger {
	switch sc.LogLevel {
	case config.LogDebug:
		lv.Set(slog.LevelDebug)
	case config.LogWarn:
		lv.Set(slog.LevelWarn)
	case config.LogError:
		lv.Set(slog.LevelError)
	default:
		lv.Set(slog.LevelInfo)
	}
	opts := &slog.HandlerOptions{Level: lv}
	if sc.LogFormat == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
