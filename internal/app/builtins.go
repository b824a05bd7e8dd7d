package app

import (
	"context"

	"github.com/MrWong99/presenter/internal/config"
	"github.com/MrWong99/presenter/internal/dispatch"
	"github.com/MrWong99/presenter/pkg/catalog"
	"github.com/MrWong99/presenter/pkg/catalog/file"
	"github.com/MrWong99/presenter/pkg/catalog/postgres"
	"github.com/MrWong99/presenter/pkg/catalog/static"
)

// RegisterBuiltins wires the catalog sources and dispatch targets that ship
// with the presenter into reg.
func RegisterBuiltins(reg *config.Registry) {
	// ── Catalog sources ──────────────────────────────────────────────────
	reg.RegisterSource(config.SourceStatic, func(_ context.Context, cfg config.CatalogConfig) (catalog.Source, error) {
		if len(cfg.Presentations) == 0 {
			return static.Demo(), nil
		}
		entries := make([]catalog.Entry, len(cfg.Presentations))
		for i, p := range cfg.Presentations {
			entries[i] = catalog.Entry{Name: p.Name, Filename: p.Filename, Pronunciation: p.Pronunciation}
		}
		return static.New(entries)
	})
	reg.RegisterSource(config.SourceFile, func(_ context.Context, cfg config.CatalogConfig) (catalog.Source, error) {
		return file.New(cfg.Path, file.WithLockTimeout(cfg.LockTimeout)), nil
	})
	reg.RegisterSource(config.SourcePostgres, func(ctx context.Context, cfg config.CatalogConfig) (catalog.Source, error) {
		return postgres.New(ctx, cfg.PostgresDSN)
	})

	// ── Dispatch targets ─────────────────────────────────────────────────
	reg.RegisterTarget(config.TargetLog, func(cfg config.TargetConfig) (dispatch.Target, error) {
		return dispatch.NewLogTarget(cfg.Name), nil
	})
	reg.RegisterTarget(config.TargetWebhook, func(cfg config.TargetConfig) (dispatch.Target, error) {
		return dispatch.NewWebhook(cfg.Name, cfg.URL,
			dispatch.WithTimeout(cfg.Timeout),
			dispatch.WithHeaders(cfg.Headers),
		), nil
	})
	reg.RegisterTarget(config.TargetWebsocket, func(cfg config.TargetConfig) (dispatch.Target, error) {
		return dispatch.NewHub(cfg.Name,
			dispatch.WithWriteTimeout(cfg.Timeout),
			dispatch.WithOriginPatterns(cfg.OriginPatterns...),
		), nil
	})
}
