package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. An empty document yields [Default].
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
// Validate expects defaults to have been applied.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if !cfg.Server.LogFormat.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_format %q is invalid; valid values: text, json", cfg.Server.LogFormat))
	}
	if !strings.HasPrefix(cfg.Server.SkillPath, "/") {
		errs = append(errs, fmt.Errorf("server.skill_path %q must start with /", cfg.Server.SkillPath))
	}
	if tls := cfg.Server.TLS; tls != nil && (tls.CertFile == "" || tls.KeyFile == "") {
		errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
	}

	// Catalog
	switch cfg.Catalog.Source {
	case SourceStatic:
		for i, p := range cfg.Catalog.Presentations {
			if strings.TrimSpace(p.Name) == "" {
				errs = append(errs, fmt.Errorf("catalog.presentations[%d].name is required", i))
			}
		}
		if len(cfg.Catalog.Presentations) == 0 {
			slog.Warn("catalog.presentations is empty; serving the built-in demo catalog")
		}
	case SourceFile:
		if cfg.Catalog.Path == "" {
			errs = append(errs, errors.New("catalog.path is required when catalog.source is file"))
		}
	case SourcePostgres:
		if cfg.Catalog.PostgresDSN == "" {
			errs = append(errs, errors.New("catalog.postgres_dsn is required when catalog.source is postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("catalog.source %q is invalid; valid values: static, file, postgres", cfg.Catalog.Source))
	}
	if cfg.Catalog.LockTimeout < 0 {
		errs = append(errs, fmt.Errorf("catalog.lock_timeout %s must not be negative", cfg.Catalog.LockTimeout))
	}

	// Sessions
	switch cfg.Sessions.Backend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if cfg.Sessions.PostgresDSN == "" {
			errs = append(errs, errors.New("sessions.postgres_dsn is required when sessions.backend is postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("sessions.backend %q is invalid; valid values: memory, postgres, sqlite", cfg.Sessions.Backend))
	}
	if cfg.Sessions.TTL < 0 {
		errs = append(errs, fmt.Errorf("sessions.ttl %s must not be negative", cfg.Sessions.TTL))
	}
	if cfg.Sessions.SweepInterval < 0 {
		errs = append(errs, fmt.Errorf("sessions.sweep_interval %s must not be negative", cfg.Sessions.SweepInterval))
	}
	if cfg.Sessions.Backend != BackendMemory && cfg.Sessions.TTL == 0 {
		slog.Warn("sessions.ttl is not set; abandoned sessions stay in the store until the platform ends them",
			"backend", cfg.Sessions.Backend)
	}

	// Matching
	auto, confirm := cfg.Matching.AutoStartThreshold, cfg.Matching.ConfirmThreshold
	if auto < 0 || auto > 1 {
		errs = append(errs, fmt.Errorf("matching.auto_start_threshold %.2f is out of range [0, 1]", auto))
	}
	if confirm < 0 || confirm > 1 {
		errs = append(errs, fmt.Errorf("matching.confirm_threshold %.2f is out of range [0, 1]", confirm))
	}
	if confirm > auto {
		errs = append(errs, fmt.Errorf("matching.confirm_threshold %.2f must not exceed auto_start_threshold %.2f", confirm, auto))
	}

	// Dispatch
	targetNames := make(map[string]int, len(cfg.Dispatch.Targets))
	paths := make(map[string]int)
	for i, t := range cfg.Dispatch.Targets {
		prefix := fmt.Sprintf("dispatch.targets[%d]", i)
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		} else {
			if prev, ok := targetNames[t.Name]; ok {
				errs = append(errs, fmt.Errorf("%s.name %q is a duplicate of dispatch.targets[%d]", prefix, t.Name, prev))
			}
			targetNames[t.Name] = i
		}
		if t.Timeout < 0 {
			errs = append(errs, fmt.Errorf("%s.timeout %s must not be negative", prefix, t.Timeout))
		}
		switch t.Kind {
		case TargetLog:
		case TargetWebhook:
			if u, err := url.Parse(t.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				errs = append(errs, fmt.Errorf("%s.url %q must be an absolute http(s) URL", prefix, t.URL))
			}
		case TargetWebsocket:
			if !strings.HasPrefix(t.Path, "/") {
				errs = append(errs, fmt.Errorf("%s.path %q must start with /", prefix, t.Path))
			}
			if prev, ok := paths[t.Path]; ok {
				errs = append(errs, fmt.Errorf("%s.path %q is already used by dispatch.targets[%d]", prefix, t.Path, prev))
			}
			paths[t.Path] = i
		default:
			errs = append(errs, fmt.Errorf("%s.kind %q is invalid; valid values: log, webhook, websocket", prefix, t.Kind))
		}
	}
	if cfg.Dispatch.Breaker.MaxFailures < 0 {
		errs = append(errs, fmt.Errorf("dispatch.breaker.max_failures %d must not be negative", cfg.Dispatch.Breaker.MaxFailures))
	}
	if cfg.Dispatch.Breaker.ResetTimeout < 0 {
		errs = append(errs, fmt.Errorf("dispatch.breaker.reset_timeout %s must not be negative", cfg.Dispatch.Breaker.ResetTimeout))
	}

	// Telemetry
	if !strings.HasPrefix(cfg.Telemetry.MetricsPath, "/") {
		errs = append(errs, fmt.Errorf("telemetry.metrics_path %q must start with /", cfg.Telemetry.MetricsPath))
	}
	for _, p := range []string{cfg.Server.SkillPath, cfg.Telemetry.MetricsPath, "/healthz", "/readyz"} {
		if _, ok := paths[p]; ok {
			errs = append(errs, fmt.Errorf("websocket path %q collides with a built-in route", p))
		}
	}
	if cfg.Server.SkillPath == cfg.Telemetry.MetricsPath {
		errs = append(errs, fmt.Errorf("server.skill_path and telemetry.metrics_path are both %q", cfg.Server.SkillPath))
	}

	return errors.Join(errs...)
}
