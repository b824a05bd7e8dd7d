// Package config provides the configuration schema, loader, registry, and
// hot-reload watcher for the presenter server.
package config

import "time"

// LogLevel controls log verbosity for the presenter server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// IsValid reports whether f is a recognised log format.
func (f LogFormat) IsValid() bool {
	return f == LogFormatText || f == LogFormatJSON
}

// Catalog source kinds.
const (
	SourceStatic   = "static"
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Session backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Dispatch target kinds.
const (
	TargetLog       = "log"
	TargetWebhook   = "webhook"
	TargetWebsocket = "websocket"
)

// Config is the root configuration structure.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Matching  MatchingConfig  `yaml:"matching"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. Hot-reloadable.
	LogLevel LogLevel `yaml:"log_level"`

	// LogFormat selects text or JSON log lines.
	LogFormat LogFormat `yaml:"log_format"`

	// SkillPath is the URL path the voice platform posts turns to.
	SkillPath string `yaml:"skill_path"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// CatalogConfig selects where the presentation catalog is loaded from at the
// start of every session.
type CatalogConfig struct {
	// Source is one of static, file, or postgres. Default: static.
	Source string `yaml:"source"`

	// Presentations is the catalog served by the static source. When empty,
	// the built-in demo catalog is used.
	Presentations []PresentationConfig `yaml:"presentations"`

	// Path is the catalog file read by the file source.
	Path string `yaml:"path"`

	// LockTimeout bounds the wait for the catalog file's shared lock.
	LockTimeout time.Duration `yaml:"lock_timeout"`

	// PostgresDSN is the connection string of the postgres source.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// PresentationConfig is one inline catalog entry.
type PresentationConfig struct {
	Name          string `yaml:"name"`
	Filename      string `yaml:"filename"`
	Pronunciation string `yaml:"pronunciation"`
}

// SessionsConfig selects where per-session dialogue state is kept.
type SessionsConfig struct {
	// Backend is one of memory, postgres, or sqlite. Default: memory.
	Backend string `yaml:"backend"`

	// PostgresDSN is the connection string of the postgres backend.
	PostgresDSN string `yaml:"postgres_dsn"`

	// SQLitePath is the database file of the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`

	// TTL discards sessions not touched for this long. Zero keeps them until
	// the platform ends the session.
	TTL time.Duration `yaml:"ttl"`

	// SweepInterval is how often expired sessions are purged. Default: 1m.
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// MatchingConfig holds the confidence thresholds of the selection dialogue.
// Zero values fall back to the defaults (0.85 and 0.50). Hot-reloadable.
type MatchingConfig struct {
	AutoStartThreshold float64 `yaml:"auto_start_threshold"`
	ConfirmThreshold   float64 `yaml:"confirm_threshold"`
}

// DispatchConfig lists the targets a start request is delivered to, in
// failover order.
type DispatchConfig struct {
	Targets []TargetConfig `yaml:"targets"`
	Breaker BreakerConfig  `yaml:"breaker"`
}

// TargetConfig describes one dispatch target.
type TargetConfig struct {
	// Name identifies the target in logs and metrics. Must be unique.
	Name string `yaml:"name"`

	// Kind is one of log, webhook, or websocket.
	Kind string `yaml:"kind"`

	// URL is the webhook endpoint.
	URL string `yaml:"url"`

	// Timeout bounds one delivery attempt.
	Timeout time.Duration `yaml:"timeout"`

	// Headers are added to every webhook request.
	Headers map[string]string `yaml:"headers"`

	// Path is the URL path presenters connect to for websocket targets.
	// Default: /presenters/ws.
	Path string `yaml:"path"`

	// OriginPatterns allows cross-origin websocket handshakes.
	OriginPatterns []string `yaml:"origin_patterns"`
}

// BreakerConfig tunes the per-target circuit breaker.
type BreakerConfig struct {
	MaxFailures  int           `yaml:"max_failures"`
	ResetTimeout time.Duration `yaml:"reset_timeout"`
}

// TelemetryConfig configures metrics exposure.
type TelemetryConfig struct {
	// ServiceName is reported as the OpenTelemetry service.name.
	ServiceName string `yaml:"service_name"`

	// MetricsPath is where the Prometheus scrape endpoint is served.
	MetricsPath string `yaml:"metrics_path"`
}
