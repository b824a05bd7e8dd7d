package config

import "time"

// Default values applied by [ApplyDefaults].
const (
	DefaultListenAddr     = ":8080"
	DefaultSkillPath      = "/skill"
	DefaultWebsocketPath  = "/presenters/ws"
	DefaultMetricsPath    = "/metrics"
	DefaultServiceName    = "presenter"
	DefaultSQLitePath     = "sessions.db"
	DefaultSweepInterval  = time.Minute
	DefaultAutoStart      = 0.85
	DefaultConfirm        = 0.50
	defaultDemoTargetName = "log"
)

// Default returns the configuration used when no config file exists: the
// built-in demo catalog, in-memory sessions, and a log dispatcher.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every unset field of cfg with its default.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Server.LogFormat == "" {
		cfg.Server.LogFormat = LogFormatText
	}
	if cfg.Server.SkillPath == "" {
		cfg.Server.SkillPath = DefaultSkillPath
	}

	if cfg.Catalog.Source == "" {
		cfg.Catalog.Source = SourceStatic
	}

	if cfg.Sessions.Backend == "" {
		cfg.Sessions.Backend = BackendMemory
	}
	if cfg.Sessions.Backend == BackendSQLite && cfg.Sessions.SQLitePath == "" {
		cfg.Sessions.SQLitePath = DefaultSQLitePath
	}
	if cfg.Sessions.SweepInterval == 0 {
		cfg.Sessions.SweepInterval = DefaultSweepInterval
	}

	if cfg.Matching.AutoStartThreshold == 0 {
		cfg.Matching.AutoStartThreshold = DefaultAutoStart
	}
	if cfg.Matching.ConfirmThreshold == 0 {
		cfg.Matching.ConfirmThreshold = DefaultConfirm
	}

	if len(cfg.Dispatch.Targets) == 0 {
		cfg.Dispatch.Targets = []TargetConfig{{Name: defaultDemoTargetName, Kind: TargetLog}}
	}
	for i := range cfg.Dispatch.Targets {
		t := &cfg.Dispatch.Targets[i]
		if t.Kind == TargetWebsocket && t.Path == "" {
			t.Path = DefaultWebsocketPath
		}
	}

	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = DefaultServiceName
	}
	if cfg.Telemetry.MetricsPath == "" {
		cfg.Telemetry.MetricsPath = DefaultMetricsPath
	}
}
