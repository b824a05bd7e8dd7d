package config

import (
	"maps"
	"slices"
)

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	ThresholdsChanged bool
	NewMatching       MatchingConfig

	// RestartRequired lists top-level sections that changed but only take
	// effect after a restart.
	RestartRequired []string
}

// Empty reports whether nothing changed.
func (d ConfigDiff) Empty() bool {
	return !d.LogLevelChanged && !d.ThresholdsChanged && len(d.RestartRequired) == 0
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	if old.Matching != new.Matching {
		d.ThresholdsChanged = true
		d.NewMatching = new.Matching
	}

	oldServer, newServer := old.Server, new.Server
	oldServer.LogLevel, newServer.LogLevel = "", ""
	if !serverEqual(oldServer, newServer) {
		d.RestartRequired = append(d.RestartRequired, "server")
	}
	if !catalogEqual(old.Catalog, new.Catalog) {
		d.RestartRequired = append(d.RestartRequired, "catalog")
	}
	if old.Sessions != new.Sessions {
		d.RestartRequired = append(d.RestartRequired, "sessions")
	}
	if !dispatchEqual(old.Dispatch, new.Dispatch) {
		d.RestartRequired = append(d.RestartRequired, "dispatch")
	}
	if old.Telemetry != new.Telemetry {
		d.RestartRequired = append(d.RestartRequired, "telemetry")
	}
	return d
}

func serverEqual(a, b ServerConfig) bool {
	if a.ListenAddr != b.ListenAddr || a.LogFormat != b.LogFormat || a.SkillPath != b.SkillPath {
		return false
	}
	switch {
	case a.TLS == nil && b.TLS == nil:
		return true
	case a.TLS == nil || b.TLS == nil:
		return false
	}
	return *a.TLS == *b.TLS
}

func catalogEqual(a, b CatalogConfig) bool {
	if a.Source != b.Source || a.Path != b.Path || a.LockTimeout != b.LockTimeout || a.PostgresDSN != b.PostgresDSN {
		return false
	}
	return slices.Equal(a.Presentations, b.Presentations)
}

func dispatchEqual(a, b DispatchConfig) bool {
	return a.Breaker == b.Breaker && slices.EqualFunc(a.Targets, b.Targets, targetEqual)
}

func targetEqual(a, b TargetConfig) bool {
	if a.Name != b.Name || a.Kind != b.Kind || a.URL != b.URL || a.Timeout != b.Timeout || a.Path != b.Path {
		return false
	}
	return maps.Equal(a.Headers, b.Headers) && slices.Equal(a.OriginPatterns, b.OriginPatterns)
}
