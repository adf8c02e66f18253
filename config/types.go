package config

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// ServerConfig contains the HTTP query-surface configuration
type ServerConfig struct {
	Port int `yaml:"port" validate:"gt=0"`
}

// LogConfig contains logging configuration. When FilePath is set, log output
// is additionally written to a rotating file.
type LogConfig struct {
	Level      string `yaml:"level"`
	FilePath   string `yaml:"filePath"`
	MaxAgeDays int    `yaml:"maxAgeDays" validate:"gte=0"`
}

// GetLogLevel maps the configured level string onto a logrus level.
// Unknown values fall back to Info.
func (l LogConfig) GetLogLevel() log.Level {
	switch l.Level {
	case "DEBUG", "debug":
		return log.DebugLevel
	case "INFO", "info":
		return log.InfoLevel
	case "WARN", "warn":
		return log.WarnLevel
	case "ERROR", "error":
		return log.ErrorLevel
	}
	return log.InfoLevel
}

// EngineConfig contains the classification and staleness thresholds.
// The overspeed and idle defaults are a product decision, not a technical
// one; they are configuration precisely so that deployments can change them
// without a release.
type EngineConfig struct {
	SpeedLimitKmh        float64 `yaml:"speedLimitKmh" validate:"gte=0"`
	MovementThresholdKmh float64 `yaml:"movementThresholdKmh" validate:"gte=0"`
	IdleThresholdMinutes int     `yaml:"idleThresholdMinutes" validate:"gte=0"`
	StalenessSeconds     int     `yaml:"stalenessSeconds" validate:"gte=0"`
}

// IdleThreshold returns the idle threshold as a duration.
func (e EngineConfig) IdleThreshold() time.Duration {
	return time.Duration(e.IdleThresholdMinutes) * time.Minute
}

// StalenessWindow returns the staleness window as a duration.
func (e EngineConfig) StalenessWindow() time.Duration {
	return time.Duration(e.StalenessSeconds) * time.Second
}

// SourceConfig describes one upstream feed endpoint.
//
// Kind selects how the engine treats the source: "live" and "summary" sources
// are polled on PollIntervalSeconds and feed the live roster; the "history"
// source is fetched on demand for track queries. A history URL may carry
// {vehicle}, {from} and {to} placeholders which are substituted per query
// ({from}/{to} as epoch seconds).
type SourceConfig struct {
	Name                string  `yaml:"name" validate:"required"`
	URL                 string  `yaml:"url" validate:"required,url"`
	Kind                string  `yaml:"kind" validate:"required,oneof=live history summary"`
	Format              string  `yaml:"format" validate:"omitempty,oneof=json xml"`
	PollIntervalSeconds int     `yaml:"pollIntervalSeconds" validate:"gte=0"`
	TimeoutMS           int     `yaml:"timeoutMS" validate:"gte=0"`
	SpeedLimitKmh       float64 `yaml:"speedLimitKmh" validate:"gte=0"` // per-source override; 0 means engine default
}

// PollInterval returns the poll interval as a duration.
func (s SourceConfig) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalSeconds) * time.Second
}

// Timeout returns the per-fetch timeout as a duration.
func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMS) * time.Millisecond
}

// AliasSet lists, per semantic field, the provider key names the normalizer
// tries in priority order. The lists are configuration data: supporting a new
// provider schema means extending them, never touching normalizer code.
type AliasSet struct {
	ID        []string `yaml:"id"`
	Lat       []string `yaml:"lat"`
	Lng       []string `yaml:"lng"`
	Speed     []string `yaml:"speed"`
	Ignition  []string `yaml:"ignition"`
	Timestamp []string `yaml:"timestamp"`
	Status    []string `yaml:"status"`
	Driver    []string `yaml:"driver"`
	Address   []string `yaml:"address"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server    ServerConfig   `yaml:"server"`
	Log       LogConfig      `yaml:"log"`
	Engine    EngineConfig   `yaml:"engine"`
	Aliases   AliasSet       `yaml:"aliases"`
	Fallbacks []string       `yaml:"fallbacks"`
	Sources   []SourceConfig `yaml:"sources"`
}

// HistorySource returns the configured history source, if any.
func (c AppConfig) HistorySource() (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.Kind == "history" {
			return s, true
		}
	}
	return SourceConfig{}, false
}
