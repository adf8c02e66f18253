package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ConfigurationError marks configuration the engine cannot run with.
// It is fatal at startup and never recoverable at runtime.
type ConfigurationError struct{ Msg string }

func (e *ConfigurationError) Error() string { return "configuration: " + e.Msg }

// Placeholders a fallback template may use. {url} is substituted verbatim,
// {urlenc} query-escaped (for proxies that take the target as a parameter).
const (
	URLPlaceholder        = "{url}"
	EscapedURLPlaceholder = "{urlenc}"
)

// Load reads and validates the application configuration from the given
// YAML file. Defaults are applied after unmarshalling; alias lists left
// empty pick up the built-in provider key sets.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigurationError{Msg: err.Error()}
	}
	applyDefaults(&cfg)

	v := validator.New()
	if err := v.Struct(cfg.Server); err != nil {
		return cfg, &ConfigurationError{Msg: "server: " + err.Error()}
	}
	if err := v.Struct(cfg.Engine); err != nil {
		return cfg, &ConfigurationError{Msg: "engine: " + err.Error()}
	}
	for _, s := range cfg.Sources {
		if err := v.Struct(s); err != nil {
			return cfg, &ConfigurationError{Msg: "source " + s.Name + ": " + err.Error()}
		}
	}
	for _, tmpl := range cfg.Fallbacks {
		if !strings.Contains(tmpl, URLPlaceholder) && !strings.Contains(tmpl, EscapedURLPlaceholder) {
			return cfg, &ConfigurationError{Msg: fmt.Sprintf("fallback template %q has no %s or %s placeholder", tmpl, URLPlaceholder, EscapedURLPlaceholder)}
		}
	}
	if err := validateAliases(cfg.Aliases); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 16182
	}
	if cfg.Engine.SpeedLimitKmh == 0 {
		cfg.Engine.SpeedLimitKmh = 60
	}
	if cfg.Engine.MovementThresholdKmh == 0 {
		cfg.Engine.MovementThresholdKmh = 2
	}
	if cfg.Engine.IdleThresholdMinutes == 0 {
		cfg.Engine.IdleThresholdMinutes = 30
	}
	if cfg.Engine.StalenessSeconds == 0 {
		cfg.Engine.StalenessSeconds = 120
	}
	for i := range cfg.Sources {
		if cfg.Sources[i].Format == "" {
			cfg.Sources[i].Format = "json"
		}
		if cfg.Sources[i].PollIntervalSeconds == 0 {
			cfg.Sources[i].PollIntervalSeconds = 30
		}
		if cfg.Sources[i].TimeoutMS == 0 {
			cfg.Sources[i].TimeoutMS = 10000
		}
	}
	cfg.Aliases = mergeAliases(cfg.Aliases, DefaultAliases())
}

// DefaultAliases returns the built-in provider key sets, covering the field
// spellings observed across the municipal tracking providers.
func DefaultAliases() AliasSet {
	return AliasSet{
		ID:        []string{"vehicleId", "vehicle_id", "vehicleNo", "vehicle_no", "regNo", "registrationNo", "vehicleRegNo", "deviceId", "device_id", "imei", "id"},
		Lat:       []string{"lat", "latitude", "Latitude", "LAT", "gpsLat"},
		Lng:       []string{"lng", "lon", "longitude", "Longitude", "LONG", "gpsLng"},
		Speed:     []string{"speed", "speedKmh", "speed_kmph", "gpsSpeed", "velocity"},
		Ignition:  []string{"ignition", "ignitionStatus", "ignition_status", "acc", "accStatus"},
		Timestamp: []string{"timestamp", "gpsTime", "gps_time", "deviceTime", "device_time", "dateTime", "date_time", "lastUpdated", "last_updated", "recordedAt", "time"},
		Status:    []string{"status", "vehicleStatus", "vehicle_status", "state"},
		Driver:    []string{"driver", "driverName", "driver_name"},
		Address:   []string{"address", "location", "locationName", "place"},
	}
}

func mergeAliases(cfg, def AliasSet) AliasSet {
	pick := func(a, b []string) []string {
		if len(a) > 0 {
			return a
		}
		return b
	}
	return AliasSet{
		ID:        pick(cfg.ID, def.ID),
		Lat:       pick(cfg.Lat, def.Lat),
		Lng:       pick(cfg.Lng, def.Lng),
		Speed:     pick(cfg.Speed, def.Speed),
		Ignition:  pick(cfg.Ignition, def.Ignition),
		Timestamp: pick(cfg.Timestamp, def.Timestamp),
		Status:    pick(cfg.Status, def.Status),
		Driver:    pick(cfg.Driver, def.Driver),
		Address:   pick(cfg.Address, def.Address),
	}
}

func validateAliases(a AliasSet) error {
	required := map[string][]string{
		"id":        a.ID,
		"lat":       a.Lat,
		"lng":       a.Lng,
		"timestamp": a.Timestamp,
	}
	for field, keys := range required {
		if len(keys) == 0 {
			return &ConfigurationError{Msg: "aliases." + field + " must list at least one key"}
		}
		for _, k := range keys {
			if strings.TrimSpace(k) == "" {
				return &ConfigurationError{Msg: "aliases." + field + " contains an empty key"}
			}
		}
	}
	return nil
}
