package normalizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/theoremus-urban-solutions/fleet-telemetry/config"
	"github.com/theoremus-urban-solutions/fleet-telemetry/telemetry"
)

// ErrInvalidRecord marks a raw record that failed normalization. Invalid
// records are dropped from aggregates and counted, never propagated as fatal
// errors.
var ErrInvalidRecord = errors.New("invalid record")

// Normalizer converts arbitrary provider records into canonical samples.
// Field resolution is driven entirely by the configured alias-key lists; the
// normalizer itself has no provider-specific branches.
type Normalizer struct {
	aliases config.AliasSet
}

// New creates a normalizer for the given alias-key configuration.
func New(aliases config.AliasSet) *Normalizer {
	return &Normalizer{aliases: aliases}
}

// NormalizeLive converts one raw record into a sample for live display.
// A record without a resolvable timestamp is stamped with the observation
// time instead of being rejected.
func (n *Normalizer) NormalizeLive(raw map[string]any) (telemetry.VehicleSample, error) {
	return n.normalize(raw, true)
}

// NormalizeHistory converts one raw record into a sample for historical
// track building. A record without a resolvable timestamp is invalid:
// defaulting it to "now" would silently corrupt track ordering.
func (n *Normalizer) NormalizeHistory(raw map[string]any) (telemetry.VehicleSample, error) {
	return n.normalize(raw, false)
}

func (n *Normalizer) normalize(raw map[string]any, live bool) (telemetry.VehicleSample, error) {
	var s telemetry.VehicleSample

	id, ok := firstString(raw, n.aliases.ID)
	if !ok {
		return s, fmt.Errorf("%w: no vehicle id under keys %v", ErrInvalidRecord, n.aliases.ID)
	}
	lat, ok := firstFloat(raw, n.aliases.Lat)
	if !ok {
		return s, fmt.Errorf("%w: no parseable latitude", ErrInvalidRecord)
	}
	lng, ok := firstFloat(raw, n.aliases.Lng)
	if !ok {
		return s, fmt.Errorf("%w: no parseable longitude", ErrInvalidRecord)
	}

	speed, ok := firstFloat(raw, n.aliases.Speed)
	if !ok || speed < 0 {
		speed = 0
	}

	ignition := telemetry.IgnitionUnknown
	if v, ok := firstString(raw, n.aliases.Ignition); ok {
		ignition = telemetry.ParseIgnition(v)
	}

	ts, err := ResolveTimestamp(raw, n.aliases.Timestamp)
	if err != nil {
		if !live {
			return s, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		}
		ts = time.Now()
	}

	s = telemetry.VehicleSample{
		VehicleID: id,
		Lat:       lat,
		Lng:       lng,
		SpeedKmh:  speed,
		Ignition:  ignition,
		Timestamp: ts,
	}
	s.RawStatus, _ = firstString(raw, n.aliases.Status)
	s.Driver, _ = firstString(raw, n.aliases.Driver)
	s.Address, _ = firstString(raw, n.aliases.Address)
	return s, nil
}

// NormalizeBatchLive normalizes a batch in live mode. Per-record errors never
// abort the batch: N raw records with K invalid entries yield N-K samples and
// a rejection count of K.
func (n *Normalizer) NormalizeBatchLive(raws []map[string]any) ([]telemetry.VehicleSample, int) {
	return n.batch(raws, true)
}

// NormalizeBatchHistory normalizes a batch in history mode.
func (n *Normalizer) NormalizeBatchHistory(raws []map[string]any) ([]telemetry.VehicleSample, int) {
	return n.batch(raws, false)
}

func (n *Normalizer) batch(raws []map[string]any, live bool) ([]telemetry.VehicleSample, int) {
	out := make([]telemetry.VehicleSample, 0, len(raws))
	rejected := 0
	for _, raw := range raws {
		s, err := n.normalize(raw, live)
		if err != nil {
			rejected++
			continue
		}
		out = append(out, s)
	}
	return out, rejected
}

// firstValue returns the first present, non-nil value among the alias keys.
func firstValue(raw map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func firstString(raw map[string]any, keys []string) (string, bool) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		if s, ok := coerceString(v); ok {
			return s, true
		}
	}
	return "", false
}

func firstFloat(raw map[string]any, keys []string) (float64, bool) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		if f, ok := coerceFloat(v); ok {
			return f, true
		}
	}
	return 0, false
}

func coerceString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

// coerceFloat accepts numeric and numeric-string representations. Strings may
// carry thousands separators, which are stripped before parsing. Non-finite
// results are rejected so that a bad coordinate can never masquerade as (0,0).
func coerceFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, isFinite(t)
	case float32:
		return float64(t), isFinite(float64(t))
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil && isFinite(f)
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil && isFinite(f)
	}
	return 0, false
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
