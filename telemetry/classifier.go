package telemetry

import (
	"encoding/json"
	"time"
)

// VehicleStatus is the canonical operational state of a vehicle, derived from
// a sample. It is never stored independently of the sample it came from.
type VehicleStatus int

const (
	StatusNoData VehicleStatus = iota
	StatusRunning
	StatusIdle
	StatusStopped
	StatusOverspeeding
)

func (s VehicleStatus) String() string {
	switch s {
	case StatusRunning:
		return "Running"
	case StatusIdle:
		return "Idle"
	case StatusStopped:
		return "Stopped"
	case StatusOverspeeding:
		return "Overspeeding"
	}
	return "NoData"
}

// MarshalJSON renders the status as its text form.
func (s VehicleStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Classification defaults. Call sites should pass thresholds from
// configuration; these only back ClassifyParams zero values.
const (
	DefaultSpeedLimitKmh        = 60.0
	DefaultMovementThresholdKmh = 2.0
	DefaultIdleThreshold        = 30 * time.Minute
	DefaultStalenessWindow      = 2 * time.Minute
)

// ClassifyParams parameterizes Classify per call. Speed limits vary per
// vehicle, so the limit is an argument rather than package state.
type ClassifyParams struct {
	SpeedLimitKmh        float64
	MovementThresholdKmh float64
	IdleThreshold        time.Duration
	StalenessWindow      time.Duration
}

func (p ClassifyParams) withDefaults() ClassifyParams {
	if p.SpeedLimitKmh <= 0 {
		p.SpeedLimitKmh = DefaultSpeedLimitKmh
	}
	if p.MovementThresholdKmh <= 0 {
		p.MovementThresholdKmh = DefaultMovementThresholdKmh
	}
	if p.IdleThreshold <= 0 {
		p.IdleThreshold = DefaultIdleThreshold
	}
	if p.StalenessWindow <= 0 {
		p.StalenessWindow = DefaultStalenessWindow
	}
	return p
}

// Classify derives the canonical status for a sample. It is the single
// authoritative policy: every view consumes this function, with the same
// priority cascade, first match wins.
//
//  1. sample older than the staleness window -> NoData
//  2. speed above the limit -> Overspeeding
//  3. speed above the movement threshold -> Running
//  4. standing with ignition on past the idle threshold -> Idle
//  5. standing with ignition off -> Stopped
//  6. anything else -> Idle
//
// sampleAge is how long ago the sample was received; idleFor is how long the
// vehicle has been standing still (zero if it is moving or just stopped).
func Classify(s VehicleSample, sampleAge, idleFor time.Duration, p ClassifyParams) VehicleStatus {
	p = p.withDefaults()
	if sampleAge > p.StalenessWindow {
		return StatusNoData
	}
	if s.SpeedKmh > p.SpeedLimitKmh {
		return StatusOverspeeding
	}
	if s.SpeedKmh > p.MovementThresholdKmh {
		return StatusRunning
	}
	if s.SpeedKmh == 0 && s.Ignition == IgnitionOn && idleFor >= p.IdleThreshold {
		return StatusIdle
	}
	if s.SpeedKmh == 0 && s.Ignition == IgnitionOff {
		return StatusStopped
	}
	return StatusIdle
}
