package telemetry

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// Ignition is the reported engine ignition state.
type Ignition int

const (
	IgnitionUnknown Ignition = iota
	IgnitionOn
	IgnitionOff
)

func (i Ignition) String() string {
	switch i {
	case IgnitionOn:
		return "On"
	case IgnitionOff:
		return "Off"
	}
	return "Unknown"
}

// MarshalJSON renders the ignition state as its text form.
func (i Ignition) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.String())
}

// ParseIgnition maps a provider-reported ignition value onto the canonical
// enum. Recognizes ON/OFF, 1/0 and TRUE/FALSE case-insensitively; anything
// else is Unknown.
func ParseIgnition(raw string) Ignition {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ON", "1", "TRUE":
		return IgnitionOn
	case "OFF", "0", "FALSE":
		return IgnitionOff
	}
	return IgnitionUnknown
}

// VehicleSample is one observation of one vehicle at one instant.
//
// VehicleID is the raw identifier exactly as the source reported it; the
// canonical form used for cross-source correlation lives in the identity
// package and is never stored on the sample.
type VehicleSample struct {
	VehicleID string    `json:"vehicleId"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	SpeedKmh  float64   `json:"speedKmh"`
	Ignition  Ignition  `json:"ignition"`
	RawStatus string    `json:"rawStatus,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Driver    string    `json:"driver,omitempty"`
	Address   string    `json:"address,omitempty"`
}

// HasValidCoordinates reports whether both coordinates are finite numbers.
// A sample failing this must never enter a downstream component.
func (s VehicleSample) HasValidCoordinates() bool {
	return !math.IsNaN(s.Lat) && !math.IsInf(s.Lat, 0) &&
		!math.IsNaN(s.Lng) && !math.IsInf(s.Lng, 0)
}
