// Package telemetry defines the canonical vehicle observation types and the
// status classification policy shared by every consumer of the engine.
package telemetry
