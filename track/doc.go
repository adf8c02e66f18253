// Package track reconstructs playable historical tracks from unordered,
// possibly duplicated telemetry samples. Playback timing is the consumer's
// concern; the builder only guarantees a correctly ordered array.
package track
