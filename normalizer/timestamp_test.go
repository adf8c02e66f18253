package normalizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var candidateKeys = []string{"timestamp", "gpsTime", "deviceTime"}

func TestResolveTimestampSecondsAndMillisAgree(t *testing.T) {
	seconds, err := ResolveTimestamp(map[string]any{"timestamp": int64(1700000000)}, candidateKeys)
	require.NoError(t, err)

	millis, err := ResolveTimestamp(map[string]any{"timestamp": int64(1700000000000)}, candidateKeys)
	require.NoError(t, err)

	assert.True(t, seconds.Equal(millis), "epoch seconds and milliseconds must resolve to the same instant")
	assert.True(t, seconds.Equal(time.Unix(1700000000, 0)))
}

func TestResolveTimestampNumericString(t *testing.T) {
	ts, err := ResolveTimestamp(map[string]any{"timestamp": "1700000000"}, candidateKeys)
	require.NoError(t, err)
	assert.True(t, ts.Equal(time.Unix(1700000000, 0)))

	ts, err = ResolveTimestamp(map[string]any{"timestamp": "1700000000000"}, candidateKeys)
	require.NoError(t, err)
	assert.True(t, ts.Equal(time.Unix(1700000000, 0)))
}

func TestResolveTimestampFreeTextDate(t *testing.T) {
	ts, err := ResolveTimestamp(map[string]any{"gpsTime": "2023-11-14T22:13:20Z"}, candidateKeys)
	require.NoError(t, err)
	assert.True(t, ts.Equal(time.Unix(1700000000, 0)))

	ts, err = ResolveTimestamp(map[string]any{"gpsTime": "Tue, 14 Nov 2023 22:13:20 UTC"}, candidateKeys)
	require.NoError(t, err)
	assert.True(t, ts.Equal(time.Unix(1700000000, 0)))
}

func TestResolveTimestampKeyOrder(t *testing.T) {
	// First candidate key wins even when later keys are also present.
	raw := map[string]any{
		"timestamp": int64(1700000000),
		"gpsTime":   int64(1600000000),
	}
	ts, err := ResolveTimestamp(raw, candidateKeys)
	require.NoError(t, err)
	assert.True(t, ts.Equal(time.Unix(1700000000, 0)))
}

func TestResolveTimestampInvalidValueAdvancesToNextKey(t *testing.T) {
	raw := map[string]any{
		"timestamp": "not a date",
		"gpsTime":   int64(1700000000),
	}
	ts, err := ResolveTimestamp(raw, candidateKeys)
	require.NoError(t, err)
	assert.True(t, ts.Equal(time.Unix(1700000000, 0)))
}

func TestResolveTimestampNoCandidate(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
	}{
		{"no keys present", map[string]any{"other": 1}},
		{"all values invalid", map[string]any{"timestamp": "garbage", "gpsTime": "", "deviceTime": nil}},
		{"zero epoch rejected", map[string]any{"timestamp": 0}},
		{"negative epoch rejected", map[string]any{"timestamp": -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveTimestamp(tt.raw, candidateKeys)
			assert.ErrorIs(t, err, ErrNoTimestamp)
		})
	}
}
