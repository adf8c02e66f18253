package normalizer

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ErrNoTimestamp is returned when no candidate key yields a parseable
// timestamp.
var ErrNoTimestamp = errors.New("no parseable timestamp")

// Values above this are epoch milliseconds, below epoch seconds. 1e12 seconds
// is the year 33658, 1e12 milliseconds is 2001; no fleet data is ambiguous.
const millisThreshold = 1e12

// ResolveTimestamp tries the candidate keys in order and returns the first
// value that parses. Numeric values (and numeric strings) are epoch seconds
// or epoch milliseconds depending on magnitude; other strings go through a
// generic date parse. A value with invalid syntax advances to the next key.
func ResolveTimestamp(raw map[string]any, candidateKeys []string) (time.Time, error) {
	for _, k := range candidateKeys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		if ts, ok := parseTimestampValue(v); ok {
			return ts, nil
		}
	}
	return time.Time{}, ErrNoTimestamp
}

func parseTimestampValue(v any) (time.Time, bool) {
	switch t := v.(type) {
	case float64:
		return fromEpoch(t)
	case int:
		return fromEpoch(float64(t))
	case int64:
		return fromEpoch(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromEpoch(f)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
			return fromEpoch(f)
		}
		ts, err := dateparse.ParseAny(s)
		if err != nil {
			return time.Time{}, false
		}
		return ts, true
	}
	return time.Time{}, false
}

func fromEpoch(v float64) (time.Time, bool) {
	if v <= 0 {
		return time.Time{}, false
	}
	if v > millisThreshold {
		return time.UnixMilli(int64(v)), true
	}
	return time.Unix(int64(v), 0), true
}
