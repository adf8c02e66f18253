package fleettelemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTrackQuery(t *testing.T) {
	cases := []struct {
		name   string
		params map[string]string
		errSub string
	}{
		{"valid epoch", map[string]string{"vehicleref": "UP16KT1737", "from": "1700000000", "to": "1700003600"}, ""},
		{"valid rfc3339", map[string]string{"vehicleref": "UP16KT1737", "from": "2023-11-14T00:00:00Z", "to": "2023-11-14T01:00:00Z"}, ""},
		{"missing vehicleref", map[string]string{"from": "1700000000", "to": "1700003600"}, "VehicleRef"},
		{"missing from", map[string]string{"vehicleref": "V1", "to": "1700003600"}, "from"},
		{"garbage to", map[string]string{"vehicleref": "V1", "from": "1700000000", "to": "tomorrow"}, "RFC3339 or epoch"},
		{"inverted window", map[string]string{"vehicleref": "V1", "from": "1700003600", "to": "1700000000"}, "after"},
		{"zero epoch", map[string]string{"vehicleref": "V1", "from": "0", "to": "1700000000"}, "positive"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, err := parseTrackQuery(tc.params)
			if tc.errSub == "" {
				assert.NoError(t, err)
				return
			}
			var qe *QueryError
			require.ErrorAs(t, err, &qe)
			assert.Contains(t, qe.Error(), tc.errSub)
		})
	}
}

func TestHandleTrackBadRequest(t *testing.T) {
	e, err := NewEngine(testConfig())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/fleet/track.json?from=1", nil)
	rec := httptest.NewRecorder()
	handleTrack(e)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var payload errorPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "track", payload.Call)
	assert.Contains(t, payload.Error, "VehicleRef")
}

func TestHandleTrackNoRecordsIsNotAnError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer upstream.Close()

	e, err := NewEngine(testConfig(historySource(upstream.URL)))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/fleet/track.json?vehicleRef=UP16KT1737&from=1700000000&to=1700003600", nil)
	rec := httptest.NewRecorder()
	handleTrack(e)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload trackResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.True(t, payload.NoRecords)
	assert.Zero(t, payload.PointCount)
}

func TestHandleTrackUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	e, err := NewEngine(testConfig(historySource(upstream.URL)))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/fleet/track.json?vehicleRef=UP16KT1737&from=1700000000&to=1700003600", nil)
	rec := httptest.NewRecorder()
	handleTrack(e)(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleLiveVehiclesAndHealth(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"vehicleId":"UP16KT1737","lat":26.85,"lng":80.95,"speed":10}]`))
	}))
	defer upstream.Close()

	e, err := NewEngine(testConfig(liveSource(upstream.URL)))
	require.NoError(t, err)
	e.PollAllOnce(context.Background())

	rec := httptest.NewRecorder()
	handleLiveVehicles(e)(rec, httptest.NewRequest(http.MethodGet, "/api/fleet/vehicles.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var live liveVehiclesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &live))
	assert.Equal(t, 1, live.VehicleCount)
	assert.Contains(t, live.Vehicles, "UP16KT1737")

	rec = httptest.NewRecorder()
	handleHealth(e)(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var health healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	require.Contains(t, health.Sources, "live-roster")
	assert.Equal(t, uint64(1), health.Sources["live-roster"].Polls)
}
