package fleettelemetry

import (
	"encoding/json"
	"net/http"
	"strings"
)

type errorPayload struct {
	Call  string `json:"call"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func queryParams(r *http.Request) map[string]string {
	params := map[string]string{}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			params[strings.ToLower(k)] = v[0]
		}
	}
	return params
}

type liveVehiclesResponse struct {
	ResponseTimestamp string                 `json:"responseTimestamp"`
	VehicleCount      int                    `json:"vehicleCount"`
	Vehicles          map[string]LiveVehicle `json:"vehicles"`
}

func handleLiveVehicles(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		live := e.GetLiveVehicles()
		vehicles := make(map[string]LiveVehicle, len(live))
		for key, v := range live {
			vehicles[string(key)] = v
		}
		writeJSON(w, http.StatusOK, liveVehiclesResponse{
			ResponseTimestamp: iso8601Now(),
			VehicleCount:      len(vehicles),
			Vehicles:          vehicles,
		})
	}
}

type trackResponse struct {
	ResponseTimestamp string  `json:"responseTimestamp"`
	VehicleRef        string  `json:"vehicleRef"`
	NoRecords         bool    `json:"noRecords"`
	PointCount        int     `json:"pointCount"`
	DistanceKm        float64 `json:"distanceKm"`
	DurationSeconds   float64 `json:"durationSeconds"`
	Points            any     `json:"points"`
}

func handleTrack(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := queryParams(r)
		vehicleRef, from, to, err := parseTrackQuery(params)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorPayload{Call: "track", Error: err.Error()})
			return
		}
		tr, err := e.GetTrack(r.Context(), vehicleRef, from, to)
		if err != nil {
			// Upstream exhausted: distinct from an empty window, which is a
			// 200 with noRecords set.
			writeJSON(w, http.StatusBadGateway, errorPayload{Call: "track", Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, trackResponse{
			ResponseTimestamp: iso8601Now(),
			VehicleRef:        vehicleRef,
			NoRecords:         tr.Len() == 0,
			PointCount:        tr.Len(),
			DistanceKm:        tr.DistanceKm(),
			DurationSeconds:   tr.Duration().Seconds(),
			Points:            tr.Points(),
		})
	}
}
