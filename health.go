package fleettelemetry

import (
	"net/http"
)

type healthResponse struct {
	Status            string                 `json:"status"`
	ResponseTimestamp string                 `json:"responseTimestamp"`
	Sources           map[string]SourceStats `json:"sources"`
}

func handleHealth(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Status:            "ok",
			ResponseTimestamp: iso8601Now(),
			Sources:           e.Stats(),
		})
	}
}
