package fleettelemetry

import (
	"strconv"
	"strings"
	"time"
)

// QueryError is a client-side parameter problem, reported as HTTP 400.
type QueryError struct{ Msg string }

func (e *QueryError) Error() string { return e.Msg }

// parseTimeParam accepts RFC3339 or epoch seconds.
func parseTimeParam(name, value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, &QueryError{Msg: "You must provide " + name + "."}
	}
	if epoch, err := strconv.ParseInt(v, 10, 64); err == nil {
		if epoch <= 0 {
			return time.Time{}, &QueryError{Msg: name + " must be a positive epoch timestamp."}
		}
		return time.Unix(epoch, 0), nil
	}
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, &QueryError{Msg: name + " must be RFC3339 or epoch seconds."}
	}
	return ts, nil
}

// parseTrackQuery validates the track handler's parameters.
func parseTrackQuery(params map[string]string) (vehicleRef string, from, to time.Time, err error) {
	vehicleRef = strings.TrimSpace(params["vehicleref"])
	if vehicleRef == "" {
		return "", time.Time{}, time.Time{}, &QueryError{Msg: "You must provide a VehicleRef."}
	}
	from, err = parseTimeParam("from", params["from"])
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	to, err = parseTimeParam("to", params["to"])
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	if !to.After(from) {
		return "", time.Time{}, time.Time{}, &QueryError{Msg: "to must be after from."}
	}
	return vehicleRef, from, to, nil
}
