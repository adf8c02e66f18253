package track

import (
	"math"
	"sort"
	"time"

	"github.com/theoremus-urban-solutions/fleet-telemetry/telemetry"
)

// Track is an ordered, deduplicated sequence of samples for one vehicle,
// bounded by a [from, to) window. Timestamps are strictly increasing.
// A Track is immutable once built; a new window means a new Track.
type Track struct {
	points     []telemetry.VehicleSample
	distanceKm float64
	from, to   time.Time
}

// Build assembles a track from raw samples. Samples outside the window,
// without valid coordinates, or without a timestamp are dropped. When two
// samples share a timestamp the one later in the input wins. An empty input
// yields an empty track, not an error.
//
// Zero from/to bounds are open: a zero from keeps everything up to to, and
// vice versa.
func Build(samples []telemetry.VehicleSample, from, to time.Time) Track {
	pts := make([]telemetry.VehicleSample, 0, len(samples))
	for _, s := range samples {
		if s.Timestamp.IsZero() || !s.HasValidCoordinates() {
			continue
		}
		if !from.IsZero() && s.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && !s.Timestamp.Before(to) {
			continue
		}
		pts = append(pts, s)
	}

	// Stable sort keeps input order among equal timestamps, so keeping the
	// last of each equal-timestamp run implements later-duplicate-wins.
	sort.SliceStable(pts, func(i, j int) bool {
		return pts[i].Timestamp.Before(pts[j].Timestamp)
	})
	deduped := make([]telemetry.VehicleSample, 0, len(pts))
	for i, p := range pts {
		if i+1 < len(pts) && pts[i+1].Timestamp.Equal(p.Timestamp) {
			continue
		}
		deduped = append(deduped, p)
	}

	var distKm float64
	for i := 1; i < len(deduped); i++ {
		distKm += HaversineKm(deduped[i-1].Lat, deduped[i-1].Lng, deduped[i].Lat, deduped[i].Lng)
	}

	return Track{points: deduped, distanceKm: distKm, from: from, to: to}
}

// Len returns the number of points in the track.
func (t Track) Len() int { return len(t.points) }

// Point returns the sample at index i, for playback stepping.
func (t Track) Point(i int) telemetry.VehicleSample { return t.points[i] }

// Points returns a copy of the ordered samples.
func (t Track) Points() []telemetry.VehicleSample {
	out := make([]telemetry.VehicleSample, len(t.points))
	copy(out, t.points)
	return out
}

// DistanceKm returns the cumulative great-circle distance over the track.
func (t Track) DistanceKm() float64 { return t.distanceKm }

// Duration returns the time between the first and last sample.
func (t Track) Duration() time.Duration {
	if len(t.points) < 2 {
		return 0
	}
	return t.points[len(t.points)-1].Timestamp.Sub(t.points[0].Timestamp)
}

// Window returns the [from, to) bounds the track was built for.
func (t Track) Window() (from, to time.Time) { return t.from, t.to }

// HaversineKm computes the great-circle distance between two coordinates in
// kilometers.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	la1 := lat1 * math.Pi / 180
	la2 := lat2 * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(la1)*math.Cos(la2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}
