package track

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/theoremus-urban-solutions/fleet-telemetry/telemetry"
)

func sampleAt(epoch int64, lat, lng float64) telemetry.VehicleSample {
	return telemetry.VehicleSample{
		VehicleID: "UP16KT1737",
		Lat:       lat,
		Lng:       lng,
		Timestamp: time.Unix(epoch, 0),
	}
}

func TestBuildOrdersAndDedupes(t *testing.T) {
	// Out-of-order input with a duplicate timestamp: the result is ordered
	// and the later duplicate wins.
	samples := []telemetry.VehicleSample{
		sampleAt(2, 10.0, 20.0),
		sampleAt(1, 10.1, 20.1),
		func() telemetry.VehicleSample {
			s := sampleAt(2, 10.2, 20.2)
			s.Driver = "winner"
			return s
		}(),
	}
	tr := Build(samples, time.Time{}, time.Time{})

	assert.Equal(t, 2, tr.Len())
	assert.True(t, tr.Point(0).Timestamp.Equal(time.Unix(1, 0)))
	assert.True(t, tr.Point(1).Timestamp.Equal(time.Unix(2, 0)))
	assert.Equal(t, "winner", tr.Point(1).Driver)
}

func TestBuildStrictlyIncreasingTimestamps(t *testing.T) {
	samples := []telemetry.VehicleSample{
		sampleAt(5, 1, 1), sampleAt(3, 2, 2), sampleAt(5, 3, 3),
		sampleAt(4, 4, 4), sampleAt(3, 5, 5),
	}
	tr := Build(samples, time.Time{}, time.Time{})
	for i := 1; i < tr.Len(); i++ {
		assert.True(t, tr.Point(i-1).Timestamp.Before(tr.Point(i).Timestamp))
	}
}

func TestBuildWindowIsHalfOpen(t *testing.T) {
	samples := []telemetry.VehicleSample{
		sampleAt(9, 1, 1),
		sampleAt(10, 2, 2),
		sampleAt(19, 3, 3),
		sampleAt(20, 4, 4),
	}
	tr := Build(samples, time.Unix(10, 0), time.Unix(20, 0))
	assert.Equal(t, 2, tr.Len())
	assert.True(t, tr.Point(0).Timestamp.Equal(time.Unix(10, 0)), "from bound is inclusive")
	assert.True(t, tr.Point(1).Timestamp.Equal(time.Unix(19, 0)), "to bound is exclusive")
}

func TestBuildEmptyInput(t *testing.T) {
	tr := Build(nil, time.Time{}, time.Time{})
	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, 0.0, tr.DistanceKm())
	assert.Equal(t, time.Duration(0), tr.Duration())
}

func TestBuildDropsUnstampedSamples(t *testing.T) {
	s := sampleAt(0, 1, 1)
	s.Timestamp = time.Time{}
	tr := Build([]telemetry.VehicleSample{s, sampleAt(1, 2, 2)}, time.Time{}, time.Time{})
	assert.Equal(t, 1, tr.Len())
}

func TestBuildDistanceAndDuration(t *testing.T) {
	samples := []telemetry.VehicleSample{
		sampleAt(0, 26.8500, 80.9500),
		sampleAt(60, 26.8600, 80.9500),
		sampleAt(120, 26.8600, 80.9600),
	}
	tr := Build(samples, time.Time{}, time.Time{})

	expected := HaversineKm(26.85, 80.95, 26.86, 80.95) + HaversineKm(26.86, 80.95, 26.86, 80.96)
	assert.InDelta(t, expected, tr.DistanceKm(), 1e-9)
	assert.Equal(t, 2*time.Minute, tr.Duration())
	// Sanity: a 0.01 degree hop is on the order of a kilometer.
	assert.Greater(t, tr.DistanceKm(), 1.0)
	assert.Less(t, tr.DistanceKm(), 4.0)
}

// Total distance must be a pure function of the sample set, independent of
// input ordering.
func TestBuildDistanceIndependentOfInputOrder(t *testing.T) {
	base := make([]telemetry.VehicleSample, 0, 50)
	for i := 0; i < 50; i++ {
		base = append(base, sampleAt(int64(i*30), 26.85+float64(i)*0.001, 80.95+float64(i)*0.0005))
	}
	want := Build(base, time.Time{}, time.Time{}).DistanceKm()

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 10; trial++ {
		shuffled := append([]telemetry.VehicleSample(nil), base...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := Build(shuffled, time.Time{}, time.Time{}).DistanceKm()
		assert.InDelta(t, want, got, 1e-9)
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// Lucknow to Kanpur, roughly 72-80 km.
	d := HaversineKm(26.8467, 80.9462, 26.4499, 80.3319)
	assert.InDelta(t, 76, d, 5)

	assert.Equal(t, 0.0, HaversineKm(26.85, 80.95, 26.85, 80.95))
}

func TestPointsReturnsCopy(t *testing.T) {
	tr := Build([]telemetry.VehicleSample{sampleAt(1, 1, 1), sampleAt(2, 2, 2)}, time.Time{}, time.Time{})
	pts := tr.Points()
	pts[0].Lat = 99
	assert.Equal(t, 1.0, tr.Point(0).Lat, "mutating the returned slice must not touch the track")
}
