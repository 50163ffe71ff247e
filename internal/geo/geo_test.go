package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var melbourneCBD = Point{Lat: -37.8136, Lon: 144.9631}

func TestDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        Point
		b        Point
		expected float64
		delta    float64
	}{
		{
			name:     "Zero distance",
			a:        melbourneCBD,
			b:        melbourneCBD,
			expected: 0,
			delta:    0,
		},
		{
			name:     "Approximately 1km north",
			a:        Point{Lat: -37.8136, Lon: 144.9631},
			b:        Point{Lat: -37.8046, Lon: 144.9631},
			expected: 1000,
			delta:    10,
		},
		{
			name:     "Flinders Street to Southern Cross",
			a:        Point{Lat: -37.8183, Lon: 144.9671},
			b:        Point{Lat: -37.8184, Lon: 144.9525},
			expected: 1283,
			delta:    15,
		},
		{
			name:     "Melbourne to Sydney",
			a:        melbourneCBD,
			b:        Point{Lat: -33.8688, Lon: 151.2093},
			expected: 713_400,
			delta:    1_000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Distance(tt.a, tt.b), tt.delta)
		})
	}
}

func TestDistanceIsSymmetric(t *testing.T) {
	points := []Point{
		melbourneCBD,
		{Lat: -37.8183, Lon: 144.9671},
		{Lat: -37.7963, Lon: 144.9614},
		{Lat: 0, Lon: 0},
		{Lat: 51.5074, Lon: -0.1278},
	}

	for _, a := range points {
		assert.Equal(t, 0.0, Distance(a, a))
		for _, b := range points {
			assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-6)
			assert.GreaterOrEqual(t, Distance(a, b), 0.0)
		}
	}
}

func TestBoundingBoxDelta(t *testing.T) {
	t.Run("Equator has equal deltas", func(t *testing.T) {
		latDelta, lonDelta := BoundingBoxDelta(Point{Lat: 0, Lon: 0}, 1)
		assert.InDelta(t, 1.0/111, latDelta, 1e-12)
		assert.InDelta(t, 1.0/111, lonDelta, 1e-12)
	})

	t.Run("Longitude delta widens away from the equator", func(t *testing.T) {
		latDelta, lonDelta := BoundingBoxDelta(melbourneCBD, 1)
		assert.InDelta(t, 1.0/111, latDelta, 1e-12)
		expected := 1.0 / (111 * math.Cos(melbourneCBD.Lat*math.Pi/180))
		assert.InDelta(t, expected, lonDelta, 1e-12)
		assert.Greater(t, lonDelta, latDelta)
	})

	t.Run("Zero radius", func(t *testing.T) {
		latDelta, lonDelta := BoundingBoxDelta(melbourneCBD, 0)
		assert.Equal(t, 0.0, latDelta)
		assert.Equal(t, 0.0, lonDelta)
	})
}

func TestPointValidate(t *testing.T) {
	tests := []struct {
		name    string
		point   Point
		wantErr bool
	}{
		{"Melbourne", melbourneCBD, false},
		{"Null island", Point{}, false},
		{"Latitude too high", Point{Lat: 95, Lon: 144}, true},
		{"Longitude too low", Point{Lat: -37, Lon: -181}, true},
		{"NaN latitude", Point{Lat: math.NaN(), Lon: 144}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.point.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
