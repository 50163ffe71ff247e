package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the spherical Earth radius used by Distance
const EarthRadiusMeters = 6371000

// KmPerDegreeLat is the rough conversion used for bounding boxes: 1 degree latitude ≈ 111km
const KmPerDegreeLat = 111.0

// Point is a WGS84 coordinate in degrees
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewPoint builds a Point from latitude and longitude
func NewPoint(lat, lon float64) Point {
	return Point{Lat: lat, Lon: lon}
}

// Validate checks latitude and longitude ranges
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	if math.IsNaN(p.Lon) || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	return nil
}

func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon)
}

// Distance returns the great-circle distance between two points in meters (haversine)
func Distance(a, b Point) float64 {
	lat1Rad := a.Lat * math.Pi / 180
	lat2Rad := b.Lat * math.Pi / 180
	deltaLat := (b.Lat - a.Lat) * math.Pi / 180
	deltaLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// BoundingBoxDelta converts a radius in km to approximate latitude/longitude deltas in degrees.
// The longitude delta is widened by 1/cos(lat) for meridian convergence; it grows without
// bound near the poles, which only over-includes candidates.
func BoundingBoxDelta(center Point, radiusKm float64) (latDelta, lonDelta float64) {
	latDelta = radiusKm / KmPerDegreeLat
	lonDelta = radiusKm / (KmPerDegreeLat * math.Cos(center.Lat*math.Pi/180))
	return math.Abs(latDelta), math.Abs(lonDelta)
}

// BoundingBox is a rectangular lat/lon range, always a superset of the search circle
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// NewBoundingBox returns the box center ± BoundingBoxDelta(center, radiusKm)
func NewBoundingBox(center Point, radiusKm float64) BoundingBox {
	latDelta, lonDelta := BoundingBoxDelta(center, radiusKm)
	return BoundingBox{
		MinLat: center.Lat - latDelta,
		MaxLat: center.Lat + latDelta,
		MinLon: center.Lon - lonDelta,
		MaxLon: center.Lon + lonDelta,
	}
}

// Contains reports whether p lies inside the box (edges inclusive)
func (b BoundingBox) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}
