// Package geotest builds fixture coordinates for tests.
package geotest

import (
	"math"

	"github.com/parksmarter/parksmarter_core/internal/geo"
)

// Destination returns the point reached by travelling meters from p along the
// initial bearing (degrees clockwise from north) on the sphere
func Destination(p geo.Point, bearingDeg, meters float64) geo.Point {
	lat1 := p.Lat * math.Pi / 180
	lon1 := p.Lon * math.Pi / 180
	brng := bearingDeg * math.Pi / 180
	d := meters / geo.EarthRadiusMeters

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(brng))
	lon2 := lon1 + math.Atan2(
		math.Sin(brng)*math.Sin(d)*math.Cos(lat1),
		math.Cos(d)-math.Sin(lat1)*math.Sin(lat2),
	)

	return geo.Point{
		Lat: lat2 * 180 / math.Pi,
		Lon: lon2 * 180 / math.Pi,
	}
}
