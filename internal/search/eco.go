package search

import (
	"math"

	"github.com/parksmarter/parksmarter_core/internal/geo"
	"github.com/parksmarter/parksmarter_core/internal/models"
)

// EcoRadiusM is the walking distance to transit under which a spot is eco-friendly
const EcoRadiusM = 250.0

// Classification is the eco assessment of one parking spot
type Classification struct {
	NearbyStops           []models.StopDistance // stops within EcoRadiusM, input order
	WalkToNearestTransitM float64               // minimum over all stops, +Inf if none
	EcoFriendly           bool
}

// Classify measures spot against every transit stop. The nearest walk is taken over
// all stops, not just those inside the eco radius, so a spot 400m from a stop reports
// 400 rather than infinity.
func Classify(spot models.ParkingSpot, transit []models.TransitStop) Classification {
	c := Classification{
		NearbyStops:           []models.StopDistance{},
		WalkToNearestTransitM: math.Inf(1),
	}

	for _, stop := range transit {
		d := geo.Distance(spot.Location, stop.Location)
		if d <= EcoRadiusM {
			c.NearbyStops = append(c.NearbyStops, models.StopDistance{Stop: stop, DistanceM: d})
		}
		if d < c.WalkToNearestTransitM {
			c.WalkToNearestTransitM = d
		}
	}

	c.EcoFriendly = c.WalkToNearestTransitM <= EcoRadiusM
	return c
}

// parkingType labels a spot by whether any stop is within the eco radius
func parkingType(c Classification) string {
	if len(c.NearbyStops) > 0 {
		return models.ParkingTypeTransitHub
	}
	return models.ParkingTypeStreet
}
