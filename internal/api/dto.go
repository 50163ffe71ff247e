package api

import (
	"fmt"
	"math"

	"github.com/parksmarter/parksmarter_core/internal/models"
)

// Estimated capacity padding added to the live availability count
const (
	recommendationCapacityPadding = 10
	topParkingCapacityPadding     = 5
)

// TransitStopResponse is a transit stop with its distance from the query point
type TransitStopResponse struct {
	ID             int64   `json:"id"`
	StopID         string  `json:"stop_id"`
	StopName       string  `json:"stop_name"`
	TransportType  string  `json:"transport_type"`
	StopLat        float64 `json:"stop_lat"`
	StopLon        float64 `json:"stop_lon"`
	DistanceMeters float64 `json:"distanceMeters"`
}

// RecommendationResponse is one ranked parking recommendation
type RecommendationResponse struct {
	ID                      string                `json:"id"`
	Name                    string                `json:"name"`
	Lat                     float64               `json:"lat"`
	Lng                     float64               `json:"lng"`
	Type                    string                `json:"type"`
	Available               bool                  `json:"available"`
	AvailableSpots          int                   `json:"availableSpots"`
	TotalSpots              int                   `json:"totalSpots"`
	Price                   string                `json:"price"`
	IsEcoFriendly           bool                  `json:"isEcoFriendly"`
	NearbyStops             []TransitStopResponse `json:"nearbyStops"`
	WalkToNearestTransit    *int64                `json:"walkToNearestTransit"` // null when no stop was in range
	DistanceFromDestination int64                 `json:"distanceFromDestination"`
	RestrictionDays         string                `json:"restrictionDays"`
	RestrictionStart        string                `json:"restrictionStart"`
	RestrictionEnd          string                `json:"restrictionEnd"`
}

// SimpleParkingResponse is a parking result without transit data
type SimpleParkingResponse struct {
	ID                      string  `json:"id"`
	Name                    string  `json:"name"`
	AvailableSpots          int     `json:"availableSpots"`
	DistanceFromDestination int64   `json:"distanceFromDestination"`
	RestrictionDays         string  `json:"restrictionDays"`
	RestrictionStart        string  `json:"restrictionStart"`
	RestrictionEnd          string  `json:"restrictionEnd"`
	Price                   string  `json:"price"`
	Latitude                float64 `json:"latitude"`
	Longitude               float64 `json:"longitude"`
}

// TopParkingResponse is one entry of the most-available list
type TopParkingResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	AvailableSpots int    `json:"availableSpots"`
	TotalSpots     int    `json:"totalSpots"`
	Price          string `json:"price"`
}

// ParkingRowResponse is a raw parking segment row. Field names follow the
// source table columns so map clients can read them unchanged.
type ParkingRowResponse struct {
	RoadSegmentDescription string  `json:"RoadSegmentDescription"`
	AvailableParks         int     `json:"available_parks"`
	Latitude               float64 `json:"Latitude"`
	Longitude              float64 `json:"Longitude"`
	RestrictionDays        string  `json:"Restriction_Days"`
	RestrictionStart       string  `json:"Restriction_Start"`
	RestrictionEnd         string  `json:"Restriction_End"`
	RestrictionDisplay     string  `json:"Restriction_Display"`
}

// roundMeters rounds half away from zero; infinite or NaN distances become nil
func roundMeters(m float64) *int64 {
	if math.IsInf(m, 0) || math.IsNaN(m) {
		return nil
	}
	v := int64(math.Round(m))
	return &v
}

func newTransitStopResponse(sd models.StopDistance) TransitStopResponse {
	return TransitStopResponse{
		ID:             sd.Stop.ID,
		StopID:         sd.Stop.StopID,
		StopName:       sd.Stop.Name,
		TransportType:  sd.Stop.TransportType,
		StopLat:        sd.Stop.Location.Lat,
		StopLon:        sd.Stop.Location.Lon,
		DistanceMeters: sd.DistanceM,
	}
}

func transitStopResponses(stops []models.StopDistance) []TransitStopResponse {
	out := make([]TransitStopResponse, 0, len(stops))
	for _, sd := range stops {
		out = append(out, newTransitStopResponse(sd))
	}
	return out
}

func recommendationResponses(results []models.ScoredParking) []RecommendationResponse {
	out := make([]RecommendationResponse, 0, len(results))
	for i, r := range results {
		var distance int64
		if d := roundMeters(r.DistanceFromDestinationM); d != nil {
			distance = *d
		}

		out = append(out, RecommendationResponse{
			ID:                      fmt.Sprintf("parking_%d", i+1),
			Name:                    r.Spot.Description,
			Lat:                     r.Spot.Location.Lat,
			Lng:                     r.Spot.Location.Lon,
			Type:                    r.Type,
			Available:               r.Spot.Available(),
			AvailableSpots:          r.Spot.AvailableSpaces,
			TotalSpots:              r.Spot.AvailableSpaces + recommendationCapacityPadding,
			Price:                   r.Spot.Price(),
			IsEcoFriendly:           r.EcoFriendly,
			NearbyStops:             transitStopResponses(r.NearbyStops),
			WalkToNearestTransit:    roundMeters(r.WalkToNearestTransitM),
			DistanceFromDestination: distance,
			RestrictionDays:         r.Spot.Restriction.Days,
			RestrictionStart:        r.Spot.Restriction.Start,
			RestrictionEnd:          r.Spot.Restriction.End,
		})
	}
	return out
}

func simpleParkingResponses(results []models.ScoredParking) []SimpleParkingResponse {
	out := make([]SimpleParkingResponse, 0, len(results))
	for i, r := range results {
		var distance int64
		if d := roundMeters(r.DistanceFromDestinationM); d != nil {
			distance = *d
		}

		out = append(out, SimpleParkingResponse{
			ID:                      fmt.Sprintf("simple_parking_%d", i+1),
			Name:                    r.Spot.Description,
			AvailableSpots:          r.Spot.AvailableSpaces,
			DistanceFromDestination: distance,
			RestrictionDays:         r.Spot.Restriction.Days,
			RestrictionStart:        r.Spot.Restriction.Start,
			RestrictionEnd:          r.Spot.Restriction.End,
			Price:                   r.Spot.Price(),
			Latitude:                r.Spot.Location.Lat,
			Longitude:               r.Spot.Location.Lon,
		})
	}
	return out
}

func topParkingResponses(results []models.ScoredParking) []TopParkingResponse {
	out := make([]TopParkingResponse, 0, len(results))
	for i, r := range results {
		out = append(out, TopParkingResponse{
			ID:             fmt.Sprintf("top_parking_%d", i+1),
			Name:           r.Spot.Description,
			AvailableSpots: r.Spot.AvailableSpaces,
			TotalSpots:     r.Spot.AvailableSpaces + topParkingCapacityPadding,
			Price:          r.Spot.Price(),
		})
	}
	return out
}

func parkingRowResponses(spots []models.ParkingSpot) []ParkingRowResponse {
	out := make([]ParkingRowResponse, 0, len(spots))
	for _, spot := range spots {
		out = append(out, ParkingRowResponse{
			RoadSegmentDescription: spot.Description,
			AvailableParks:         spot.AvailableSpaces,
			Latitude:               spot.Location.Lat,
			Longitude:              spot.Location.Lon,
			RestrictionDays:        spot.Restriction.Days,
			RestrictionStart:       spot.Restriction.Start,
			RestrictionEnd:         spot.Restriction.End,
			RestrictionDisplay:     spot.Restriction.Display,
		})
	}
	return out
}
