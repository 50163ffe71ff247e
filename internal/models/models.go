package models

import (
	"time"

	"github.com/parksmarter/parksmarter_core/internal/geo"
)

// Common transport categories. TransportType is an open set; feeds may add more.
const (
	TransportTrain = "train"
	TransportTram  = "tram"
	TransportBus   = "bus"
)

// Parking type labels shown in recommendations
const (
	ParkingTypeTransitHub = "Transit Hub"
	ParkingTypeStreet     = "Street Parking"
)

// Restriction describes when a parking restriction applies
type Restriction struct {
	Days    string // e.g. "Mon-Fri"
	Start   string // e.g. "07:30:00"
	End     string // e.g. "18:30:00"
	Display string // e.g. "2P Meter"
}

// ParkingSpot is a road segment with live availability
// Identity is the road-segment description
type ParkingSpot struct {
	Description     string
	Location        geo.Point
	AvailableSpaces int
	Restriction     Restriction
}

// Available reports whether at least one space is free
func (p ParkingSpot) Available() bool {
	return p.AvailableSpaces > 0
}

// Price returns the display string used as the price label
func (p ParkingSpot) Price() string {
	return p.Restriction.Display
}

// Point returns the spot location
func (p ParkingSpot) Point() geo.Point {
	return p.Location
}

// TransitStop is a public transport stop
type TransitStop struct {
	ID            int64
	StopID        string
	Name          string
	TransportType string
	Location      geo.Point
}

// Point returns the stop location
func (s TransitStop) Point() geo.Point {
	return s.Location
}

// StopDistance is a transit stop annotated with a computed distance in meters
type StopDistance struct {
	Stop      TransitStop
	DistanceM float64
}

// ScoredParking is a parking spot with per-request computed fields
type ScoredParking struct {
	Spot                     ParkingSpot
	Type                     string
	NearbyStops              []StopDistance // stops within the eco radius
	WalkToNearestTransitM    float64        // +Inf when no transit stop was considered
	DistanceFromDestinationM float64
	EcoFriendly              bool
}

// TransportTypeCount is the number of stops for one transport type
type TransportTypeCount struct {
	TransportType string `json:"transport_type"`
	Count         int    `json:"count"`
}

// HomeStats is the summary shown on the landing page
type HomeStats struct {
	TotalAvailableSpots int                  `json:"totalAvailableSpots"`
	TotalLocations      int                  `json:"totalLocations"`
	LocationsWithSpots  int                  `json:"locationsWithSpots"`
	TotalTransportStops int                  `json:"totalTransportStops"`
	TransportTypes      []TransportTypeCount `json:"transportTypes"`
	LastUpdated         time.Time            `json:"lastUpdated"`
}

// ImportLog represents a data import operation log
type ImportLog struct {
	ID          int64
	Source      string
	StartedAt   time.Time
	CompletedAt *time.Time
	Status      string
	ParkingRows int
	StopRows    int
	ErrorMsg    string
}
