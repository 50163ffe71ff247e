// Package store provides the candidate records (parking segments and transit
// stops) that searches run against.
package store

import (
	"context"
	"errors"

	"github.com/parksmarter/parksmarter_core/internal/geo"
	"github.com/parksmarter/parksmarter_core/internal/models"
)

// ErrUnavailable is returned when the backing store cannot serve queries
var ErrUnavailable = errors.New("store: unavailable")

// ParkingFilter narrows a parking query.
// A nil Box means no geographic restriction. A positive Limit returns at most
// Limit segments, most free spaces first; zero means no limit and the store's
// usual order.
type ParkingFilter struct {
	Box           *geo.BoundingBox
	OnlyAvailable bool
	Limit         int
}

// CandidateStore is the queryable collection of geotagged records.
// Implementations must be safe for concurrent use and return records in a
// stable order for identical data.
type CandidateStore interface {
	// ParkingSpots returns parking segments matching the filter
	ParkingSpots(ctx context.Context, filter ParkingFilter) ([]models.ParkingSpot, error)

	// TransitStops returns transit stops inside box, or all stops when box is nil
	TransitStops(ctx context.Context, box *geo.BoundingBox) ([]models.TransitStop, error)

	// Stats returns aggregate counts for the landing page
	Stats(ctx context.Context) (*models.HomeStats, error)

	// Ping checks that the store is reachable
	Ping(ctx context.Context) error
}
