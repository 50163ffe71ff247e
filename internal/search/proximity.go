package search

import (
	"context"

	"github.com/parksmarter/parksmarter_core/internal/geo"
)

// Locatable is any record with a position
type Locatable interface {
	Point() geo.Point
}

// Candidate pairs a record with its exact distance from the query center
type Candidate[T Locatable] struct {
	Item      T
	DistanceM float64
}

// FetchFunc returns every record inside the bounding box (a superset is fine)
type FetchFunc[T Locatable] func(ctx context.Context, box geo.BoundingBox) ([]T, error)

// FindWithinRadius runs the two-phase proximity filter: the source is queried with
// the bounding box around center, then every returned record is measured with the
// haversine distance and dropped if it lies outside radiusKm.
// Survivors are returned in source order.
func FindWithinRadius[T Locatable](ctx context.Context, center geo.Point, radiusKm float64, fetch FetchFunc[T]) ([]Candidate[T], error) {
	box := geo.NewBoundingBox(center, radiusKm)

	items, err := fetch(ctx, box)
	if err != nil {
		return nil, err
	}

	return WithinRadius(center, radiusKm, items), nil
}

// WithinRadius measures items from center and keeps those within radiusKm
func WithinRadius[T Locatable](center geo.Point, radiusKm float64, items []T) []Candidate[T] {
	limitM := radiusKm * 1000
	candidates := make([]Candidate[T], 0, len(items))

	for _, item := range items {
		d := geo.Distance(center, item.Point())
		if d > limitM {
			continue
		}
		candidates = append(candidates, Candidate[T]{Item: item, DistanceM: d})
	}

	return candidates
}
