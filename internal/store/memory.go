package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/parksmarter/parksmarter_core/internal/geo"
	"github.com/parksmarter/parksmarter_core/internal/models"
)

// MemoryStore keeps candidates in memory.
// Used for local runs seeded from CSV files and as a test fixture.
type MemoryStore struct {
	mu      sync.RWMutex
	parking []models.ParkingSpot
	stops   []models.TransitStop
	now     func() time.Time
}

// NewMemoryStore creates a store holding copies of the given records
func NewMemoryStore(parking []models.ParkingSpot, stops []models.TransitStop) *MemoryStore {
	s := &MemoryStore{now: time.Now}
	s.Replace(parking, stops)
	return s
}

// Replace swaps the whole data set, mirroring a wholesale refresh from the source
func (s *MemoryStore) Replace(parking []models.ParkingSpot, stops []models.TransitStop) {
	p := make([]models.ParkingSpot, len(parking))
	copy(p, parking)
	st := make([]models.TransitStop, len(stops))
	copy(st, stops)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.parking = p
	s.stops = st
}

// ParkingSpots returns matching parking segments in insertion order, or most
// available first when filter.Limit is set
func (s *MemoryStore) ParkingSpots(ctx context.Context, filter ParkingFilter) ([]models.ParkingSpot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.ParkingSpot
	for _, spot := range s.parking {
		if filter.OnlyAvailable && !spot.Available() {
			continue
		}
		if filter.Box != nil && !filter.Box.Contains(spot.Location) {
			continue
		}
		result = append(result, spot)
	}

	if filter.Limit > 0 {
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].AvailableSpaces > result[j].AvailableSpaces
		})
		if len(result) > filter.Limit {
			result = result[:filter.Limit]
		}
	}
	return result, nil
}

// TransitStops returns stops inside box in insertion order
func (s *MemoryStore) TransitStops(ctx context.Context, box *geo.BoundingBox) ([]models.TransitStop, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.TransitStop
	for _, stop := range s.stops {
		if box != nil && !box.Contains(stop.Location) {
			continue
		}
		result = append(result, stop)
	}
	return result, nil
}

// Stats aggregates counts over the in-memory data
func (s *MemoryStore) Stats(ctx context.Context) (*models.HomeStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.HomeStats{
		TotalLocations:      len(s.parking),
		TotalTransportStops: len(s.stops),
		TransportTypes:      []models.TransportTypeCount{},
		LastUpdated:         s.now().UTC(),
	}

	for _, spot := range s.parking {
		if spot.Available() {
			stats.TotalAvailableSpots += spot.AvailableSpaces
			stats.LocationsWithSpots++
		}
	}

	counts := make(map[string]int)
	for _, stop := range s.stops {
		counts[stop.TransportType]++
	}
	for transportType, count := range counts {
		stats.TransportTypes = append(stats.TransportTypes, models.TransportTypeCount{
			TransportType: transportType,
			Count:         count,
		})
	}
	sort.Slice(stats.TransportTypes, func(i, j int) bool {
		return stats.TransportTypes[i].TransportType < stats.TransportTypes[j].TransportType
	})

	return stats, nil
}

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
