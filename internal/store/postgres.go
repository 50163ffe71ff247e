package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parksmarter/parksmarter_core/internal/geo"
	"github.com/parksmarter/parksmarter_core/internal/models"
)

const defaultQueryTimeout = 5 * time.Second

// PostgresStore reads candidates from the parking_segment and transit_stop tables
type PostgresStore struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

// NewPostgresStore creates a CandidateStore backed by the given pool.
// A zero queryTimeout falls back to 5s.
func NewPostgresStore(pool *pgxpool.Pool, queryTimeout time.Duration) *PostgresStore {
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	return &PostgresStore{pool: pool, queryTimeout: queryTimeout}
}

// ParkingSpots runs the rectangular-range query for parking segments
func (s *PostgresStore) ParkingSpots(ctx context.Context, filter ParkingFilter) ([]models.ParkingSpot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	query, args := buildParkingQuery(filter)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: ParkingSpots: %w", err)
	}
	defer rows.Close()

	var spots []models.ParkingSpot
	for rows.Next() {
		var spot models.ParkingSpot
		if err := rows.Scan(
			&spot.Description,
			&spot.AvailableSpaces,
			&spot.Location.Lat,
			&spot.Location.Lon,
			&spot.Restriction.Days,
			&spot.Restriction.Start,
			&spot.Restriction.End,
			&spot.Restriction.Display,
		); err != nil {
			return nil, fmt.Errorf("store: ParkingSpots: scan: %w", err)
		}
		spots = append(spots, spot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ParkingSpots: %w", err)
	}

	return spots, nil
}

// buildParkingQuery assembles the parking query with optional filters
func buildParkingQuery(filter ParkingFilter) (string, []interface{}) {
	query := `
		SELECT
			description,
			available_parks,
			lat,
			lon,
			COALESCE(restriction_days, ''),
			COALESCE(restriction_start, ''),
			COALESCE(restriction_end, ''),
			COALESCE(restriction_display, '')
		FROM parking_segment
		WHERE 1=1
	`

	args := []interface{}{}
	argCount := 0

	if filter.Box != nil {
		query += fmt.Sprintf(" AND lat BETWEEN $%d AND $%d AND lon BETWEEN $%d AND $%d",
			argCount+1, argCount+2, argCount+3, argCount+4)
		args = append(args, filter.Box.MinLat, filter.Box.MaxLat, filter.Box.MinLon, filter.Box.MaxLon)
		argCount += 4
	}

	if filter.OnlyAvailable {
		query += " AND available_parks > 0"
	}

	if filter.Limit > 0 {
		query += fmt.Sprintf(" ORDER BY available_parks DESC, description LIMIT $%d", argCount+1)
		args = append(args, filter.Limit)
	} else {
		query += " ORDER BY description"
	}

	return query, args
}

// TransitStops runs the rectangular-range query for transit stops
func (s *PostgresStore) TransitStops(ctx context.Context, box *geo.BoundingBox) ([]models.TransitStop, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	query := `
		SELECT id, stop_id, stop_name, transport_type, lat, lon
		FROM transit_stop
	`
	var args []interface{}
	if box != nil {
		query += " WHERE lat BETWEEN $1 AND $2 AND lon BETWEEN $3 AND $4"
		args = append(args, box.MinLat, box.MaxLat, box.MinLon, box.MaxLon)
	}
	query += " ORDER BY stop_id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: TransitStops: %w", err)
	}

	stops, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.TransitStop, error) {
		var stop models.TransitStop
		err := row.Scan(&stop.ID, &stop.StopID, &stop.Name, &stop.TransportType,
			&stop.Location.Lat, &stop.Location.Lon)
		return stop, err
	})
	if err != nil {
		return nil, fmt.Errorf("store: TransitStops: scan: %w", err)
	}

	return stops, nil
}

// Stats aggregates landing page counts
func (s *PostgresStore) Stats(ctx context.Context) (*models.HomeStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	stats := &models.HomeStats{
		TransportTypes: []models.TransportTypeCount{},
		LastUpdated:    time.Now().UTC(),
	}

	err := s.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(available_parks) FILTER (WHERE available_parks > 0), 0),
			COUNT(*),
			COUNT(*) FILTER (WHERE available_parks > 0)
		FROM parking_segment
	`).Scan(&stats.TotalAvailableSpots, &stats.TotalLocations, &stats.LocationsWithSpots)
	if err != nil {
		return nil, fmt.Errorf("store: Stats: parking: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT transport_type, COUNT(*)
		FROM transit_stop
		GROUP BY transport_type
		ORDER BY transport_type
	`)
	if err != nil {
		return nil, fmt.Errorf("store: Stats: transit: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tc models.TransportTypeCount
		if err := rows.Scan(&tc.TransportType, &tc.Count); err != nil {
			return nil, fmt.Errorf("store: Stats: transit: scan: %w", err)
		}
		stats.TransportTypes = append(stats.TransportTypes, tc)
		stats.TotalTransportStops += tc.Count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: Stats: transit: %w", err)
	}

	return stats, nil
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("store: Ping: %w", err)
	}
	return nil
}
