package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/parksmarter/parksmarter_core/internal/geo"
	"github.com/parksmarter/parksmarter_core/internal/models"
	"github.com/sony/gobreaker/v2"
)

// BreakerSettings configures the circuit breaker around a store
type BreakerSettings struct {
	Name        string
	MaxFailures uint32        // consecutive failures before opening
	OpenTimeout time.Duration // how long the breaker stays open before probing
}

// BreakerStore wraps a CandidateStore in a circuit breaker.
// Calls are never retried; while the breaker is open they fail fast with ErrUnavailable.
type BreakerStore struct {
	next    CandidateStore
	breaker *gobreaker.CircuitBreaker[any]
}

// NewBreakerStore wraps next with a circuit breaker
func NewBreakerStore(next CandidateStore, settings BreakerSettings) *BreakerStore {
	if settings.Name == "" {
		settings.Name = "candidate-store"
	}
	if settings.MaxFailures == 0 {
		settings.MaxFailures = 5
	}
	if settings.OpenTimeout <= 0 {
		settings.OpenTimeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.MaxFailures
		},
		// A caller abandoning its request says nothing about store health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return &BreakerStore{next: next, breaker: cb}
}

// State returns the current breaker state
func (s *BreakerStore) State() gobreaker.State {
	return s.breaker.State()
}

func (s *BreakerStore) execute(op string, fn func() (any, error)) (any, error) {
	result, err := s.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	return result, err
}

// ParkingSpots delegates through the breaker
func (s *BreakerStore) ParkingSpots(ctx context.Context, filter ParkingFilter) ([]models.ParkingSpot, error) {
	result, err := s.execute("ParkingSpots", func() (any, error) {
		return s.next.ParkingSpots(ctx, filter)
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.ParkingSpot), nil
}

// TransitStops delegates through the breaker
func (s *BreakerStore) TransitStops(ctx context.Context, box *geo.BoundingBox) ([]models.TransitStop, error) {
	result, err := s.execute("TransitStops", func() (any, error) {
		return s.next.TransitStops(ctx, box)
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.TransitStop), nil
}

// Stats delegates through the breaker
func (s *BreakerStore) Stats(ctx context.Context) (*models.HomeStats, error) {
	result, err := s.execute("Stats", func() (any, error) {
		return s.next.Stats(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.HomeStats), nil
}

// Ping bypasses the breaker so health checks always reach the backend
func (s *BreakerStore) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}
