package search

import (
	"context"
	"math"
	"sort"

	"github.com/parksmarter/parksmarter_core/internal/geo"
	"github.com/parksmarter/parksmarter_core/internal/models"
	"github.com/parksmarter/parksmarter_core/internal/store"
	"golang.org/x/sync/errgroup"
)

// Limits caps the size of each operation's result list
type Limits struct {
	TransitStops    int
	Recommendations int
	SimpleSearch    int
	TopAvailability int
}

// DefaultLimits returns the standard result sizes
func DefaultLimits() Limits {
	return Limits{
		TransitStops:    50,
		Recommendations: 3,
		SimpleSearch:    15,
		TopAvailability: 5,
	}
}

// PolicyNames selects the ranking policy of each ranked operation by name.
// Names are resolved with GetPolicy; empty names keep the default.
type PolicyNames struct {
	Recommendations string
	SimpleSearch    string
	TopAvailability string
}

// DefaultPolicyNames returns the standard orderings
func DefaultPolicyNames() PolicyNames {
	return PolicyNames{
		Recommendations: PolicyEcoFirst,
		SimpleSearch:    PolicyAvailabilityFirst,
		TopAvailability: PolicyAvailabilityOnly,
	}
}

type policies struct {
	recommendations Policy
	simpleSearch    Policy
	topAvailability Policy
}

func resolvePolicies(names PolicyNames) policies {
	defaults := DefaultPolicyNames()
	pick := func(name, fallback string) Policy {
		if name == "" {
			name = fallback
		}
		return GetPolicy(name)
	}
	return policies{
		recommendations: pick(names.Recommendations, defaults.Recommendations),
		simpleSearch:    pick(names.SimpleSearch, defaults.SimpleSearch),
		topAvailability: pick(names.TopAvailability, defaults.TopAvailability),
	}
}

// Option configures an Engine
type Option func(*Engine)

// WithLimits overrides the result sizes
func WithLimits(limits Limits) Option {
	return func(e *Engine) {
		e.limits = limits
	}
}

// WithPolicies overrides the ranking policy of each operation
func WithPolicies(names PolicyNames) Option {
	return func(e *Engine) {
		e.policies = resolvePolicies(names)
	}
}

// Engine composes the proximity filter, eco classifier and ranker into the
// public search operations. It holds no per-request state and is safe for
// concurrent use.
type Engine struct {
	store    store.CandidateStore
	limits   Limits
	policies policies
}

// NewEngine creates an Engine reading candidates from s
func NewEngine(s store.CandidateStore, opts ...Option) *Engine {
	e := &Engine{
		store:    s,
		limits:   DefaultLimits(),
		policies: resolvePolicies(DefaultPolicyNames()),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PolicyNames reports the policy each ranked operation uses
func (e *Engine) PolicyNames() PolicyNames {
	return PolicyNames{
		Recommendations: e.policies.recommendations.Name(),
		SimpleSearch:    e.policies.simpleSearch.Name(),
		TopAvailability: e.policies.topAvailability.Name(),
	}
}

func (e *Engine) fetchParking(onlyAvailable bool) FetchFunc[models.ParkingSpot] {
	return func(ctx context.Context, box geo.BoundingBox) ([]models.ParkingSpot, error) {
		return e.store.ParkingSpots(ctx, store.ParkingFilter{Box: &box, OnlyAvailable: onlyAvailable})
	}
}

func (e *Engine) fetchTransit(ctx context.Context, box geo.BoundingBox) ([]models.TransitStop, error) {
	return e.store.TransitStops(ctx, &box)
}

// NearbyTransitStops returns transit stops within the radius (default 2km),
// nearest first, capped at Limits.TransitStops
func (e *Engine) NearbyTransitStops(ctx context.Context, q TransitStopQuery) ([]models.StopDistance, error) {
	center, radiusKm, err := q.resolve()
	if err != nil {
		return nil, err
	}

	candidates, err := FindWithinRadius(ctx, center, radiusKm, e.fetchTransit)
	if err != nil {
		return nil, dependencyFailure("transit stops", err)
	}

	limitM := radiusKm * 1000
	stops := make([]models.StopDistance, 0, len(candidates))
	for _, c := range candidates {
		if c.DistanceM > limitM {
			continue
		}
		stops = append(stops, models.StopDistance{Stop: c.Item, DistanceM: c.DistanceM})
	}

	sort.SliceStable(stops, func(i, j int) bool {
		if stops[i].DistanceM != stops[j].DistanceM {
			return stops[i].DistanceM < stops[j].DistanceM
		}
		return stops[i].Stop.StopID < stops[j].Stop.StopID
	})

	return Truncate(stops, e.limits.TransitStops), nil
}

// ParkingRecommendations returns available parking near the destination (default 1km),
// eco-friendly spots first, capped at Limits.Recommendations.
// Transit stops are searched over TransitRadiusFactor times the radius.
func (e *Engine) ParkingRecommendations(ctx context.Context, q DestinationQuery) ([]models.ScoredParking, error) {
	destination, radiusKm, err := q.resolve()
	if err != nil {
		return nil, err
	}

	var (
		parking []Candidate[models.ParkingSpot]
		transit []Candidate[models.TransitStop]
		g       errgroup.Group
	)

	g.Go(func() error {
		var err error
		parking, err = FindWithinRadius(ctx, destination, radiusKm, e.fetchParking(true))
		if err != nil {
			return dependencyFailure("parking spots", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		transit, err = FindWithinRadius(ctx, destination, radiusKm*TransitRadiusFactor, e.fetchTransit)
		if err != nil {
			return dependencyFailure("transit stops", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stops := make([]models.TransitStop, len(transit))
	for i, c := range transit {
		stops[i] = c.Item
	}

	results := make([]models.ScoredParking, 0, len(parking))
	for _, c := range parking {
		class := Classify(c.Item, stops)
		results = append(results, models.ScoredParking{
			Spot:                     c.Item,
			Type:                     parkingType(class),
			NearbyStops:              class.NearbyStops,
			WalkToNearestTransitM:    class.WalkToNearestTransitM,
			DistanceFromDestinationM: c.DistanceM,
			EcoFriendly:              class.EcoFriendly,
		})
	}

	ranked := Rank(results, e.policies.recommendations)
	return Truncate(ranked, e.limits.Recommendations), nil
}

// SimpleParkingSearch returns parking near the destination (default 1km) without
// transit data, most available first, capped at Limits.SimpleSearch
func (e *Engine) SimpleParkingSearch(ctx context.Context, q DestinationQuery) ([]models.ScoredParking, error) {
	destination, radiusKm, err := q.resolve()
	if err != nil {
		return nil, err
	}

	parking, err := FindWithinRadius(ctx, destination, radiusKm, e.fetchParking(false))
	if err != nil {
		return nil, dependencyFailure("parking spots", err)
	}

	results := make([]models.ScoredParking, 0, len(parking))
	for _, c := range parking {
		results = append(results, models.ScoredParking{
			Spot:                     c.Item,
			Type:                     models.ParkingTypeStreet,
			WalkToNearestTransitM:    math.Inf(1),
			DistanceFromDestinationM: c.DistanceM,
		})
	}

	ranked := Rank(results, e.policies.simpleSearch)
	return Truncate(ranked, e.limits.SimpleSearch), nil
}

// TopAvailability returns the spots with the most free spaces anywhere,
// capped at Limits.TopAvailability. Under an availability policy the store is
// asked for only that many rows, most available first; ranking here still
// decides the final order.
func (e *Engine) TopAvailability(ctx context.Context) ([]models.ScoredParking, error) {
	filter := store.ParkingFilter{OnlyAvailable: true}
	if _, ok := e.policies.topAvailability.(*AvailabilityFirstPolicy); ok {
		filter.Limit = e.limits.TopAvailability
	}

	spots, err := e.store.ParkingSpots(ctx, filter)
	if err != nil {
		return nil, dependencyFailure("parking spots", err)
	}

	results := make([]models.ScoredParking, 0, len(spots))
	for _, spot := range spots {
		if !spot.Available() {
			continue
		}
		results = append(results, models.ScoredParking{
			Spot:                  spot,
			Type:                  models.ParkingTypeStreet,
			WalkToNearestTransitM: math.Inf(1),
		})
	}

	ranked := Rank(results, e.policies.topAvailability)
	return Truncate(ranked, e.limits.TopAvailability), nil
}

// AllParking returns every parking segment, available or not, in store order
func (e *Engine) AllParking(ctx context.Context) ([]models.ParkingSpot, error) {
	spots, err := e.store.ParkingSpots(ctx, store.ParkingFilter{})
	if err != nil {
		return nil, dependencyFailure("parking spots", err)
	}
	return spots, nil
}

// HomeStats returns the landing page summary
func (e *Engine) HomeStats(ctx context.Context) (*models.HomeStats, error) {
	stats, err := e.store.Stats(ctx)
	if err != nil {
		return nil, dependencyFailure("statistics", err)
	}
	return stats, nil
}
