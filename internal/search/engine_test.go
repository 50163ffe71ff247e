package search

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/parksmarter/parksmarter_core/internal/geo"
	"github.com/parksmarter/parksmarter_core/internal/geo/geotest"
	"github.com/parksmarter/parksmarter_core/internal/models"
	"github.com/parksmarter/parksmarter_core/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 {
	return &v
}

func destinationQuery(p geo.Point) DestinationQuery {
	return DestinationQuery{DestinationLat: ptr(p.Lat), DestinationLng: ptr(p.Lon)}
}

// scenario builds a Melbourne fixture: a spot with 3 spaces at the CBD whose
// only transit stop sits stopMeters to the east
func scenario(stopMeters float64) (*store.MemoryStore, models.ParkingSpot) {
	spot := spotAt("Collins St between Swanston St and Elizabeth St", melbourneCBD, 3)
	stops := []models.TransitStop{
		stopAt("2170", geotest.Destination(melbourneCBD, 90, stopMeters)),
	}
	return store.NewMemoryStore([]models.ParkingSpot{spot}, stops), spot
}

func TestParkingRecommendationsEcoScenario(t *testing.T) {
	s, spot := scenario(200)
	engine := NewEngine(s)

	results, err := engine.ParkingRecommendations(context.Background(), DestinationQuery{
		DestinationLat: ptr(melbourneCBD.Lat),
		DestinationLng: ptr(melbourneCBD.Lon),
		Radius:         ptr(1),
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, spot.Description, r.Spot.Description)
	assert.True(t, r.EcoFriendly)
	assert.InDelta(t, 200, r.WalkToNearestTransitM, 0.5)
	assert.Equal(t, models.ParkingTypeTransitHub, r.Type)
	require.Len(t, r.NearbyStops, 1)
	assert.Equal(t, "2170", r.NearbyStops[0].Stop.StopID)
	assert.InDelta(t, 0, r.DistanceFromDestinationM, 1e-6)
}

func TestParkingRecommendationsNonEcoScenario(t *testing.T) {
	s, spot := scenario(300)

	// An eco-friendly spot with fewer spaces, further from the destination,
	// right next to a second stop
	ecoSpotLocation := geotest.Destination(melbourneCBD, 270, 600)
	ecoSpot := spotAt("Spencer St between Collins St and Bourke St", ecoSpotLocation, 1)
	stops, err := s.TransitStops(context.Background(), nil)
	require.NoError(t, err)
	stops = append(stops, stopAt("1234", geotest.Destination(ecoSpotLocation, 0, 50)))
	s.Replace([]models.ParkingSpot{spot, ecoSpot}, stops)

	engine := NewEngine(s)
	q := destinationQuery(melbourneCBD)

	recommendations, err := engine.ParkingRecommendations(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, recommendations, 2)

	assert.Equal(t, ecoSpot.Description, recommendations[0].Spot.Description)
	assert.True(t, recommendations[0].EcoFriendly)

	assert.Equal(t, spot.Description, recommendations[1].Spot.Description)
	assert.False(t, recommendations[1].EcoFriendly)
	assert.InDelta(t, 300, recommendations[1].WalkToNearestTransitM, 0.5)
	assert.Equal(t, models.ParkingTypeStreet, recommendations[1].Type)

	simple, err := engine.SimpleParkingSearch(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{spot.Description, ecoSpot.Description}, names(simple))
}

func TestParkingRecommendations(t *testing.T) {
	t.Run("Skips full spots and caps at three", func(t *testing.T) {
		var parking []models.ParkingSpot
		for i, meters := range []float64{100, 200, 300, 400, 500} {
			parking = append(parking, spotAt(string(rune('a'+i)), geotest.Destination(melbourneCBD, 0, meters), 2))
		}
		parking = append(parking, spotAt("full", geotest.Destination(melbourneCBD, 0, 10), 0))
		engine := NewEngine(store.NewMemoryStore(parking, nil))

		results, err := engine.ParkingRecommendations(context.Background(), destinationQuery(melbourneCBD))
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, names(results))
		for _, r := range results {
			assert.True(t, math.IsInf(r.WalkToNearestTransitM, 1))
			assert.False(t, r.EcoFriendly)
		}
	})

	t.Run("Transit search uses double the radius", func(t *testing.T) {
		edgeSpot := spotAt("edge", geotest.Destination(melbourneCBD, 0, 950), 1)
		stop := stopAt("beyond", geotest.Destination(melbourneCBD, 0, 1150))
		engine := NewEngine(store.NewMemoryStore([]models.ParkingSpot{edgeSpot}, []models.TransitStop{stop}))

		results, err := engine.ParkingRecommendations(context.Background(), destinationQuery(melbourneCBD))
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.True(t, results[0].EcoFriendly)
		assert.InDelta(t, 200, results[0].WalkToNearestTransitM, 0.5)
	})

	t.Run("Stops beyond double the radius are ignored", func(t *testing.T) {
		spot := spotAt("centre", melbourneCBD, 1)
		stop := stopAt("too-far", geotest.Destination(melbourneCBD, 0, 2100))
		engine := NewEngine(store.NewMemoryStore([]models.ParkingSpot{spot}, []models.TransitStop{stop}))

		results, err := engine.ParkingRecommendations(context.Background(), destinationQuery(melbourneCBD))
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.True(t, math.IsInf(results[0].WalkToNearestTransitM, 1))
	})
}

func TestSimpleParkingSearch(t *testing.T) {
	parking := []models.ParkingSpot{
		spotAt("far-4", geotest.Destination(melbourneCBD, 0, 700), 4),
		spotAt("full", geotest.Destination(melbourneCBD, 0, 50), 0),
		spotAt("near-4", geotest.Destination(melbourneCBD, 90, 100), 4),
		spotAt("most", geotest.Destination(melbourneCBD, 180, 900), 9),
		spotAt("outside", geotest.Destination(melbourneCBD, 180, 1100), 20),
	}
	engine := NewEngine(store.NewMemoryStore(parking, nil))

	results, err := engine.SimpleParkingSearch(context.Background(), destinationQuery(melbourneCBD))
	require.NoError(t, err)
	assert.Equal(t, []string{"most", "near-4", "far-4", "full"}, names(results))
	assert.InDelta(t, 900, results[0].DistanceFromDestinationM, 0.5)

	t.Run("Caps at fifteen", func(t *testing.T) {
		var many []models.ParkingSpot
		for i := 0; i < 20; i++ {
			many = append(many, spotAt("spot", geotest.Destination(melbourneCBD, float64(i*18), 300), i))
		}
		results, err := NewEngine(store.NewMemoryStore(many, nil)).
			SimpleParkingSearch(context.Background(), destinationQuery(melbourneCBD))
		require.NoError(t, err)
		require.Len(t, results, 15)
		assert.Equal(t, 19, results[0].Spot.AvailableSpaces)
		assert.Equal(t, 5, results[14].Spot.AvailableSpaces)
	})
}

func TestTopAvailability(t *testing.T) {
	parking := []models.ParkingSpot{
		spotAt("a", melbourneCBD, 2),
		spotAt("b", geotest.Destination(melbourneCBD, 0, 5000), 8),
		spotAt("c", geotest.Destination(melbourneCBD, 0, 9000), 0),
		spotAt("d", geotest.Destination(melbourneCBD, 90, 20000), 5),
		spotAt("e", melbourneCBD, 5),
		spotAt("f", melbourneCBD, 1),
		spotAt("g", melbourneCBD, 7),
	}
	engine := NewEngine(store.NewMemoryStore(parking, nil))

	results, err := engine.TopAvailability(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "g", "d", "e", "a"}, names(results))
}

// filterRecorder records the parking filters it is asked for
type filterRecorder struct {
	*store.MemoryStore
	mu      sync.Mutex
	filters []store.ParkingFilter
}

func (r *filterRecorder) ParkingSpots(ctx context.Context, filter store.ParkingFilter) ([]models.ParkingSpot, error) {
	r.mu.Lock()
	r.filters = append(r.filters, filter)
	r.mu.Unlock()
	return r.MemoryStore.ParkingSpots(ctx, filter)
}

func TestTopAvailabilityLimitsStoreQuery(t *testing.T) {
	var parking []models.ParkingSpot
	for i, available := range []int{1, 9, 0, 4, 9, 2, 6, 3} {
		parking = append(parking, spotAt(string(rune('a'+i)), melbourneCBD, available))
	}

	t.Run("Availability policy asks for the top rows only", func(t *testing.T) {
		rec := &filterRecorder{MemoryStore: store.NewMemoryStore(parking, nil)}
		engine := NewEngine(rec, WithLimits(Limits{TopAvailability: 3}))

		results, err := engine.TopAvailability(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "e", "g"}, names(results))

		require.Len(t, rec.filters, 1)
		assert.Equal(t, 3, rec.filters[0].Limit)
		assert.True(t, rec.filters[0].OnlyAvailable)
		assert.Nil(t, rec.filters[0].Box)
	})

	t.Run("Other policies read every available row", func(t *testing.T) {
		rec := &filterRecorder{MemoryStore: store.NewMemoryStore(parking, nil)}
		engine := NewEngine(rec,
			WithLimits(Limits{TopAvailability: 3}),
			WithPolicies(PolicyNames{TopAvailability: PolicyEcoFirst}),
		)

		results, err := engine.TopAvailability(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "d"}, names(results))

		require.Len(t, rec.filters, 1)
		assert.Equal(t, 0, rec.filters[0].Limit)
	})
}

func TestAllParking(t *testing.T) {
	parking := []models.ParkingSpot{
		spotAt("a", melbourneCBD, 2),
		spotAt("full", geotest.Destination(melbourneCBD, 0, 5000), 0),
		spotAt("far", geotest.Destination(melbourneCBD, 90, 40000), 7),
	}
	rec := &filterRecorder{MemoryStore: store.NewMemoryStore(parking, nil)}
	engine := NewEngine(rec)

	spots, err := engine.AllParking(context.Background())
	require.NoError(t, err)
	require.Len(t, spots, 3)
	assert.Equal(t, "a", spots[0].Description)
	assert.Equal(t, "full", spots[1].Description)
	assert.Equal(t, "far", spots[2].Description)

	require.Len(t, rec.filters, 1)
	assert.Equal(t, store.ParkingFilter{}, rec.filters[0])
}

func TestWithPolicies(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		engine := NewEngine(store.NewMemoryStore(nil, nil))
		assert.Equal(t, DefaultPolicyNames(), engine.PolicyNames())
	})

	t.Run("Empty names keep the defaults", func(t *testing.T) {
		engine := NewEngine(store.NewMemoryStore(nil, nil), WithPolicies(PolicyNames{SimpleSearch: PolicyAvailabilityOnly}))
		got := engine.PolicyNames()
		assert.Equal(t, PolicyEcoFirst, got.Recommendations)
		assert.Equal(t, PolicyAvailabilityOnly, got.SimpleSearch)
		assert.Equal(t, PolicyAvailabilityOnly, got.TopAvailability)
	})

	t.Run("Overridden policy changes the order", func(t *testing.T) {
		near := spotAt("near", geotest.Destination(melbourneCBD, 0, 100), 1)
		roomy := spotAt("roomy", geotest.Destination(melbourneCBD, 0, 600), 9)
		s := store.NewMemoryStore([]models.ParkingSpot{roomy, near}, nil)
		q := destinationQuery(melbourneCBD)

		results, err := NewEngine(s).ParkingRecommendations(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, []string{"near", "roomy"}, names(results))

		engine := NewEngine(s, WithPolicies(PolicyNames{Recommendations: PolicyAvailabilityFirst}))
		results, err = engine.ParkingRecommendations(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, []string{"roomy", "near"}, names(results))

		engine = NewEngine(s, WithPolicies(PolicyNames{SimpleSearch: PolicyEcoFirst}))
		results, err = engine.SimpleParkingSearch(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, []string{"near", "roomy"}, names(results))
	})

	t.Run("Unknown names fall back to eco_first", func(t *testing.T) {
		engine := NewEngine(store.NewMemoryStore(nil, nil), WithPolicies(PolicyNames{TopAvailability: "cheapest"}))
		assert.Equal(t, PolicyEcoFirst, engine.PolicyNames().TopAvailability)
	})
}

func TestNearbyTransitStops(t *testing.T) {
	stops := []models.TransitStop{
		stopAt("c", geotest.Destination(melbourneCBD, 0, 1500)),
		stopAt("a", geotest.Destination(melbourneCBD, 90, 300)),
		stopAt("outside", geotest.Destination(melbourneCBD, 45, 2050)),
		stopAt("b", geotest.Destination(melbourneCBD, 180, 900)),
	}
	engine := NewEngine(store.NewMemoryStore(nil, stops))

	results, err := engine.NearbyTransitStops(context.Background(), TransitStopQuery{
		Latitude:  ptr(melbourneCBD.Lat),
		Longitude: ptr(melbourneCBD.Lon),
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].Stop.StopID)
	assert.Equal(t, "b", results[1].Stop.StopID)
	assert.Equal(t, "c", results[2].Stop.StopID)
	assert.InDelta(t, 300, results[0].DistanceM, 0.5)

	t.Run("Caps at fifty", func(t *testing.T) {
		var many []models.TransitStop
		for i := 0; i < 60; i++ {
			many = append(many, stopAt("s", geotest.Destination(melbourneCBD, float64(i*6), float64(10+i*10))))
		}
		results, err := NewEngine(store.NewMemoryStore(nil, many)).NearbyTransitStops(context.Background(), TransitStopQuery{
			Latitude:  ptr(melbourneCBD.Lat),
			Longitude: ptr(melbourneCBD.Lon),
			Radius:    ptr(1),
		})
		require.NoError(t, err)
		require.Len(t, results, 50)
		for i := 1; i < len(results); i++ {
			assert.LessOrEqual(t, results[i-1].DistanceM, results[i].DistanceM)
		}
	})
}

func TestEmptyResults(t *testing.T) {
	engine := NewEngine(store.NewMemoryStore(nil, nil))
	ctx := context.Background()
	q := destinationQuery(melbourneCBD)

	stops, err := engine.NearbyTransitStops(ctx, TransitStopQuery{Latitude: ptr(melbourneCBD.Lat), Longitude: ptr(melbourneCBD.Lon)})
	require.NoError(t, err)
	assert.NotNil(t, stops)
	assert.Empty(t, stops)

	recommendations, err := engine.ParkingRecommendations(ctx, q)
	require.NoError(t, err)
	assert.NotNil(t, recommendations)
	assert.Empty(t, recommendations)

	simple, err := engine.SimpleParkingSearch(ctx, q)
	require.NoError(t, err)
	assert.NotNil(t, simple)
	assert.Empty(t, simple)

	top, err := engine.TopAvailability(ctx)
	require.NoError(t, err)
	assert.NotNil(t, top)
	assert.Empty(t, top)
}

func TestInvalidInput(t *testing.T) {
	engine := NewEngine(store.NewMemoryStore(nil, nil))
	ctx := context.Background()

	tests := []struct {
		name    string
		run     func() error
		field   string
		message string
	}{
		{
			name: "Recommendations without destinationLat",
			run: func() error {
				_, err := engine.ParkingRecommendations(ctx, DestinationQuery{DestinationLng: ptr(144.9631)})
				return err
			},
			field:   "destinationLat",
			message: "destinationLat is required",
		},
		{
			name: "Simple search without destinationLng",
			run: func() error {
				_, err := engine.SimpleParkingSearch(ctx, DestinationQuery{DestinationLat: ptr(-37.8136)})
				return err
			},
			field:   "destinationLng",
			message: "destinationLng is required",
		},
		{
			name: "Transit stops without latitude",
			run: func() error {
				_, err := engine.NearbyTransitStops(ctx, TransitStopQuery{Longitude: ptr(144.9631)})
				return err
			},
			field:   "latitude",
			message: "latitude is required",
		},
		{
			name: "Latitude out of range",
			run: func() error {
				_, err := engine.NearbyTransitStops(ctx, TransitStopQuery{Latitude: ptr(-97), Longitude: ptr(144.9631)})
				return err
			},
			field:   "latitude",
			message: "latitude must be a latitude between -90 and 90",
		},
		{
			name: "Negative radius",
			run: func() error {
				_, err := engine.ParkingRecommendations(ctx, DestinationQuery{
					DestinationLat: ptr(-37.8136), DestinationLng: ptr(144.9631), Radius: ptr(-1),
				})
				return err
			},
			field:   "radius",
			message: "radius must be between 0 and 50 km",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.NotErrorIs(t, err, ErrDependencyFailure)

			var serr *Error
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tt.field, serr.Field)
			assert.Equal(t, tt.message, serr.Message)
		})
	}

	t.Run("Zero coordinates are valid", func(t *testing.T) {
		_, err := engine.SimpleParkingSearch(ctx, DestinationQuery{DestinationLat: ptr(0), DestinationLng: ptr(0)})
		assert.NoError(t, err)
	})
}

// brokenStore fails every query
type brokenStore struct {
	store.CandidateStore
}

var errConnRefused = errors.New("dial tcp 127.0.0.1:5432: connection refused")

func (brokenStore) ParkingSpots(ctx context.Context, filter store.ParkingFilter) ([]models.ParkingSpot, error) {
	return nil, errConnRefused
}

func (brokenStore) TransitStops(ctx context.Context, box *geo.BoundingBox) ([]models.TransitStop, error) {
	return nil, errConnRefused
}

func (brokenStore) Stats(ctx context.Context) (*models.HomeStats, error) {
	return nil, errConnRefused
}

func TestDependencyFailure(t *testing.T) {
	engine := NewEngine(brokenStore{})
	ctx := context.Background()
	q := destinationQuery(melbourneCBD)

	_, err := engine.NearbyTransitStops(ctx, TransitStopQuery{Latitude: ptr(melbourneCBD.Lat), Longitude: ptr(melbourneCBD.Lon)})
	assert.ErrorIs(t, err, ErrDependencyFailure)
	assert.ErrorIs(t, err, errConnRefused)

	_, err = engine.ParkingRecommendations(ctx, q)
	assert.ErrorIs(t, err, ErrDependencyFailure)

	_, err = engine.SimpleParkingSearch(ctx, q)
	assert.ErrorIs(t, err, ErrDependencyFailure)

	_, err = engine.TopAvailability(ctx)
	assert.ErrorIs(t, err, ErrDependencyFailure)

	_, err = engine.HomeStats(ctx)
	assert.ErrorIs(t, err, ErrDependencyFailure)

	_, err = engine.AllParking(ctx)
	assert.ErrorIs(t, err, ErrDependencyFailure)
	assert.ErrorIs(t, err, errConnRefused)
}

func TestWithLimits(t *testing.T) {
	var parking []models.ParkingSpot
	for i := 0; i < 10; i++ {
		parking = append(parking, spotAt("spot", melbourneCBD, i+1))
	}
	engine := NewEngine(store.NewMemoryStore(parking, nil), WithLimits(Limits{TopAvailability: 2}))

	results, err := engine.TopAvailability(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 10, results[0].Spot.AvailableSpaces)
}

func TestConcurrentSearches(t *testing.T) {
	s, _ := scenario(200)
	engine := NewEngine(s)
	q := destinationQuery(melbourneCBD)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := engine.ParkingRecommendations(context.Background(), q)
			assert.NoError(t, err)
			assert.Len(t, results, 1)
		}()
	}
	wg.Wait()
}
