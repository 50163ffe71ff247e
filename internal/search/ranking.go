package search

import (
	"sort"

	"github.com/parksmarter/parksmarter_core/internal/models"
)

// Policy defines an ordering over scored parking results.
// Less must be a strict weak ordering; ties keep their input order.
type Policy interface {
	Name() string
	Less(a, b models.ScoredParking) bool
}

// EcoFirstPolicy puts eco-friendly spots first, then the closest to the destination
// Used for destination-based recommendations
type EcoFirstPolicy struct{}

func (p *EcoFirstPolicy) Name() string {
	return PolicyEcoFirst
}

func (p *EcoFirstPolicy) Less(a, b models.ScoredParking) bool {
	if a.EcoFriendly != b.EcoFriendly {
		return a.EcoFriendly
	}
	return a.DistanceFromDestinationM < b.DistanceFromDestinationM
}

// AvailabilityFirstPolicy puts the most free spaces first.
// With UseDistance, equal counts are broken by distance from the destination;
// without it (no destination known) ties keep their input order.
type AvailabilityFirstPolicy struct {
	UseDistance bool
}

func (p *AvailabilityFirstPolicy) Name() string {
	if p.UseDistance {
		return PolicyAvailabilityFirst
	}
	return PolicyAvailabilityOnly
}

func (p *AvailabilityFirstPolicy) Less(a, b models.ScoredParking) bool {
	if a.Spot.AvailableSpaces != b.Spot.AvailableSpaces {
		return a.Spot.AvailableSpaces > b.Spot.AvailableSpaces
	}
	if p.UseDistance {
		return a.DistanceFromDestinationM < b.DistanceFromDestinationM
	}
	return false
}

// Rank returns a stably sorted copy of results; the input is not modified
func Rank(results []models.ScoredParking, policy Policy) []models.ScoredParking {
	ranked := make([]models.ScoredParking, len(results))
	copy(ranked, results)

	sort.SliceStable(ranked, func(i, j int) bool {
		return policy.Less(ranked[i], ranked[j])
	})

	return ranked
}

// Truncate returns at most n leading items without reordering them
func Truncate[T any](items []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(items) > n {
		return items[:n]
	}
	return items
}

// Policy names accepted by GetPolicy
const (
	PolicyEcoFirst          = "eco_first"
	PolicyAvailabilityFirst = "availability_first"
	PolicyAvailabilityOnly  = "availability_only"
)

// GetPolicy returns a policy by name, falling back to eco_first for unknown names
func GetPolicy(name string) Policy {
	for _, p := range GetAllPolicies() {
		if p.Name() == name {
			return p
		}
	}
	return &EcoFirstPolicy{}
}

// GetAllPolicies returns all available policies
func GetAllPolicies() []Policy {
	return []Policy{
		&EcoFirstPolicy{},
		&AvailabilityFirstPolicy{UseDistance: true},
		&AvailabilityFirstPolicy{},
	}
}
