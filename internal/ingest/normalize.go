package ingest

import (
	"log"

	"github.com/parksmarter/parksmarter_core/internal/geo"
	"github.com/parksmarter/parksmarter_core/internal/models"
)

// DefaultDedupThresholdMeters merges stops of the same type closer than this
const DefaultDedupThresholdMeters = 15.0

func usableLocation(p geo.Point) (bool, string) {
	if err := p.Validate(); err != nil {
		return false, err.Error()
	}
	if p.Lat == 0 && p.Lon == 0 {
		return false, "null island coordinates"
	}
	return true, ""
}

// ValidateAndCleanStops removes stops with invalid coordinates
func ValidateAndCleanStops(stops []models.TransitStop) []models.TransitStop {
	cleaned := []models.TransitStop{}

	for _, stop := range stops {
		if ok, reason := usableLocation(stop.Location); !ok {
			log.Printf("Warning: skipping stop %s: %s", stop.StopID, reason)
			continue
		}
		cleaned = append(cleaned, stop)
	}

	if len(cleaned) < len(stops) {
		log.Printf("Cleaned stops: removed %d invalid stops", len(stops)-len(cleaned))
	}

	return cleaned
}

// CleanParking removes segments with invalid coordinates.
// Descriptions identify a segment, so later duplicates are dropped.
func CleanParking(spots []models.ParkingSpot) []models.ParkingSpot {
	cleaned := []models.ParkingSpot{}
	seen := make(map[string]bool, len(spots))

	for _, spot := range spots {
		if ok, reason := usableLocation(spot.Location); !ok {
			log.Printf("Warning: skipping parking %q: %s", spot.Description, reason)
			continue
		}
		if seen[spot.Description] {
			log.Printf("Warning: duplicate parking segment %q, keeping first", spot.Description)
			continue
		}
		seen[spot.Description] = true
		cleaned = append(cleaned, spot)
	}

	if len(cleaned) < len(spots) {
		log.Printf("Cleaned parking: removed %d rows", len(spots)-len(cleaned))
	}

	return cleaned
}

// DeduplicateStops merges stops of the same transport type lying within
// thresholdMeters of an earlier stop. It returns the kept stops and a
// mapping from every input stop ID to the ID it was merged into.
func DeduplicateStops(stops []models.TransitStop, thresholdMeters float64) ([]models.TransitStop, map[string]string) {
	stopMapping := make(map[string]string, len(stops))
	if len(stops) == 0 {
		return stops, stopMapping
	}

	deduplicated := []models.TransitStop{}
	skip := make([]bool, len(stops))

	for i := range stops {
		if skip[i] {
			continue
		}

		current := stops[i]
		deduplicated = append(deduplicated, current)
		stopMapping[current.StopID] = current.StopID

		for j := i + 1; j < len(stops); j++ {
			if skip[j] || stops[j].TransportType != current.TransportType {
				continue
			}
			if stops[j].StopID == current.StopID {
				skip[j] = true
				continue
			}

			distance := geo.Distance(current.Location, stops[j].Location)
			if distance < thresholdMeters {
				log.Printf("Deduplicating stop %s (duplicate of %s, distance: %.2fm)",
					stops[j].StopID, current.StopID, distance)
				skip[j] = true
				stopMapping[stops[j].StopID] = current.StopID
			}
		}
	}

	log.Printf("Deduplicated %d stops to %d (removed %d duplicates)",
		len(stops), len(deduplicated), len(stops)-len(deduplicated))

	return deduplicated, stopMapping
}
