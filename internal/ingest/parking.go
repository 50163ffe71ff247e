package ingest

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/parksmarter/parksmarter_core/internal/geo"
	"github.com/parksmarter/parksmarter_core/internal/models"
)

// Column names of the live parking export
const (
	colDescription        = "RoadSegmentDescription"
	colAvailableParks     = "available_parks"
	colLatitude           = "Latitude"
	colLongitude          = "Longitude"
	colRestrictionDays    = "Restriction_Days"
	colRestrictionStart   = "Restriction_Start"
	colRestrictionEnd     = "Restriction_End"
	colRestrictionDisplay = "Restriction_Display"
)

// ParseParkingFile parses a parking segment CSV export
func ParseParkingFile(filePath string) ([]models.ParkingSpot, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseParking(file)
}

// ParseParking reads parking segments from CSV.
// Rows without a description or with unparsable coordinates are skipped.
// A missing or invalid available_parks value counts as zero.
func ParseParking(reader io.Reader) ([]models.ParkingSpot, error) {
	rows, err := newRowReader(reader)
	if err != nil {
		return nil, err
	}

	for _, required := range []string{colDescription, colLatitude, colLongitude} {
		if !rows.has(required) {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	var spots []models.ParkingSpot
	line := 1

	for {
		record, err := rows.csv.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			log.Printf("Warning: skipping malformed parking row %d: %v", line, err)
			continue
		}

		description := getField(record, rows.colMap, colDescription)
		latStr := getField(record, rows.colMap, colLatitude)
		lonStr := getField(record, rows.colMap, colLongitude)

		if description == "" || latStr == "" || lonStr == "" {
			log.Printf("Warning: skipping parking row %d with missing required fields", line)
			continue
		}

		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			log.Printf("Warning: invalid latitude for %s: %v", description, err)
			continue
		}

		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			log.Printf("Warning: invalid longitude for %s: %v", description, err)
			continue
		}

		available, err := strconv.Atoi(getField(record, rows.colMap, colAvailableParks))
		if err != nil || available < 0 {
			available = 0
		}

		spots = append(spots, models.ParkingSpot{
			Description:     description,
			Location:        geo.NewPoint(lat, lon),
			AvailableSpaces: available,
			Restriction: models.Restriction{
				Days:    getField(record, rows.colMap, colRestrictionDays),
				Start:   getField(record, rows.colMap, colRestrictionStart),
				End:     getField(record, rows.colMap, colRestrictionEnd),
				Display: getField(record, rows.colMap, colRestrictionDisplay),
			},
		})
	}

	return spots, nil
}
