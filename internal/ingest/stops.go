package ingest

import (
	"archive/zip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/parksmarter/parksmarter_core/internal/geo"
	"github.com/parksmarter/parksmarter_core/internal/models"
)

// ParseStopsFile parses GTFS stops from either a stops.txt file or a GTFS
// ZIP feed. Every stop is tagged with transportType since GTFS stops carry
// no mode of their own.
func ParseStopsFile(filePath, transportType string) ([]models.TransitStop, error) {
	if strings.EqualFold(filepath.Ext(filePath), ".zip") {
		return parseStopsZip(filePath, transportType)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseStops(file, transportType)
}

func parseStopsZip(zipPath, transportType string) ([]models.TransitStop, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.FileInfo().IsDir() || filepath.Base(file.Name) != "stops.txt" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", file.Name, err)
		}
		defer rc.Close()

		return ParseStops(rc, transportType)
	}

	return nil, fmt.Errorf("stops.txt not found in %s", zipPath)
}

// ParseStops reads GTFS stops.txt rows
func ParseStops(reader io.Reader, transportType string) ([]models.TransitStop, error) {
	rows, err := newRowReader(reader)
	if err != nil {
		return nil, err
	}

	transportType = strings.ToLower(strings.TrimSpace(transportType))
	if transportType == "" {
		return nil, fmt.Errorf("transport type is required")
	}

	var stops []models.TransitStop

	for {
		record, err := rows.csv.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("Warning: skipping malformed stop row: %v", err)
			continue
		}

		stopID := getField(record, rows.colMap, "stop_id")
		stopName := getField(record, rows.colMap, "stop_name")
		latStr := getField(record, rows.colMap, "stop_lat")
		lonStr := getField(record, rows.colMap, "stop_lon")

		// Skip stops without required fields
		if stopID == "" || latStr == "" || lonStr == "" {
			log.Printf("Warning: skipping stop with missing required fields: %s", stopID)
			continue
		}

		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			log.Printf("Warning: invalid latitude for stop %s: %v", stopID, err)
			continue
		}

		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			log.Printf("Warning: invalid longitude for stop %s: %v", stopID, err)
			continue
		}

		stops = append(stops, models.TransitStop{
			StopID:        stopID,
			Name:          stopName,
			TransportType: transportType,
			Location:      geo.NewPoint(lat, lon),
		})
	}

	return stops, nil
}
