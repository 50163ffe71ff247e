package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parksmarter/parksmarter_core/internal/config"
	"github.com/parksmarter/parksmarter_core/internal/db"
	"github.com/parksmarter/parksmarter_core/internal/ingest"
	"github.com/parksmarter/parksmarter_core/internal/models"
)

const batchSize = 1000

type options struct {
	parkingPath     string
	replaceParking  bool
	stopsPath       string
	transportType   string
	osmBBox         string
	overpassURL     string
	dedupeThreshold float64
}

func main() {
	var opts options

	// Command-line flags
	flag.StringVar(&opts.parkingPath, "parking", "", "Path to the live parking CSV export")
	flag.BoolVar(&opts.replaceParking, "replace-parking", true, "Remove parking segments missing from the export")
	flag.StringVar(&opts.stopsPath, "stops", "", "Path to a GTFS stops.txt or GTFS ZIP file")
	flag.StringVar(&opts.transportType, "transport-type", "", "Transport type for --stops (train, tram, bus, ...)")
	flag.StringVar(&opts.osmBBox, "osm-bbox", "", "Import stops from OpenStreetMap inside south,west,north,east")
	flag.StringVar(&opts.overpassURL, "overpass-url", ingest.DefaultOverpassEndpoint, "Overpass API endpoint")
	flag.Float64Var(&opts.dedupeThreshold, "dedupe-threshold", ingest.DefaultDedupThresholdMeters, "Stop deduplication threshold in meters")

	flag.Parse()

	if err := opts.validate(); err != nil {
		fmt.Println(err)
		fmt.Println("Usage: parksmarter-import [--parking=<file.csv>] [--stops=<stops.txt|gtfs.zip> --transport-type=<type>] [--osm-bbox=<s,w,n,e>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	pool, err := db.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()
	log.Println("✓ Database connection established")

	importLog := &models.ImportLog{Source: opts.source(), StartedAt: time.Now(), Status: "running"}
	if err := createImportLog(ctx, pool, importLog); err != nil {
		log.Fatalf("Failed to create import log: %v", err)
	}

	if err := runImport(ctx, pool, opts, importLog); err != nil {
		importLog.Status = "failed"
		importLog.ErrorMsg = err.Error()
		if logErr := finishImportLog(ctx, pool, importLog); logErr != nil {
			log.Printf("Warning: failed to update import log: %v", logErr)
		}
		log.Fatalf("Import failed: %v", err)
	}

	importLog.Status = "success"
	if err := finishImportLog(ctx, pool, importLog); err != nil {
		log.Fatalf("Failed to update import log: %v", err)
	}

	log.Printf("Import completed successfully in %s", time.Since(importLog.StartedAt).Round(time.Millisecond))
}

func (o options) validate() error {
	if o.parkingPath == "" && o.stopsPath == "" && o.osmBBox == "" {
		return fmt.Errorf("at least one of --parking, --stops or --osm-bbox is required")
	}
	if o.stopsPath != "" && strings.TrimSpace(o.transportType) == "" {
		return fmt.Errorf("--transport-type is required with --stops")
	}
	for _, path := range []string{o.parkingPath, o.stopsPath} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("file not found: %s", path)
		}
	}
	if o.osmBBox != "" {
		if _, err := ingest.ParseBBox(o.osmBBox); err != nil {
			return err
		}
	}
	return nil
}

// source describes the inputs for the import log
func (o options) source() string {
	var parts []string
	if o.parkingPath != "" {
		parts = append(parts, "parking:"+o.parkingPath)
	}
	if o.stopsPath != "" {
		parts = append(parts, fmt.Sprintf("gtfs:%s(%s)", o.stopsPath, o.transportType))
	}
	if o.osmBBox != "" {
		parts = append(parts, "osm:"+o.osmBBox)
	}
	return strings.Join(parts, " ")
}

func runImport(ctx context.Context, pool *pgxpool.Pool, opts options, importLog *models.ImportLog) error {
	// Parse everything before touching the database
	var parking []models.ParkingSpot
	if opts.parkingPath != "" {
		log.Println("Parsing parking export...")
		spots, err := ingest.ParseParkingFile(opts.parkingPath)
		if err != nil {
			return fmt.Errorf("failed to parse parking: %w", err)
		}
		parking = ingest.CleanParking(spots)
		log.Printf("Parsed %d parking segments", len(parking))
	}

	var stops []models.TransitStop
	if opts.stopsPath != "" {
		log.Println("Parsing GTFS stops...")
		parsed, err := ingest.ParseStopsFile(opts.stopsPath, opts.transportType)
		if err != nil {
			return fmt.Errorf("failed to parse stops: %w", err)
		}
		stops = append(stops, parsed...)
		log.Printf("Parsed %d stops", len(parsed))
	}

	if opts.osmBBox != "" {
		log.Println("Querying OpenStreetMap for transit stops...")
		box, _ := ingest.ParseBBox(opts.osmBBox)
		fetched, err := ingest.NewOverpassSource(opts.overpassURL, 90*time.Second).FetchStops(ctx, box)
		if err != nil {
			return fmt.Errorf("failed to fetch OSM stops: %w", err)
		}
		stops = append(stops, fetched...)
		log.Printf("Fetched %d stops from OpenStreetMap", len(fetched))
	}

	if len(stops) > 0 {
		stops = ingest.ValidateAndCleanStops(stops)
		stops, _ = ingest.DeduplicateStops(stops, opts.dedupeThreshold)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if opts.parkingPath != "" {
		if err := importParking(ctx, tx, parking, opts.replaceParking); err != nil {
			return fmt.Errorf("failed to import parking: %w", err)
		}
		importLog.ParkingRows = len(parking)
	}

	if len(stops) > 0 {
		if err := importStops(ctx, tx, stops); err != nil {
			return fmt.Errorf("failed to import stops: %w", err)
		}
		importLog.StopRows = len(stops)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func importParking(ctx context.Context, tx pgx.Tx, spots []models.ParkingSpot, replace bool) error {
	if replace {
		// The export is a full snapshot of current availability
		if _, err := tx.Exec(ctx, "DELETE FROM parking_segment"); err != nil {
			return fmt.Errorf("failed to clear parking segments: %w", err)
		}
	}

	batch := &pgx.Batch{}
	for _, spot := range spots {
		batch.Queue(`
			INSERT INTO parking_segment (description, available_parks, lat, lon,
				restriction_days, restriction_start, restriction_end, restriction_display, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
			ON CONFLICT (description) DO UPDATE
			SET available_parks = EXCLUDED.available_parks,
			    lat = EXCLUDED.lat,
			    lon = EXCLUDED.lon,
			    restriction_days = EXCLUDED.restriction_days,
			    restriction_start = EXCLUDED.restriction_start,
			    restriction_end = EXCLUDED.restriction_end,
			    restriction_display = EXCLUDED.restriction_display,
			    updated_at = EXCLUDED.updated_at
		`, spot.Description, spot.AvailableSpaces, spot.Location.Lat, spot.Location.Lon,
			spot.Restriction.Days, spot.Restriction.Start, spot.Restriction.End, spot.Restriction.Display)

		if batch.Len() >= batchSize {
			if err := sendBatch(ctx, tx, batch); err != nil {
				return err
			}
			batch = &pgx.Batch{}
		}
	}

	if err := sendBatch(ctx, tx, batch); err != nil {
		return err
	}

	log.Printf("Imported %d parking segments", len(spots))
	return nil
}

func importStops(ctx context.Context, tx pgx.Tx, stops []models.TransitStop) error {
	batch := &pgx.Batch{}
	for _, stop := range stops {
		batch.Queue(`
			INSERT INTO transit_stop (stop_id, stop_name, transport_type, lat, lon)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (stop_id, transport_type) DO UPDATE
			SET stop_name = EXCLUDED.stop_name,
			    lat = EXCLUDED.lat,
			    lon = EXCLUDED.lon
		`, stop.StopID, stop.Name, stop.TransportType, stop.Location.Lat, stop.Location.Lon)

		if batch.Len() >= batchSize {
			if err := sendBatch(ctx, tx, batch); err != nil {
				return err
			}
			batch = &pgx.Batch{}
		}
	}

	if err := sendBatch(ctx, tx, batch); err != nil {
		return err
	}

	log.Printf("Imported %d stops", len(stops))
	return nil
}

func sendBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert row %d of batch: %w", i, err)
		}
	}

	return results.Close()
}

func createImportLog(ctx context.Context, pool *pgxpool.Pool, entry *models.ImportLog) error {
	return pool.QueryRow(ctx, `
		INSERT INTO import_log (source, started_at, status)
		VALUES ($1, $2, $3)
		RETURNING id
	`, entry.Source, entry.StartedAt, entry.Status).Scan(&entry.ID)
}

func finishImportLog(ctx context.Context, pool *pgxpool.Pool, entry *models.ImportLog) error {
	completed := time.Now()
	entry.CompletedAt = &completed

	_, err := pool.Exec(ctx, `
		UPDATE import_log
		SET completed_at = $2,
		    status = $3,
		    parking_rows = $4,
		    stop_rows = $5,
		    message = NULLIF($6, '')
		WHERE id = $1
	`, entry.ID, completed, entry.Status, entry.ParkingRows, entry.StopRows, entry.ErrorMsg)
	return err
}
