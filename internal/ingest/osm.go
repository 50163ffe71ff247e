package ingest

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/parksmarter/parksmarter_core/internal/geo"
	"github.com/parksmarter/parksmarter_core/internal/models"
	"github.com/serjvanilla/go-overpass"
)

// DefaultOverpassEndpoint is the public Overpass API instance
const DefaultOverpassEndpoint = "https://overpass-api.de/api/interpreter"

type overpassQuerier interface {
	Query(query string) (overpass.Result, error)
}

// OverpassSource pulls transit stops from OpenStreetMap
type OverpassSource struct {
	client  overpassQuerier
	timeout time.Duration
}

// NewOverpassSource creates a source for the given Overpass endpoint
func NewOverpassSource(endpoint string, timeout time.Duration) *OverpassSource {
	if endpoint == "" {
		endpoint = DefaultOverpassEndpoint
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	client := overpass.NewWithSettings(endpoint, 2, httpClient)

	return &OverpassSource{client: &client, timeout: timeout}
}

// ParseBBox parses "south,west,north,east" as used by Overpass
func ParseBBox(s string) (geo.BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geo.BoundingBox{}, fmt.Errorf("bbox must be south,west,north,east: %q", s)
	}

	values := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return geo.BoundingBox{}, fmt.Errorf("invalid bbox value %q: %w", part, err)
		}
		values[i] = v
	}

	box := geo.BoundingBox{MinLat: values[0], MinLon: values[1], MaxLat: values[2], MaxLon: values[3]}
	if box.MinLat > box.MaxLat || box.MinLon > box.MaxLon {
		return geo.BoundingBox{}, fmt.Errorf("bbox minimum exceeds maximum: %q", s)
	}
	for _, corner := range []geo.Point{{Lat: box.MinLat, Lon: box.MinLon}, {Lat: box.MaxLat, Lon: box.MaxLon}} {
		if err := corner.Validate(); err != nil {
			return geo.BoundingBox{}, fmt.Errorf("invalid bbox: %w", err)
		}
	}

	return box, nil
}

func stopsQuery(box geo.BoundingBox) string {
	bbox := fmt.Sprintf("%f,%f,%f,%f", box.MinLat, box.MinLon, box.MaxLat, box.MaxLon)
	return fmt.Sprintf(`
		[out:json][timeout:60];
		(
			node["highway"="bus_stop"](%s);
			node["railway"="tram_stop"](%s);
			node["railway"~"^(station|halt)$"](%s);
		);
		out body;
	`, bbox, bbox, bbox)
}

// FetchStops queries all bus, tram and train stop nodes inside box
func (s *OverpassSource) FetchStops(ctx context.Context, box geo.BoundingBox) ([]models.TransitStop, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type outcome struct {
		result overpass.Result
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		result, err := s.client.Query(stopsQuery(box))
		done <- outcome{result: result, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("overpass query aborted: %w", ctx.Err())
	case out := <-done:
		if out.err != nil {
			return nil, fmt.Errorf("overpass query failed: %w", out.err)
		}
		return stopsFromResult(&out.result), nil
	}
}

func stopsFromResult(result *overpass.Result) []models.TransitStop {
	ids := make([]int64, 0, len(result.Nodes))
	for id := range result.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	stops := make([]models.TransitStop, 0, len(ids))
	for _, id := range ids {
		node := result.Nodes[id]
		if node == nil {
			continue
		}

		transportType := transportTypeFromTags(node.Tags)
		if transportType == "" {
			continue
		}

		name := node.Tags["name"]
		if name == "" {
			name = fmt.Sprintf("Unnamed %s stop", transportType)
		}

		stops = append(stops, models.TransitStop{
			StopID:        fmt.Sprintf("osm:%d", node.ID),
			Name:          name,
			TransportType: transportType,
			Location:      geo.NewPoint(node.Lat, node.Lon),
		})
	}

	return stops
}

func transportTypeFromTags(tags map[string]string) string {
	switch {
	case tags["railway"] == "tram_stop":
		return models.TransportTram
	case tags["railway"] == "station" || tags["railway"] == "halt":
		if tags["station"] == "light_rail" || tags["tram"] == "yes" {
			return models.TransportTram
		}
		return models.TransportTrain
	case tags["highway"] == "bus_stop":
		return models.TransportBus
	}
	return ""
}
