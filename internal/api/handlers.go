package api

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/parksmarter/parksmarter_core/internal/search"
)

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

// Handler serves the parking search API
type Handler struct {
	engine *search.Engine
	checks map[string]HealthCheck
}

// NewHandler creates a handler. checks are run by /health, keyed by dependency name.
func NewHandler(engine *search.Engine, checks map[string]HealthCheck) *Handler {
	if checks == nil {
		checks = map[string]HealthCheck{}
	}
	return &Handler{engine: engine, checks: checks}
}

// Register mounts all routes on app
func (h *Handler) Register(app fiber.Router) {
	app.Get("/", h.Index)
	app.Get("/health", h.Health)

	apiGroup := app.Group("/api")
	apiGroup.Post("/transport-stops", h.TransportStops)
	apiGroup.Post("/parking-recommendations", h.ParkingRecommendations)
	apiGroup.Post("/simple-parking-search", h.SimpleParkingSearch)
	apiGroup.Get("/top-parking", h.TopParking)
	apiGroup.Get("/home-stats", h.HomeStats)
	apiGroup.Get("/parking", h.AllParking)
}

// Index handles GET /
func (h *Handler) Index(c *fiber.Ctx) error {
	policies := h.engine.PolicyNames()
	return c.JSON(fiber.Map{
		"message": "ParkSmarter Melbourne API is running!",
		"ranking": fiber.Map{
			"recommendations": policies.Recommendations,
			"simpleSearch":    policies.SimpleSearch,
			"topParking":      policies.TopAvailability,
		},
	})
}

// Health handles the /health endpoint
func (h *Handler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	checks := fiber.Map{}
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			healthy = false
			continue
		}
		checks[name] = "ok"
	}

	status := "healthy"
	httpStatus := fiber.StatusOK
	if !healthy {
		status = "unhealthy"
		httpStatus = fiber.StatusServiceUnavailable
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// TransportStops handles POST /api/transport-stops
func (h *Handler) TransportStops(c *fiber.Ctx) error {
	var req transitStopRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	stops, err := h.engine.NearbyTransitStops(c.UserContext(), req.query())
	if err != nil {
		return err
	}

	log.Printf("🚌 Returning %d transport stops", len(stops))
	return c.JSON(transitStopResponses(stops))
}

// ParkingRecommendations handles POST /api/parking-recommendations
func (h *Handler) ParkingRecommendations(c *fiber.Ctx) error {
	var req destinationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	results, err := h.engine.ParkingRecommendations(c.UserContext(), req.query())
	if err != nil {
		return err
	}

	log.Printf("🅿️  Returning %d parking recommendations", len(results))
	return c.JSON(recommendationResponses(results))
}

// SimpleParkingSearch handles POST /api/simple-parking-search
func (h *Handler) SimpleParkingSearch(c *fiber.Ctx) error {
	var req destinationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	results, err := h.engine.SimpleParkingSearch(c.UserContext(), req.query())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   simpleParkingResponses(results),
	})
}

// TopParking handles GET /api/top-parking
func (h *Handler) TopParking(c *fiber.Ctx) error {
	results, err := h.engine.TopAvailability(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   topParkingResponses(results),
	})
}

// HomeStats handles GET /api/home-stats
func (h *Handler) HomeStats(c *fiber.Ctx) error {
	stats, err := h.engine.HomeStats(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   stats,
	})
}

// AllParking handles GET /api/parking
func (h *Handler) AllParking(c *fiber.Ctx) error {
	spots, err := h.engine.AllParking(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Database query successful",
		"data":    parkingRowResponses(spots),
	})
}

// ErrorHandler translates handler errors into JSON responses.
// Dependency failures are logged with detail; clients get a generic message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var searchErr *search.Error
	if errors.As(err, &searchErr) {
		switch searchErr.Kind {
		case search.KindInvalidInput:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": searchErr.Message,
			})
		default:
			log.Printf("Error: %s %s: %v", c.Method(), c.Path(), searchErr)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal server error",
			})
		}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"error": fiberErr.Message,
		})
	}

	log.Printf("Error: %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal server error",
	})
}

// NotFound is the catch-all handler for unknown routes
func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "endpoint not found",
	})
}
