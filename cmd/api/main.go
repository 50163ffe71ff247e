package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/parksmarter/parksmarter_core/internal/api"
	"github.com/parksmarter/parksmarter_core/internal/config"
	"github.com/parksmarter/parksmarter_core/internal/db"
	"github.com/parksmarter/parksmarter_core/internal/ingest"
	"github.com/parksmarter/parksmarter_core/internal/kv"
	"github.com/parksmarter/parksmarter_core/internal/middleware"
	"github.com/parksmarter/parksmarter_core/internal/models"
	"github.com/parksmarter/parksmarter_core/internal/search"
	"github.com/parksmarter/parksmarter_core/internal/store"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.Println("Starting ParkSmarter API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	checks := map[string]api.HealthCheck{}

	// Candidate store
	var backend store.CandidateStore
	switch cfg.StoreBackend {
	case config.BackendMemory:
		mem, err := seedMemoryStore(cfg)
		if err != nil {
			log.Fatalf("Failed to seed memory store: %v", err)
		}
		backend = mem
		log.Println("✓ In-memory store seeded")
	default:
		pool, err := db.Open(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()
		backend = store.NewPostgresStore(pool, cfg.Database.QueryTimeout)
		checks["database"] = func(ctx context.Context) error { return db.HealthCheck(ctx, pool) }
		log.Println("✓ Database connection established")
	}

	candidates := store.NewBreakerStore(backend, store.BreakerSettings{
		MaxFailures: cfg.Breaker.MaxFailures,
		OpenTimeout: cfg.Breaker.OpenTimeout,
	})
	if _, ok := checks["database"]; !ok {
		checks["store"] = candidates.Ping
	}

	// Redis backs the rate limiter only; without it requests are not limited
	var rdb *redis.Client
	if cfg.RateLimitEnabled() {
		rdb, err = kv.Connect(ctx, cfg.Redis)
		if err != nil {
			log.Printf("⚠️  Redis unavailable, rate limiting disabled: %v", err)
		} else {
			defer rdb.Close()
			checks["redis"] = func(ctx context.Context) error { return kv.HealthCheck(ctx, rdb) }
			log.Println("✓ Redis connection established")
		}
	}

	engine := search.NewEngine(candidates, search.WithPolicies(search.PolicyNames{
		Recommendations: cfg.Ranking.Recommendations,
		SimpleSearch:    cfg.Ranking.SimpleSearch,
		TopAvailability: cfg.Ranking.TopAvailability,
	}))
	policies := engine.PolicyNames()
	log.Printf("✓ Ranking: recommendations=%s simple=%s top=%s",
		policies.Recommendations, policies.SimpleSearch, policies.TopAvailability)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "ParkSmarter API",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: api.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${locals:requestid} | ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	if rdb != nil {
		app.Use(middleware.RateLimitMiddleware(middleware.RateLimitConfig{
			Limiter:   middleware.NewRedisLimiter(rdb),
			PerMinute: cfg.RateLimitPerMin,
		}))
	}

	// Routes
	api.NewHandler(engine, checks).Register(app)

	// 404 handler
	app.Use(api.NotFound)

	addr := fmt.Sprintf(":%s", cfg.Port)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down gracefully...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	// Start server
	log.Printf("🚀 Server listening on http://localhost%s", addr)
	log.Printf("🅿️  Recommendations: POST http://localhost%s/api/parking-recommendations", addr)
	log.Printf("❤️  Health check: http://localhost%s/health", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// seedMemoryStore loads the configured seed files into a MemoryStore
func seedMemoryStore(cfg *config.Config) (*store.MemoryStore, error) {
	var (
		parking []models.ParkingSpot
		stops   []models.TransitStop
	)

	if cfg.SeedParkingCSV != "" {
		spots, err := ingest.ParseParkingFile(cfg.SeedParkingCSV)
		if err != nil {
			return nil, fmt.Errorf("failed to parse parking seed: %w", err)
		}
		parking = ingest.CleanParking(spots)
		log.Printf("Loaded %d parking segments from %s", len(parking), cfg.SeedParkingCSV)
	}

	if cfg.SeedStopsCSV != "" {
		parsed, err := ingest.ParseStopsFile(cfg.SeedStopsCSV, cfg.SeedTransportType)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stops seed: %w", err)
		}
		stops, _ = ingest.DeduplicateStops(ingest.ValidateAndCleanStops(parsed), ingest.DefaultDedupThresholdMeters)
		for i := range stops {
			stops[i].ID = int64(i + 1)
		}
		log.Printf("Loaded %d transit stops from %s", len(stops), cfg.SeedStopsCSV)
	}

	return store.NewMemoryStore(parking, stops), nil
}
