// Package config loads runtime configuration from the environment.
//
// Loading order: a .env file if present (never overriding real environment
// variables), then envconfig struct tags with defaults, then validation.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store backends
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	Port              string `envconfig:"API_PORT" default:"8080" validate:"required,numeric"`
	CORSAllowOrigins  string `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`
	RateLimitPerMin   int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120" validate:"gte=0"`
	StoreBackend      string `envconfig:"STORE_BACKEND" default:"postgres" validate:"oneof=postgres memory"`
	SeedParkingCSV    string `envconfig:"STORE_SEED_PARKING"`
	SeedStopsCSV      string `envconfig:"STORE_SEED_STOPS"`
	SeedTransportType string `envconfig:"STORE_SEED_TRANSPORT_TYPE" default:"bus"`
	Database          Database
	Redis             Redis
	Breaker           Breaker
	Ranking           Ranking
}

// Database holds Postgres settings
type Database struct {
	Host         string        `envconfig:"DB_HOST" default:"localhost" validate:"required"`
	Port         int           `envconfig:"DB_PORT" default:"5432" validate:"gt=0,lte=65535"`
	Name         string        `envconfig:"DB_NAME" default:"parksmarter" validate:"required"`
	User         string        `envconfig:"DB_USER" default:"postgres" validate:"required"`
	Password     string        `envconfig:"DB_PASSWORD"`
	SSLMode      string        `envconfig:"DB_SSLMODE" default:"disable" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MinConns     int32         `envconfig:"DB_MIN_CONNS" default:"2" validate:"gte=0"`
	MaxConns     int32         `envconfig:"DB_MAX_CONNS" default:"20" validate:"gtefield=MinConns"`
	QueryTimeout time.Duration `envconfig:"DB_QUERY_TIMEOUT" default:"5s" validate:"gt=0"`
}

// Redis holds rate limiter backend settings
type Redis struct {
	Host       string `envconfig:"REDIS_HOST" default:"localhost"`
	Port       int    `envconfig:"REDIS_PORT" default:"6379" validate:"gt=0,lte=65535"`
	Password   string `envconfig:"REDIS_PASSWORD"`
	DB         int    `envconfig:"REDIS_DB" default:"0" validate:"gte=0"`
	TLSEnabled bool   `envconfig:"REDIS_TLS_ENABLED" default:"false"`
}

// Breaker holds circuit breaker settings for the candidate store
type Breaker struct {
	MaxFailures uint32        `envconfig:"BREAKER_MAX_FAILURES" default:"5" validate:"gt=0"`
	OpenTimeout time.Duration `envconfig:"BREAKER_OPEN_TIMEOUT" default:"30s" validate:"gt=0"`
}

// Ranking names the ordering policy of each ranked search
type Ranking struct {
	Recommendations string `envconfig:"RANKING_RECOMMENDATIONS" default:"eco_first" validate:"oneof=eco_first availability_first availability_only"`
	SimpleSearch    string `envconfig:"RANKING_SIMPLE_SEARCH" default:"availability_first" validate:"oneof=eco_first availability_first availability_only"`
	TopAvailability string `envconfig:"RANKING_TOP_AVAILABILITY" default:"availability_only" validate:"oneof=eco_first availability_first availability_only"`
}

// RateLimitEnabled reports whether requests should be rate limited
func (c *Config) RateLimitEnabled() bool {
	return c.RateLimitPerMin > 0
}

// Load reads .env (if any) and the environment into a validated Config
func Load() (*Config, error) {
	_ = godotenv.Load()
	return fromEnv()
}

func fromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints and cross-field rules
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.StoreBackend == BackendMemory && cfg.SeedParkingCSV == "" && cfg.SeedStopsCSV == "" {
		return fmt.Errorf("invalid configuration: STORE_BACKEND=memory requires STORE_SEED_PARKING or STORE_SEED_STOPS")
	}

	return nil
}
