package db

import (
	"context"
	"testing"

	"github.com/parksmarter/parksmarter_core/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestConnString(t *testing.T) {
	cfg := config.Database{
		Host:     "localhost",
		Port:     5432,
		Name:     "parksmarter",
		User:     "postgres",
		Password: "secret",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		"host=localhost port=5432 dbname=parksmarter user=postgres password=secret sslmode=disable",
		ConnString(cfg),
	)
}

func TestHealthCheckWithoutPool(t *testing.T) {
	err := HealthCheck(context.Background(), nil)
	assert.EqualError(t, err, "database connection not initialized")
}

func TestSchemaDefinesCandidateTables(t *testing.T) {
	schema := Schema()
	for _, table := range []string{"parking_segment", "transit_stop", "import_log"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table)
	}
}

func TestApplySchemaWithoutPool(t *testing.T) {
	assert.EqualError(t, ApplySchema(context.Background(), nil), "database connection not initialized")
}
