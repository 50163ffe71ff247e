package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/parksmarter/parksmarter_core/internal/config"
	"github.com/parksmarter/parksmarter_core/internal/db"
)

func main() {
	migrate := flag.Bool("migrate", false, "Create missing tables before checking")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	fmt.Println("🔗 Testing database connection...")
	fmt.Printf("   Host: %s:%d\n", cfg.Database.Host, cfg.Database.Port)
	fmt.Printf("   User: %s\n", cfg.Database.User)
	fmt.Printf("   Database: %s\n\n", cfg.Database.Name)

	ctx := context.Background()

	pool, err := db.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect: %v", err)
	}
	defer pool.Close()

	fmt.Println("✅ Connection successful!")

	var pgVersion string
	if err := pool.QueryRow(ctx, "SELECT version()").Scan(&pgVersion); err != nil {
		log.Printf("⚠️  Could not get PostgreSQL version: %v", err)
	} else {
		fmt.Printf("📊 PostgreSQL Version:\n   %s\n\n", pgVersion)
	}

	if *migrate {
		fmt.Println("🛠  Applying schema...")
		if err := db.ApplySchema(ctx, pool); err != nil {
			log.Fatalf("❌ %v", err)
		}
	}

	if err := db.HealthCheck(ctx, pool); err != nil {
		log.Fatalf("❌ %v", err)
	}

	fmt.Println("📋 Candidate tables:")
	for _, table := range []string{"parking_segment", "transit_stop", "import_log"} {
		var count int64
		// Table names come from the fixed list above
		if err := pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
			fmt.Printf("   - %s: %v\n", table, err)
			continue
		}
		fmt.Printf("   - %s: %d rows\n", table, count)
	}

	fmt.Println("\n✅ Connection test completed successfully!")
}
