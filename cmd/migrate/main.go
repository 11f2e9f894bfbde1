package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/hoops-valuation/internal/compensation"
	"github.com/stitts-dev/hoops-valuation/internal/models"
	"github.com/stitts-dev/hoops-valuation/internal/providers"
	"github.com/stitts-dev/hoops-valuation/pkg/config"
	"github.com/stitts-dev/hoops-valuation/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|seed] [salaries.csv] [histories.json]")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	command := os.Args[1]

	switch command {
	case "up":
		if err := runMigrations(db); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		logrus.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			logrus.Fatalf("Failed to drop tables: %v", err)
		}
		logrus.Info("Tables dropped successfully")

	case "seed":
		salaries := cfg.CompensationCSVPath
		if len(os.Args) > 2 {
			salaries = os.Args[2]
		}
		histories := ""
		if len(os.Args) > 3 {
			histories = os.Args[3]
		}
		if err := runMigrations(db); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		if err := seedData(context.Background(), db, salaries, histories); err != nil {
			logrus.Fatalf("Failed to seed data: %v", err)
		}
		logrus.Info("Data seeded successfully")

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

func runMigrations(db *database.DB) error {
	return db.Migrate()
}

func dropTables(db *database.DB) error {
	for _, model := range models.AllModels() {
		if err := db.Migrator().DropTable(model); err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", model, err)
		}
	}
	return nil
}

func seedData(ctx context.Context, db *database.DB, salariesPath, historiesPath string) error {
	records, err := compensation.NewCSVLoader(salariesPath).Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to read salaries: %w", err)
	}
	// The file is authoritative for each season it lists.
	deleted, n, err := compensation.NewStore(db).ReplaceSeasons(ctx, records)
	if err != nil {
		return fmt.Errorf("failed to store salaries: %w", err)
	}
	logrus.Infof("Seeded %d salary records from %s (replaced %d)", n, salariesPath, deleted)

	if historiesPath == "" {
		return nil
	}

	f, err := os.Open(historiesPath)
	if err != nil {
		return fmt.Errorf("failed to open histories: %w", err)
	}
	defer f.Close()

	histories, err := providers.ReadHistories(f)
	if err != nil {
		return fmt.Errorf("failed to read histories: %w", err)
	}

	store := providers.NewSeasonStatsStore(db)
	for _, h := range histories {
		if err := store.SaveHistory(ctx, h); err != nil {
			return fmt.Errorf("failed to store history for %s: %w", h.PlayerID, err)
		}
	}
	logrus.Infof("Seeded %d player histories from %s", len(histories), historiesPath)
	return nil
}
