// Package main provides a CLI tool for running database migrations.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/cellar-tracker/internal/config"
	"github.com/cellar-tracker/internal/storage"
)

func main() {
	var (
		action = flag.String("action", "up", "Migration action: up, down, version")
		dbType = flag.String("db", "postgres", "Database type: postgres, clickhouse")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	switch *dbType {
	case "postgres":
		if err := runMigrations(postgresURL(cfg), "migrations/postgres", *action); err != nil {
			log.Fatalf("Postgres migration failed: %v", err)
		}
	case "clickhouse":
		if err := runMigrations(clickhouseURL(cfg), "migrations/clickhouse", *action); err != nil {
			log.Fatalf("ClickHouse migration failed: %v", err)
		}
	default:
		log.Fatalf("Unknown database type: %s", *dbType)
	}
}

func postgresURL(cfg *config.Config) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Database.Postgres.User,
		cfg.Database.Postgres.Password,
		cfg.Database.Postgres.Host,
		cfg.Database.Postgres.Port,
		cfg.Database.Postgres.Database,
	)
}

func clickhouseURL(cfg *config.Config) string {
	return fmt.Sprintf(
		"clickhouse://%s:%s@%s:%s/%s",
		cfg.Database.ClickHouse.User,
		cfg.Database.ClickHouse.Password,
		cfg.Database.ClickHouse.Host,
		cfg.Database.ClickHouse.Port,
		cfg.Database.ClickHouse.Database,
	)
}

func runMigrations(databaseURL, migrationsPath, action string) error {
	switch action {
	case "up":
		log.Printf("Running migrations from %s...", migrationsPath)
		if err := storage.RunMigrations(databaseURL, migrationsPath); err != nil {
			return err
		}
		log.Println("Migrations completed successfully")
	case "down":
		log.Println("Rolling back last migration...")
		if err := storage.RollbackMigrations(databaseURL, migrationsPath); err != nil {
			return err
		}
		log.Println("Rollback completed successfully")
	case "version":
		version, dirty, err := storage.MigrationVersion(databaseURL, migrationsPath)
		if err != nil {
			return err
		}
		log.Printf("Current version: %d (dirty: %v)", version, dirty)
	default:
		return fmt.Errorf("unknown action: %s", action)
	}
	return nil
}
