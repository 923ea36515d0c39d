package infrastructure

import (
	"database/sql"
	"fmt"

	log "github.com/sirupsen/logrus"

	"supplymarket_api/pkg/dbconnect/migration"
)

const (
	MarketplaceSchemaMigration = "marketplace.schema"
	MarketplaceKVMigration     = "marketplace.kv"
)

type MigrationsSchema struct{}

func (m *MigrationsSchema) UpMigration(db *sql.DB) error {
	_, err := db.Exec(`CREATE SCHEMA IF NOT EXISTS migrations;`)
	if err != nil {
		return fmt.Errorf("failed to create migrations schema: %w", err)
	}
	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS migrations.migrations (
            id SERIAL PRIMARY KEY,
            time TIMESTAMP NOT NULL,
            name VARCHAR(255) UNIQUE NOT NULL
        );
    `)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// applyOnce runs query unless a migration called name has already been recorded.
func applyOnce(db *sql.DB, name, query string) error {
	var migrationExists bool

	err := db.QueryRow("SELECT EXISTS (SELECT 1 FROM migrations.migrations WHERE name = $1)", name).Scan(&migrationExists)
	if err != nil {
		return fmt.Errorf("failed to check migration status: %w", err)
	}
	if migrationExists {
		log.WithField("migration", name).Debug("Migration already completed. Skipping.")
		return nil
	}

	if _, err = db.Exec(query); err != nil {
		return fmt.Errorf("failed to apply %s: %w", name, err)
	}

	_, err = db.Exec("INSERT INTO migrations.migrations (name, time) VALUES ($1, current_timestamp)", name)
	if err != nil {
		return fmt.Errorf("failed to mark '%s' migration as complete: %w", name, err)
	}

	log.WithField("migration", name).Info("Migration completed successfully.")
	return nil
}

type MarketplaceSchema struct{}

func (m *MarketplaceSchema) UpMigration(db *sql.DB) error {
	return applyOnce(db, MarketplaceSchemaMigration, `CREATE SCHEMA IF NOT EXISTS marketplace;`)
}

// KVTable holds one JSON document per repository collection.
type KVTable struct{}

func (m *KVTable) UpMigration(db *sql.DB) error {
	return applyOnce(db, MarketplaceKVMigration, `
        CREATE TABLE IF NOT EXISTS marketplace.kv (
            key TEXT PRIMARY KEY,
            value JSONB NOT NULL,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP NOT NULL
        );
    `)
}

// All lists the migrations in the order they must run.
func All() []migration.MigrationInterface {
	return []migration.MigrationInterface{
		&MigrationsSchema{},
		&MarketplaceSchema{},
		&KVTable{},
	}
}
