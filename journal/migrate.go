package journal

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the latest schema version supported by the migrator.
const SchemaVersion = 1

// Migrate creates the journal tables if they are missing and records the
// schema version.
func Migrate(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migrate: db is nil")
	}

	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY);`)
	if err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current int
	err = db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations;`).Scan(&current)
	if err != nil {
		return fmt.Errorf("migrate: read current version: %w", err)
	}
	if current >= SchemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS cycles (
			id TEXT PRIMARY KEY,
			number INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			succeeded INTEGER NOT NULL,
			error TEXT NULL,
			metal INTEGER NOT NULL,
			crystal INTEGER NOT NULL,
			deuterium INTEGER NOT NULL,
			energy INTEGER NOT NULL,
			colonies INTEGER NOT NULL,
			ready_build INTEGER NOT NULL,
			ready_raid INTEGER NOT NULL,
			ready_colonize INTEGER NOT NULL,
			delay_ms INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate: create cycles table: %w", err)
	}

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS phases (
			cycle_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			phase TEXT NOT NULL,
			ran INTEGER NOT NULL,
			acted INTEGER NOT NULL,
			error TEXT NULL,
			PRIMARY KEY (cycle_id, seq),
			FOREIGN KEY(cycle_id) REFERENCES cycles(id)
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate: create phases table: %w", err)
	}

	_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_cycles_started_at ON cycles(started_at);`)
	if err != nil {
		return fmt.Errorf("migrate: create idx_cycles_started_at: %w", err)
	}

	_, err = tx.Exec(`INSERT INTO schema_migrations(version) VALUES (?);`, SchemaVersion)
	if err != nil {
		return fmt.Errorf("migrate: record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit transaction: %w", err)
	}
	return nil
}
