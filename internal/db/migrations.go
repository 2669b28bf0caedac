package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS detection_events (
		id              BIGSERIAL PRIMARY KEY,
		event_id        TEXT NOT NULL,
		plate           TEXT NOT NULL,
		region_code     TEXT,
		region_name     TEXT,
		direction       TEXT NOT NULL,
		confidence      NUMERIC(5,4) NOT NULL,
		observed_at     TIMESTAMPTZ NOT NULL,
		observations    JSONB,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_detection_events_event_id ON detection_events(event_id);`,
	`CREATE INDEX IF NOT EXISTS idx_detection_events_plate ON detection_events(plate);`,
	`CREATE INDEX IF NOT EXISTS idx_detection_events_observed_at ON detection_events(observed_at);`,
	`CREATE TABLE IF NOT EXISTS vehicle_records (
		id              BIGSERIAL PRIMARY KEY,
		plate           TEXT NOT NULL,
		region_code     TEXT,
		region_name     TEXT,
		first_seen      TIMESTAMPTZ NOT NULL,
		last_seen       TIMESTAMPTZ,
		entry_count     INT NOT NULL DEFAULT 0,
		exit_count      INT NOT NULL DEFAULT 0,
		status          TEXT NOT NULL DEFAULT 'OUTSIDE',
		last_direction  TEXT,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_vehicle_records_plate ON vehicle_records(plate);`,
	`CREATE INDEX IF NOT EXISTS idx_vehicle_records_status ON vehicle_records(status);`,
}

// Migrate creates the ledger schema. A failure here is not fatal to the
// pipeline; the caller decides whether to continue without persistence.
func Migrate(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
