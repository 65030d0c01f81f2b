package database

import (
	"database/sql"
	"fmt"
)

// Schema creates the run history tables. It is idempotent.
const Schema = `
	CREATE TABLE IF NOT EXISTS scenario_runs (
		id UUID PRIMARY KEY,
		scenario VARCHAR(255) NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL,
		error_kind VARCHAR(50) NOT NULL DEFAULT '',
		diagnostic TEXT NOT NULL DEFAULT '',
		screenshot TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scenario_runs_scenario ON scenario_runs(scenario);
	CREATE INDEX IF NOT EXISTS idx_scenario_runs_started_at ON scenario_runs(started_at DESC);

	CREATE TABLE IF NOT EXISTS step_results (
		run_id UUID NOT NULL REFERENCES scenario_runs(id) ON DELETE CASCADE,
		step_index INTEGER NOT NULL,
		kind VARCHAR(50) NOT NULL,
		description TEXT NOT NULL,
		attempts INTEGER NOT NULL,
		selector TEXT NOT NULL DEFAULT '',
		duration_ms BIGINT NOT NULL,
		suppressed INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, step_index)
	);
`

// RunMigrations creates the run history tables
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("database connection not initialized")
	}

	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create run history tables: %w", err)
	}

	return nil
}
