package database

import (
	"strings"
	"testing"

	"github.com/themizzi/scenariorunner/internal/config"
)

func TestRunMigrations_NilDatabase(t *testing.T) {
	if err := RunMigrations(nil); err == nil {
		t.Error("Expected error for a nil database")
	}
}

func TestConnect_Unreachable(t *testing.T) {
	// GIVEN a server that refuses connections
	cfg := &config.PostgresConfig{
		User:     "postgres",
		Password: "postgres",
		Database: "postgres",
		Host:     "127.0.0.1",
		Port:     "1",
		SSLMode:  "disable",
	}

	// WHEN connecting
	db, err := Connect(cfg)

	// THEN the ping fails and no handle leaks
	if err == nil {
		db.Close()
		t.Fatal("Expected error for an unreachable database")
	}
	if !strings.Contains(err.Error(), "failed to ping database") {
		t.Errorf("Expected ping error, got %v", err)
	}
}

func TestSchema_CreatesRunTables(t *testing.T) {
	for _, table := range []string{"scenario_runs", "step_results"} {
		if !strings.Contains(Schema, "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("Expected schema to create %s", table)
		}
	}
}
