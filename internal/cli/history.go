package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/themizzi/scenariorunner/internal/config"
	"github.com/themizzi/scenariorunner/internal/database"
	"github.com/themizzi/scenariorunner/internal/repository"
	"github.com/themizzi/scenariorunner/internal/services"
)

// OpenHistory connects to Postgres, applies the schema and returns the
// history service. The caller closes the returned database.
func OpenHistory(cfg *config.PostgresConfig) (services.HistoryService, *sql.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	return services.NewHistoryService(repository.NewRunRepository(db)), db, nil
}

// ShowHistory prints recent runs, newest first. With a scenario name it
// also prints that scenario's pass rate.
func ShowHistory(ctx context.Context, history services.HistoryService, scenarioName string, limit int, w io.Writer) error {
	runs, err := history.Recent(ctx, scenarioName, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("STARTED", "SCENARIO", "STATUS", "DURATION", "DIAGNOSTIC")
	for _, run := range runs {
		t.Row(
			run.StartedAt.Local().Format(time.DateTime),
			run.Scenario,
			string(run.Status),
			run.Duration().Round(time.Millisecond).String(),
			run.Diagnostic,
		)
	}
	if _, err := fmt.Fprintln(w, t.String()); err != nil {
		return err
	}

	if scenarioName == "" {
		return nil
	}
	stats, err := history.Stats(ctx, scenarioName, limit)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%s: %d/%d passed (%.0f%%), last %s\n",
		stats.Scenario, stats.Passed, stats.Runs, stats.PassRate()*100, stats.LastStatus)
	return nil
}
