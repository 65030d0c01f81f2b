package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/themizzi/scenariorunner/internal/models"
)

// ErrRunNotFound is returned when no run matches the requested id
var ErrRunNotFound = errors.New("run not found")

// RunRepository handles run history persistence
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a repository over an open database
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// SaveRun inserts a run and its steps in one transaction
func (r *RunRepository) SaveRun(ctx context.Context, run *models.RunRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO scenario_runs (id, scenario, source, status, error_kind, diagnostic, screenshot, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.ExecContext(ctx, query,
		run.ID,
		run.Scenario,
		run.Source,
		string(run.Status),
		run.ErrorKind,
		run.Diagnostic,
		run.Screenshot,
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stepQuery := `
		INSERT INTO step_results (run_id, step_index, kind, description, attempts, selector, duration_ms, suppressed, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, step := range run.Steps {
		_, err = tx.ExecContext(ctx, stepQuery,
			run.ID,
			step.Index,
			step.Kind,
			step.Description,
			step.Attempts,
			step.Selector,
			step.DurationMs,
			step.Suppressed,
			step.Error,
		)
		if err != nil {
			return fmt.Errorf("failed to insert step %d: %w", step.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	return nil
}

// GetRun retrieves a run and its steps by id
func (r *RunRepository) GetRun(ctx context.Context, id string) (*models.RunRecord, error) {
	query := `
		SELECT id, scenario, source, status, error_kind, diagnostic, screenshot, started_at, finished_at
		FROM scenario_runs
		WHERE id = $1
	`
	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	steps, err := r.steps(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Steps = steps

	return run, nil
}

// ListRecent returns the newest runs first, without their steps.
// An empty scenario matches every scenario.
func (r *RunRepository) ListRecent(ctx context.Context, scenario string, limit int) ([]*models.RunRecord, error) {
	query := `
		SELECT id, scenario, source, status, error_kind, diagnostic, screenshot, started_at, finished_at
		FROM scenario_runs
		WHERE ($1::text = '' OR scenario = $1)
		ORDER BY started_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, scenario, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return runs, nil
}

func (r *RunRepository) steps(ctx context.Context, runID string) ([]models.StepRecord, error) {
	query := `
		SELECT step_index, kind, description, attempts, selector, duration_ms, suppressed, error
		FROM step_results
		WHERE run_id = $1
		ORDER BY step_index
	`
	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get steps: %w", err)
	}
	defer rows.Close()

	var steps []models.StepRecord
	for rows.Next() {
		var s models.StepRecord
		if err := rows.Scan(&s.Index, &s.Kind, &s.Description, &s.Attempts, &s.Selector, &s.DurationMs, &s.Suppressed, &s.Error); err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		steps = append(steps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get steps: %w", err)
	}

	return steps, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.RunRecord, error) {
	run := &models.RunRecord{}
	var status string
	err := row.Scan(
		&run.ID,
		&run.Scenario,
		&run.Source,
		&status,
		&run.ErrorKind,
		&run.Diagnostic,
		&run.Screenshot,
		&run.StartedAt,
		&run.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	run.Status = models.RunState(status)
	return run, nil
}
