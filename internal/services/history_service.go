package services

import (
	"context"
	"fmt"

	"github.com/themizzi/scenariorunner/internal/models"
	"github.com/themizzi/scenariorunner/internal/runner"
)

// History listing bounds
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 500
)

// RunRepository defines the interface for run history persistence
type RunRepository interface {
	SaveRun(ctx context.Context, run *models.RunRecord) error
	GetRun(ctx context.Context, id string) (*models.RunRecord, error)
	ListRecent(ctx context.Context, scenario string, limit int) ([]*models.RunRecord, error)
}

// HistoryService records finished runs and answers questions about them
type HistoryService interface {
	Record(ctx context.Context, results []*runner.Result) error
	Get(ctx context.Context, id string) (*models.RunRecord, error)
	Recent(ctx context.Context, scenario string, limit int) ([]*models.RunRecord, error)
	Stats(ctx context.Context, scenario string, limit int) (*Stats, error)
}

// Stats summarises the recent runs of one scenario
type Stats struct {
	Scenario   string
	Runs       int
	Passed     int
	Failed     int
	LastStatus models.RunState
}

// PassRate returns the fraction of passed runs, or 0 without runs
func (s *Stats) PassRate() float64 {
	if s.Runs == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Runs)
}

// HistoryServiceImpl implements HistoryService
type HistoryServiceImpl struct {
	runRepo RunRepository
}

// NewHistoryService creates a new history service
func NewHistoryService(runRepo RunRepository) HistoryService {
	return &HistoryServiceImpl{
		runRepo: runRepo,
	}
}

// Record persists every result. It stops at the first failed write.
func (s *HistoryServiceImpl) Record(ctx context.Context, results []*runner.Result) error {
	for _, res := range results {
		if res.RunID == "" {
			return fmt.Errorf("result for scenario %q has no run id", res.Scenario)
		}
		if err := s.runRepo.SaveRun(ctx, NewRunRecord(res)); err != nil {
			return fmt.Errorf("failed to record run %s: %w", res.RunID, err)
		}
	}
	return nil
}

// Get retrieves one run with its steps
func (s *HistoryServiceImpl) Get(ctx context.Context, id string) (*models.RunRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("run id cannot be empty")
	}

	run, err := s.runRepo.GetRun(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// Recent lists runs newest first. Limit is clamped to [1, MaxHistoryLimit]
// and defaults to DefaultHistoryLimit.
func (s *HistoryServiceImpl) Recent(ctx context.Context, scenario string, limit int) ([]*models.RunRecord, error) {
	runs, err := s.runRepo.ListRecent(ctx, scenario, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Stats counts outcomes over the most recent runs of a scenario
func (s *HistoryServiceImpl) Stats(ctx context.Context, scenario string, limit int) (*Stats, error) {
	if scenario == "" {
		return nil, fmt.Errorf("scenario cannot be empty")
	}

	runs, err := s.Recent(ctx, scenario, limit)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Scenario: scenario, Runs: len(runs)}
	for i, run := range runs {
		if i == 0 {
			stats.LastStatus = run.Status
		}
		if run.Passed() {
			stats.Passed++
		} else {
			stats.Failed++
		}
	}
	return stats, nil
}

// NewRunRecord converts a runner result into its persisted form
func NewRunRecord(res *runner.Result) *models.RunRecord {
	status := models.RunStateFailed
	if res.Passed() {
		status = models.RunStatePassed
	}

	rec := &models.RunRecord{
		ID:         res.RunID,
		Scenario:   res.Scenario,
		Source:     res.Source,
		Status:     status,
		ErrorKind:  res.ErrorKind,
		Diagnostic: res.Diagnostic,
		Screenshot: res.Screenshot,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
	}
	for _, step := range res.Steps {
		sr := models.StepRecord{
			Index:       step.Index,
			Kind:        string(step.Kind),
			Description: step.Description,
			Attempts:    step.Attempts,
			Selector:    step.Selector,
			DurationMs:  step.Duration.Milliseconds(),
			Suppressed:  len(step.Suppressed),
		}
		if step.Err != nil {
			sr.Error = step.Err.Error()
		}
		rec.Steps = append(rec.Steps, sr)
	}
	return rec
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}
