package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themizzi/scenariorunner/internal/models"
	"github.com/themizzi/scenariorunner/internal/runner"
	"github.com/themizzi/scenariorunner/internal/scenario"
)

// MockRunRepository is a mock implementation of RunRepository for testing
type MockRunRepository struct {
	SaveRunFunc    func(context.Context, *models.RunRecord) error
	GetRunFunc     func(context.Context, string) (*models.RunRecord, error)
	ListRecentFunc func(context.Context, string, int) ([]*models.RunRecord, error)
}

func (m *MockRunRepository) SaveRun(ctx context.Context, run *models.RunRecord) error {
	if m.SaveRunFunc != nil {
		return m.SaveRunFunc(ctx, run)
	}
	return nil
}

func (m *MockRunRepository) GetRun(ctx context.Context, id string) (*models.RunRecord, error) {
	if m.GetRunFunc != nil {
		return m.GetRunFunc(ctx, id)
	}
	return &models.RunRecord{ID: id}, nil
}

func (m *MockRunRepository) ListRecent(ctx context.Context, scenario string, limit int) ([]*models.RunRecord, error) {
	if m.ListRecentFunc != nil {
		return m.ListRecentFunc(ctx, scenario, limit)
	}
	return nil, nil
}

func failedResult() *runner.Result {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &runner.Result{
		RunID:      "run-2",
		Scenario:   "login",
		Source:     "scenarios/login.yaml",
		Status:     runner.StatusFailed,
		ErrorKind:  runner.KindElementNotFound,
		Diagnostic: "element text=Entrar not found within 5000ms",
		Screenshot: "artifacts/login-run2.png",
		StartedAt:  start,
		FinishedAt: start.Add(6 * time.Second),
		Steps: []runner.StepResult{
			{
				Index:       0,
				Kind:        scenario.KindNavigate,
				Description: "navigate /login",
				Attempts:    1,
				Duration:    250 * time.Millisecond,
				Suppressed:  []runner.TransientWaitTimeout{
					{Target: "page", State: "domcontentloaded", Err: errors.New("timeout")},
				},
			},
			{
				Index:       1,
				Kind:        scenario.KindClick,
				Description: "click text=Entrar",
				Attempts:    2,
				Duration:    5 * time.Second,
				Err:         errors.New("element text=Entrar not found within 5000ms"),
			},
		},
	}
}

func TestNewRunRecord(t *testing.T) {
	// GIVEN a failed result with a suppressed wait and a failed click
	res := failedResult()

	// WHEN converting it
	rec := NewRunRecord(res)

	// THEN every field carries over
	assert.Equal(t, "run-2", rec.ID)
	assert.Equal(t, models.RunStateFailed, rec.Status)
	assert.Equal(t, runner.KindElementNotFound, rec.ErrorKind)
	assert.Equal(t, 6*time.Second, rec.Duration())
	require.Len(t, rec.Steps, 2)
	assert.Equal(t, models.StepRecord{
		Index: 0, Kind: "navigate", Description: "navigate /login", Attempts: 1, DurationMs: 250, Suppressed: 1,
	}, rec.Steps[0])
	assert.Equal(t, "element text=Entrar not found within 5000ms", rec.Steps[1].Error)
	assert.Equal(t, int64(5000), rec.Steps[1].DurationMs)
}

func TestHistoryService_Record(t *testing.T) {
	passed := &runner.Result{RunID: "run-1", Scenario: "register", Status: runner.StatusPassed}

	tests := []struct {
		name      string
		results   []*runner.Result
		mockError error
		wantSaved []string
		wantErr   bool
	}{
		{
			name:      "records every result",
			results:   []*runner.Result{passed, failedResult()},
			wantSaved: []string{"run-1", "run-2"},
		},
		{
			name:      "stops at the first failed write",
			results:   []*runner.Result{passed, failedResult()},
			mockError: errors.New("database error"),
			wantSaved: []string{"run-1"},
			wantErr:   true,
		},
		{
			name:    "rejects results without a run id",
			results: []*runner.Result{{Scenario: "broken"}},
			wantErr: true,
		},
		{
			name: "nothing to record",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN a repository that records saved ids
			var saved []string
			mockRepo := &MockRunRepository{
				SaveRunFunc: func(_ context.Context, run *models.RunRecord) error {
					saved = append(saved, run.ID)
					return tt.mockError
				},
			}
			service := NewHistoryService(mockRepo)

			// WHEN recording the results
			err := service.Record(context.Background(), tt.results)

			// THEN the expected runs were written
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantSaved, saved)
		})
	}
}

func TestHistoryService_Recent_ClampsLimit(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{name: "default when zero", limit: 0, wantLimit: DefaultHistoryLimit},
		{name: "default when negative", limit: -5, wantLimit: DefaultHistoryLimit},
		{name: "kept when in range", limit: 7, wantLimit: 7},
		{name: "capped when too large", limit: 10000, wantLimit: MaxHistoryLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLimit int
			mockRepo := &MockRunRepository{
				ListRecentFunc: func(_ context.Context, _ string, limit int) ([]*models.RunRecord, error) {
					gotLimit = limit
					return nil, nil
				},
			}

			_, err := NewHistoryService(mockRepo).Recent(context.Background(), "login", tt.limit)

			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, gotLimit)
		})
	}
}

func TestHistoryService_Recent_RepositoryError(t *testing.T) {
	dbErr := errors.New("connection refused")
	mockRepo := &MockRunRepository{
		ListRecentFunc: func(context.Context, string, int) ([]*models.RunRecord, error) {
			return nil, dbErr
		},
	}

	_, err := NewHistoryService(mockRepo).Recent(context.Background(), "", 10)

	assert.ErrorIs(t, err, dbErr)
}

func TestHistoryService_Get(t *testing.T) {
	notFound := errors.New("run not found")

	tests := []struct {
		name      string
		id        string
		mockError error
		wantErr   bool
	}{
		{name: "existing run", id: "run-1"},
		{name: "empty id", id: "", wantErr: true},
		{name: "repository error", id: "run-9", mockError: notFound, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			mockRepo := &MockRunRepository{
				GetRunFunc: func(_ context.Context, id string) (*models.RunRecord, error) {
					called = true
					if tt.mockError != nil {
						return nil, tt.mockError
					}
					return &models.RunRecord{ID: id}, nil
				},
			}

			run, err := NewHistoryService(mockRepo).Get(context.Background(), tt.id)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.mockError != nil {
					assert.ErrorIs(t, err, tt.mockError)
				} else {
					assert.False(t, called, "repository should not be queried")
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, run.ID)
		})
	}
}

func TestHistoryService_Stats(t *testing.T) {
	// GIVEN three recent runs, newest failed
	mockRepo := &MockRunRepository{
		ListRecentFunc: func(_ context.Context, scenario string, _ int) ([]*models.RunRecord, error) {
			return []*models.RunRecord{
				{ID: "3", Scenario: scenario, Status: models.RunStateFailed},
				{ID: "2", Scenario: scenario, Status: models.RunStatePassed},
				{ID: "1", Scenario: scenario, Status: models.RunStatePassed},
			}, nil
		},
	}

	// WHEN computing stats
	stats, err := NewHistoryService(mockRepo).Stats(context.Background(), "login", 0)

	// THEN outcomes are counted and the last status is the newest run
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Runs)
	assert.Equal(t, 2, stats.Passed)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, models.RunStateFailed, stats.LastStatus)
	assert.InDelta(t, 2.0/3.0, stats.PassRate(), 1e-9)
}

func TestHistoryService_Stats_Empty(t *testing.T) {
	service := NewHistoryService(&MockRunRepository{})

	stats, err := service.Stats(context.Background(), "login", 10)
	require.NoError(t, err)
	assert.Zero(t, stats.Runs)
	assert.Zero(t, stats.PassRate())

	_, err = service.Stats(context.Background(), "", 10)
	assert.Error(t, err)
}
