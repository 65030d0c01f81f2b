package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themizzi/scenariorunner/internal/models"
	"github.com/themizzi/scenariorunner/internal/services"
)

func TestShowHistory(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	runs := []*models.RunRecord{
		{ID: "2", Scenario: "login", Status: models.RunStateFailed, Diagnostic: "redirect did not occur", StartedAt: start.Add(time.Hour), FinishedAt: start.Add(time.Hour + 2*time.Second)},
		{ID: "1", Scenario: "login", Status: models.RunStatePassed, StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond)},
	}

	tests := []struct {
		name         string
		scenario     string
		runs         []*models.RunRecord
		checkContent []string
		notContent   []string
	}{
		{
			name:         "all scenarios",
			runs:         runs,
			checkContent: []string{"SCENARIO", "redirect did not occur", "1.5s", "passed"},
			notContent:   []string{"last"},
		},
		{
			name:         "one scenario adds stats",
			scenario:     "login",
			runs:         runs,
			checkContent: []string{"login: 1/2 passed (50%), last failed"},
		},
		{
			name:         "empty history",
			checkContent: []string{"no runs recorded"},
			notContent:   []string{"SCENARIO"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN
			history := &MockHistoryService{
				RecentFunc: func(context.Context, string, int) ([]*models.RunRecord, error) {
					return tt.runs, nil
				},
				StatsFunc: func(_ context.Context, scenario string, _ int) (*services.Stats, error) {
					return &services.Stats{Scenario: scenario, Runs: 2, Passed: 1, Failed: 1, LastStatus: models.RunStateFailed}, nil
				},
			}
			var out bytes.Buffer

			// WHEN
			err := ShowHistory(context.Background(), history, tt.scenario, 10, &out)

			// THEN
			require.NoError(t, err)
			for _, content := range tt.checkContent {
				assert.Contains(t, out.String(), content)
			}
			for _, content := range tt.notContent {
				assert.NotContains(t, out.String(), content)
			}
		})
	}
}

func TestShowHistory_Error(t *testing.T) {
	dbErr := errors.New("connection refused")
	history := &MockHistoryService{
		RecentFunc: func(context.Context, string, int) ([]*models.RunRecord, error) {
			return nil, dbErr
		},
	}

	err := ShowHistory(context.Background(), history, "", 10, &bytes.Buffer{})

	assert.ErrorIs(t, err, dbErr)
}
