package models

import (
	"errors"
	"testing"
)

func TestNewRun(t *testing.T) {
	tests := []struct {
		name         string
		scenarioName string
		wantErr      error
	}{
		{name: "valid run", scenarioName: "login redirects to dashboard"},
		{name: "empty scenario name", scenarioName: "", wantErr: ErrInvalidScenarioName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run, err := NewRun(tt.scenarioName)

			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("NewRun() error = %v, wantErr %v", err, tt.wantErr)
				}
				if run != nil {
					t.Error("Expected run to be nil when error occurs")
				}
				return
			}

			if err != nil {
				t.Fatalf("NewRun() unexpected error = %v", err)
			}
			if run.ID == "" {
				t.Error("Run ID should not be empty")
			}
			if run.State != RunStateIdle {
				t.Errorf("Expected state %s, got %s", RunStateIdle, run.State)
			}
			if run.StepIndex != -1 {
				t.Errorf("Expected step index -1, got %d", run.StepIndex)
			}
			if run.StartedAt.IsZero() {
				t.Error("StartedAt should be set")
			}
		})
	}
}

func TestRun_HappyPath(t *testing.T) {
	// GIVEN
	run, _ := NewRun("register")

	// WHEN
	steps := []func() error{
		run.MarkSessionReady,
		func() error { return run.BeginStep(0) },
		func() error { return run.BeginStep(1) },
		run.BeginAssertions,
		run.Pass,
		run.TearDown,
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("transition %d failed: %v", i, err)
		}
	}

	// THEN
	if !run.IsPassed() {
		t.Error("Expected run to be passed")
	}
	if !run.IsTornDown() {
		t.Error("Expected run to be torn down")
	}
	if run.FinishedAt.IsZero() {
		t.Error("FinishedAt should be set after teardown")
	}
	if run.Duration() < 0 {
		t.Error("Duration should not be negative")
	}
}

func TestRun_StepGuards(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Run)
		index int
	}{
		{
			name:  "step before session ready",
			setup: func(r *Run) {},
			index: 0,
		},
		{
			name: "step out of order",
			setup: func(r *Run) {
				r.MarkSessionReady()
			},
			index: 2,
		},
		{
			name: "step after teardown",
			setup: func(r *Run) {
				r.MarkSessionReady()
				r.TearDown()
			},
			index: 0,
		},
		{
			name: "step after failure",
			setup: func(r *Run) {
				r.MarkSessionReady()
				r.BeginStep(0)
				r.Fail("element_not_found", "no element")
			},
			index: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run, _ := NewRun("guards")
			tt.setup(run)

			err := run.BeginStep(tt.index)
			if !errors.Is(err, ErrInvalidStateTransition) {
				t.Errorf("Expected ErrInvalidStateTransition, got %v", err)
			}
		})
	}
}

func TestRun_Fail(t *testing.T) {
	// GIVEN
	run, _ := NewRun("fail")
	run.MarkSessionReady()
	run.BeginStep(0)

	// WHEN
	err := run.Fail("element_not_found", "element xpath=//button not found within 5000ms")

	// THEN
	if err != nil {
		t.Fatalf("Fail() unexpected error = %v", err)
	}
	if !run.IsFailed() {
		t.Error("Expected run to be failed")
	}

	// A second diagnostic is rejected so only one is ever reported
	if err := run.Fail("assertion", "other"); !errors.Is(err, ErrOutcomeAlreadyDetermined) {
		t.Errorf("Expected ErrOutcomeAlreadyDetermined, got %v", err)
	}
	if run.Diagnostic != "element xpath=//button not found within 5000ms" {
		t.Errorf("Diagnostic was overwritten: %s", run.Diagnostic)
	}

	// Failed runs still tear down
	if err := run.TearDown(); err != nil {
		t.Errorf("TearDown() unexpected error = %v", err)
	}
	if !run.IsFailed() {
		t.Error("Outcome should survive teardown")
	}
}

func TestRun_FailFromIdle(t *testing.T) {
	run, _ := NewRun("launch error")

	if err := run.Fail("launch", "browser did not start"); err != nil {
		t.Fatalf("Fail() from idle unexpected error = %v", err)
	}
	if err := run.Fail("launch", ""); err != ErrDiagnosticRequired {
		t.Errorf("Expected ErrDiagnosticRequired, got %v", err)
	}
}

func TestRun_PassRequiresAsserting(t *testing.T) {
	run, _ := NewRun("pass")
	run.MarkSessionReady()

	if err := run.Pass(); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("Expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestRun_TearDownOnce(t *testing.T) {
	run, _ := NewRun("teardown")

	if err := run.TearDown(); err != nil {
		t.Fatalf("first TearDown() unexpected error = %v", err)
	}
	if err := run.TearDown(); err != ErrRunAlreadyTornDown {
		t.Errorf("Expected ErrRunAlreadyTornDown, got %v", err)
	}
	if err := run.Fail("x", "y"); err != ErrRunAlreadyTornDown {
		t.Errorf("Expected ErrRunAlreadyTornDown on Fail after teardown, got %v", err)
	}
	if err := run.MarkSessionReady(); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("Expected ErrInvalidStateTransition, got %v", err)
	}
}
