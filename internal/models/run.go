package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunState represents the lifecycle states of a scenario run
type RunState string

// Run states
const (
	RunStateIdle         RunState = "idle"
	RunStateSessionReady RunState = "session_ready"
	RunStateExecuting    RunState = "executing"
	RunStateAsserting    RunState = "asserting"
	RunStatePassed       RunState = "passed"
	RunStateFailed       RunState = "failed"
	RunStateTornDown     RunState = "torn_down"
)

// Run tracks one execution of a scenario through its state machine
type Run struct {
	ID           string
	ScenarioName string
	State        RunState
	Outcome      RunState
	StepIndex    int
	ErrorKind    string
	Diagnostic   string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Domain errors
var (
	ErrInvalidScenarioName      = errors.New("scenario name cannot be empty")
	ErrInvalidStateTransition   = errors.New("invalid run state transition")
	ErrRunAlreadyTornDown       = errors.New("run is already torn down")
	ErrDiagnosticRequired       = errors.New("failed runs require a diagnostic")
	ErrOutcomeAlreadyDetermined = errors.New("run outcome is already determined")
)

// NewRun creates an idle run for the named scenario
func NewRun(scenarioName string) (*Run, error) {
	if scenarioName == "" {
		return nil, ErrInvalidScenarioName
	}

	return &Run{
		ID:           uuid.New().String(),
		ScenarioName: scenarioName,
		State:        RunStateIdle,
		StepIndex:    -1,
		StartedAt:    time.Now(),
	}, nil
}

// MarkSessionReady records that the browser session is live
func (r *Run) MarkSessionReady() error {
	if r.State != RunStateIdle {
		return fmt.Errorf("%w: cannot mark session ready from %s", ErrInvalidStateTransition, r.State)
	}
	r.State = RunStateSessionReady
	return nil
}

// BeginStep moves the run to executing the step at index
func (r *Run) BeginStep(index int) error {
	if !r.CanRunStep() {
		return fmt.Errorf("%w: cannot run step %d from %s", ErrInvalidStateTransition, index, r.State)
	}
	if index != r.StepIndex+1 {
		return fmt.Errorf("%w: step %d out of order, last was %d", ErrInvalidStateTransition, index, r.StepIndex)
	}
	r.State = RunStateExecuting
	r.StepIndex = index
	return nil
}

// BeginAssertions moves the run to evaluating terminal assertions
func (r *Run) BeginAssertions() error {
	if !r.CanRunStep() {
		return fmt.Errorf("%w: cannot assert from %s", ErrInvalidStateTransition, r.State)
	}
	r.State = RunStateAsserting
	return nil
}

// Pass marks the run as passed
func (r *Run) Pass() error {
	if r.State != RunStateAsserting {
		return fmt.Errorf("%w: cannot pass run from %s", ErrInvalidStateTransition, r.State)
	}
	r.State = RunStatePassed
	r.Outcome = RunStatePassed
	return nil
}

// Fail marks the run as failed with exactly one diagnostic
func (r *Run) Fail(kind, diagnostic string) error {
	if diagnostic == "" {
		return ErrDiagnosticRequired
	}
	if r.State == RunStateTornDown {
		return ErrRunAlreadyTornDown
	}
	if r.Outcome != "" {
		return fmt.Errorf("%w: %s", ErrOutcomeAlreadyDetermined, r.Outcome)
	}

	r.State = RunStateFailed
	r.Outcome = RunStateFailed
	r.ErrorKind = kind
	r.Diagnostic = diagnostic
	return nil
}

// TearDown marks the session as released. Reachable from every state, once.
func (r *Run) TearDown() error {
	if r.State == RunStateTornDown {
		return ErrRunAlreadyTornDown
	}
	r.State = RunStateTornDown
	r.FinishedAt = time.Now()
	return nil
}

// CanRunStep returns true while the session is live and no outcome is decided
func (r *Run) CanRunStep() bool {
	return r.State == RunStateSessionReady || r.State == RunStateExecuting
}

// IsPassed returns true if the run passed
func (r *Run) IsPassed() bool {
	return r.Outcome == RunStatePassed
}

// IsFailed returns true if the run failed
func (r *Run) IsFailed() bool {
	return r.Outcome == RunStateFailed
}

// IsTornDown returns true once the session has been released
func (r *Run) IsTornDown() bool {
	return r.State == RunStateTornDown
}

// Duration returns the wall time of the run, or time since start if still running
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
