package models

import "time"

// RunRecord is the persisted summary of a finished run
type RunRecord struct {
	ID         string
	Scenario   string
	Source     string
	Status     RunState
	ErrorKind  string
	Diagnostic string
	Screenshot string
	StartedAt  time.Time
	FinishedAt time.Time
	Steps      []StepRecord
}

// StepRecord is the persisted outcome of one step
type StepRecord struct {
	Index       int
	Kind        string
	Description string
	Attempts    int
	Selector    string
	DurationMs  int64
	Suppressed  int
	Error       string
}

// Passed returns true if the recorded run passed
func (r *RunRecord) Passed() bool {
	return r.Status == RunStatePassed
}

// Duration returns the recorded wall time
func (r *RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
