package runner

import (
	"time"

	"github.com/themizzi/scenariorunner/internal/scenario"
)

// Status is the final outcome of a run.
type Status string

// Run statuses
const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// StepResult is what one step did. Attempts counts tries of an interaction
// step and is 1 for every other kind. Selector is the selector that
// succeeded, if any.
type StepResult struct {
	Index       int
	Kind        scenario.StepKind
	Description string
	Attempts    int
	Selector    string
	Duration    time.Duration
	Suppressed  []TransientWaitTimeout
	Err         error
}

// Failed reports whether the step ended the run.
func (r StepResult) Failed() bool { return r.Err != nil }

// AssertionResult is the outcome of one terminal check.
type AssertionResult struct {
	Assertion  scenario.Assertion
	Passed     bool
	Diagnostic string
	Err        error
}

// Result is the report for one scenario run.
type Result struct {
	RunID      string
	Scenario   string
	Source     string
	Status     Status
	ErrorKind  string
	Diagnostic string
	Steps      []StepResult
	Assertions []AssertionResult
	Screenshot string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Passed reports whether the run passed.
func (r *Result) Passed() bool { return r.Status == StatusPassed }

// Duration is the wall time of the run.
func (r *Result) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Summary counts results.
type Summary struct {
	Total    int
	Passed   int
	Failed   int
	Duration time.Duration
}

// Summarize totals results. Duration is the sum of run durations.
func Summarize(results []*Result) Summary {
	var s Summary
	for _, r := range results {
		s.Total++
		if r.Passed() {
			s.Passed++
		} else {
			s.Failed++
		}
		s.Duration += r.Duration()
	}
	return s
}

// OK reports whether every run passed.
func (s Summary) OK() bool { return s.Failed == 0 }
