package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/themizzi/scenariorunner/internal/runner"
)

// JSONReporter writes a single indented JSON document.
type JSONReporter struct{}

type jsonReport struct {
	Summary jsonSummary `json:"summary"`
	Runs    []jsonRun   `json:"runs"`
}

type jsonSummary struct {
	Total      int   `json:"total"`
	Passed     int   `json:"passed"`
	Failed     int   `json:"failed"`
	DurationMs int64 `json:"duration_ms"`
}

type jsonRun struct {
	RunID      string          `json:"run_id"`
	Scenario   string          `json:"scenario"`
	Source     string          `json:"source,omitempty"`
	Status     string          `json:"status"`
	ErrorKind  string          `json:"error_kind,omitempty"`
	Diagnostic string          `json:"diagnostic,omitempty"`
	Screenshot string          `json:"screenshot,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	DurationMs int64           `json:"duration_ms"`
	Steps      []jsonStep      `json:"steps"`
	Assertions []jsonAssertion `json:"assertions,omitempty"`
}

type jsonStep struct {
	Index       int      `json:"index"`
	Kind        string   `json:"kind"`
	Description string   `json:"description"`
	Attempts    int      `json:"attempts"`
	Selector    string   `json:"selector,omitempty"`
	DurationMs  int64    `json:"duration_ms"`
	Suppressed  []string `json:"suppressed,omitempty"`
	Error       string   `json:"error,omitempty"`
}

type jsonAssertion struct {
	Expectation string `json:"expectation"`
	Passed      bool   `json:"passed"`
	Diagnostic  string `json:"diagnostic,omitempty"`
}

// Report implements Reporter.
func (JSONReporter) Report(w io.Writer, results []*runner.Result) error {
	sum := runner.Summarize(results)
	doc := jsonReport{
		Summary: jsonSummary{
			Total:      sum.Total,
			Passed:     sum.Passed,
			Failed:     sum.Failed,
			DurationMs: millis(sum.Duration),
		},
		Runs: make([]jsonRun, 0, len(results)),
	}

	for _, r := range results {
		run := jsonRun{
			RunID:      r.RunID,
			Scenario:   r.Scenario,
			Source:     r.Source,
			Status:     string(r.Status),
			ErrorKind:  r.ErrorKind,
			Diagnostic: r.Diagnostic,
			Screenshot: r.Screenshot,
			StartedAt:  r.StartedAt.UTC(),
			DurationMs: millis(r.Duration()),
			Steps:      make([]jsonStep, 0, len(r.Steps)),
		}
		for _, s := range r.Steps {
			step := jsonStep{
				Index:       s.Index,
				Kind:        string(s.Kind),
				Description: s.Description,
				Attempts:    s.Attempts,
				Selector:    s.Selector,
				DurationMs:  millis(s.Duration),
			}
			for _, t := range s.Suppressed {
				step.Suppressed = append(step.Suppressed, t.Error())
			}
			if s.Err != nil {
				step.Error = s.Err.Error()
			}
			run.Steps = append(run.Steps, step)
		}
		for _, a := range r.Assertions {
			run.Assertions = append(run.Assertions, jsonAssertion{
				Expectation: a.Assertion.Describe(),
				Passed:      a.Passed,
				Diagnostic:  a.Diagnostic,
			})
		}
		doc.Runs = append(doc.Runs, run)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
