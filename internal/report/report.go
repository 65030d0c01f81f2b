// Package report renders run results as text, JSON or JUnit XML.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/themizzi/scenariorunner/internal/runner"
)

// Format names an output format.
type Format string

// Supported formats
const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatJUnit Format = "junit"
)

// Reporter writes results to w.
type Reporter interface {
	Report(w io.Writer, results []*runner.Result) error
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatJUnit:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q (must be text, json or junit)", s)
	}
}

// New returns the reporter for format.
func New(format Format) (Reporter, error) {
	switch format {
	case FormatText:
		return TextReporter{}, nil
	case FormatJSON:
		return JSONReporter{}, nil
	case FormatJUnit:
		return JUnitReporter{Suite: "scenariorunner"}, nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

func millis(d time.Duration) int64 { return d.Milliseconds() }

func seconds(d time.Duration) string { return fmt.Sprintf("%.3f", d.Seconds()) }

// failedStep returns the step that ended the run, if any.
func failedStep(r *runner.Result) (runner.StepResult, bool) {
	for _, s := range r.Steps {
		if s.Failed() {
			return s, true
		}
	}
	return runner.StepResult{}, false
}
