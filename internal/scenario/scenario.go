package scenario

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default timeouts applied when a step or assertion leaves its timeout unset.
const (
	DefaultNavigateTimeout  = 30 * time.Second
	DefaultSettleTimeout    = 3 * time.Second
	DefaultLoadStateTimeout = 3 * time.Second
	DefaultActionTimeout    = 5 * time.Second
	DefaultAssertTimeout    = 5 * time.Second
)

// Scenario is one end-to-end test case: ordered steps plus terminal assertions.
// It is immutable once loaded.
type Scenario struct {
	Name        string
	Description string
	Tags        []string
	Source      string

	// Settle is a fixed pause before every click and fill. Zero uses the
	// runner default.
	Settle time.Duration

	// Retry overrides the runner's retry policy for interaction steps.
	Retry *RetryPolicy

	Steps      []Step
	Assertions []Assertion
}

// RetryPolicy bounds how interaction steps are retried.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// Attempts returns the number of attempts, never less than one.
func (p *RetryPolicy) Attempts() int {
	if p == nil || p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// HasTag reports whether the scenario carries the tag.
func (s *Scenario) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Duration is a time.Duration that unmarshals from "3s" or integer milliseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", value.Line)
	}
	if ms, err := strconv.ParseInt(value.Value, 10, 64); err == nil {
		if ms < 0 {
			return fmt.Errorf("line %d: duration must not be negative", value.Line)
		}
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q", value.Line, value.Value)
	}
	if parsed < 0 {
		return fmt.Errorf("line %d: duration must not be negative", value.Line)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }
