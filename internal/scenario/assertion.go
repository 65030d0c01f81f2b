package scenario

import (
	"fmt"
	"time"
)

// AssertionKind identifies a terminal check.
type AssertionKind string

// Assertion kinds
const (
	AssertVisible     AssertionKind = "visible"
	AssertURLContains AssertionKind = "url_contains"
)

// Assertion is a terminal condition checked after all steps complete.
// Message is the fixed diagnostic reported when the check fails.
type Assertion struct {
	Kind     AssertionKind
	Locator  Locator
	Fragment string
	Timeout  time.Duration
	Message  string
}

// Validate checks the assertion has what its kind needs.
func (a Assertion) Validate() error {
	switch a.Kind {
	case AssertVisible:
		if len(a.Locator.Fallbacks) > 0 {
			return fmt.Errorf("visible assertions do not take fallbacks")
		}
		return a.Locator.Validate()
	case AssertURLContains:
		if a.Fragment == "" {
			return fmt.Errorf("url_contains requires a fragment")
		}
		return nil
	default:
		return fmt.Errorf("unknown assertion kind %q", a.Kind)
	}
}

// Describe returns a short human form of the expectation.
func (a Assertion) Describe() string {
	switch a.Kind {
	case AssertVisible:
		return fmt.Sprintf("expected %s visible within %dms", a.Locator, a.Timeout.Milliseconds())
	case AssertURLContains:
		return fmt.Sprintf("expected url to contain %q within %dms", a.Fragment, a.Timeout.Milliseconds())
	default:
		return string(a.Kind)
	}
}

// Diagnostic returns the fixed message, or Describe when none was given.
func (a Assertion) Diagnostic() string {
	if a.Message != "" {
		return a.Message
	}
	return a.Describe()
}
