package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/themizzi/scenariorunner/internal/browser"
)

// Error kinds recorded on a failed run.
const (
	KindLaunch          = "launch"
	KindNavigation      = "navigation"
	KindElementNotFound = "element_not_found"
	KindNotInteractable = "element_not_interactable"
	KindAssertion       = "assertion"
	KindCancelled       = "cancelled"
	KindInternal        = "internal"
)

// LaunchError is returned when a session cannot be acquired.
type LaunchError = browser.LaunchError

// NavigationError reports that a Navigate step did not reach its wait
// condition.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// ElementNotFoundError reports that no element attached for the locator
// before the step's timeout.
type ElementNotFoundError struct {
	Selector string
	Timeout  time.Duration
	Err      error
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element %s not found within %dms", e.Selector, e.Timeout.Milliseconds())
}

func (e *ElementNotFoundError) Unwrap() error { return e.Err }

// ElementNotInteractableError reports that the element exists but the
// action on it failed.
type ElementNotInteractableError struct {
	Selector string
	Action   string
	Err      error
}

func (e *ElementNotInteractableError) Error() string {
	return fmt.Sprintf("cannot %s element %s: %v", e.Action, e.Selector, e.Err)
}

func (e *ElementNotInteractableError) Unwrap() error { return e.Err }

// TransientWaitTimeout is a load-state wait that did not complete. It is
// recorded on the step result and never fails the run.
type TransientWaitTimeout struct {
	Target string
	State  string
	Err    error
}

func (e TransientWaitTimeout) Error() string {
	return fmt.Sprintf("%s did not reach %s: %v", e.Target, e.State, e.Err)
}

func (e TransientWaitTimeout) Unwrap() error { return e.Err }

// AssertionError is a terminal failure carrying the assertion's diagnostic.
type AssertionError struct {
	Diagnostic string
	Err        error
}

func (e *AssertionError) Error() string { return e.Diagnostic }

func (e *AssertionError) Unwrap() error { return e.Err }

// ErrorKind classifies err into one of the Kind constants.
func ErrorKind(err error) string {
	var (
		launch     *LaunchError
		nav        *NavigationError
		notFound   *ElementNotFoundError
		notAllowed *ElementNotInteractableError
		assertion  *AssertionError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &launch):
		return KindLaunch
	case errors.As(err, &assertion):
		return KindAssertion
	case errors.As(err, &notFound):
		return KindElementNotFound
	case errors.As(err, &notAllowed):
		return KindNotInteractable
	case errors.As(err, &nav):
		return KindNavigation
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	default:
		return KindInternal
	}
}
