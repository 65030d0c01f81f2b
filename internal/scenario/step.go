package scenario

import (
	"fmt"
	"time"
)

// StepKind identifies the variant of a Step.
type StepKind string

// Step kinds
const (
	KindNavigate         StepKind = "navigate"
	KindClick            StepKind = "click"
	KindFill             StepKind = "fill"
	KindWaitForLoadState StepKind = "wait_for_load_state"
	KindPause            StepKind = "pause"
	KindMock             StepKind = "mock"
)

// WaitUntil is the navigation event a Navigate step blocks on.
type WaitUntil string

// Navigation wait conditions
const (
	WaitUntilCommit           WaitUntil = "commit"
	WaitUntilDOMContentLoaded WaitUntil = "domcontentloaded"
	WaitUntilLoad             WaitUntil = "load"
	WaitUntilNetworkIdle      WaitUntil = "networkidle"
)

// LoadState is a page load signal that can be waited on after navigation.
type LoadState string

// Load states. LoadStateNone disables the secondary wait after navigation.
const (
	LoadStateNone             LoadState = "none"
	LoadStateDOMContentLoaded LoadState = "domcontentloaded"
	LoadStateLoad             LoadState = "load"
	LoadStateNetworkIdle      LoadState = "networkidle"
)

var validWaitUntil = map[WaitUntil]bool{
	WaitUntilCommit:           true,
	WaitUntilDOMContentLoaded: true,
	WaitUntilLoad:             true,
	WaitUntilNetworkIdle:      true,
}

var validLoadStates = map[LoadState]bool{
	LoadStateDOMContentLoaded: true,
	LoadStateLoad:             true,
	LoadStateNetworkIdle:      true,
}

// Step is one atomic browser action.
type Step interface {
	Kind() StepKind
	Describe() string
	Validate() error
}

// Navigate loads a URL. It blocks until WaitUntil, then optionally waits for
// SettleState on the page and its frames; that second wait never fails the run.
type Navigate struct {
	URL           string
	WaitUntil     WaitUntil
	Timeout       time.Duration
	SettleState   LoadState
	SettleTimeout time.Duration
}

func (s Navigate) Kind() StepKind   { return KindNavigate }
func (s Navigate) Describe() string { return fmt.Sprintf("navigate %s", s.URL) }

// Validate checks the navigation target and wait conditions.
func (s Navigate) Validate() error {
	if s.URL == "" {
		return fmt.Errorf("navigate requires a url")
	}
	if s.WaitUntil != "" && !validWaitUntil[s.WaitUntil] {
		return fmt.Errorf("invalid wait_until %q (must be commit, domcontentloaded, load or networkidle)", s.WaitUntil)
	}
	if s.SettleState != "" && s.SettleState != LoadStateNone && !validLoadStates[s.SettleState] {
		return fmt.Errorf("invalid settle_state %q", s.SettleState)
	}
	return nil
}

// Click clicks the element the locator resolves to.
type Click struct {
	Locator Locator
	Timeout time.Duration
}

func (s Click) Kind() StepKind   { return KindClick }
func (s Click) Describe() string { return fmt.Sprintf("click %s", s.Locator) }

// Validate checks the locator.
func (s Click) Validate() error {
	if err := s.Locator.Validate(); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	return nil
}

// Fill types Value into the element the locator resolves to.
type Fill struct {
	Locator Locator
	Value   string
	Timeout time.Duration
}

func (s Fill) Kind() StepKind   { return KindFill }
func (s Fill) Describe() string { return fmt.Sprintf("fill %s", s.Locator) }

// Validate checks the locator.
func (s Fill) Validate() error {
	if err := s.Locator.Validate(); err != nil {
		return fmt.Errorf("fill: %w", err)
	}
	return nil
}

// WaitForLoadState waits for State on every open page and frame. Timeouts
// are suppressed per frame.
type WaitForLoadState struct {
	State   LoadState
	Timeout time.Duration
}

func (s WaitForLoadState) Kind() StepKind { return KindWaitForLoadState }
func (s WaitForLoadState) Describe() string {
	return fmt.Sprintf("wait for %s", s.State)
}

// Validate checks the load state.
func (s WaitForLoadState) Validate() error {
	if !validLoadStates[s.State] {
		return fmt.Errorf("invalid load state %q (must be domcontentloaded, load or networkidle)", s.State)
	}
	return nil
}

// Pause waits a fixed duration.
type Pause struct {
	Duration time.Duration
}

func (s Pause) Kind() StepKind   { return KindPause }
func (s Pause) Describe() string { return fmt.Sprintf("pause %s", s.Duration) }

// Validate checks the duration.
func (s Pause) Validate() error {
	if s.Duration <= 0 {
		return fmt.Errorf("pause requires a positive duration")
	}
	return nil
}

// Mock fulfils requests matching Pattern with a canned response for the rest
// of the run.
type Mock struct {
	Pattern     string
	Status      int
	ContentType string
	Body        string
}

func (s Mock) Kind() StepKind   { return KindMock }
func (s Mock) Describe() string { return fmt.Sprintf("mock %s", s.Pattern) }

// Validate checks the pattern and status.
func (s Mock) Validate() error {
	if s.Pattern == "" {
		return fmt.Errorf("mock requires a pattern")
	}
	if s.Status < 100 || s.Status > 599 {
		return fmt.Errorf("mock status %d out of range", s.Status)
	}
	return nil
}
