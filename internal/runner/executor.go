package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/themizzi/scenariorunner/internal/browser"
	"github.com/themizzi/scenariorunner/internal/config"
	"github.com/themizzi/scenariorunner/internal/metrics"
	"github.com/themizzi/scenariorunner/internal/scenario"
	"github.com/themizzi/scenariorunner/internal/tracing"
)

// Policy is how interaction steps behave during one run. Settle is a fixed
// pause before every click and fill, Attempts bounds the tries per step
// (values below 1 mean 1) and Backoff separates attempts.
type Policy struct {
	Settle   time.Duration
	Attempts int
	Backoff  time.Duration
}

func (p Policy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

// ExecResult is the outcome of running a step sequence. Page is the handle
// the last executed step left active. Err is the fatal error, if any.
type ExecResult struct {
	Steps []StepResult
	Page  browser.PageHandle
	Err   error
}

// Executor runs steps against a session's pages, one at a time.
type Executor struct {
	target  *config.TargetConfig
	policy  Policy
	logger  *zap.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	before  func(index int) error
}

// NewExecutor creates an Executor. Relative navigation URLs resolve
// against target.
func NewExecutor(target *config.TargetConfig, policy Policy, logger *zap.Logger, m *metrics.Metrics, tracer trace.Tracer) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tracer == nil {
		tracer = tracing.Noop()
	}
	return &Executor{
		target:  target,
		policy:  policy,
		logger:  logger,
		metrics: m,
		tracer:  tracer,
	}
}

// BeforeStep returns a copy of e that calls fn before each step. A non-nil
// error from fn ends the run without executing the step.
func (e *Executor) BeforeStep(fn func(index int) error) *Executor {
	c := *e
	c.before = fn
	return &c
}

// Run executes steps strictly in order. The first fatal step error stops
// the sequence; later steps are never invoked.
func (e *Executor) Run(ctx context.Context, session *browser.Session, steps []scenario.Step) ExecResult {
	var out ExecResult

	handle, err := session.ActivePage()
	if err != nil {
		out.Err = err
		return out
	}
	out.Page = handle

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			out.Err = fmt.Errorf("run cancelled before step %d: %w", i, err)
			return out
		}
		if e.before != nil {
			if err := e.before(i); err != nil {
				out.Err = err
				return out
			}
		}

		res, next := e.Step(ctx, session, handle, i, step)
		out.Steps = append(out.Steps, res)
		if res.Err != nil {
			out.Err = res.Err
			return out
		}
		handle = next
		out.Page = next
	}
	return out
}

// Step executes one step and returns the page handle for the next one.
func (e *Executor) Step(ctx context.Context, session *browser.Session, handle browser.PageHandle, index int, step scenario.Step) (StepResult, browser.PageHandle) {
	kind := string(step.Kind())
	ctx, span := e.tracer.Start(ctx, "step "+kind, trace.WithAttributes(
		tracing.AttrStepIndex.Int(index),
		tracing.AttrStepKind.String(kind),
	))
	defer span.End()

	logger := e.logger.With(zap.Int("step", index), zap.String("kind", kind))
	logger.Debug("step started", zap.String("description", step.Describe()))

	start := time.Now()
	res := StepResult{
		Index:       index,
		Kind:        step.Kind(),
		Description: step.Describe(),
		Attempts:    1,
	}
	next := handle

	switch s := step.(type) {
	case scenario.Navigate:
		next, res.Suppressed, res.Err = e.navigate(session, handle, s)
	case scenario.Click:
		next, res.Attempts, res.Selector, res.Err = e.interact(ctx, session, handle, logger, s.Locator, s.Timeout, "click",
			func(l playwright.Locator, timeout *float64) error {
				return l.Click(playwright.LocatorClickOptions{Timeout: timeout})
			})
	case scenario.Fill:
		next, res.Attempts, res.Selector, res.Err = e.interact(ctx, session, handle, logger, s.Locator, s.Timeout, "fill",
			func(l playwright.Locator, timeout *float64) error {
				return l.Fill(s.Value, playwright.LocatorFillOptions{Timeout: timeout})
			})
	case scenario.WaitForLoadState:
		next, res.Suppressed, res.Err = e.waitForLoadState(session, handle, s)
	case scenario.Pause:
		res.Err = sleep(ctx, s.Duration)
	case scenario.Mock:
		res.Err = e.mock(session, logger, s)
	default:
		res.Err = fmt.Errorf("unsupported step kind %q", kind)
	}

	res.Duration = time.Since(start)
	span.SetAttributes(tracing.AttrStepAttempt.Int(res.Attempts))

	for _, t := range res.Suppressed {
		logger.Debug("load state wait suppressed", zap.Error(t))
	}
	e.metrics.RecordTransient(kind, len(res.Suppressed))
	// Only interaction steps count towards step_attempts_total.
	attempts := 0
	if res.Kind == scenario.KindClick || res.Kind == scenario.KindFill {
		attempts = res.Attempts
	}
	e.metrics.RecordStep(kind, attempts, res.Err != nil, res.Duration)

	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
		logger.Warn("step failed", zap.Int("attempts", res.Attempts), zap.Error(res.Err))
		return res, handle
	}

	logger.Debug("step finished",
		zap.Duration("duration", res.Duration),
		zap.Int("attempts", res.Attempts),
	)
	return res, next
}

func (e *Executor) navigate(session *browser.Session, handle browser.PageHandle, s scenario.Navigate) (browser.PageHandle, []TransientWaitTimeout, error) {
	url := s.URL
	if e.target != nil {
		url = e.target.Resolve(s.URL)
	}

	_, err := handle.Page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: waitUntilState(s.WaitUntil),
		Timeout:   millis(orDefault(s.Timeout, scenario.DefaultNavigateTimeout)),
	})
	if err != nil {
		return handle, nil, &NavigationError{URL: url, Err: err}
	}

	var suppressed []TransientWaitTimeout
	state := s.SettleState
	if state == "" {
		state = scenario.LoadStateDOMContentLoaded
	}
	if state != scenario.LoadStateNone {
		suppressed = waitPage(handle.Page, handle.Index, state, orDefault(s.SettleTimeout, scenario.DefaultSettleTimeout))
	}

	next, err := session.ActivePage()
	if err != nil {
		return handle, suppressed, err
	}
	return next, suppressed, nil
}

func (e *Executor) waitForLoadState(session *browser.Session, handle browser.PageHandle, s scenario.WaitForLoadState) (browser.PageHandle, []TransientWaitTimeout, error) {
	timeout := orDefault(s.Timeout, scenario.DefaultLoadStateTimeout)

	var suppressed []TransientWaitTimeout
	for i, page := range session.Pages() {
		suppressed = append(suppressed, waitPage(page, i, s.State, timeout)...)
	}

	next, err := session.ActivePage()
	if err != nil {
		return handle, suppressed, err
	}
	return next, suppressed, nil
}

// waitPage waits for state on page and on each of its frames. Every
// failure is returned as a TransientWaitTimeout rather than an error.
func waitPage(page playwright.Page, index int, state scenario.LoadState, timeout time.Duration) []TransientWaitTimeout {
	var out []TransientWaitTimeout
	ls := loadState(state)

	if err := page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   ls,
		Timeout: millis(timeout),
	}); err != nil {
		out = append(out, TransientWaitTimeout{Target: fmt.Sprintf("page %d", index), State: string(state), Err: err})
	}

	for i, frame := range page.Frames() {
		if err := frame.WaitForLoadState(playwright.FrameWaitForLoadStateOptions{
			State:   ls,
			Timeout: millis(timeout),
		}); err != nil {
			out = append(out, TransientWaitTimeout{Target: fmt.Sprintf("page %d frame %d", index, i), State: string(state), Err: err})
		}
	}
	return out
}

func (e *Executor) mock(session *browser.Session, logger *zap.Logger, s scenario.Mock) error {
	err := session.Context().Route(s.Pattern, func(route playwright.Route) {
		opts := playwright.RouteFulfillOptions{
			Status: playwright.Int(s.Status),
			Body:   s.Body,
		}
		if s.ContentType != "" {
			opts.ContentType = playwright.String(s.ContentType)
		}
		if err := route.Fulfill(opts); err != nil {
			logger.Warn("failed to fulfil mocked route", zap.String("pattern", s.Pattern), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to register mock %s: %w", s.Pattern, err)
	}
	return nil
}

func waitUntilState(w scenario.WaitUntil) *playwright.WaitUntilState {
	switch w {
	case scenario.WaitUntilDOMContentLoaded:
		return playwright.WaitUntilStateDomcontentloaded
	case scenario.WaitUntilLoad:
		return playwright.WaitUntilStateLoad
	case scenario.WaitUntilNetworkIdle:
		return playwright.WaitUntilStateNetworkidle
	default:
		return playwright.WaitUntilStateCommit
	}
}

func loadState(s scenario.LoadState) *playwright.LoadState {
	switch s {
	case scenario.LoadStateLoad:
		return playwright.LoadStateLoad
	case scenario.LoadStateNetworkIdle:
		return playwright.LoadStateNetworkidle
	default:
		return playwright.LoadStateDomcontentloaded
	}
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
