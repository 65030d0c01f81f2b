package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/themizzi/scenariorunner/internal/browser"
	"github.com/themizzi/scenariorunner/internal/config"
	"github.com/themizzi/scenariorunner/internal/metrics"
	"github.com/themizzi/scenariorunner/internal/models"
	"github.com/themizzi/scenariorunner/internal/scenario"
	"github.com/themizzi/scenariorunner/internal/tracing"
)

// SessionAcquirer acquires browser sessions. *browser.Manager implements it.
type SessionAcquirer interface {
	Acquire(ctx context.Context, cfg *config.BrowserConfig, target *config.TargetConfig) (*browser.Session, error)
}

// Dependencies holds everything a Runner needs
type Dependencies struct {
	Sessions SessionAcquirer
	Browser  *config.BrowserConfig
	Target   *config.TargetConfig
	Runner   *config.RunnerConfig
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Tracer   trace.Tracer
}

// Runner runs scenarios. It is safe for concurrent use; every run owns its
// own session.
type Runner struct {
	sessions SessionAcquirer
	browser  *config.BrowserConfig
	target   *config.TargetConfig
	cfg      config.RunnerConfig
	logger   *zap.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// New creates a Runner.
func New(deps Dependencies) *Runner {
	r := &Runner{
		sessions: deps.Sessions,
		browser:  deps.Browser,
		target:   deps.Target,
		cfg:      config.RunnerConfig{Parallelism: 1, RetryAttempts: 1},
		logger:   deps.Logger,
		metrics:  deps.Metrics,
		tracer:   deps.Tracer,
	}
	if deps.Runner != nil {
		r.cfg = *deps.Runner
	}
	if r.browser == nil {
		r.browser = &config.BrowserConfig{}
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.tracer == nil {
		r.tracer = tracing.Noop()
	}
	return r
}

// Run executes scn once and returns its result. It never panics on a
// scenario failure and always releases the session it acquired.
func (r *Runner) Run(ctx context.Context, scn *scenario.Scenario) *Result {
	run, err := models.NewRun(scn.Name)
	if err != nil {
		now := time.Now()
		return &Result{
			Scenario:   scn.Name,
			Source:     scn.Source,
			Status:     StatusFailed,
			ErrorKind:  KindInternal,
			Diagnostic: err.Error(),
			StartedAt:  now,
			FinishedAt: now,
		}
	}

	logger := r.logger.With(zap.String("run_id", run.ID), zap.String("scenario", scn.Name))
	ctx, span := r.tracer.Start(ctx, "scenario", trace.WithAttributes(
		tracing.AttrRunID.String(run.ID),
		tracing.AttrScenario.String(scn.Name),
	))
	defer span.End()

	res := &Result{
		RunID:     run.ID,
		Scenario:  scn.Name,
		Source:    scn.Source,
		StartedAt: run.StartedAt,
	}
	logger.Info("scenario started", zap.Int("steps", len(scn.Steps)), zap.Int("assertions", len(scn.Assertions)))

	runErr := r.execute(ctx, logger, run, scn, res)
	r.finish(logger, run, res, runErr)

	span.SetAttributes(tracing.AttrStatus.String(string(res.Status)))
	if runErr != nil {
		span.RecordError(runErr)
		span.SetStatus(codes.Error, res.Diagnostic)
	}
	return res
}

// execute owns the session for the length of the run. Release is deferred
// so it runs after the last step or assertion on every path.
func (r *Runner) execute(ctx context.Context, logger *zap.Logger, run *models.Run, scn *scenario.Scenario, res *Result) error {
	session, err := r.sessions.Acquire(ctx, r.browser, r.target)
	if err != nil {
		r.metrics.RecordLaunchError()
		return err
	}
	defer session.Release()

	if err := run.MarkSessionReady(); err != nil {
		return err
	}

	exec := NewExecutor(r.target, r.policy(scn), logger, r.metrics, r.tracer).BeforeStep(run.BeginStep)
	out := exec.Run(ctx, session, scn.Steps)
	res.Steps = out.Steps
	if out.Err != nil {
		r.capture(logger, session, res)
		return out.Err
	}

	if err := run.BeginAssertions(); err != nil {
		return err
	}
	for _, a := range scn.Assertions {
		handle, err := session.ActivePage()
		if err != nil {
			return err
		}
		ar := Evaluate(ctx, handle.Page, a)
		res.Assertions = append(res.Assertions, ar)
		if !ar.Passed {
			r.capture(logger, session, res)
			return ar.Err
		}
	}

	return run.Pass()
}

// finish records the outcome on the run and result. A failure keeps exactly
// one diagnostic: an assertion's message, or the error text otherwise.
func (r *Runner) finish(logger *zap.Logger, run *models.Run, res *Result, runErr error) {
	if runErr != nil {
		if err := run.Fail(ErrorKind(runErr), runErr.Error()); err != nil {
			logger.Error("failed to record run failure", zap.Error(err))
		}
	}
	if err := run.TearDown(); err != nil {
		logger.Error("failed to tear down run", zap.Error(err))
	}

	res.FinishedAt = run.FinishedAt
	if run.IsPassed() {
		res.Status = StatusPassed
	} else {
		res.Status = StatusFailed
		res.ErrorKind = run.ErrorKind
		res.Diagnostic = run.Diagnostic
	}
	r.metrics.RecordRun(string(res.Status), res.Duration())

	fields := []zap.Field{
		zap.String("status", string(res.Status)),
		zap.Duration("duration", res.Duration()),
	}
	if res.Status == StatusFailed {
		fields = append(fields, zap.String("error_kind", res.ErrorKind), zap.String("diagnostic", res.Diagnostic))
	}
	logger.Info("scenario finished", fields...)
}

// policy merges the runner defaults with the scenario's overrides.
func (r *Runner) policy(scn *scenario.Scenario) Policy {
	p := Policy{
		Settle:   r.cfg.SettleDelay,
		Attempts: r.cfg.RetryAttempts,
		Backoff:  r.cfg.RetryBackoff,
	}
	if scn.Settle > 0 {
		p.Settle = scn.Settle
	}
	if scn.Retry != nil {
		p.Attempts = scn.Retry.Attempts()
		p.Backoff = scn.Retry.Backoff
	}
	return p
}

// capture writes a full-page screenshot of the active page when an
// artifacts directory is configured. Failures are logged, never returned.
func (r *Runner) capture(logger *zap.Logger, session *browser.Session, res *Result) {
	if r.cfg.ArtifactsDir == "" {
		return
	}
	handle, err := session.ActivePage()
	if err != nil {
		logger.Warn("no page to capture", zap.Error(err))
		return
	}
	if err := os.MkdirAll(r.cfg.ArtifactsDir, 0o755); err != nil {
		logger.Warn("failed to create artifacts directory", zap.Error(err))
		return
	}

	path := filepath.Join(r.cfg.ArtifactsDir, fmt.Sprintf("%s-%s.png", slug(res.Scenario), shortID(res.RunID)))
	if _, err := handle.Page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		logger.Warn("failed to capture screenshot", zap.Error(err))
		return
	}
	res.Screenshot = path
	logger.Info("screenshot captured", zap.String("path", path))
}

func slug(name string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, name)
	return strings.Trim(s, "-")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
