package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/themizzi/scenariorunner/internal/config"
)

// Manager acquires sessions. It holds no per-run state and is safe for
// concurrent use.
type Manager struct {
	launch LaunchFunc
	probe  ProbeFunc
	logger *zap.Logger
}

// NewManager creates a Manager. A nil launch uses PlaywrightLauncher and a
// nil probe uses HTTPProbe.
func NewManager(logger *zap.Logger, launch LaunchFunc, probe ProbeFunc) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if launch == nil {
		launch = PlaywrightLauncher
	}
	if probe == nil {
		probe = HTTPProbe
	}
	return &Manager{launch: launch, probe: probe, logger: logger}
}

// Acquire starts a session: probe the target, start the engine, launch or
// connect the browser, open a context and its first page. Any failure is a
// *LaunchError and everything acquired so far is released.
func (m *Manager) Acquire(ctx context.Context, cfg *config.BrowserConfig, target *config.TargetConfig) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LaunchError{Stage: StageEngine, Err: err}
	}

	id := uuid.New().String()
	logger := m.logger.With(zap.String("session_id", id))

	if target != nil && target.Probe {
		if err := m.probe(ctx, target.Resolve("/"), cfg.ConnectTimeout); err != nil {
			return nil, &LaunchError{Stage: StageTarget, Err: err}
		}
	}

	b, stop, err := m.launch(cfg)
	if err != nil {
		var le *LaunchError
		if errors.As(err, &le) {
			return nil, le
		}
		return nil, &LaunchError{Stage: StageBrowser, Err: err}
	}

	session := &Session{ID: id, browser: b, stop: stop, logger: logger}

	bctx, err := b.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  cfg.ViewportWidth,
			Height: cfg.ViewportHeight,
		},
	})
	if err != nil {
		session.Release()
		return nil, &LaunchError{Stage: StageContext, Err: fmt.Errorf("failed to create context: %w", err)}
	}
	session.context = bctx
	bctx.SetDefaultTimeout(float64(cfg.DefaultTimeout.Milliseconds()))

	if _, err := bctx.NewPage(); err != nil {
		session.Release()
		return nil, &LaunchError{Stage: StagePage, Err: fmt.Errorf("failed to create page: %w", err)}
	}

	logger.Debug("session acquired",
		zap.Bool("headless", cfg.Headless),
		zap.Bool("remote", cfg.WSEndpoint != ""),
	)
	return session, nil
}
