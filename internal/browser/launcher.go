package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/themizzi/scenariorunner/internal/config"
)

// StopFunc stops the automation engine started by a LaunchFunc.
type StopFunc func() error

// LaunchFunc starts the engine and returns a connected browser. The stop
// func is called after the browser has been closed.
type LaunchFunc func(cfg *config.BrowserConfig) (playwright.Browser, StopFunc, error)

// PlaywrightLauncher starts a Playwright driver and launches Chromium, or
// connects to a remote browser when cfg.WSEndpoint is set.
func PlaywrightLauncher(cfg *config.BrowserConfig) (playwright.Browser, StopFunc, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, nil, &LaunchError{Stage: StageEngine, Err: fmt.Errorf("failed to start playwright: %w", err)}
	}

	timeout := playwright.Float(float64(cfg.ConnectTimeout.Milliseconds()))

	var b playwright.Browser
	if cfg.WSEndpoint != "" {
		b, err = pw.Chromium.Connect(cfg.WSEndpoint, playwright.BrowserTypeConnectOptions{
			Timeout: timeout,
		})
	} else {
		b, err = pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(cfg.Headless),
			Args:     cfg.Args,
			Timeout:  timeout,
		})
	}
	if err != nil {
		_ = pw.Stop()
		return nil, nil, &LaunchError{Stage: StageBrowser, Err: fmt.Errorf("failed to start chromium: %w", err)}
	}

	return b, pw.Stop, nil
}
