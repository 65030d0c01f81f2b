package runner

import (
	"context"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/themizzi/scenariorunner/internal/browser"
	"github.com/themizzi/scenariorunner/internal/scenario"
)

type action func(l playwright.Locator, timeout *float64) error

// interact resolves loc against the newest page and applies act. Each
// attempt tries the primary selector, then every fallback in order. It
// returns the handle for the next step, the attempts used, the selector
// that worked and the last error when none did.
func (e *Executor) interact(ctx context.Context, session *browser.Session, handle browser.PageHandle, logger *zap.Logger, loc scenario.Locator, timeout time.Duration, verb string, act action) (browser.PageHandle, int, string, error) {
	timeout = orDefault(timeout, scenario.DefaultActionTimeout)
	attempts := e.policy.attempts()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			logger.Info("retrying step",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", attempts),
				zap.Error(lastErr),
			)
			if err := sleep(ctx, e.policy.Backoff); err != nil {
				return handle, attempt - 1, "", err
			}
		}
		if err := sleep(ctx, e.policy.Settle); err != nil {
			return handle, attempt, "", err
		}

		current, err := session.ActivePage()
		if err != nil {
			return handle, attempt, "", err
		}

		for _, sel := range loc.Selectors() {
			target := scenario.Locator{Selector: sel, Nth: loc.Nth}
			l := current.Page.Locator(sel).Nth(loc.Nth)

			if err := l.WaitFor(playwright.LocatorWaitForOptions{
				State:   playwright.WaitForSelectorStateAttached,
				Timeout: millis(timeout),
			}); err != nil {
				lastErr = &ElementNotFoundError{Selector: target.String(), Timeout: timeout, Err: err}
				continue
			}

			if err := act(l, millis(timeout)); err != nil {
				lastErr = &ElementNotInteractableError{Selector: target.String(), Action: verb, Err: err}
				continue
			}

			next, err := session.ActivePage()
			if err != nil {
				return current, attempt, sel, err
			}
			return next, attempt, sel, nil
		}
	}
	return handle, attempts, "", lastErr
}
