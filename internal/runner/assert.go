package runner

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/themizzi/scenariorunner/internal/scenario"
)

// AssertVisible waits until loc resolves to a visible element on page.
func AssertVisible(ctx context.Context, page playwright.Page, loc scenario.Locator, timeout time.Duration) AssertionResult {
	return Evaluate(ctx, page, scenario.Assertion{
		Kind:    scenario.AssertVisible,
		Locator: loc,
		Timeout: timeout,
	})
}

// AssertURLContains waits until the page URL contains fragment.
func AssertURLContains(ctx context.Context, page playwright.Page, fragment string, timeout time.Duration) AssertionResult {
	return Evaluate(ctx, page, scenario.Assertion{
		Kind:     scenario.AssertURLContains,
		Fragment: fragment,
		Timeout:  timeout,
	})
}

// Evaluate checks a against page, waiting up to its timeout. A failure
// carries exactly one diagnostic: the assertion's fixed message or a
// generated description of the expectation. Assertions are never retried.
func Evaluate(ctx context.Context, page playwright.Page, a scenario.Assertion) AssertionResult {
	a.Timeout = orDefault(a.Timeout, scenario.DefaultAssertTimeout)
	res := AssertionResult{Assertion: a}

	err := ctx.Err()
	if err == nil {
		err = check(page, a)
	}
	if err != nil {
		res.Diagnostic = a.Diagnostic()
		res.Err = &AssertionError{Diagnostic: res.Diagnostic, Err: err}
		return res
	}

	res.Passed = true
	return res
}

func check(page playwright.Page, a scenario.Assertion) error {
	switch a.Kind {
	case scenario.AssertVisible:
		return page.Locator(a.Locator.Selector).Nth(a.Locator.Nth).WaitFor(playwright.LocatorWaitForOptions{
			State:   playwright.WaitForSelectorStateVisible,
			Timeout: millis(a.Timeout),
		})
	case scenario.AssertURLContains:
		if strings.Contains(page.URL(), a.Fragment) {
			return nil
		}
		return page.WaitForURL(regexp.MustCompile(regexp.QuoteMeta(a.Fragment)), playwright.PageWaitForURLOptions{
			Timeout: millis(a.Timeout),
		})
	default:
		return fmt.Errorf("unknown assertion kind %q", a.Kind)
	}
}
