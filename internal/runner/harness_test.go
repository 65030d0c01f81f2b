package runner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/themizzi/scenariorunner/internal/browser"
	"github.com/themizzi/scenariorunner/internal/browser/browsertest"
	"github.com/themizzi/scenariorunner/internal/config"
	"github.com/themizzi/scenariorunner/internal/scenario"
)

const baseURL = "http://app.test"

// harness wires a real browser.Manager to in-memory fakes.
type harness struct {
	rec       *browsertest.Recorder
	page      *browsertest.Page
	ctx       *browsertest.Context
	launchErr error
	mgr       *browser.Manager
}

func newHarness() *harness {
	rec := &browsertest.Recorder{}
	page := &browsertest.Page{Rec: rec}
	bctx := &browsertest.Context{Rec: rec, NextPage: page}
	b := &browsertest.Browser{Rec: rec, Ctx: bctx}

	h := &harness{rec: rec, page: page, ctx: bctx}
	h.mgr = browser.NewManager(zap.NewNop(), func(*config.BrowserConfig) (playwright.Browser, browser.StopFunc, error) {
		if h.launchErr != nil {
			return nil, nil, h.launchErr
		}
		rec.Record("engine.start")
		return b, func() error {
			rec.Record("engine.stop")
			return nil
		}, nil
	}, nil)
	return h
}

func (h *harness) runner(cfg *config.RunnerConfig) *Runner {
	return New(Dependencies{
		Sessions: h.mgr,
		Browser:  &config.BrowserConfig{},
		Target:   &config.TargetConfig{BaseURL: baseURL},
		Runner:   cfg,
	})
}

func (h *harness) session(t *testing.T) *browser.Session {
	t.Helper()
	s, err := h.mgr.Acquire(context.Background(), &config.BrowserConfig{}, nil)
	if err != nil {
		t.Fatalf("failed to acquire session: %v", err)
	}
	t.Cleanup(s.Release)
	return s
}

// indexOf returns the position of the first call starting with prefix, or -1.
func (h *harness) indexOf(prefix string) int {
	for i, c := range h.rec.Calls() {
		if strings.HasPrefix(c, prefix) {
			return i
		}
	}
	return -1
}

func loc(sel string) scenario.Locator { return scenario.Locator{Selector: sel} }

func click(sel string) scenario.Step { return scenario.Click{Locator: loc(sel)} }

func fill(sel, value string) scenario.Step {
	return scenario.Fill{Locator: loc(sel), Value: value}
}

func navigate(url string) scenario.Step { return scenario.Navigate{URL: url} }

var errCovered = errors.New("element is covered")
