package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themizzi/scenariorunner/internal/browser"
	"github.com/themizzi/scenariorunner/internal/browser/browsertest"
	"github.com/themizzi/scenariorunner/internal/config"
	"github.com/themizzi/scenariorunner/internal/scenario"
)

func TestRun_RegistrationShowsSuccess(t *testing.T) {
	// GIVEN a registration form whose submit renders "success"
	h := newHarness()
	for _, sel := range []string{"#name", "#email", "#password"} {
		h.page.Add(sel, &browsertest.Element{})
	}
	h.page.Add("#submit", &browsertest.Element{OnClick: func(p *browsertest.Page) {
		p.Add("text=success", &browsertest.Element{})
	}})

	scn := &scenario.Scenario{
		Name: "register",
		Steps: []scenario.Step{
			navigate("/register"),
			fill("#name", "Ada"),
			fill("#email", "ada@example.com"),
			fill("#password", "secret"),
			click("#submit"),
		},
		Assertions: []scenario.Assertion{
			{Kind: scenario.AssertVisible, Locator: loc("text=success"), Timeout: 3 * time.Second},
		},
	}

	// WHEN
	res := h.runner(nil).Run(context.Background(), scn)

	// THEN
	assert.Equal(t, StatusPassed, res.Status, res.Diagnostic)
	assert.Empty(t, res.Diagnostic)
	assert.Len(t, res.Steps, 5)
	require.Len(t, res.Assertions, 1)
	assert.True(t, res.Assertions[0].Passed)
	assert.Equal(t, "ada@example.com", h.page.Elements["#email"][0].Value)
	assert.Equal(t, 0, h.indexOf("engine.start"))
	assert.Equal(t, 1, h.rec.Count("page.goto http://app.test/register commit"))
	assert.Equal(t, 1, h.rec.Count("context.close"))
	assert.False(t, res.FinishedAt.Before(res.StartedAt))
}

func TestRun_LoginRedirect(t *testing.T) {
	tests := []struct {
		name       string
		redirects  bool
		wantStatus Status
		wantDiag   string
	}{
		{name: "redirect happens", redirects: true, wantStatus: StatusPassed},
		{name: "redirect missing", redirects: false, wantStatus: StatusFailed, wantDiag: "redirect did not occur"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN
			h := newHarness()
			h.page.Add("#email", &browsertest.Element{})
			h.page.Add("#password", &browsertest.Element{})
			submit := &browsertest.Element{}
			if tt.redirects {
				submit.OnClick = func(p *browsertest.Page) { p.SetURL(baseURL + "/panel-de-control") }
			}
			h.page.Add("#login", submit)

			scn := &scenario.Scenario{
				Name: "login",
				Steps: []scenario.Step{
					navigate("/login"),
					fill("#email", "demo@aicodementor.com"),
					fill("#password", "demo123"),
					click("#login"),
				},
				Assertions: []scenario.Assertion{{
					Kind:     scenario.AssertURLContains,
					Fragment: "/panel-de-control",
					Timeout:  10 * time.Second,
					Message:  "redirect did not occur",
				}},
			}

			// WHEN
			res := h.runner(nil).Run(context.Background(), scn)

			// THEN
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.wantDiag, res.Diagnostic)
			if tt.wantStatus == StatusFailed {
				assert.Equal(t, KindAssertion, res.ErrorKind)
			}
			assert.Equal(t, 1, h.rec.Count("context.close"))
		})
	}
}

func TestRun_MissingElementIsFatal(t *testing.T) {
	// GIVEN a blank modules page with no week entries
	h := newHarness()
	h.page.Add("text=Feedback", &browsertest.Element{})

	scn := &scenario.Scenario{
		Name: "modules week 1",
		Steps: []scenario.Step{
			navigate("/modulos"),
			click("text=Semana 1"),
			click("text=Feedback"),
		},
		Assertions: []scenario.Assertion{
			{Kind: scenario.AssertVisible, Locator: loc("text=Feedback")},
		},
	}

	// WHEN
	res := h.runner(nil).Run(context.Background(), scn)

	// THEN
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, KindElementNotFound, res.ErrorKind)
	assert.Contains(t, res.Diagnostic, "text=Semana 1")
	require.Len(t, res.Steps, 2)
	var notFound *ElementNotFoundError
	assert.ErrorAs(t, res.Steps[1].Err, &notFound)
	assert.Empty(t, res.Assertions)
	assert.Zero(t, h.rec.Count("locator.wait_for text=Feedback"))
	assert.Zero(t, h.rec.Count("locator.click text=Semana 1"))
	assert.Equal(t, 1, h.rec.Count("context.close"))
}

func TestRun_LaunchError(t *testing.T) {
	h := newHarness()
	h.launchErr = errors.New("chromium not installed")

	res := h.runner(nil).Run(context.Background(), &scenario.Scenario{
		Name:  "never starts",
		Steps: []scenario.Step{navigate("/")},
	})

	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, KindLaunch, res.ErrorKind)
	assert.Contains(t, res.Diagnostic, "chromium not installed")
	assert.Empty(t, res.Steps)
	assert.Zero(t, h.rec.Count("page.goto"))
}

func TestRun_CancelledDuringPause(t *testing.T) {
	// GIVEN
	h := newHarness()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	scn := &scenario.Scenario{
		Name: "long pause",
		Steps: []scenario.Step{
			scenario.Pause{Duration: time.Minute},
			navigate("/"),
		},
	}

	// WHEN
	res := h.runner(nil).Run(ctx, scn)

	// THEN
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, KindCancelled, res.ErrorKind)
	assert.Zero(t, h.rec.Count("page.goto"))
	assert.Equal(t, 1, h.rec.Count("context.close"))
}

func TestRun_ScreenshotOnFailure(t *testing.T) {
	// GIVEN
	h := newHarness()
	dir := filepath.Join(t.TempDir(), "artifacts")

	// WHEN
	res := h.runner(&config.RunnerConfig{RetryAttempts: 1, ArtifactsDir: dir}).Run(context.Background(), &scenario.Scenario{
		Name:  "Logout Flow",
		Steps: []scenario.Step{click("text=Cerrar Sesión")},
	})

	// THEN
	require.Equal(t, StatusFailed, res.Status)
	require.NotEmpty(t, res.Screenshot)
	assert.Equal(t, dir, filepath.Dir(res.Screenshot))
	assert.Contains(t, filepath.Base(res.Screenshot), "logout-flow-")
	_, err := os.Stat(res.Screenshot)
	assert.NoError(t, err)
	assert.Less(t, h.indexOf("page.screenshot"), h.indexOf("context.close"))
}

func TestRun_NoScreenshotWhenPassing(t *testing.T) {
	h := newHarness()
	dir := t.TempDir()

	res := h.runner(&config.RunnerConfig{ArtifactsDir: dir}).Run(context.Background(), &scenario.Scenario{
		Name:  "home",
		Steps: []scenario.Step{navigate("/")},
	})

	assert.Equal(t, StatusPassed, res.Status)
	assert.Empty(t, res.Screenshot)
	assert.Zero(t, h.rec.Count("page.screenshot"))
}

func TestRun_ScenarioPolicyOverridesDefaults(t *testing.T) {
	// GIVEN runner defaults without retries and a scenario asking for three
	h := newHarness()
	h.page.Add("#flaky", &browsertest.Element{FailClicks: 2})

	scn := &scenario.Scenario{
		Name:  "flaky",
		Retry: &scenario.RetryPolicy{MaxAttempts: 3},
		Steps: []scenario.Step{click("#flaky")},
	}

	// WHEN
	res := h.runner(&config.RunnerConfig{RetryAttempts: 1}).Run(context.Background(), scn)

	// THEN
	assert.Equal(t, StatusPassed, res.Status, res.Diagnostic)
	require.Len(t, res.Steps, 1)
	assert.Equal(t, 3, res.Steps[0].Attempts)
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "launch", err: &browser.LaunchError{Stage: browser.StageEngine, Err: errors.New("x")}, want: KindLaunch},
		{name: "navigation", err: &NavigationError{URL: "/", Err: errors.New("x")}, want: KindNavigation},
		{name: "not found", err: &ElementNotFoundError{Selector: "#a"}, want: KindElementNotFound},
		{name: "not interactable", err: &ElementNotInteractableError{Selector: "#a", Action: "click", Err: errCovered}, want: KindNotInteractable},
		{name: "assertion", err: &AssertionError{Diagnostic: "nope"}, want: KindAssertion},
		{name: "cancelled", err: context.Canceled, want: KindCancelled},
		{name: "other", err: errors.New("boom"), want: KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorKind(tt.err))
		})
	}
}
