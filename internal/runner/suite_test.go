package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themizzi/scenariorunner/internal/browser/browsertest"
	"github.com/themizzi/scenariorunner/internal/config"
	"github.com/themizzi/scenariorunner/internal/scenario"
)

func TestRunSuite(t *testing.T) {
	// GIVEN three scenarios, the second of which cannot find its element
	h := newHarness()
	h.page.Add("text=Retos", &browsertest.Element{})

	scenarios := []*scenario.Scenario{
		{Name: "home", Steps: []scenario.Step{navigate("/")}},
		{Name: "broken", Steps: []scenario.Step{navigate("/modulos"), click("text=Semana 1")}},
		{Name: "retos", Steps: []scenario.Step{navigate("/panel-de-control"), click("text=Retos")}},
	}

	// WHEN
	results := h.runner(&config.RunnerConfig{Parallelism: 2, RetryAttempts: 1}).RunSuite(context.Background(), scenarios)

	// THEN results keep input order and the failure stays local
	require.Len(t, results, 3)
	assert.Equal(t, "home", results[0].Scenario)
	assert.Equal(t, "broken", results[1].Scenario)
	assert.Equal(t, "retos", results[2].Scenario)
	assert.True(t, results[0].Passed())
	assert.False(t, results[1].Passed())
	assert.True(t, results[2].Passed())
	assert.Equal(t, 3, h.rec.Count("engine.start"))
	assert.Equal(t, 3, h.rec.Count("context.close"))

	summary := Summarize(results)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Passed)
	assert.Equal(t, 1, summary.Failed)
	assert.False(t, summary.OK())
}

func TestRunSuite_Empty(t *testing.T) {
	h := newHarness()

	results := h.runner(nil).RunSuite(context.Background(), nil)

	assert.Empty(t, results)
	assert.True(t, Summarize(results).OK())
}
