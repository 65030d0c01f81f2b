package runner

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/themizzi/scenariorunner/internal/scenario"
)

// RunSuite runs every scenario, at most parallelism at a time, and returns
// results in input order. A failing scenario never stops the others.
func (r *Runner) RunSuite(ctx context.Context, scenarios []*scenario.Scenario) []*Result {
	results := make([]*Result, len(scenarios))

	limit := r.cfg.Parallelism
	if limit < 1 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, scn := range scenarios {
		g.Go(func() error {
			results[i] = r.Run(ctx, scn)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
