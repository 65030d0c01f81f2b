package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/themizzi/scenariorunner/internal/browser"
	"github.com/themizzi/scenariorunner/internal/config"
	"github.com/themizzi/scenariorunner/internal/metrics"
	"github.com/themizzi/scenariorunner/internal/report"
	"github.com/themizzi/scenariorunner/internal/runner"
	"github.com/themizzi/scenariorunner/internal/scenario"
	"github.com/themizzi/scenariorunner/internal/services"
	"github.com/themizzi/scenariorunner/internal/tracing"
)

// RunOptions holds the resolved settings of one run command
type RunOptions struct {
	Paths       []string
	Format      report.Format
	Verbose     bool
	Output      string
	MetricsFile string
	TraceFile   string
	Browser     *config.BrowserConfig
	Target      *config.TargetConfig
	Runner      *config.RunnerConfig
	Getenv      func(string) string
}

// RunDependencies holds the collaborators of a run command. Sessions
// defaults to a Playwright-backed manager; a nil History skips recording.
type RunDependencies struct {
	Logger   *zap.Logger
	Sessions runner.SessionAcquirer
	History  services.HistoryService
	Stdout   io.Writer
}

// RunScenarios loads, runs and reports the scenarios under opts.Paths.
// Failed scenarios are reported in the summary, not as an error; the error
// is reserved for problems that prevent a report.
func RunScenarios(ctx context.Context, opts RunOptions, deps RunDependencies) (runner.Summary, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	stdout := deps.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	scenarios, err := scenario.LoadPaths(opts.Paths, scenario.LoadOptions{Getenv: opts.Getenv})
	if err != nil {
		return runner.Summary{}, fmt.Errorf("failed to load scenarios: %w", err)
	}

	reporter, err := newReporter(opts)
	if err != nil {
		return runner.Summary{}, err
	}

	tracer := tracing.Noop()
	if opts.TraceFile != "" {
		provider, err := tracing.NewFileProvider(opts.TraceFile, "scenariorunner")
		if err != nil {
			return runner.Summary{}, fmt.Errorf("failed to open trace file: %w", err)
		}
		defer func() {
			if err := provider.Shutdown(context.Background()); err != nil {
				logger.Warn("failed to flush traces", zap.Error(err))
			}
		}()
		tracer = provider.Tracer()
	}

	sessions := deps.Sessions
	if sessions == nil {
		sessions = browser.NewManager(logger, nil, nil)
	}

	m := metrics.New()
	r := runner.New(runner.Dependencies{
		Sessions: sessions,
		Browser:  opts.Browser,
		Target:   opts.Target,
		Runner:   opts.Runner,
		Logger:   logger,
		Metrics:  m,
		Tracer:   tracer,
	})

	logger.Info("running scenarios", zap.Int("count", len(scenarios)))
	results := r.RunSuite(ctx, scenarios)
	summary := runner.Summarize(results)

	if err := writeReport(reporter, opts.Output, stdout, results); err != nil {
		return summary, err
	}

	if opts.MetricsFile != "" {
		if err := m.WriteTextfile(opts.MetricsFile); err != nil {
			return summary, fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	if deps.History != nil {
		if err := deps.History.Record(ctx, results); err != nil {
			return summary, fmt.Errorf("failed to record history: %w", err)
		}
		logger.Info("recorded run history", zap.Int("runs", len(results)))
	}

	return summary, nil
}

func newReporter(opts RunOptions) (report.Reporter, error) {
	format := opts.Format
	if format == "" {
		format = report.FormatText
	}
	if format == report.FormatText {
		return report.TextReporter{Verbose: opts.Verbose}, nil
	}
	return report.New(format)
}

// writeReport writes to path, or to stdout when path is empty
func writeReport(reporter report.Reporter, path string, stdout io.Writer, results []*runner.Result) error {
	if path == "" {
		if err := reporter.Report(stdout, results); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := reporter.Report(f, results); err != nil {
		f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close report file: %w", err)
	}
	return nil
}
