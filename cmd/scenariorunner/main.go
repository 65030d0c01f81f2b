package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	internalcli "github.com/themizzi/scenariorunner/internal/cli"
	"github.com/themizzi/scenariorunner/internal/config"
	"github.com/themizzi/scenariorunner/internal/report"
	"github.com/themizzi/scenariorunner/internal/runner"
	"github.com/themizzi/scenariorunner/internal/services"
)

var version = "0.1.0"

// newLogger builds the process logger. Verbose switches to the
// development encoder and debug level.
func newLogger(level string, verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}

// loggerFrom returns the logger stored by the app's Before hook
func loggerFrom(c *cli.Context) *zap.Logger {
	if logger, ok := c.App.Metadata["logger"].(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// scenarioPaths returns the command arguments or the default scenarios dir
func scenarioPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"scenarios"}
}

// buildRunOptions loads env configuration and applies flag overrides
func buildRunOptions(c *cli.Context) (internalcli.RunOptions, error) {
	opts := internalcli.RunOptions{
		Paths:       scenarioPaths(c),
		Verbose:     c.Bool("steps"),
		Output:      c.String("output"),
		MetricsFile: c.String("metrics-file"),
		TraceFile:   c.String("trace-file"),
		Getenv:      os.Getenv,
	}

	format, err := report.ParseFormat(c.String("format"))
	if err != nil {
		return opts, err
	}
	opts.Format = format

	if opts.Browser, err = config.LoadBrowserConfig(os.Getenv); err != nil {
		return opts, fmt.Errorf("invalid browser configuration: %w", err)
	}
	if opts.Target, err = config.LoadTargetConfig(os.Getenv); err != nil {
		return opts, fmt.Errorf("invalid target configuration: %w", err)
	}
	if opts.Runner, err = config.LoadRunnerConfig(os.Getenv); err != nil {
		return opts, fmt.Errorf("invalid runner configuration: %w", err)
	}

	if c.IsSet("headed") {
		opts.Browser.Headless = !c.Bool("headed")
	}
	if c.IsSet("ws-endpoint") {
		opts.Browser.WSEndpoint = c.String("ws-endpoint")
	}
	if c.IsSet("base-url") {
		target, err := config.LoadTargetConfig(func(key string) string {
			if key == "TARGET_BASE_URL" {
				return c.String("base-url")
			}
			return os.Getenv(key)
		})
		if err != nil {
			return opts, fmt.Errorf("invalid --base-url: %w", err)
		}
		opts.Target = target
	}
	if c.IsSet("no-probe") {
		opts.Target.Probe = !c.Bool("no-probe")
	}
	if c.IsSet("parallel") {
		if n := c.Int("parallel"); n < 1 {
			return opts, fmt.Errorf("--parallel must be at least 1")
		}
		opts.Runner.Parallelism = c.Int("parallel")
	}
	if c.IsSet("retries") {
		if n := c.Int("retries"); n < 1 {
			return opts, fmt.Errorf("--retries must be at least 1")
		}
		opts.Runner.RetryAttempts = c.Int("retries")
	}
	if c.IsSet("backoff") {
		opts.Runner.RetryBackoff = c.Duration("backoff")
	}
	if c.IsSet("settle") {
		opts.Runner.SettleDelay = c.Duration("settle")
	}
	if c.IsSet("artifacts") {
		opts.Runner.ArtifactsDir = c.String("artifacts")
	}

	return opts, nil
}

// openHistory connects to the run history database
func openHistory() (services.HistoryService, func(), error) {
	pgConfig, err := config.LoadPostgresConfig(os.Getenv)
	if err != nil {
		return nil, nil, fmt.Errorf("missing required Postgres configuration: %w", err)
	}
	history, db, err := internalcli.OpenHistory(pgConfig)
	if err != nil {
		return nil, nil, err
	}
	return history, func() { db.Close() }, nil
}

// RunCommand returns the run command
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run scenarios against the target and report the results",
		ArgsUsage: "[scenario files or directories]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "text", Usage: "report format: text, json or junit"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write the report to a file instead of stdout"},
			&cli.BoolFlag{Name: "steps", Usage: "list every step in the text report"},
			&cli.StringFlag{Name: "base-url", Usage: "target base URL (overrides TARGET_BASE_URL)"},
			&cli.BoolFlag{Name: "no-probe", Usage: "skip the target reachability probe"},
			&cli.BoolFlag{Name: "headed", Usage: "show the browser window"},
			&cli.StringFlag{Name: "ws-endpoint", Usage: "connect to a remote browser instead of launching one"},
			&cli.IntFlag{Name: "parallel", Aliases: []string{"p"}, Usage: "scenarios run at once"},
			&cli.IntFlag{Name: "retries", Usage: "attempts per click or fill"},
			&cli.DurationFlag{Name: "backoff", Usage: "pause between attempts"},
			&cli.DurationFlag{Name: "settle", Usage: "pause before every click or fill"},
			&cli.StringFlag{Name: "artifacts", Usage: "directory for failure screenshots"},
			&cli.StringFlag{Name: "metrics-file", Usage: "write prometheus metrics to this textfile"},
			&cli.StringFlag{Name: "trace-file", Usage: "write OpenTelemetry spans to this file"},
			&cli.BoolFlag{Name: "record", Usage: "store results in the Postgres run history"},
		},
		Action: func(c *cli.Context) error {
			logger := loggerFrom(c)

			opts, err := buildRunOptions(c)
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}

			deps := internalcli.RunDependencies{Logger: logger}
			if c.Bool("record") {
				history, closeDB, err := openHistory()
				if err != nil {
					return cli.Exit(err.Error(), 2)
				}
				defer closeDB()
				deps.History = history
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := internalcli.RunScenarios(ctx, opts, deps)
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			if !summary.OK() {
				return cli.Exit(failureMessage(summary), 1)
			}
			return nil
		},
	}
}

func failureMessage(s runner.Summary) string {
	return fmt.Sprintf("%d of %d scenarios failed", s.Failed, s.Total)
}

// ValidateCommand returns the validate command
func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check scenario files without running them",
		ArgsUsage: "[scenario files or directories]",
		Action: func(c *cli.Context) error {
			if err := internalcli.ValidateScenarios(scenarioPaths(c), os.Getenv, c.App.Writer); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

// HistoryCommand returns the history command
func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recorded runs",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "scenario", Aliases: []string{"s"}, Usage: "only runs of this scenario"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: services.DefaultHistoryLimit, Usage: "number of runs to show"},
		},
		Action: func(c *cli.Context) error {
			history, closeDB, err := openHistory()
			if err != nil {
				return err
			}
			defer closeDB()

			return internalcli.ShowHistory(c.Context, history, c.String("scenario"), c.Int("limit"), c.App.Writer)
		},
	}
}

// ServeFixtureCommand returns the serve-fixture command
func ServeFixtureCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve-fixture",
		Usage: "Start the stub target application",
		Action: func(c *cli.Context) error {
			deps, err := internalcli.BuildServerDependencies(config.LoadServerConfig(os.Getenv), loggerFrom(c))
			if err != nil {
				return err
			}
			return internalcli.RunServe(deps)
		},
	}
}

func main() {
	app := &cli.App{
		Name:    "scenariorunner",
		Usage:   "Browser-driven scenario runner",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "load environment variables from this file"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "development logging at debug level"},
		},
		Before: func(c *cli.Context) error {
			// Load environment variables from .env file
			envErr := godotenv.Load(c.String("env-file"))

			logger, err := newLogger(c.String("log-level"), c.Bool("verbose"))
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			if envErr != nil {
				logger.Debug(".env file not loaded, using environment variables", zap.Error(envErr))
			}
			c.App.Metadata = map[string]interface{}{"logger": logger}
			return nil
		},
		After: func(c *cli.Context) error {
			loggerFrom(c).Sync()
			return nil
		},
		Commands: []*cli.Command{
			RunCommand(),
			ValidateCommand(),
			HistoryCommand(),
			ServeFixtureCommand(),
		},
	}

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
