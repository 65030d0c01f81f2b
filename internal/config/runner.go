package config

import (
	"fmt"
	"strconv"
	"time"
)

// RunnerConfig holds configuration for scenario execution
type RunnerConfig struct {
	Parallelism   int
	RetryAttempts int
	RetryBackoff  time.Duration
	SettleDelay   time.Duration
	ArtifactsDir  string
}

// LoadRunnerConfig loads runner configuration from environment variables
func LoadRunnerConfig(getenv func(string) string) (*RunnerConfig, error) {
	config := &RunnerConfig{
		Parallelism:   1,
		RetryAttempts: 1,
		RetryBackoff:  500 * time.Millisecond,
		ArtifactsDir:  getenv("RUNNER_ARTIFACTS_DIR"),
	}

	if v := getenv("RUNNER_PARALLELISM"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("RUNNER_PARALLELISM must be a positive integer, got %q", v)
		}
		config.Parallelism = n
	}

	if v := getenv("RUNNER_RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("RUNNER_RETRY_ATTEMPTS must be a positive integer, got %q", v)
		}
		config.RetryAttempts = n
	}

	if v := getenv("RUNNER_RETRY_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("RUNNER_RETRY_BACKOFF must be a non-negative duration, got %q", v)
		}
		config.RetryBackoff = d
	}

	if v := getenv("RUNNER_SETTLE_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("RUNNER_SETTLE_DELAY must be a non-negative duration, got %q", v)
		}
		config.SettleDelay = d
	}

	return config, nil
}
