package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// TargetConfig holds configuration for the application under test
type TargetConfig struct {
	BaseURL string
	Probe   bool
}

// LoadTargetConfig loads target configuration from environment variables
func LoadTargetConfig(getenv func(string) string) (*TargetConfig, error) {
	config := &TargetConfig{
		BaseURL: getenv("TARGET_BASE_URL"),
		Probe:   true,
	}

	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:3000" // Default to the local dev server
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	u, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("TARGET_BASE_URL is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("TARGET_BASE_URL must be http or https, got %q", config.BaseURL)
	}

	if v := getenv("TARGET_PROBE"); v != "" {
		probe, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("TARGET_PROBE must be a boolean: %w", err)
		}
		config.Probe = probe
	}

	return config, nil
}

// Resolve joins a scenario path with the base URL. Absolute URLs are returned unchanged.
func (c *TargetConfig) Resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if path == "" || path == "/" {
		return c.BaseURL + "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.BaseURL + path
}
