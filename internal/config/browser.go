package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultLaunchArgs are the Chromium flags used when BROWSER_ARGS is unset.
// They keep the browser stable inside containers.
var DefaultLaunchArgs = []string{
	"--window-size=1280,720",
	"--disable-dev-shm-usage",
	"--ipc=host",
	"--single-process",
	"--no-sandbox",
}

// BrowserConfig holds configuration for launching or connecting to a browser
type BrowserConfig struct {
	Headless       bool
	Args           []string
	WSEndpoint     string
	ConnectTimeout time.Duration
	DefaultTimeout time.Duration
	ViewportWidth  int
	ViewportHeight int
}

// LoadBrowserConfig loads browser configuration from environment variables
func LoadBrowserConfig(getenv func(string) string) (*BrowserConfig, error) {
	config := &BrowserConfig{
		Headless:       true,
		Args:           append([]string(nil), DefaultLaunchArgs...),
		WSEndpoint:     getenv("BROWSER_WS_ENDPOINT"),
		ConnectTimeout: 30 * time.Second,
		DefaultTimeout: 5 * time.Second,
		ViewportWidth:  1280,
		ViewportHeight: 720,
	}

	if v := getenv("BROWSER_HEADLESS"); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("BROWSER_HEADLESS must be a boolean: %w", err)
		}
		config.Headless = headless
	}

	if v := getenv("BROWSER_ARGS"); v != "" {
		config.Args = splitList(v)
	}

	if v := getenv("BROWSER_CONNECT_TIMEOUT"); v != "" {
		d, err := parsePositiveDuration("BROWSER_CONNECT_TIMEOUT", v)
		if err != nil {
			return nil, err
		}
		config.ConnectTimeout = d
	}

	if v := getenv("BROWSER_DEFAULT_TIMEOUT"); v != "" {
		d, err := parsePositiveDuration("BROWSER_DEFAULT_TIMEOUT", v)
		if err != nil {
			return nil, err
		}
		config.DefaultTimeout = d
	}

	if v := getenv("BROWSER_VIEWPORT"); v != "" {
		w, h, err := parseViewport(v)
		if err != nil {
			return nil, err
		}
		config.ViewportWidth = w
		config.ViewportHeight = h
	}

	return config, nil
}

// parseViewport parses WIDTHxHEIGHT
func parseViewport(v string) (int, int, error) {
	parts := strings.SplitN(strings.ToLower(v), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("BROWSER_VIEWPORT must look like 1280x720, got %q", v)
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || w <= 0 {
		return 0, 0, fmt.Errorf("BROWSER_VIEWPORT width is invalid: %q", v)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || h <= 0 {
		return 0, 0, fmt.Errorf("BROWSER_VIEWPORT height is invalid: %q", v)
	}
	return w, h, nil
}

func parsePositiveDuration(key, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, v)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
