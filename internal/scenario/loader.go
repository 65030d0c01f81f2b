package scenario

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileScenario is the on-disk YAML shape.
type fileScenario struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Tags        []string        `yaml:"tags"`
	Settle      Duration        `yaml:"settle"`
	Retry       *fileRetry      `yaml:"retry"`
	Steps       []fileStep      `yaml:"steps"`
	Assertions  []fileAssertion `yaml:"assertions"`
}

type fileRetry struct {
	MaxAttempts int      `yaml:"max_attempts"`
	Backoff     Duration `yaml:"backoff"`
}

// fileStep holds every kind key; exactly one must be set.
type fileStep struct {
	Navigate         *string   `yaml:"navigate"`
	Click            *Locator  `yaml:"click"`
	Fill             *Locator  `yaml:"fill"`
	WaitForLoadState *string   `yaml:"wait_for_load_state"`
	Pause            *Duration `yaml:"pause"`
	Mock             *fileMock `yaml:"mock"`

	WaitUntil     string   `yaml:"wait_until"`
	SettleState   string   `yaml:"settle_state"`
	SettleTimeout Duration `yaml:"settle_timeout"`
	Value         string   `yaml:"value"`
	Timeout       Duration `yaml:"timeout"`
}

type fileMock struct {
	Pattern     string `yaml:"pattern"`
	Status      int    `yaml:"status"`
	ContentType string `yaml:"content_type"`
	Body        string `yaml:"body"`
}

type fileAssertion struct {
	Visible     *Locator `yaml:"visible"`
	URLContains *string  `yaml:"url_contains"`
	Timeout     Duration `yaml:"timeout"`
	Message     string   `yaml:"message"`
}

// LoadOptions controls variable expansion while loading.
type LoadOptions struct {
	// Getenv resolves ${VAR} references. Nil means os.Getenv.
	Getenv func(string) string
}

// varRef matches ${NAME} and ${NAME:-default}. Any other $ is literal.
var varRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// expand replaces ${NAME} references. An empty or unset variable takes the
// default after :- when one is given.
func (o LoadOptions) expand(s string) string {
	getenv := o.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	return varRef.ReplaceAllStringFunc(s, func(ref string) string {
		m := varRef.FindStringSubmatch(ref)
		if v := getenv(m[1]); v != "" {
			return v
		}
		return m[2]
	})
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string, opts LoadOptions) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario %s: %w", path, err)
	}

	scn, err := Parse(data, path, opts)
	if err != nil {
		return nil, err
	}
	return scn, nil
}

// LoadPaths loads every scenario named by paths. Directories are expanded to
// their *.yaml and *.yml files in lexical order.
func LoadPaths(paths []string, opts LoadOptions) ([]*Scenario, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", p, err)
		}
		var found []string
		for _, e := range entries {
			ext := strings.ToLower(filepath.Ext(e.Name()))
			if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
				found = append(found, filepath.Join(p, e.Name()))
			}
		}
		sort.Strings(found)
		files = append(files, found...)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no scenario files found")
	}

	seen := make(map[string]string, len(files))
	scenarios := make([]*Scenario, 0, len(files))
	for _, f := range files {
		scn, err := LoadScenario(f, opts)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[scn.Name]; dup {
			return nil, fmt.Errorf("duplicate scenario name %q in %s and %s", scn.Name, prev, f)
		}
		seen[scn.Name] = f
		scenarios = append(scenarios, scn)
	}
	return scenarios, nil
}

// Parse decodes and validates scenario YAML. Unknown fields are rejected.
func Parse(data []byte, source string, opts LoadOptions) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var raw fileScenario
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse scenario %s: %w", source, err)
	}

	scn, err := raw.build(source, opts)
	if err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", source, err)
	}
	return scn, nil
}

func (raw fileScenario) build(source string, opts LoadOptions) (*Scenario, error) {
	if raw.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if len(raw.Steps) == 0 {
		return nil, fmt.Errorf("at least one step is required")
	}

	scn := &Scenario{
		Name:        raw.Name,
		Description: raw.Description,
		Tags:        raw.Tags,
		Source:      source,
		Settle:      raw.Settle.Std(),
	}

	if raw.Retry != nil {
		if raw.Retry.MaxAttempts < 1 {
			return nil, fmt.Errorf("retry.max_attempts must be at least 1")
		}
		scn.Retry = &RetryPolicy{
			MaxAttempts: raw.Retry.MaxAttempts,
			Backoff:     raw.Retry.Backoff.Std(),
		}
	}

	for i, fs := range raw.Steps {
		step, err := fs.build(opts)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		scn.Steps = append(scn.Steps, step)
	}

	for i, fa := range raw.Assertions {
		a, err := fa.build()
		if err != nil {
			return nil, fmt.Errorf("assertion %d: %w", i, err)
		}
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("assertion %d: %w", i, err)
		}
		scn.Assertions = append(scn.Assertions, a)
	}

	return scn, nil
}

func (fs fileStep) build(opts LoadOptions) (Step, error) {
	var steps []Step

	if fs.Navigate != nil {
		steps = append(steps, Navigate{
			URL:           opts.expand(*fs.Navigate),
			WaitUntil:     WaitUntil(fs.WaitUntil),
			Timeout:       fs.Timeout.Std(),
			SettleState:   LoadState(fs.SettleState),
			SettleTimeout: fs.SettleTimeout.Std(),
		})
	}
	if fs.Click != nil {
		steps = append(steps, Click{Locator: *fs.Click, Timeout: fs.Timeout.Std()})
	}
	if fs.Fill != nil {
		steps = append(steps, Fill{
			Locator: *fs.Fill,
			Value:   opts.expand(fs.Value),
			Timeout: fs.Timeout.Std(),
		})
	}
	if fs.WaitForLoadState != nil {
		steps = append(steps, WaitForLoadState{
			State:   LoadState(*fs.WaitForLoadState),
			Timeout: fs.Timeout.Std(),
		})
	}
	if fs.Pause != nil {
		steps = append(steps, Pause{Duration: fs.Pause.Std()})
	}
	if fs.Mock != nil {
		m := Mock{
			Pattern:     fs.Mock.Pattern,
			Status:      fs.Mock.Status,
			ContentType: fs.Mock.ContentType,
			Body:        opts.expand(fs.Mock.Body),
		}
		if m.Status == 0 {
			m.Status = 200
		}
		steps = append(steps, m)
	}

	switch len(steps) {
	case 0:
		return nil, fmt.Errorf("step has no kind (navigate, click, fill, wait_for_load_state, pause, mock)")
	case 1:
		return steps[0], nil
	default:
		return nil, fmt.Errorf("step has %d kinds, exactly one is allowed", len(steps))
	}
}

func (fa fileAssertion) build() (Assertion, error) {
	a := Assertion{
		Timeout: fa.Timeout.Std(),
		Message: fa.Message,
	}
	switch {
	case fa.Visible != nil && fa.URLContains != nil:
		return a, fmt.Errorf("assertion has both visible and url_contains")
	case fa.Visible != nil:
		a.Kind = AssertVisible
		a.Locator = *fa.Visible
	case fa.URLContains != nil:
		a.Kind = AssertURLContains
		a.Fragment = *fa.URLContains
	default:
		return a, fmt.Errorf("assertion has no kind (visible, url_contains)")
	}
	if a.Timeout == 0 {
		a.Timeout = DefaultAssertTimeout
	}
	return a, nil
}
