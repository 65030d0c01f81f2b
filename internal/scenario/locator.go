package scenario

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Locator is a rule for resolving on-page elements. Selector uses the
// engine's selector syntax (css, xpath=..., text=...). Nth picks one match
// when several exist. Fallbacks are tried in order, within the same
// attempt, when the primary selector cannot be used.
type Locator struct {
	Selector  string   `yaml:"selector"`
	Nth       int      `yaml:"nth"`
	Fallbacks []string `yaml:"fallbacks"`
}

// UnmarshalYAML accepts a bare selector string or a mapping.
func (l *Locator) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		l.Selector = value.Value
		return nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(value.Content); i += 2 {
			key := value.Content[i]
			switch key.Value {
			case "selector", "nth", "fallbacks":
			default:
				return fmt.Errorf("line %d: field %s not found in locator (selector, nth, fallbacks)", key.Line, key.Value)
			}
		}
		type plain Locator
		var p plain
		if err := value.Decode(&p); err != nil {
			return err
		}
		*l = Locator(p)
		return nil
	default:
		return fmt.Errorf("line %d: locator must be a selector string or mapping", value.Line)
	}
}

// Selectors returns the primary selector followed by fallbacks.
func (l Locator) Selectors() []string {
	out := make([]string, 0, 1+len(l.Fallbacks))
	out = append(out, l.Selector)
	return append(out, l.Fallbacks...)
}

// Validate checks the locator has a usable selector.
func (l Locator) Validate() error {
	if strings.TrimSpace(l.Selector) == "" {
		return fmt.Errorf("locator selector is required")
	}
	if l.Nth < 0 {
		return fmt.Errorf("locator nth must not be negative, got %d", l.Nth)
	}
	for i, f := range l.Fallbacks {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("locator fallback %d is empty", i)
		}
	}
	return nil
}

func (l Locator) String() string {
	if l.Nth == 0 {
		return l.Selector
	}
	return fmt.Sprintf("%s >> nth=%d", l.Selector, l.Nth)
}
