package cli

import (
	"fmt"
	"io"

	"github.com/themizzi/scenariorunner/internal/scenario"
)

// ValidateScenarios loads every scenario under paths without running them
// and prints one line per scenario.
func ValidateScenarios(paths []string, getenv func(string) string, w io.Writer) error {
	scenarios, err := scenario.LoadPaths(paths, scenario.LoadOptions{Getenv: getenv})
	if err != nil {
		return err
	}

	for _, scn := range scenarios {
		fmt.Fprintf(w, "ok  %s (%s, %d steps, %d assertions)\n", scn.Name, scn.Source, len(scn.Steps), len(scn.Assertions))
	}
	return nil
}
