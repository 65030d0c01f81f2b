package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/themizzi/scenariorunner/internal/runner"
)

// TextReporter prints one line per run, details for failures and a summary.
// Colour is used only when w is a terminal.
type TextReporter struct {
	// Verbose lists every step, not only the failing one.
	Verbose bool
}

type textStyles struct {
	pass   lipgloss.Style
	fail   lipgloss.Style
	dim    lipgloss.Style
	detail lipgloss.Style
}

func newTextStyles(w io.Writer) textStyles {
	r := lipgloss.NewRenderer(w)
	return textStyles{
		pass:   r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		fail:   r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		dim:    r.NewStyle().Faint(true),
		detail: r.NewStyle().PaddingLeft(2),
	}
}

// Report implements Reporter.
func (t TextReporter) Report(w io.Writer, results []*runner.Result) error {
	st := newTextStyles(w)
	var b strings.Builder

	for _, r := range results {
		label := st.pass.Render("PASS")
		if !r.Passed() {
			label = st.fail.Render("FAIL")
		}
		fmt.Fprintf(&b, "%s %s %s\n", label, r.Scenario, st.dim.Render("("+r.Duration().Round(time.Millisecond).String()+")"))

		if t.Verbose {
			for _, s := range r.Steps {
				line := fmt.Sprintf("%d. %s", s.Index+1, s.Description)
				if s.Attempts > 1 {
					line += fmt.Sprintf(" [%d attempts]", s.Attempts)
				}
				if n := len(s.Suppressed); n > 0 {
					line += fmt.Sprintf(" [%d load waits ignored]", n)
				}
				b.WriteString(st.detail.Render(line) + "\n")
			}
		}

		if r.Passed() {
			continue
		}
		if s, ok := failedStep(r); ok {
			b.WriteString(st.detail.Render(fmt.Sprintf("step %d: %s", s.Index+1, s.Description)) + "\n")
		}
		b.WriteString(st.detail.Render(fmt.Sprintf("%s: %s", r.ErrorKind, r.Diagnostic)) + "\n")
		if r.Screenshot != "" {
			b.WriteString(st.detail.Render("screenshot: "+r.Screenshot) + "\n")
		}
	}

	sum := runner.Summarize(results)
	passed := fmt.Sprintf("%d passed", sum.Passed)
	failed := fmt.Sprintf("%d failed", sum.Failed)
	if sum.Passed > 0 {
		passed = st.pass.Render(passed)
	}
	if sum.Failed > 0 {
		failed = st.fail.Render(failed)
	}
	fmt.Fprintf(&b, "\n%s, %s, %d total\n", passed, failed, sum.Total)

	_, err := io.WriteString(w, b.String())
	return err
}
