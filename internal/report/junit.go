package report

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/themizzi/scenariorunner/internal/runner"
)

// JUnitReporter writes JUnit XML, one testcase per run.
type JUnitReporter struct {
	Suite string
}

type junitSuites struct {
	XMLName  xml.Name     `xml:"testsuites"`
	Name     string       `xml:"name,attr"`
	Tests    int          `xml:"tests,attr"`
	Failures int          `xml:"failures,attr"`
	Time     string       `xml:"time,attr"`
	Suites   []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name      string      `xml:"name,attr"`
	Tests     int         `xml:"tests,attr"`
	Failures  int         `xml:"failures,attr"`
	Time      string      `xml:"time,attr"`
	TestCases []junitCase `xml:"testcase"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
	SystemOut string        `xml:"system-out,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// Report implements Reporter.
func (j JUnitReporter) Report(w io.Writer, results []*runner.Result) error {
	sum := runner.Summarize(results)
	suite := junitSuite{
		Name:     j.Suite,
		Tests:    sum.Total,
		Failures: sum.Failed,
		Time:     seconds(sum.Duration),
	}

	for _, r := range results {
		tc := junitCase{
			Name:      r.Scenario,
			Classname: j.Suite,
			Time:      seconds(r.Duration()),
			SystemOut: stepLog(r),
		}
		if !r.Passed() {
			body := r.Diagnostic
			if r.Screenshot != "" {
				body += "\nscreenshot: " + r.Screenshot
			}
			tc.Failure = &junitFailure{
				Message: r.Diagnostic,
				Type:    r.ErrorKind,
				Body:    body,
			}
		}
		suite.TestCases = append(suite.TestCases, tc)
	}

	doc := junitSuites{
		Name:     j.Suite,
		Tests:    sum.Total,
		Failures: sum.Failed,
		Time:     seconds(sum.Duration),
		Suites:   []junitSuite{suite},
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode junit report: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func stepLog(r *runner.Result) string {
	var b strings.Builder
	for _, s := range r.Steps {
		status := "ok"
		if s.Failed() {
			status = "failed"
		}
		fmt.Fprintf(&b, "%d. %s: %s (%d attempt", s.Index+1, s.Description, status, s.Attempts)
		if s.Attempts != 1 {
			b.WriteString("s")
		}
		b.WriteString(")\n")
	}
	return b.String()
}
