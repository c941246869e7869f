// Package playwright normalizes the Playwright JSON reporter output
// into the canonical report model.
package playwright

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"testbridge/internal/model"
)

// ansiRe matches ANSI terminal escape sequences. Playwright error
// messages are full of them.
var ansiRe = regexp.MustCompile(`\x1b(?:[@-Z\\-_]|\[[0-?]*[ -/]*[@-~])`)

// Report is the top-level Playwright JSON reporter structure.
type Report struct {
	Stats  Stats   `json:"stats"`
	Suites []Suite `json:"suites"`
}

// Stats holds the aggregate counters of a Playwright run.
type Stats struct {
	StartTime  time.Time `json:"startTime"`
	Duration   float64   `json:"duration"` // milliseconds
	Expected   int       `json:"expected"`
	Unexpected int       `json:"unexpected"`
	Skipped    int       `json:"skipped"`
	Flaky      int       `json:"flaky"`
}

// Suite is a grouping node; suites nest arbitrarily deep and specs
// exist only as direct children of a suite.
type Suite struct {
	Title  string  `json:"title"`
	Suites []Suite `json:"suites"`
	Specs  []Spec  `json:"specs"`
}

// Spec is a single test declaration.
type Spec struct {
	Title string     `json:"title"`
	Ok    bool       `json:"ok"`
	Tests []SpecTest `json:"tests"`
}

// SpecTest is one projected run of a spec.
type SpecTest struct {
	Status  string       `json:"status"`
	Results []SpecResult `json:"results"`
}

// SpecResult is one execution attempt of a test.
type SpecResult struct {
	Status string     `json:"status"`
	Error  *SpecError `json:"error"`
}

// SpecError carries the failure details of a result.
type SpecError struct {
	Message string `json:"message"`
	Stack   string `json:"stack"`
}

// ParseError reports Playwright output that could not be interpreted.
type ParseError struct {
	Message string
	Action  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("playwright report: %s. %s", e.Message, e.Action)
}

// Transform builds a canonical report from raw Playwright JSON
// reporter output.
func Transform(data []byte, suiteName string) (*model.CanonicalReport, error) {
	if len(data) == 0 {
		return nil, &ParseError{
			Message: "report output is empty",
			Action:  "Ensure the runner was invoked with --reporter=json and produced output on stdout.",
		}
	}

	var pw Report
	if err := json.Unmarshal(data, &pw); err != nil {
		return nil, &ParseError{
			Message: fmt.Sprintf("invalid JSON: %v", err),
			Action:  "Ensure the runner was invoked with --reporter=json. The output may be truncated.",
		}
	}

	report := model.NewReport()

	durationSeconds := pw.Stats.Duration / 1000.0
	report.DurationSeconds = math.Round(durationSeconds*1000) / 1000
	if !pw.Stats.StartTime.IsZero() {
		started := pw.Stats.StartTime.UTC()
		ended := started.Add(time.Duration(pw.Stats.Duration * float64(time.Millisecond)))
		report.StartedAt = &started
		report.EndedAt = &ended
	}

	totalRun := pw.Stats.Expected + pw.Stats.Unexpected + pw.Stats.Flaky
	failed := pw.Stats.Unexpected + pw.Stats.Flaky
	report.Summary = model.Summary{
		Total:          totalRun + pw.Stats.Skipped,
		Passed:         pw.Stats.Expected,
		Failed:         failed,
		Skipped:        pw.Stats.Skipped,
		FailedCritical: pw.Stats.Unexpected,
	}
	report.Progress = model.Progress(totalRun, totalRun+pw.Stats.Skipped)
	report.Passrate = model.Passrate(report.Summary.Passed, report.Summary.Total)

	switch {
	case failed > 0:
		report.Status = model.StatusFailed
	case totalRun == 0 && pw.Stats.Skipped > 0:
		report.Status = model.StatusSkipped
	default:
		report.Status = model.StatusPassed
	}

	var records []model.TestCaseRecord
	for i, spec := range flattenSpecs(pw.Suites) {
		rec := model.TestCaseRecord{
			ID:     fmt.Sprintf("TC%02d", i+1),
			Name:   caseName(spec.Title),
			Status: model.CasePassed,
		}

		status, result := resolveStatus(spec)
		rec.Status = status
		if status == model.CaseFailed && result != nil {
			message, stack := "No error message found.", "No stack trace found."
			if result.Error != nil {
				if result.Error.Message != "" {
					message = result.Error.Message
				}
				if result.Error.Stack != "" {
					stack = result.Error.Stack
				}
			}
			message = stripANSI(message)
			stack = stripANSI(stack)
			rec.Logs = strings.TrimSpace(message) + "\n" + strings.TrimSpace(stack)
			report.Messages = append(report.Messages,
				fmt.Sprintf("Test '%s' failed: %s", spec.Title, firstLine(message)))
		}
		records = append(records, rec)
	}
	report.AddSuite(suiteName, records)

	report.Messages = append(report.Messages, model.MsgSuiteFinished)
	return report, nil
}

// flattenSpecs collects every spec in depth-first, child-order: a
// suite's own specs first, then its sub-suites recursively.
func flattenSpecs(suites []Suite) []Spec {
	var specs []Spec
	for _, s := range suites {
		specs = append(specs, s.Specs...)
		specs = append(specs, flattenSpecs(s.Suites)...)
	}
	return specs
}

// resolveStatus derives the per-case status from the first test run's
// first result, returning that result when one exists.
func resolveStatus(spec Spec) (model.CaseStatus, *SpecResult) {
	if len(spec.Tests) == 0 {
		return model.CaseSkipped, nil
	}
	test := spec.Tests[0]
	if len(test.Results) == 0 {
		// Covers tests[0].status == "skipped"; a test with no results
		// never ran either way.
		return model.CaseSkipped, nil
	}
	result := &test.Results[0]
	switch result.Status {
	case "passed":
		return model.CasePassed, result
	case "interrupted":
		return model.CaseSkipped, result
	default: // "failed", "timedOut", ...
		return model.CaseFailed, result
	}
}

// caseName normalizes a spec title: dots become underscores, spaces
// are removed.
func caseName(title string) string {
	return strings.ReplaceAll(strings.ReplaceAll(title, ".", "_"), " ", "")
}

func stripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
