// Package instrumentation normalizes Android instrumentation runner
// output into the canonical report model. It consumes two artifacts:
// the textual summary printed by `am instrument -w` and the verbose
// TestRunner logcat dump captured after the run.
package instrumentation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"testbridge/internal/model"
)

var (
	// Logcat timestamps carry no year; the current calendar year is
	// assumed at parse time.
	timestampRe = regexp.MustCompile(`\d{2}-\d{2}\s\d{2}:\d{2}:\d{2}\.\d{3}`)

	// Numbered failure blocks in the summary, e.g.
	// "1) TC01_wifi_toggle(com.example.settingsautomator.SettingsTestSuite)".
	failureHeaderRe = regexp.MustCompile(`(?m)^\d+\) ([^\s(]+)\(([^)]*)\)`)

	// Test lifecycle events in the verbose log.
	eventRe = regexp.MustCompile(`^(\d{2}-\d{2}\s\d{2}:\d{2}:\d{2}\.\d{3}).*?I TestRunner: (started|finished): (.*?)\(com`)

	// Final result line of the summary.
	summaryRe = regexp.MustCompile(`Tests run: (\d+),\s+Failures: (\d+)`)
)

const (
	timestampLayout = "2006-01-02 15:04:05.000"
	failuresMarker  = "\nFAILURES!!!"
	assertionError  = "java.lang.AssertionError"
)

// Input holds the raw artifacts of one instrumentation run.
type Input struct {
	Summary   string
	Verbose   string
	SuiteName string
}

// Transform builds a canonical report from raw instrumentation output.
// Missing pieces (no timestamps, no summary line, no events) degrade to
// zero values; the adapter never fails on partial capture.
func Transform(in Input) *model.CanonicalReport {
	report := model.NewReport()
	year := time.Now().Year()

	if first, last, ok := runWindow(in.Verbose, year); ok {
		report.StartedAt = &first
		report.EndedAt = &last
		report.DurationSeconds = math.Round(last.Sub(first).Seconds()*1000) / 1000
	}

	failures := parseFailureBlocks(in.Summary)
	cases := scanEvents(in.Verbose, year, failures, report)
	report.AddSuite(in.SuiteName, cases)

	if m := summaryRe.FindStringSubmatch(in.Summary); m != nil {
		total, _ := strconv.Atoi(m[1])
		failed, _ := strconv.Atoi(m[2])
		passed := total - failed

		if failed > 0 {
			report.Status = model.StatusFailed
		} else {
			report.Status = model.StatusPassed
		}
		report.Progress = model.Progress(total, total)
		report.Passrate = model.Passrate(passed, total)
		report.Summary = model.Summary{
			Total:          total,
			Passed:         passed,
			Failed:         failed,
			FailedCritical: countCritical(cases),
		}
	}

	report.Messages = append(report.Messages, model.MsgSuiteFinished)
	return report
}

// runWindow extracts the first and last timestamps from the verbose
// log. ok is false when the log carries no timestamps at all.
func runWindow(verbose string, year int) (first, last time.Time, ok bool) {
	stamps := timestampRe.FindAllString(verbose, -1)
	if len(stamps) == 0 {
		return time.Time{}, time.Time{}, false
	}
	first, err := parseTimestamp(stamps[0], year)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	last, err = parseTimestamp(stamps[len(stamps)-1], year)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return first, last, true
}

// parseFailureBlocks maps test identifiers to their trimmed failure
// text. A block runs from its numbered header to the next header or
// the terminal FAILURES!!! marker.
func parseFailureBlocks(summary string) map[string]string {
	headers := failureHeaderRe.FindAllStringSubmatchIndex(summary, -1)
	if len(headers) == 0 {
		return nil
	}

	blocks := make(map[string]string, len(headers))
	for i, loc := range headers {
		name := summary[loc[2]:loc[3]]
		start := loc[1]

		end := len(summary)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		} else if idx := strings.Index(summary[start:], failuresMarker); idx >= 0 {
			end = start + idx
		}

		blocks[name] = strings.TrimSpace(summary[start:end])
	}
	return blocks
}

// scanEvents walks the verbose log line by line, creating a record on
// each "started" event and filling in the duration on the matching
// "finished" event. A finished event with no prior started event is
// ignored.
func scanEvents(verbose string, year int, failures map[string]string, report *model.CanonicalReport) []model.TestCaseRecord {
	var records []model.TestCaseRecord
	index := make(map[string]int)
	startTimes := make(map[string]time.Time)

	for _, line := range strings.Split(verbose, "\n") {
		m := eventRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		stamp, event, testID := m[1], m[2], m[3]

		ts, err := parseTimestamp(stamp, year)
		if err != nil {
			continue
		}

		switch event {
		case "started":
			rec := model.TestCaseRecord{
				ID:     caseID(testID),
				Name:   displayName(testID),
				Status: model.CasePassed,
			}
			if errText, ok := failures[testID]; ok {
				rec.Status = model.CaseFailed
				if !strings.Contains(errText, assertionError) {
					rec.Status = model.CaseCritical
				}
				rec.Logs = errText
				report.Messages = append(report.Messages,
					fmt.Sprintf("Test '%s' failed: %s", testID, firstLine(errText)))
			}
			records = append(records, rec)
			index[testID] = len(records) - 1
			startTimes[testID] = ts

		case "finished":
			i, ok := index[testID]
			if !ok {
				continue
			}
			if started, ok := startTimes[testID]; ok {
				records[i].DurationMS = int64(math.Round(float64(ts.Sub(started)) / float64(time.Millisecond)))
				delete(startTimes, testID)
			}
		}
	}
	return records
}

func parseTimestamp(stamp string, year int) (time.Time, error) {
	return time.Parse(timestampLayout, fmt.Sprintf("%d-%s", year, stamp))
}

// caseID is the text before the first underscore of the raw identifier.
func caseID(testID string) string {
	id, _, _ := strings.Cut(testID, "_")
	return id
}

// displayName turns the remaining underscore-separated words into a
// capitalized, space-joined name.
func displayName(testID string) string {
	_, rest, ok := strings.Cut(testID, "_")
	if !ok {
		return ""
	}
	titler := cases.Title(language.English)
	return titler.String(strings.Join(strings.Split(rest, "_"), " "))
}

func countCritical(records []model.TestCaseRecord) int {
	n := 0
	for _, rec := range records {
		if rec.Status == model.CaseCritical {
			n++
		}
	}
	return n
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
