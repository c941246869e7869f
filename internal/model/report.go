// Package model defines the canonical report schema shared by all adapters.
package model

import (
	"fmt"
	"time"
)

// Status represents the overall outcome of a run.
type Status string

const (
	StatusPassed  Status = "PASSED"
	StatusFailed  Status = "FAILED"
	StatusSkipped Status = "SKIPPED"
	StatusAborted Status = "ABORTED"
	StatusUnknown Status = "UNKNOWN"
)

// CaseStatus represents the outcome of a single test case.
type CaseStatus string

const (
	CasePassed   CaseStatus = "PASSED"
	CaseFailed   CaseStatus = "FAILED"
	CaseCritical CaseStatus = "CRITICAL"
	CaseSkipped  CaseStatus = "SKIPPED"
)

// Lifecycle messages shared by both adapters.
const (
	MsgSuiteInitiated = "Test suite initiated."
	MsgSuiteFinished  = "Test suite finished."
	MsgRunAborted     = "Test run was aborted by a termination signal."
)

// Summary holds the aggregate test counts for a run. Retest and
// FailedCritical are subsets of the other buckets, not additive:
// Total == Passed + Failed + Skipped always holds.
type Summary struct {
	Total          int `json:"total"`
	Passed         int `json:"passed"`
	Failed         int `json:"failed"`
	Skipped        int `json:"skipped"`
	Retest         int `json:"retest"`
	FailedCritical int `json:"failed_critical"`
}

// EnvironmentSnapshot describes the environment the tests ran on.
type EnvironmentSnapshot struct {
	DeviceType string `json:"device_type"`
	OS         string `json:"os"`
}

// TestCaseRecord is one normalized test case. Logs is empty unless the
// case failed; DurationMS is 0 when no start/finish pair was observed.
type TestCaseRecord struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Status     CaseStatus `json:"status"`
	Logs       string     `json:"logs"`
	DurationMS int64      `json:"duration_ms"`
}

// SuiteCases groups test case records under their suite name key.
type SuiteCases map[string][]TestCaseRecord

// CanonicalReport is the unified report schema both adapters produce.
// Field order matches the downstream ingestion contract; keep it stable.
type CanonicalReport struct {
	JobID               string              `json:"job_id"`
	Status              Status              `json:"status"`
	Project             string              `json:"project"`
	Details             map[string]any      `json:"details"`
	Messages            []string            `json:"messages"`
	Logs                string              `json:"logs"`
	StartedAt           *time.Time          `json:"started_at"`
	EndedAt             *time.Time          `json:"ended_at"`
	DurationSeconds     float64             `json:"duration_seconds"`
	Passrate            string              `json:"passrate"`
	Progress            string              `json:"progress"`
	Videos              []string            `json:"videos"`
	Screenshots         []string            `json:"screenshots"`
	Summary             Summary             `json:"summary"`
	EnvironmentSnapshot EnvironmentSnapshot `json:"environment_snapshot"`
	TestCases           []SuiteCases        `json:"test_cases"`
}

// NewReport returns a report with the neutral defaults every run starts
// from: UNKNOWN status, zero counts, and the opening lifecycle message.
func NewReport() *CanonicalReport {
	return &CanonicalReport{
		Status:      StatusUnknown,
		Details:     map[string]any{},
		Messages:    []string{MsgSuiteInitiated},
		Passrate:    Passrate(0, 0),
		Progress:    Progress(0, 0),
		Videos:      []string{},
		Screenshots: []string{},
		TestCases:   []SuiteCases{},
	}
}

// Passrate formats passed/total as a percentage string with two
// decimals. A zero total yields "0.00%" rather than a division error.
func Passrate(passed, total int) string {
	if total <= 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(passed)/float64(total)*100)
}

// Progress formats the run/total counter string.
func Progress(run, total int) string {
	return fmt.Sprintf("%d/%d", run, total)
}

// OverlayAbort marks the report as aborted and appends the abort
// notice, regardless of what the normal status computation yielded.
func (r *CanonicalReport) OverlayAbort() {
	r.Status = StatusAborted
	r.Messages = append(r.Messages, MsgRunAborted)
}

// AddSuite appends the given records under the suite name key,
// preserving the order cases were observed in the source output.
func (r *CanonicalReport) AddSuite(suiteName string, cases []TestCaseRecord) {
	if cases == nil {
		cases = []TestCaseRecord{}
	}
	r.TestCases = append(r.TestCases, SuiteCases{suiteName: cases})
}
