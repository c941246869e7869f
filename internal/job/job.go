// Package job parses the caller-supplied metadata argument that
// accompanies every invocation.
package job

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Job holds the caller-supplied run metadata. Details keeps the full
// decoded object so unrecognized keys pass through into the report
// verbatim.
type Job struct {
	ID      string
	Details map[string]any
}

// Parse decodes the positional JSON argument. A missing job_id gets a
// generated one so every emitted report is addressable downstream.
func Parse(raw string) (*Job, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("metadata argument is empty")
	}

	var details map[string]any
	if err := json.Unmarshal([]byte(raw), &details); err != nil {
		return nil, fmt.Errorf("metadata argument is not a valid JSON object: %w", err)
	}
	if details == nil {
		details = map[string]any{}
	}

	id := stringField(details, "job_id")
	if id == "" {
		id = uuid.NewString()
	}

	return &Job{ID: id, Details: details}, nil
}

// Field returns the named string detail, or fallback when the key is
// absent or not a string.
func (j *Job) Field(key, fallback string) string {
	if v := stringField(j.Details, key); v != "" {
		return v
	}
	return fallback
}

// SuiteName returns the suite grouping key for test cases, defaulting
// the value back into Details so the report's passthrough metadata
// carries it too.
func (j *Job) SuiteName(fallback string) string {
	name := j.Field("suite_name", fallback)
	j.Details["suite_name"] = name
	return name
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
