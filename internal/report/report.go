// Package report serializes, validates, and emits canonical reports.
package report

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	_ "embed"

	"github.com/gowebpki/jcs"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"testbridge/internal/model"
)

//go:embed report.schema.json
var schemaData []byte

var (
	reportSchema *jsonschema.Schema
	compileOnce  sync.Once
	compileErr   error
)

// Marshal renders the report as indented JSON with the stable field
// order the downstream ingestion diffs against.
func Marshal(r *model.CanonicalReport) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("report is required")
	}
	return json.MarshalIndent(r, "", "  ")
}

// Validate checks serialized report JSON against the embedded canonical
// schema.
func Validate(data []byte) error {
	if err := compileSchema(); err != nil {
		return err
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := reportSchema.Validate(v); err != nil {
		return fmt.Errorf("report validation failed: %w", err)
	}
	return nil
}

// Fingerprint returns the hex sha256 of the RFC 8785 canonical form of
// the report JSON, so byte-level formatting differences never change
// a report's identity.
func Fingerprint(data []byte) (string, error) {
	canonical, err := jcs.Transform(data)
	if err != nil {
		return "", fmt.Errorf("canonicalize report: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// WriteFile persists the serialized report to its fixed-name artifact.
func WriteFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report to %s: %w", path, err)
	}
	return nil
}

func compileSchema() error {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaData))
		if err != nil {
			compileErr = fmt.Errorf("unmarshal report schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("report.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("add report schema resource: %w", err)
			return
		}

		reportSchema, compileErr = compiler.Compile("report.schema.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compile report schema: %w", compileErr)
		}
	})
	return compileErr
}
