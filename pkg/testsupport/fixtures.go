package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-knackobject/pkg/knack"
)

// Fixture is a canned API state: schemas keyed by object id and records
// keyed by object id then record id.
type Fixture struct {
	Fields  map[string][]json.RawMessage          `json:"fields"`
	Records map[string]map[string]json.RawMessage `json:"records"`
}

// LoadFixture reads a JSON fixture from disk. Testing helpers fail the test
// on error to keep call sites concise.
func LoadFixture(t *testing.T, path string) Fixture {
	t.Helper()

	fixture, err := LoadFixtureFromPath(path)
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	return fixture
}

// LoadFixtureFromPath returns a Fixture without requiring testing.T.
func LoadFixtureFromPath(path string) (Fixture, error) {
	if path == "" {
		return Fixture{}, errors.New("testsupport: fixture path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("testsupport: read fixture: %w", err)
	}
	var out Fixture
	if err := json.Unmarshal(data, &out); err != nil {
		return Fixture{}, fmt.Errorf("testsupport: unmarshal fixture: %w", err)
	}
	return out, nil
}

// MustRecord decodes a JSON literal into a RawRecord.
func MustRecord(t *testing.T, raw string) knack.RawRecord {
	t.Helper()

	var record knack.RawRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	return record
}

// MustFields decodes a JSON array literal into field schemas.
func MustFields(t *testing.T, raw string) []knack.FieldSchema {
	t.Helper()

	var fields []knack.FieldSchema
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		t.Fatalf("decode fields: %v", err)
	}
	return fields
}

// WriteGolden writes arbitrary data as JSON when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	WriteMaybeGolden(t, path, payload)
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
