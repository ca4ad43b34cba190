// Package testutil holds shared helpers for package tests: temp fixture
// files and JSON formatting for readable failure output.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("create parent directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// MustReadFile reads path or fails the test.
func MustReadFile(t *testing.T, path string) []byte {
	t.Helper()
	content, err := os.ReadFile(path) // #nosec G304 -- test helper for controlled paths.
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return content
}

// FormatJSON pretty-prints raw JSON for assertion failure messages; invalid
// JSON comes back unchanged.
func FormatJSON(raw []byte) string {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return string(raw)
	}
	encoded, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return string(raw)
	}
	return fmt.Sprintf("%s\n", string(encoded))
}
