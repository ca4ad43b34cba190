// Package report ingests diagnostic event JSONL and produces deterministic
// anomaly summaries. Invalid events are rejected at ingestion with the
// offending line number; aggregation assumes a validated event set.
package report

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	_ "embed"

	wardenerrors "github.com/davidahmann/warden/core/errors"
	"github.com/davidahmann/warden/core/schema/validate"
	schemareport "github.com/davidahmann/warden/core/schema/v1/report"
)

//go:embed schemas/diag_event.json
var diagEventSchema []byte

// ReadEventsFile reads and validates a diagnostic event JSONL file. Every
// non-empty line must satisfy the embedded event schema; unknown keys are
// errors, not warnings.
func ReadEventsFile(path string) ([]schemareport.DiagEvent, error) {
	// #nosec G304 -- events path is explicit local user input.
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, wardenerrors.Wrap(
			fmt.Errorf("read events: %w", err),
			wardenerrors.CategoryIOFailure,
			"events_read_failed",
			"check the events path and permissions",
			false,
		)
	}
	return ParseEvents(content)
}

// ParseEvents validates and decodes diagnostic event JSONL bytes.
func ParseEvents(data []byte) ([]schemareport.DiagEvent, error) {
	if err := validate.ValidateJSONL(diagEventSchema, data); err != nil {
		return nil, wardenerrors.Wrap(
			err,
			wardenerrors.CategoryInvalidInput,
			"invalid_diag_event",
			"fix the rejected event line before summarizing",
			false,
		)
	}

	events := make([]schemareport.DiagEvent, 0)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var event schemareport.DiagEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			return nil, wardenerrors.Wrap(
				fmt.Errorf("jsonl line %d: %w", line, err),
				wardenerrors.CategoryInvalidInput,
				"invalid_diag_event",
				"fix the rejected event line before summarizing",
				false,
			)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}
	return events, nil
}

// InputDigest returns the sha256 hex digest over the raw event lines in the
// order supplied. Blank lines are skipped so reformatting whitespace does
// not change the fingerprint.
func InputDigest(data []byte) (string, error) {
	hasher := sha256.New()
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		hasher.Write(raw)
		hasher.Write([]byte{'\n'})
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan events for digest: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
