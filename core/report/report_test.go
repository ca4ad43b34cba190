package report

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/davidahmann/warden/core/canon"
	wardenerrors "github.com/davidahmann/warden/core/errors"
	schemareport "github.com/davidahmann/warden/core/schema/v1/report"
	"github.com/davidahmann/warden/internal/testutil"
)

const sampleEvents = `{"event_type":"gate_refusal","ts":"2026-03-01T10:00:00Z","source":"gate-a","severity":"WARN","message":"refused","context":{"actor":"x"}}
{"event_type":"gate_refusal","ts":"2026-03-01T11:00:00Z","source":"gate-a","severity":"WARN","message":"refused","context":null}
{"event_type":"drift_alarm","ts":"2026-03-01T09:00:00Z","source":"drift-ci","severity":"CRITICAL","message":"expansion","context":{}}
`

func TestParseEvents(t *testing.T) {
	events, err := ParseEvents([]byte(sampleEvents))
	if err != nil {
		t.Fatalf("ParseEvents: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("events = %d", len(events))
	}
	if events[0].EventType != "gate_refusal" || events[0].Severity != schemareport.SeverityWarn {
		t.Fatalf("event mismatch: %+v", events[0])
	}
}

func TestParseEventsRejectsUnknownKeys(t *testing.T) {
	bad := `{"event_type":"x","ts":"2026-03-01T10:00:00Z","source":"s","severity":"INFO","message":"m","context":null,"surprise":true}` + "\n"
	_, err := ParseEvents([]byte(bad))
	if err == nil {
		t.Fatal("unknown key must be rejected")
	}
	if wardenerrors.CodeOf(err) != "invalid_diag_event" {
		t.Fatalf("code = %q", wardenerrors.CodeOf(err))
	}
	if !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("error must name the line: %v", err)
	}
}

func TestParseEventsRejectsBadTimestampAndSeverity(t *testing.T) {
	badTS := `{"event_type":"x","ts":"2026-03-01 10:00:00","source":"s","severity":"INFO","message":"m","context":null}` + "\n"
	if _, err := ParseEvents([]byte(badTS)); err == nil {
		t.Fatal("non-zulu timestamp must be rejected")
	}
	badSeverity := `{"event_type":"x","ts":"2026-03-01T10:00:00Z","source":"s","severity":"LOUD","message":"m","context":null}` + "\n"
	if _, err := ParseEvents([]byte(badSeverity)); err == nil {
		t.Fatal("unknown severity must be rejected")
	}
}

func TestComputeWindow(t *testing.T) {
	events, err := ParseEvents([]byte(sampleEvents))
	if err != nil {
		t.Fatalf("ParseEvents: %v", err)
	}
	start, end := ComputeWindow(events)
	if start != "2026-03-01T09:00:00Z" || end != "2026-03-01T11:00:00Z" {
		t.Fatalf("window = [%s, %s]", start, end)
	}

	start, end = ComputeWindow(nil)
	if start != "1970-01-01T00:00:00Z" || end != "1970-01-01T00:00:00Z" {
		t.Fatalf("empty window = [%s, %s]", start, end)
	}
}

func TestSummarizeDeterministic(t *testing.T) {
	events, err := ParseEvents([]byte(sampleEvents))
	if err != nil {
		t.Fatalf("ParseEvents: %v", err)
	}
	digest, err := InputDigest([]byte(sampleEvents))
	if err != nil {
		t.Fatalf("InputDigest: %v", err)
	}

	summary := Summarize(events, digest)
	if summary.CountsByType["gate_refusal"] != 2 || summary.CountsByType["drift_alarm"] != 1 {
		t.Fatalf("counts_by_type = %v", summary.CountsByType)
	}
	if summary.CountsBySeverity["WARN"] != 2 || summary.CountsBySeverity["CRITICAL"] != 1 {
		t.Fatalf("counts_by_severity = %v", summary.CountsBySeverity)
	}
	if len(summary.TopSources) != 2 {
		t.Fatalf("top_sources = %v", summary.TopSources)
	}
	if summary.TopSources[0].Source != "gate-a" || summary.TopSources[0].Count != 2 {
		t.Fatalf("top source = %+v", summary.TopSources[0])
	}
	if summary.HashOfInputs != digest {
		t.Fatalf("hash_of_inputs = %s", summary.HashOfInputs)
	}

	first, err := canon.Canonicalize(summary)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	for i := 0; i < 20; i++ {
		next, err := canon.Canonicalize(Summarize(events, digest))
		if err != nil {
			t.Fatalf("iteration %d: %v", i, err)
		}
		if string(next) != string(first) {
			t.Fatalf("iteration %d summary bytes differ", i)
		}
	}
}

func TestTopSourcesTieBreakAndLimit(t *testing.T) {
	counts := map[string]int{}
	events := make([]schemareport.DiagEvent, 0)
	for _, source := range []string{"b", "a", "b", "a", "c"} {
		counts[source]++
		events = append(events, schemareport.DiagEvent{
			EventType: "x",
			TS:        "2026-03-01T10:00:00Z",
			Source:    source,
			Severity:  schemareport.SeverityInfo,
			Message:   "m",
		})
	}
	summary := Summarize(events, "digest")
	// a and b tie at 2: alphabetical order breaks the tie; c trails.
	if summary.TopSources[0].Source != "a" || summary.TopSources[1].Source != "b" || summary.TopSources[2].Source != "c" {
		t.Fatalf("top_sources order = %v", summary.TopSources)
	}

	many := make([]schemareport.DiagEvent, 0, 15)
	for i := 0; i < 15; i++ {
		many = append(many, schemareport.DiagEvent{
			EventType: "x",
			TS:        "2026-03-01T10:00:00Z",
			Source:    string(rune('a' + i)),
			Severity:  schemareport.SeverityInfo,
			Message:   "m",
		})
	}
	if got := len(Summarize(many, "digest").TopSources); got != topSourceLimit {
		t.Fatalf("top_sources length = %d, want %d", got, topSourceLimit)
	}
}

func TestInputDigestIgnoresBlankLines(t *testing.T) {
	first, err := InputDigest([]byte("{\"a\":1}\n{\"b\":2}\n"))
	if err != nil {
		t.Fatalf("InputDigest: %v", err)
	}
	second, err := InputDigest([]byte("{\"a\":1}\n\n\n{\"b\":2}"))
	if err != nil {
		t.Fatalf("InputDigest: %v", err)
	}
	if first != second {
		t.Fatal("blank lines must not change the digest")
	}
	third, err := InputDigest([]byte("{\"b\":2}\n{\"a\":1}\n"))
	if err != nil {
		t.Fatalf("InputDigest: %v", err)
	}
	if first == third {
		t.Fatal("line order must change the digest")
	}
}

func TestAppendAndReadEventsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "diag.jsonl")

	event := NewCommandEvent("transition eval", 3, 1500*time.Millisecond, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	if event.Severity != schemareport.SeverityError {
		t.Fatalf("non-zero exit must map to ERROR, got %s", event.Severity)
	}
	if err := AppendEvent(path, event); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	ok := NewCommandEvent("version", 0, 10*time.Millisecond, time.Date(2026, 3, 1, 10, 1, 0, 0, time.UTC))
	if ok.Severity != schemareport.SeverityInfo {
		t.Fatalf("zero exit must map to INFO, got %s", ok.Severity)
	}
	if err := AppendEvent(path, ok); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}

	events, err := ReadEventsFile(path)
	if err != nil {
		t.Fatalf("ReadEventsFile: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d", len(events))
	}
	if events[0].Context["exit_code"] != "3" || events[0].Context["command"] != "transition eval" {
		t.Fatalf("context mismatch: %+v", events[0])
	}
}

func TestWriteSummaryArtifactCanonical(t *testing.T) {
	events, err := ParseEvents([]byte(sampleEvents))
	if err != nil {
		t.Fatalf("ParseEvents: %v", err)
	}
	summary := Summarize(events, "digest")
	path := filepath.Join(t.TempDir(), "out", "summary.json")
	if err := WriteSummaryArtifact(summary, path); err != nil {
		t.Fatalf("WriteSummaryArtifact: %v", err)
	}
	written := testutil.MustReadFile(t, path)
	canonical, err := canon.Canonicalize(summary)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	if string(written) != string(canonical) {
		t.Fatalf("summary bytes are not canonical:\n%s\n%s", written, canonical)
	}
}
