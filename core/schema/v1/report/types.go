// Package report declares the wire types for diagnostic event ingestion and
// deterministic anomaly summaries.
package report

// Severity is the closed set of diagnostic event severities.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarn     Severity = "WARN"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

// DiagEvent is one diagnostic event line. TS is an RFC3339 UTC timestamp
// with a trailing Z; Context is free-form and may be null.
type DiagEvent struct {
	EventType string            `json:"event_type"`
	TS        string            `json:"ts"`
	Source    string            `json:"source"`
	Severity  Severity          `json:"severity"`
	Message   string            `json:"message"`
	Context   map[string]string `json:"context"`
}

// SourceCount is one entry of a summary's top-sources ranking.
type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// Summary is the deterministic aggregate over a validated event set.
// Two identical inputs always produce byte-identical canonical summaries.
type Summary struct {
	WindowStart      string         `json:"window_start"`
	WindowEnd        string         `json:"window_end"`
	CountsByType     map[string]int `json:"counts_by_type"`
	CountsBySeverity map[string]int `json:"counts_by_severity"`
	TopSources       []SourceCount  `json:"top_sources"`
	HashOfInputs     string         `json:"hash_of_inputs"`
}
