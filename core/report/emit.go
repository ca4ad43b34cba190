package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/davidahmann/warden/core/fsx"
	schemareport "github.com/davidahmann/warden/core/schema/v1/report"
)

// NewCommandEvent builds a diagnostic event for one CLI invocation outcome.
// The timestamp is truncated to whole seconds to match the event schema.
func NewCommandEvent(command string, exitCode int, elapsed time.Duration, now time.Time) schemareport.DiagEvent {
	severity := schemareport.SeverityInfo
	if exitCode != 0 {
		severity = schemareport.SeverityError
	}
	return schemareport.DiagEvent{
		EventType: "command_end",
		TS:        now.UTC().Truncate(time.Second).Format("2006-01-02T15:04:05Z"),
		Source:    "warden-cli",
		Severity:  severity,
		Message:   fmt.Sprintf("command %q exited %d", command, exitCode),
		Context: map[string]string{
			"command":    command,
			"exit_code":  fmt.Sprintf("%d", exitCode),
			"elapsed_ms": fmt.Sprintf("%d", elapsed.Milliseconds()),
		},
	}
}

// AppendEvent appends one diagnostic event to a JSONL log.
func AppendEvent(path string, event schemareport.DiagEvent) error {
	encoded, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode diag event: %w", err)
	}
	return fsx.AppendLineLocked(path, encoded, 0o600)
}
