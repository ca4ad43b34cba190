package report

import (
	"path/filepath"
	"sort"

	"github.com/davidahmann/warden/core/canon"
	"github.com/davidahmann/warden/core/fsx"
	schemareport "github.com/davidahmann/warden/core/schema/v1/report"
)

const epochTS = "1970-01-01T00:00:00Z"

// topSourceLimit caps the top_sources list in a summary.
const topSourceLimit = 10

// ComputeWindow returns the minimum and maximum event timestamps. An empty
// event set yields the fixed epoch window so the summary stays total.
func ComputeWindow(events []schemareport.DiagEvent) (start, end string) {
	if len(events) == 0 {
		return epochTS, epochTS
	}
	start, end = events[0].TS, events[0].TS
	for _, event := range events[1:] {
		// Zulu timestamps of fixed width compare correctly as strings.
		if event.TS < start {
			start = event.TS
		}
		if event.TS > end {
			end = event.TS
		}
	}
	return start, end
}

// Summarize aggregates a validated event set into a deterministic summary.
// hashOfInputs fingerprints the raw event lines (see InputDigest) so a
// summary can be tied back to exactly the events it covers.
func Summarize(events []schemareport.DiagEvent, hashOfInputs string) schemareport.Summary {
	countsByType := make(map[string]int)
	countsBySeverity := make(map[string]int)
	countsBySource := make(map[string]int)
	for _, event := range events {
		countsByType[event.EventType]++
		countsBySeverity[string(event.Severity)]++
		countsBySource[event.Source]++
	}

	start, end := ComputeWindow(events)
	return schemareport.Summary{
		WindowStart:      start,
		WindowEnd:        end,
		CountsByType:     countsByType,
		CountsBySeverity: countsBySeverity,
		TopSources:       topSources(countsBySource),
		HashOfInputs:     hashOfInputs,
	}
}

// topSources orders sources by descending count, ties broken by source name,
// truncated to topSourceLimit entries.
func topSources(countsBySource map[string]int) []schemareport.SourceCount {
	out := make([]schemareport.SourceCount, 0, len(countsBySource))
	for source, count := range countsBySource {
		out = append(out, schemareport.SourceCount{Source: source, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Source < out[j].Source
	})
	if len(out) > topSourceLimit {
		out = out[:topSourceLimit]
	}
	return out
}

// WriteSummaryArtifact writes the summary as canonical JSON so the file
// bytes hash identically across runs.
func WriteSummaryArtifact(summary schemareport.Summary, outputPath string) error {
	payload, err := canon.Canonicalize(summary)
	if err != nil {
		return err
	}
	if err := fsx.EnsureDir(filepath.Dir(outputPath)); err != nil {
		return err
	}
	return fsx.WriteFileAtomic(outputPath, payload, 0o600)
}
