package commitgate

import (
	"fmt"
	"path/filepath"

	"github.com/davidahmann/warden/core/canon"
	"github.com/davidahmann/warden/core/fsx"
	schemaruleset "github.com/davidahmann/warden/core/schema/v1/ruleset"
)

// WriteDecisionArtifact persists a commit verdict as
// commit_decision_<request_hash>.json under outputDir. The bytes written are
// exactly the canonical form of the verdict: the file is the hash preimage,
// so any re-serialization would break replayability.
func WriteDecisionArtifact(verdict schemaruleset.CommitVerdict, outputDir string) (string, error) {
	canonicalBytes, err := canon.Canonicalize(verdict)
	if err != nil {
		return "", fmt.Errorf("canonicalize commit verdict: %w", err)
	}
	if err := fsx.EnsureDir(outputDir); err != nil {
		return "", err
	}
	path := filepath.Join(outputDir, fmt.Sprintf("commit_decision_%s.json", verdict.RequestHash))
	if err := fsx.WriteFileAtomic(path, canonicalBytes, 0o600); err != nil {
		return "", fmt.Errorf("write commit decision artifact: %w", err)
	}
	return path, nil
}
