package transition

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	wardenerrors "github.com/davidahmann/warden/core/errors"
	"github.com/davidahmann/warden/core/fsx"
	schemadecision "github.com/davidahmann/warden/core/schema/v1/decision"
)

// WriteDecisionArtifact persists the record's canonical bytes as
// transition_decision_<decision_id>.json. The file content is exactly the
// content-hash preimage.
func WriteDecisionArtifact(record schemadecision.DecisionRecord, outputDir string) (string, error) {
	if record.DecisionID == "" || len(record.CanonicalBytes) == 0 {
		return "", fmt.Errorf("decision record is not finalized")
	}
	if err := fsx.EnsureDir(outputDir); err != nil {
		return "", err
	}
	path := filepath.Join(outputDir, fmt.Sprintf("transition_decision_%s.json", record.DecisionID))
	if err := fsx.WriteFileAtomic(path, record.CanonicalBytes, 0o600); err != nil {
		return "", fmt.Errorf("write decision artifact: %w", err)
	}
	return path, nil
}

// LoadRequestFile loads a transition request JSON file.
func LoadRequestFile(path string) (schemadecision.TransitionRequest, error) {
	var request schemadecision.TransitionRequest
	if err := loadJSONFile(path, "transition request", &request); err != nil {
		return schemadecision.TransitionRequest{}, err
	}
	return request, nil
}

// LoadContextFile loads an authority context JSON file.
func LoadContextFile(path string) (schemadecision.AuthorityContext, error) {
	var context schemadecision.AuthorityContext
	if err := loadJSONFile(path, "authority context", &context); err != nil {
		return schemadecision.AuthorityContext{}, err
	}
	return context, nil
}

func loadJSONFile(path, label string, target any) error {
	// #nosec G304 -- input path is explicit local user input.
	content, err := os.ReadFile(path)
	if err != nil {
		return wardenerrors.Wrap(
			fmt.Errorf("read %s: %w", label, err),
			wardenerrors.CategoryIOFailure,
			"input_read_failed",
			"check the input path and permissions",
			false,
		)
	}
	if err := json.Unmarshal(content, target); err != nil {
		return wardenerrors.Wrap(
			fmt.Errorf("parse %s json: %w", label, err),
			wardenerrors.CategoryInvalidInput,
			"invalid_input_json",
			"fix the input file before evaluating",
			false,
		)
	}
	return nil
}
