package commitgate

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/davidahmann/warden/core/canon"
	wardenerrors "github.com/davidahmann/warden/core/errors"
	schemaruleset "github.com/davidahmann/warden/core/schema/v1/ruleset"
)

// LoadRulesetFile loads a ruleset JSON file. Absent lists default empty so
// a minimal ruleset still resolves (to the fail-closed default).
func LoadRulesetFile(path string) (schemaruleset.Ruleset, error) {
	// #nosec G304 -- ruleset path is explicit local user input.
	content, err := os.ReadFile(path)
	if err != nil {
		return schemaruleset.Ruleset{}, wardenerrors.Wrap(
			fmt.Errorf("read ruleset: %w", err),
			wardenerrors.CategoryIOFailure,
			"ruleset_read_failed",
			"check the ruleset path and permissions",
			false,
		)
	}
	return ParseRulesetJSON(content)
}

// ParseRulesetJSON parses ruleset JSON into the three rule lists.
func ParseRulesetJSON(data []byte) (schemaruleset.Ruleset, error) {
	var rules schemaruleset.Ruleset
	if err := json.Unmarshal(data, &rules); err != nil {
		return schemaruleset.Ruleset{}, wardenerrors.Wrap(
			fmt.Errorf("parse ruleset json: %w", err),
			wardenerrors.CategoryInvalidInput,
			"invalid_ruleset",
			"fix the ruleset file before evaluating requests",
			false,
		)
	}
	if rules.Allowlist == nil {
		rules.Allowlist = []schemaruleset.Rule{}
	}
	if rules.Denylist == nil {
		rules.Denylist = []schemaruleset.Rule{}
	}
	if rules.Escalation == nil {
		rules.Escalation = []schemaruleset.Rule{}
	}
	return rules, nil
}

// LoadRequestFile loads a commit request JSON file.
func LoadRequestFile(path string) (schemaruleset.CommitRequest, error) {
	// #nosec G304 -- request path is explicit local user input.
	content, err := os.ReadFile(path)
	if err != nil {
		return schemaruleset.CommitRequest{}, wardenerrors.Wrap(
			fmt.Errorf("read commit request: %w", err),
			wardenerrors.CategoryIOFailure,
			"request_read_failed",
			"check the request path and permissions",
			false,
		)
	}
	var request schemaruleset.CommitRequest
	if err := json.Unmarshal(content, &request); err != nil {
		return schemaruleset.CommitRequest{}, wardenerrors.Wrap(
			fmt.Errorf("parse commit request json: %w", err),
			wardenerrors.CategoryInvalidInput,
			"invalid_request",
			"fix the commit request file before evaluating",
			false,
		)
	}
	return request, nil
}

// RulesetDigest returns the canonical sha256 hex digest of a ruleset.
func RulesetDigest(rules schemaruleset.Ruleset) (string, error) {
	digest, err := canon.Digest(rules)
	if err != nil {
		return "", fmt.Errorf("digest ruleset: %w", err)
	}
	return digest, nil
}
