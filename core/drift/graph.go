// Package drift builds authority-reachability graphs from rulesets and
// detects reachable-surface expansion between a baseline and a current
// graph. Reachability comes from allowlist entries only; deny and escalation
// rules grant nothing.
package drift

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/davidahmann/warden/core/canon"
	wardenerrors "github.com/davidahmann/warden/core/errors"
	"github.com/davidahmann/warden/core/fsx"
	schemaruleset "github.com/davidahmann/warden/core/schema/v1/ruleset"
)

// ArtefactVersion is the opaque version stamped on graph artifacts.
const ArtefactVersion = "0.1"

// wildcard stands in for an absent actor or action on an allowlist rule.
const wildcard = "*"

// BuildAuthorityGraph derives the reachability graph from a ruleset's
// allowlist. Action lists are sorted so the graph canonicalizes
// deterministically.
func BuildAuthorityGraph(rules schemaruleset.Ruleset) schemaruleset.Graph {
	graph := schemaruleset.Graph{}
	for _, rule := range rules.Allowlist {
		actor := wildcard
		if rule.ActorID != nil {
			actor = *rule.ActorID
		}
		action := wildcard
		if rule.ActionClass != nil {
			action = *rule.ActionClass
		}
		if !containsString(graph[actor], action) {
			graph[actor] = append(graph[actor], action)
		}
	}
	for actor := range graph {
		sort.Strings(graph[actor])
	}
	return graph
}

// WriteGraphArtifact persists the graph envelope as
// authority_graph_<ruleset_hash>.json with exactly canonical bytes.
func WriteGraphArtifact(graph schemaruleset.Graph, rules schemaruleset.Ruleset, outputDir string) (schemaruleset.GraphArtifact, string, error) {
	rulesetHash, err := canon.Digest(rules)
	if err != nil {
		return schemaruleset.GraphArtifact{}, "", fmt.Errorf("digest ruleset: %w", err)
	}
	artifact := schemaruleset.GraphArtifact{
		AuthorityGraph:  graph,
		RulesetHash:     rulesetHash,
		ArtefactVersion: ArtefactVersion,
	}
	canonicalBytes, err := canon.Canonicalize(artifact)
	if err != nil {
		return schemaruleset.GraphArtifact{}, "", fmt.Errorf("canonicalize graph artifact: %w", err)
	}
	if err := fsx.EnsureDir(outputDir); err != nil {
		return schemaruleset.GraphArtifact{}, "", err
	}
	path := filepath.Join(outputDir, fmt.Sprintf("authority_graph_%s.json", rulesetHash))
	if err := fsx.WriteFileAtomic(path, canonicalBytes, 0o600); err != nil {
		return schemaruleset.GraphArtifact{}, "", fmt.Errorf("write graph artifact: %w", err)
	}
	return artifact, path, nil
}

// LoadGraphFile reads an authority graph from path. Both the artifact
// envelope and a bare graph object are accepted.
func LoadGraphFile(path string) (schemaruleset.Graph, error) {
	// #nosec G304 -- graph path is explicit local user input.
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, wardenerrors.Wrap(
			fmt.Errorf("read authority graph: %w", err),
			wardenerrors.CategoryIOFailure,
			"graph_read_failed",
			"check the graph path and permissions",
			false,
		)
	}
	var envelope schemaruleset.GraphArtifact
	if err := json.Unmarshal(content, &envelope); err == nil && envelope.AuthorityGraph != nil {
		return envelope.AuthorityGraph, nil
	}
	var graph schemaruleset.Graph
	if err := json.Unmarshal(content, &graph); err != nil {
		return nil, wardenerrors.Wrap(
			fmt.Errorf("parse authority graph json: %w", err),
			wardenerrors.CategoryInvalidInput,
			"invalid_graph",
			"supply a graph artifact or a bare actor-to-actions object",
			false,
		)
	}
	return graph, nil
}

func containsString(values []string, wanted string) bool {
	for _, value := range values {
		if value == wanted {
			return true
		}
	}
	return false
}
