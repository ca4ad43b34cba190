package transition

import (
	"fmt"
	"sort"
	"strings"

	"github.com/davidahmann/warden/core/canon"
	schemadecision "github.com/davidahmann/warden/core/schema/v1/decision"
)

// buildInputs carries every field of a decision record that is not derived.
type buildInputs struct {
	TransitionID   string
	Outcome        schemadecision.Outcome
	Reasons        []string
	AuthorityBasis string
	RiskClass      schemadecision.RiskClass
	ActorID        string
	TenantID       string
	Timestamp      string
	DecisionTime   string
	GateVersion    string
	ContextHash    string
}

// buildRecord constructs the immutable DecisionRecord: reasons are
// deduplicated and sorted, the decision id is derived from the context hash,
// and the canonical bytes plus content hash are computed once. Two
// semantically identical inputs yield byte-identical canonical bytes.
func buildRecord(inputs buildInputs) (schemadecision.DecisionRecord, error) {
	record := schemadecision.DecisionRecord{
		TransitionID:   inputs.TransitionID,
		Outcome:        inputs.Outcome,
		Reasons:        uniqueSorted(inputs.Reasons),
		AuthorityBasis: inputs.AuthorityBasis,
		RiskClass:      inputs.RiskClass,
		ActorID:        inputs.ActorID,
		TenantID:       inputs.TenantID,
		Timestamp:      inputs.Timestamp,
		DecisionTime:   inputs.DecisionTime,
		GateVersion:    inputs.GateVersion,
		ContextHash:    inputs.ContextHash,
		DecisionID:     canon.DeriveDecisionID(inputs.ContextHash),
	}
	canonicalBytes, err := canon.Canonicalize(record)
	if err != nil {
		return schemadecision.DecisionRecord{}, fmt.Errorf("canonicalize decision record: %w", err)
	}
	contentHash, err := canon.DigestJSON(canonicalBytes)
	if err != nil {
		return schemadecision.DecisionRecord{}, fmt.Errorf("digest decision record: %w", err)
	}
	record.CanonicalBytes = canonicalBytes
	record.ContentHash = contentHash
	return record, nil
}

// contextProjection is the explicitly enumerated field set hashed into
// context_hash. Extending the request or context types does not change the
// hash preimage unless a field is added here deliberately.
type contextProjection struct {
	TransitionID         string `json:"transition_id"`
	RiskClass            string `json:"risk_class"`
	Irreversible         bool   `json:"irreversible"`
	ResourceIdentifier   string `json:"resource_identifier"`
	TrustBoundaryCrossed bool   `json:"trust_boundary_crossed"`
	OverrideToken        string `json:"override_token"`
	Timestamp            string `json:"timestamp"`
	ActorID              string `json:"actor_id"`
	AuthorityBasis       string `json:"authority_basis"`
	TenantID             string `json:"tenant_id"`
}

func computeContextHash(request schemadecision.TransitionRequest, context schemadecision.AuthorityContext) (string, error) {
	projection := contextProjection{
		TransitionID:         request.TransitionID,
		RiskClass:            string(request.RiskClass),
		Irreversible:         request.Irreversible,
		ResourceIdentifier:   request.ResourceIdentifier,
		TrustBoundaryCrossed: request.TrustBoundaryCrossed,
		OverrideToken:        request.OverrideToken,
		Timestamp:            request.Timestamp,
		ActorID:              context.ActorID,
		AuthorityBasis:       context.AuthorityBasis,
		TenantID:             context.TenantID,
	}
	digest, err := canon.Digest(projection)
	if err != nil {
		return "", fmt.Errorf("digest context projection: %w", err)
	}
	return digest, nil
}

func uniqueSorted(values []string) []string {
	if len(values) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	sort.Strings(out)
	return out
}
