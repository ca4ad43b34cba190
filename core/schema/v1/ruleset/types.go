// Package ruleset declares the wire types for commit-gate rule resolution
// and authority drift detection.
package ruleset

// Verdict is a terminal commit-gate resolution.
type Verdict string

const (
	VerdictAllow    Verdict = "ALLOW"
	VerdictRefuse   Verdict = "REFUSE"
	VerdictEscalate Verdict = "ESCALATE"
)

// Valid reports membership in the closed verdict set.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictAllow, VerdictRefuse, VerdictEscalate:
		return true
	}
	return false
}

// Rule matches requests by actor, action class, and scope. Nil ActorID or
// ActionClass acts as a wildcard. Every ScopeMatch key must be present in
// the request scope with an identical value; extra request scope keys are
// ignored.
type Rule struct {
	ActorID     *string           `json:"actor_id,omitempty"`
	ActionClass *string           `json:"action_class,omitempty"`
	ScopeMatch  map[string]string `json:"scope_match,omitempty"`
}

// Ruleset holds the three prioritized rule lists. Loaded once, shared
// read-only.
type Ruleset struct {
	Allowlist  []Rule `json:"allowlist"`
	Denylist   []Rule `json:"denylist"`
	Escalation []Rule `json:"escalation"`
}

// CommitRequest is a generic actor/action/scope proposal. TimestampUTC is
// caller-supplied and excluded from the request hash.
type CommitRequest struct {
	ActorID        string            `json:"actor_id"`
	ActionClass    string            `json:"action_class"`
	Context        map[string]string `json:"context"`
	AuthorityScope map[string]string `json:"authority_scope"`
	InvariantHash  string            `json:"invariant_hash"`
	TimestampUTC   string            `json:"timestamp_utc,omitempty"`
}

// CommitVerdict is the immutable result of one commit-gate evaluation.
// RequestHash fingerprints the request independent of wall-clock time;
// DecisionHash covers {request, verdict, reasons}.
type CommitVerdict struct {
	Verdict         Verdict  `json:"verdict"`
	Reasons         []string `json:"reasons"`
	DecisionHash    string   `json:"decision_hash"`
	RequestHash     string   `json:"request_hash"`
	ArtefactVersion string   `json:"artefact_version"`
}

// Graph is the authority reachability graph: actor id to the sorted list of
// action classes the ruleset allowlist grants it.
type Graph map[string][]string

// GraphArtifact is the persisted envelope for an authority graph.
type GraphArtifact struct {
	AuthorityGraph  Graph  `json:"authority_graph"`
	RulesetHash     string `json:"ruleset_hash"`
	ArtefactVersion string `json:"artefact_version"`
}

// DriftReason is the closed set of drift policy outcomes.
type DriftReason string

const (
	DriftNoExpansion                DriftReason = "no_expansion"
	DriftExpansionWithoutRevision   DriftReason = "reachability_expansion_without_contract_revision"
	DriftExpansionAcknowledged      DriftReason = "expansion_acknowledged_with_contract_revision"
	DriftExpansionNotAcknowledged   DriftReason = "expansion_with_contract_revision_but_not_acknowledged"
)

// Edge is one (actor, action) reachability pair.
type Edge struct {
	Actor  string `json:"actor"`
	Action string `json:"action"`
}

// DriftResult reports whether the current graph's reachable surface is a
// policy-compliant evolution of the baseline. Edge lists are sorted
// lexicographically for determinism.
type DriftResult struct {
	Pass         bool        `json:"pass"`
	AddedEdges   []Edge      `json:"added_edges"`
	RemovedEdges []Edge      `json:"removed_edges"`
	Reason       DriftReason `json:"reason"`
}
