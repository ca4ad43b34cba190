// Package decision declares the wire types for transition evaluation:
// requests, authority contexts, registry entries, and the single canonical
// DecisionRecord audit artifact.
package decision

// RiskClass is the closed set of declared transition risk classes.
type RiskClass string

const (
	RiskLow      RiskClass = "LOW"
	RiskMedium   RiskClass = "MEDIUM"
	RiskHigh     RiskClass = "HIGH"
	RiskCritical RiskClass = "CRITICAL"
)

// Valid reports membership in the closed risk class set.
func (r RiskClass) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// RiskClassNames returns the closed set of risk class names in ascending
// severity order.
func RiskClassNames() []string {
	return []string{"LOW", "MEDIUM", "HIGH", "CRITICAL"}
}

// Outcome is a terminal transition verdict.
type Outcome string

const (
	OutcomeApproved   Outcome = "APPROVED"
	OutcomeRefused    Outcome = "REFUSED"
	OutcomeSupervised Outcome = "SUPERVISED"
)

// Valid reports membership in the closed outcome set.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeApproved, OutcomeRefused, OutcomeSupervised:
		return true
	}
	return false
}

// TransitionRequest is a proposed state change. The timestamp is supplied by
// the caller; evaluation never reads a clock.
type TransitionRequest struct {
	TransitionID         string    `json:"transition_id"`
	RiskClass            RiskClass `json:"risk_class"`
	Irreversible         bool      `json:"irreversible"`
	ResourceIdentifier   string    `json:"resource_identifier"`
	TrustBoundaryCrossed bool      `json:"trust_boundary_crossed"`
	OverrideToken        string    `json:"override_token,omitempty"`
	Timestamp            string    `json:"timestamp"`
}

// AuthorityContext carries the actor's identity and authority evidence.
// The meaning of AuthorityBasis depends on the entrypoint: the registry
// evaluator reads it as the actor's provided level, the bounded evaluator as
// the level required of the actor (see core/transition).
type AuthorityContext struct {
	ActorID          string `json:"actor_id"`
	AuthorityBasis   string `json:"authority_basis"`
	TenantID         string `json:"tenant_id"`
	ProvidedEvidence string `json:"provided_evidence,omitempty"`
}

// RegistryEntry declares one permissible transition.
type RegistryEntry struct {
	ID                string    `json:"id" yaml:"id"`
	RequiredAuthority string    `json:"required_authority" yaml:"required_authority"`
	RiskClass         RiskClass `json:"risk_class" yaml:"risk_class"`
	Irreversible      bool      `json:"irreversible" yaml:"irreversible"`
	GateVersion       string    `json:"gate_version" yaml:"gate_version"`
}

// Registry maps transition ids to their declared entries. Loaded once,
// shared read-only across evaluations.
type Registry map[string]RegistryEntry

// DecisionRecord is the sole audit artifact of a transition evaluation.
// Constructed once by an evaluator and immutable thereafter. The extended
// audit fields default empty; the derived fields (CanonicalBytes,
// ContentHash, DecisionID) are computed at construction and never stored
// redundantly inside the canonical payload hash preimage they derive from.
type DecisionRecord struct {
	TransitionID   string    `json:"transition_id"`
	Outcome        Outcome   `json:"outcome"`
	Reasons        []string  `json:"reasons"`
	AuthorityBasis string    `json:"authority_basis"`
	RiskClass      RiskClass `json:"risk_class"`

	// Extended audit trail; empty when not applicable.
	ActorID      string `json:"actor_id"`
	TenantID     string `json:"tenant_id"`
	Timestamp    string `json:"timestamp"`
	DecisionTime string `json:"decision_time"`
	GateVersion  string `json:"gate_version"`
	ContextHash  string `json:"context_hash"`
	DecisionID   string `json:"decision_id"`

	// Derived; excluded from the canonical payload.
	CanonicalBytes []byte `json:"-"`
	ContentHash    string `json:"-"`
}
