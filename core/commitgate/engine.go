// Package commitgate resolves generic actor/action/scope commit requests
// against prioritized allow/deny/escalate rule lists. Resolution is
// fail-closed: the default verdict is REFUSE, and denial always wins over
// permission.
package commitgate

import (
	"fmt"
	"sort"

	"github.com/davidahmann/warden/core/canon"
	schemaruleset "github.com/davidahmann/warden/core/schema/v1/ruleset"
)

// ArtefactVersion is an opaque pass-through identifier stamped on every
// commit verdict; the engine never interprets it.
const ArtefactVersion = "0.1"

// Reason codes of commit-gate resolution. Reasons is modeled as a set so
// future composite rules can contribute more than one; the base resolution
// produces exactly one.
const (
	ReasonDenylistMatch   = "denylist_match"
	ReasonAllowlistMatch  = "allowlist_match"
	ReasonEscalationMatch = "escalation_match"
	ReasonDefaultRefuse   = "default_refuse"
)

// hashableRequest is the explicitly enumerated request projection hashed
// into request_hash. The caller-supplied timestamp is deliberately absent so
// the fingerprint is independent of wall-clock time.
type hashableRequest struct {
	ActorID        string            `json:"actor_id"`
	ActionClass    string            `json:"action_class"`
	Context        map[string]string `json:"context"`
	AuthorityScope map[string]string `json:"authority_scope"`
	InvariantHash  string            `json:"invariant_hash"`
}

type hashableDecision struct {
	Request hashableRequest `json:"request"`
	Verdict string          `json:"verdict"`
	Reasons []string        `json:"reasons"`
}

// Evaluate resolves request against ruleset. Four sequential gates, first
// match wins:
//
//  1. denylist match   -> REFUSE   / denylist_match
//  2. allowlist match  -> ALLOW    / allowlist_match
//  3. escalation match -> ESCALATE / escalation_match
//  4. no match         -> REFUSE   / default_refuse
//
// A denial is a successfully computed verdict, never an error.
func Evaluate(request schemaruleset.CommitRequest, rules schemaruleset.Ruleset) (schemaruleset.CommitVerdict, error) {
	hashable := hashableRequest{
		ActorID:        request.ActorID,
		ActionClass:    request.ActionClass,
		Context:        emptyWhenNil(request.Context),
		AuthorityScope: emptyWhenNil(request.AuthorityScope),
		InvariantHash:  request.InvariantHash,
	}
	requestHash, err := canon.Digest(hashable)
	if err != nil {
		return schemaruleset.CommitVerdict{}, fmt.Errorf("digest commit request: %w", err)
	}

	var verdict schemaruleset.Verdict
	var reasons []string
	switch {
	case anyRuleMatches(rules.Denylist, request):
		verdict = schemaruleset.VerdictRefuse
		reasons = []string{ReasonDenylistMatch}
	case anyRuleMatches(rules.Allowlist, request):
		verdict = schemaruleset.VerdictAllow
		reasons = []string{ReasonAllowlistMatch}
	case anyRuleMatches(rules.Escalation, request):
		verdict = schemaruleset.VerdictEscalate
		reasons = []string{ReasonEscalationMatch}
	default:
		verdict = schemaruleset.VerdictRefuse
		reasons = []string{ReasonDefaultRefuse}
	}
	sort.Strings(reasons)

	decisionHash, err := canon.Digest(hashableDecision{
		Request: hashable,
		Verdict: string(verdict),
		Reasons: reasons,
	})
	if err != nil {
		return schemaruleset.CommitVerdict{}, fmt.Errorf("digest commit decision: %w", err)
	}

	return schemaruleset.CommitVerdict{
		Verdict:         verdict,
		Reasons:         reasons,
		DecisionHash:    decisionHash,
		RequestHash:     requestHash,
		ArtefactVersion: ArtefactVersion,
	}, nil
}

// anyRuleMatches reports whether any rule in the list matches the request.
func anyRuleMatches(rules []schemaruleset.Rule, request schemaruleset.CommitRequest) bool {
	for _, rule := range rules {
		if ruleMatches(rule, request) {
			return true
		}
	}
	return false
}

// ruleMatches applies wildcard actor/action matching plus subset scope
// matching: every scope_match key must be present in the request scope with
// an identical value; unconstrained request scope keys are ignored.
func ruleMatches(rule schemaruleset.Rule, request schemaruleset.CommitRequest) bool {
	if rule.ActorID != nil && *rule.ActorID != request.ActorID {
		return false
	}
	if rule.ActionClass != nil && *rule.ActionClass != request.ActionClass {
		return false
	}
	for key, want := range rule.ScopeMatch {
		got, ok := request.AuthorityScope[key]
		if !ok || got != want {
			return false
		}
	}
	return true
}

func emptyWhenNil(values map[string]string) map[string]string {
	if values == nil {
		return map[string]string{}
	}
	return values
}
