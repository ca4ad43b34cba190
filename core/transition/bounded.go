package transition

import (
	"fmt"
	"time"

	wardenerrors "github.com/davidahmann/warden/core/errors"
	"github.com/davidahmann/warden/core/evidence"
	schemadecision "github.com/davidahmann/warden/core/schema/v1/decision"
)

// Reason codes of the bounded evaluation path.
const (
	ReasonOutsideAuthorityWindow = "outside_authority_window"
	ReasonEvidenceMissing        = "evidence_missing"
	ReasonUnknownAuthorityBasis  = "unknown_authority_basis"
	ReasonAuthorityInsufficient  = "authority_insufficient"
	ReasonAuthoritySufficient    = "authority_sufficient"
	ReasonIrreversibleBoundary   = "irreversible_or_trust_boundary"
)

// Window bounds the validity of an authority grant. Both endpoints are
// inclusive, caller-supplied RFC3339 timestamps.
type Window struct {
	Start string
	End   string
}

// EvaluateBounded resolves request under a time-bounded authority grant.
// AuthorityBasis names the evidence level REQUIRED of the actor; the actor's
// provided level is context.ProvidedEvidence.
//
// Two fail-closed post-conditions are enforced after the primary resolution
// and are never bypassed:
//
//  1. decisionTime strictly outside [window.Start, window.End] forces
//     REFUSED with outside_authority_window appended.
//  2. an APPROVED resolution with absent provided evidence forces REFUSED
//     with evidence_missing appended.
//
// Unparseable timestamps are usage errors, not denials.
func EvaluateBounded(
	request schemadecision.TransitionRequest,
	context schemadecision.AuthorityContext,
	window Window,
	decisionTime string,
) (schemadecision.DecisionRecord, error) {
	decisionAt, err := parseRFC3339("decision_time", decisionTime)
	if err != nil {
		return schemadecision.DecisionRecord{}, err
	}
	windowStart, err := parseRFC3339("authority_window_start", window.Start)
	if err != nil {
		return schemadecision.DecisionRecord{}, err
	}
	windowEnd, err := parseRFC3339("authority_window_end", window.End)
	if err != nil {
		return schemadecision.DecisionRecord{}, err
	}

	contextHash, err := computeContextHash(request, context)
	if err != nil {
		return schemadecision.DecisionRecord{}, err
	}

	outcome, reasons := resolveBounded(request, context)

	// Post-condition 1: the grant window binds regardless of evidence.
	if decisionAt.Before(windowStart) || decisionAt.After(windowEnd) {
		outcome = schemadecision.OutcomeRefused
		reasons = append(reasons, ReasonOutsideAuthorityWindow)
	}

	// Post-condition 2: no APPROVED verdict without presented evidence.
	if outcome == schemadecision.OutcomeApproved && context.ProvidedEvidence == "" {
		outcome = schemadecision.OutcomeRefused
		reasons = append(reasons, ReasonEvidenceMissing)
	}

	return buildRecord(buildInputs{
		TransitionID:   request.TransitionID,
		Outcome:        outcome,
		Reasons:        reasons,
		AuthorityBasis: context.AuthorityBasis,
		RiskClass:      request.RiskClass,
		ActorID:        context.ActorID,
		TenantID:       context.TenantID,
		Timestamp:      request.Timestamp,
		DecisionTime:   decisionTime,
		ContextHash:    contextHash,
	})
}

// resolveBounded is the primary resolution: authority check, then the
// supervision rule for irreversible or boundary-crossing transitions.
// Missing evidence produces no reason here; the fail-closed post-condition
// owns that refusal.
func resolveBounded(
	request schemadecision.TransitionRequest,
	context schemadecision.AuthorityContext,
) (schemadecision.Outcome, []string) {
	required, err := evidence.ParseLevel(context.AuthorityBasis)
	if err != nil {
		return schemadecision.OutcomeRefused, []string{ReasonUnknownAuthorityBasis}
	}

	if context.ProvidedEvidence != "" {
		provided, err := evidence.ParseLevel(context.ProvidedEvidence)
		if err != nil {
			return schemadecision.OutcomeRefused, []string{ReasonEvidenceMissing}
		}
		gate, gateErr := evidence.NewGate(required)
		if gateErr != nil {
			return schemadecision.OutcomeRefused, []string{ReasonUnknownAuthorityBasis}
		}
		decision, checkErr := gate.Check(provided)
		if checkErr != nil || decision == evidence.Deny {
			return schemadecision.OutcomeRefused, []string{ReasonAuthorityInsufficient}
		}
		if request.Irreversible || request.TrustBoundaryCrossed {
			return schemadecision.OutcomeSupervised, []string{ReasonIrreversibleBoundary}
		}
		return schemadecision.OutcomeApproved, []string{ReasonAuthoritySufficient}
	}

	if request.Irreversible || request.TrustBoundaryCrossed {
		return schemadecision.OutcomeSupervised, []string{ReasonIrreversibleBoundary}
	}
	return schemadecision.OutcomeApproved, nil
}

func parseRFC3339(field, value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, wardenerrors.Wrap(
			fmt.Errorf("parse %s: %w", field, err),
			wardenerrors.CategoryInvalidInput,
			"invalid_timestamp",
			"supply RFC3339 timestamps, e.g. 2026-01-02T15:04:05Z",
			false,
		)
	}
	return parsed, nil
}
