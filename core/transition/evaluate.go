// Package transition resolves proposed transitions into immutable decision
// records. Two entrypoints exist and they read AuthorityContext differently:
//
//   - Evaluate (registry path): AuthorityBasis is the actor's PROVIDED
//     evidence level; the required level comes from the registry entry.
//   - EvaluateBounded (windowed path): AuthorityBasis is the level REQUIRED
//     of the actor; the actor's provided level is ProvidedEvidence.
//
// Both are single-pass pure functions of their inputs: no clock, no retries,
// no I/O.
package transition

import (
	"fmt"

	wardenerrors "github.com/davidahmann/warden/core/errors"
	"github.com/davidahmann/warden/core/evidence"
	schemadecision "github.com/davidahmann/warden/core/schema/v1/decision"
)

// Reason codes of the registry evaluation path.
const (
	ReasonUndeclaredTransition = "UNDECLARED_TRANSITION"
	ReasonAuthorityInvalid     = "AUTHORITY_INVALID"
	ReasonSupervisionRequired  = "SUPERVISION_REQUIRED"
	ReasonOverrideTokenPresent = "OVERRIDE_TOKEN_PRESENT"
	ReasonApproved             = "APPROVED"
)

// Evaluate resolves request against the declared transition registry.
//
// Decision logic, first terminal wins:
//  1. transition id not registered          -> REFUSED  / UNDECLARED_TRANSITION
//  2. provided evidence below required      -> REFUSED  / AUTHORITY_INVALID
//  3. HIGH or CRITICAL risk, no override    -> REFUSED  / SUPERVISION_REQUIRED
//  4. HIGH or CRITICAL risk, override given -> SUPERVISED / OVERRIDE_TOKEN_PRESENT
//  5. otherwise                             -> APPROVED / APPROVED
//
// Malformed inputs (non-member risk class or evidence level) are usage
// errors, never denials.
func Evaluate(
	request schemadecision.TransitionRequest,
	context schemadecision.AuthorityContext,
	registry schemadecision.Registry,
) (schemadecision.DecisionRecord, error) {
	if !request.RiskClass.Valid() {
		return schemadecision.DecisionRecord{}, wardenerrors.Wrap(
			fmt.Errorf("request risk_class %q is not a member of %v", request.RiskClass, schemadecision.RiskClassNames()),
			wardenerrors.CategoryInvalidInput,
			"invalid_risk_class",
			"declare the request with a member of the closed risk class set",
			false,
		)
	}
	provided, err := evidence.ParseLevel(context.AuthorityBasis)
	if err != nil {
		return schemadecision.DecisionRecord{}, err
	}

	contextHash, err := computeContextHash(request, context)
	if err != nil {
		return schemadecision.DecisionRecord{}, err
	}

	makeRecord := func(outcome schemadecision.Outcome, reason, gateVersion string) (schemadecision.DecisionRecord, error) {
		return buildRecord(buildInputs{
			TransitionID:   request.TransitionID,
			Outcome:        outcome,
			Reasons:        []string{reason},
			AuthorityBasis: context.AuthorityBasis,
			RiskClass:      request.RiskClass,
			ActorID:        context.ActorID,
			TenantID:       context.TenantID,
			Timestamp:      request.Timestamp,
			GateVersion:    gateVersion,
			ContextHash:    contextHash,
		})
	}

	entry, ok := registry[request.TransitionID]
	if !ok {
		return makeRecord(schemadecision.OutcomeRefused, ReasonUndeclaredTransition, "")
	}

	required, err := evidence.ParseLevel(entry.RequiredAuthority)
	if err != nil {
		return schemadecision.DecisionRecord{}, err
	}
	gate, err := evidence.NewGate(required)
	if err != nil {
		return schemadecision.DecisionRecord{}, err
	}
	gateDecision, err := gate.Check(provided)
	if err != nil {
		return schemadecision.DecisionRecord{}, err
	}
	if gateDecision == evidence.Deny {
		return makeRecord(schemadecision.OutcomeRefused, ReasonAuthorityInvalid, entry.GateVersion)
	}

	if request.RiskClass == schemadecision.RiskHigh || request.RiskClass == schemadecision.RiskCritical {
		if request.OverrideToken == "" {
			return makeRecord(schemadecision.OutcomeRefused, ReasonSupervisionRequired, entry.GateVersion)
		}
		return makeRecord(schemadecision.OutcomeSupervised, ReasonOverrideTokenPresent, entry.GateVersion)
	}

	return makeRecord(schemadecision.OutcomeApproved, ReasonApproved, entry.GateVersion)
}
