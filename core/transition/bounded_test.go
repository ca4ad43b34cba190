package transition

import (
	"testing"

	wardenerrors "github.com/davidahmann/warden/core/errors"
	schemadecision "github.com/davidahmann/warden/core/schema/v1/decision"
)

func boundedRequest(irreversible bool) schemadecision.TransitionRequest {
	return schemadecision.TransitionRequest{
		TransitionID:       "PUBLISH_RELEASE",
		RiskClass:          schemadecision.RiskMedium,
		Irreversible:       irreversible,
		ResourceIdentifier: "registry://pkg/widget",
		Timestamp:          "2026-03-01T12:00:00Z",
	}
}

func boundedContext(provided string) schemadecision.AuthorityContext {
	return schemadecision.AuthorityContext{
		ActorID:          "deployer-1",
		AuthorityBasis:   "OWNER",
		TenantID:         "tenant-a",
		ProvidedEvidence: provided,
	}
}

func defaultWindow() Window {
	return Window{Start: "2026-03-01T00:00:00Z", End: "2026-03-02T00:00:00Z"}
}

func TestEvaluateBoundedOutcomes(t *testing.T) {
	cases := []struct {
		name         string
		request      schemadecision.TransitionRequest
		context      schemadecision.AuthorityContext
		decisionTime string
		wantOutcome  schemadecision.Outcome
		wantReasons  []string
	}{
		{
			name:         "sufficient evidence approved",
			request:      boundedRequest(false),
			context:      boundedContext("ADMIN"),
			decisionTime: "2026-03-01T12:00:00Z",
			wantOutcome:  schemadecision.OutcomeApproved,
			wantReasons:  []string{ReasonAuthoritySufficient},
		},
		{
			name:         "insufficient evidence refused",
			request:      boundedRequest(false),
			context:      boundedContext("USER"),
			decisionTime: "2026-03-01T12:00:00Z",
			wantOutcome:  schemadecision.OutcomeRefused,
			wantReasons:  []string{ReasonAuthorityInsufficient},
		},
		{
			name:         "irreversible supervised",
			request:      boundedRequest(true),
			context:      boundedContext("ADMIN"),
			decisionTime: "2026-03-01T12:00:00Z",
			wantOutcome:  schemadecision.OutcomeSupervised,
			wantReasons:  []string{ReasonIrreversibleBoundary},
		},
		{
			name:         "unknown required basis refused",
			request:      boundedRequest(false),
			context:      schemadecision.AuthorityContext{ActorID: "deployer-1", AuthorityBasis: "WIZARD", ProvidedEvidence: "ADMIN"},
			decisionTime: "2026-03-01T12:00:00Z",
			wantOutcome:  schemadecision.OutcomeRefused,
			wantReasons:  []string{ReasonUnknownAuthorityBasis},
		},
		{
			name:         "missing evidence refused fail-closed",
			request:      boundedRequest(false),
			context:      boundedContext(""),
			decisionTime: "2026-03-01T12:00:00Z",
			wantOutcome:  schemadecision.OutcomeRefused,
			wantReasons:  []string{ReasonEvidenceMissing},
		},
		{
			name:         "before window refused",
			request:      boundedRequest(false),
			context:      boundedContext("ADMIN"),
			decisionTime: "2026-02-28T23:59:59Z",
			wantOutcome:  schemadecision.OutcomeRefused,
			wantReasons:  []string{ReasonAuthoritySufficient, ReasonOutsideAuthorityWindow},
		},
		{
			name:         "after window refused",
			request:      boundedRequest(false),
			context:      boundedContext("ADMIN"),
			decisionTime: "2026-03-02T00:00:01Z",
			wantOutcome:  schemadecision.OutcomeRefused,
			wantReasons:  []string{ReasonAuthoritySufficient, ReasonOutsideAuthorityWindow},
		},
		{
			name:         "window boundary is inclusive",
			request:      boundedRequest(false),
			context:      boundedContext("ADMIN"),
			decisionTime: "2026-03-02T00:00:00Z",
			wantOutcome:  schemadecision.OutcomeApproved,
			wantReasons:  []string{ReasonAuthoritySufficient},
		},
		{
			name:         "supervised passes evidence post-condition",
			request:      boundedRequest(true),
			context:      boundedContext(""),
			decisionTime: "2026-03-01T12:00:00Z",
			wantOutcome:  schemadecision.OutcomeSupervised,
			wantReasons:  []string{ReasonIrreversibleBoundary},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			record, err := EvaluateBounded(tc.request, tc.context, defaultWindow(), tc.decisionTime)
			if err != nil {
				t.Fatalf("EvaluateBounded: %v", err)
			}
			if record.Outcome != tc.wantOutcome {
				t.Fatalf("outcome = %s, want %s (reasons %v)", record.Outcome, tc.wantOutcome, record.Reasons)
			}
			assertReasons(t, record.Reasons, tc.wantReasons)
			if record.DecisionTime != tc.decisionTime {
				t.Fatalf("decision_time = %q, want %q", record.DecisionTime, tc.decisionTime)
			}
		})
	}
}

func TestEvaluateBoundedWindowBeatsEvidence(t *testing.T) {
	// Outside the window AND missing evidence: the window refusal fires and
	// the evidence post-condition no longer sees an APPROVED outcome.
	record, err := EvaluateBounded(boundedRequest(false), boundedContext(""), defaultWindow(), "2026-03-05T00:00:00Z")
	if err != nil {
		t.Fatalf("EvaluateBounded: %v", err)
	}
	if record.Outcome != schemadecision.OutcomeRefused {
		t.Fatalf("outcome = %s", record.Outcome)
	}
	assertReasons(t, record.Reasons, []string{ReasonOutsideAuthorityWindow})
}

func TestEvaluateBoundedBadTimestampsAreErrors(t *testing.T) {
	cases := []struct {
		name         string
		window       Window
		decisionTime string
	}{
		{name: "bad decision time", window: defaultWindow(), decisionTime: "yesterday"},
		{name: "bad window start", window: Window{Start: "not-a-time", End: "2026-03-02T00:00:00Z"}, decisionTime: "2026-03-01T12:00:00Z"},
		{name: "bad window end", window: Window{Start: "2026-03-01T00:00:00Z", End: ""}, decisionTime: "2026-03-01T12:00:00Z"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := EvaluateBounded(boundedRequest(false), boundedContext("ADMIN"), tc.window, tc.decisionTime)
			if err == nil {
				t.Fatal("expected timestamp error")
			}
			if wardenerrors.CodeOf(err) != "invalid_timestamp" {
				t.Fatalf("code = %q", wardenerrors.CodeOf(err))
			}
		})
	}
}

func TestEvaluateBoundedDeterministic(t *testing.T) {
	first, err := EvaluateBounded(boundedRequest(false), boundedContext("ADMIN"), defaultWindow(), "2026-03-01T12:00:00Z")
	if err != nil {
		t.Fatalf("EvaluateBounded: %v", err)
	}
	for i := 0; i < 50; i++ {
		next, err := EvaluateBounded(boundedRequest(false), boundedContext("ADMIN"), defaultWindow(), "2026-03-01T12:00:00Z")
		if err != nil {
			t.Fatalf("iteration %d: %v", i, err)
		}
		if string(next.CanonicalBytes) != string(first.CanonicalBytes) {
			t.Fatalf("iteration %d canonical bytes differ", i)
		}
	}
}
