package transition

import (
	"testing"

	wardenerrors "github.com/davidahmann/warden/core/errors"
	schemadecision "github.com/davidahmann/warden/core/schema/v1/decision"
)

func testRegistry() schemadecision.Registry {
	return schemadecision.Registry{
		"TOOL_CALL_HTTP": {
			ID:                "TOOL_CALL_HTTP",
			RequiredAuthority: "OWNER",
			RiskClass:         schemadecision.RiskHigh,
			Irreversible:      false,
			GateVersion:       "1.0.0",
		},
		"READ_LOCAL": {
			ID:                "READ_LOCAL",
			RequiredAuthority: "USER",
			RiskClass:         schemadecision.RiskLow,
			Irreversible:      false,
			GateVersion:       "1.0.0",
		},
	}
}

func httpRequest(override string) schemadecision.TransitionRequest {
	return schemadecision.TransitionRequest{
		TransitionID:         "TOOL_CALL_HTTP",
		RiskClass:            schemadecision.RiskHigh,
		Irreversible:         false,
		ResourceIdentifier:   "https://api.example.com/v1/orders",
		TrustBoundaryCrossed: true,
		OverrideToken:        override,
		Timestamp:            "2026-03-01T12:00:00Z",
	}
}

func ownerContext() schemadecision.AuthorityContext {
	return schemadecision.AuthorityContext{
		ActorID:        "agent-7",
		AuthorityBasis: "OWNER",
		TenantID:       "tenant-a",
	}
}

func TestEvaluateOutcomes(t *testing.T) {
	cases := []struct {
		name        string
		request     schemadecision.TransitionRequest
		context     schemadecision.AuthorityContext
		wantOutcome schemadecision.Outcome
		wantReasons []string
		wantGateVer string
	}{
		{
			name:        "undeclared transition refused",
			request:     schemadecision.TransitionRequest{TransitionID: "DELETE_EVERYTHING", RiskClass: schemadecision.RiskLow},
			context:     ownerContext(),
			wantOutcome: schemadecision.OutcomeRefused,
			wantReasons: []string{ReasonUndeclaredTransition},
			wantGateVer: "",
		},
		{
			name: "insufficient authority refused",
			request: schemadecision.TransitionRequest{
				TransitionID: "TOOL_CALL_HTTP",
				RiskClass:    schemadecision.RiskHigh,
			},
			context:     schemadecision.AuthorityContext{ActorID: "agent-7", AuthorityBasis: "USER", TenantID: "tenant-a"},
			wantOutcome: schemadecision.OutcomeRefused,
			wantReasons: []string{ReasonAuthorityInvalid},
			wantGateVer: "1.0.0",
		},
		{
			name:        "high risk without override refused",
			request:     httpRequest(""),
			context:     ownerContext(),
			wantOutcome: schemadecision.OutcomeRefused,
			wantReasons: []string{ReasonSupervisionRequired},
			wantGateVer: "1.0.0",
		},
		{
			name:        "high risk with override supervised",
			request:     httpRequest("break-glass-001"),
			context:     ownerContext(),
			wantOutcome: schemadecision.OutcomeSupervised,
			wantReasons: []string{ReasonOverrideTokenPresent},
			wantGateVer: "1.0.0",
		},
		{
			name: "low risk approved",
			request: schemadecision.TransitionRequest{
				TransitionID: "READ_LOCAL",
				RiskClass:    schemadecision.RiskLow,
				Timestamp:    "2026-03-01T12:00:00Z",
			},
			context:     schemadecision.AuthorityContext{ActorID: "agent-7", AuthorityBasis: "USER", TenantID: "tenant-a"},
			wantOutcome: schemadecision.OutcomeApproved,
			wantReasons: []string{ReasonApproved},
			wantGateVer: "1.0.0",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			record, err := Evaluate(tc.request, tc.context, testRegistry())
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if record.Outcome != tc.wantOutcome {
				t.Fatalf("outcome = %s, want %s", record.Outcome, tc.wantOutcome)
			}
			assertReasons(t, record.Reasons, tc.wantReasons)
			if record.GateVersion != tc.wantGateVer {
				t.Fatalf("gate_version = %q, want %q", record.GateVersion, tc.wantGateVer)
			}
			if record.DecisionID == "" || record.ContextHash == "" || record.ContentHash == "" {
				t.Fatalf("derived fields missing: %+v", record)
			}
			if record.ActorID != tc.context.ActorID || record.TenantID != tc.context.TenantID {
				t.Fatalf("audit fields not carried: %+v", record)
			}
		})
	}
}

func TestEvaluateMalformedInputsAreErrors(t *testing.T) {
	badRisk := httpRequest("")
	badRisk.RiskClass = "EXTREME"
	if _, err := Evaluate(badRisk, ownerContext(), testRegistry()); err == nil {
		t.Fatal("expected error for non-member risk class")
	} else if wardenerrors.CategoryOf(err) != wardenerrors.CategoryInvalidInput {
		t.Fatalf("category = %q", wardenerrors.CategoryOf(err))
	}

	badBasis := ownerContext()
	badBasis.AuthorityBasis = "SUPERUSER"
	if _, err := Evaluate(httpRequest(""), badBasis, testRegistry()); err == nil {
		t.Fatal("expected error for unknown evidence level")
	}
}

func TestEvaluateDeterministicBytes(t *testing.T) {
	first, err := Evaluate(httpRequest("break-glass-001"), ownerContext(), testRegistry())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	for i := 0; i < 50; i++ {
		next, err := Evaluate(httpRequest("break-glass-001"), ownerContext(), testRegistry())
		if err != nil {
			t.Fatalf("Evaluate iteration %d: %v", i, err)
		}
		if string(next.CanonicalBytes) != string(first.CanonicalBytes) {
			t.Fatalf("iteration %d canonical bytes differ", i)
		}
		if next.ContentHash != first.ContentHash || next.DecisionID != first.DecisionID {
			t.Fatalf("iteration %d derived fields differ", i)
		}
	}
}

func TestEvaluateContextHashSensitivity(t *testing.T) {
	base, err := Evaluate(httpRequest(""), ownerContext(), testRegistry())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	changed := httpRequest("")
	changed.ResourceIdentifier = "https://api.example.com/v1/refunds"
	other, err := Evaluate(changed, ownerContext(), testRegistry())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if base.ContextHash == other.ContextHash {
		t.Fatal("context hash must cover resource_identifier")
	}
	if base.DecisionID == other.DecisionID {
		t.Fatal("decision id must follow the context hash")
	}
}

func TestReasonsAreSortedUniqueNonNil(t *testing.T) {
	record, err := buildRecord(buildInputs{
		TransitionID: "X",
		Outcome:      schemadecision.OutcomeRefused,
		Reasons:      []string{"b_reason", "a_reason", "b_reason", " ", ""},
		RiskClass:    schemadecision.RiskLow,
		ContextHash:  "deadbeef",
	})
	if err != nil {
		t.Fatalf("buildRecord: %v", err)
	}
	assertReasons(t, record.Reasons, []string{"a_reason", "b_reason"})

	empty, err := buildRecord(buildInputs{
		TransitionID: "X",
		Outcome:      schemadecision.OutcomeApproved,
		RiskClass:    schemadecision.RiskLow,
		ContextHash:  "deadbeef",
	})
	if err != nil {
		t.Fatalf("buildRecord: %v", err)
	}
	if empty.Reasons == nil || len(empty.Reasons) != 0 {
		t.Fatalf("empty reasons must serialize as [], got %#v", empty.Reasons)
	}
}

func assertReasons(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("reasons = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("reasons = %v, want %v", got, want)
		}
	}
}
