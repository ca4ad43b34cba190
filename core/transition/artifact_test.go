package transition

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/davidahmann/warden/core/canon"
	schemadecision "github.com/davidahmann/warden/core/schema/v1/decision"
	"github.com/davidahmann/warden/internal/testutil"
)

func TestWriteDecisionArtifactBytes(t *testing.T) {
	record, err := Evaluate(httpRequest("break-glass-001"), ownerContext(), testRegistry())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	dir := t.TempDir()
	path, err := WriteDecisionArtifact(record, dir)
	if err != nil {
		t.Fatalf("WriteDecisionArtifact: %v", err)
	}
	wantPath := filepath.Join(dir, fmt.Sprintf("transition_decision_%s.json", record.DecisionID))
	if path != wantPath {
		t.Fatalf("artifact path = %s, want %s", path, wantPath)
	}

	written := testutil.MustReadFile(t, path)
	if string(written) != string(record.CanonicalBytes) {
		t.Fatalf("artifact bytes differ from canonical bytes:\n%s\n%s", written, record.CanonicalBytes)
	}

	// Hashing the file bytes must reproduce the content hash.
	digest, err := canon.DigestJSON(written)
	if err != nil {
		t.Fatalf("DigestJSON: %v", err)
	}
	if digest != record.ContentHash {
		t.Fatalf("file digest %s != content hash %s", digest, record.ContentHash)
	}
}

func TestWriteDecisionArtifactRejectsUnfinalized(t *testing.T) {
	if _, err := WriteDecisionArtifact(schemadecision.DecisionRecord{}, t.TempDir()); err == nil {
		t.Fatal("expected error for unfinalized record")
	}
}

func TestLoadRequestAndContextFiles(t *testing.T) {
	dir := t.TempDir()
	requestPath := filepath.Join(dir, "request.json")
	contextPath := filepath.Join(dir, "context.json")
	testutil.WriteFile(t, requestPath, []byte(`{"transition_id":"TOOL_CALL_HTTP","risk_class":"HIGH","irreversible":false,"resource_identifier":"https://x","trust_boundary_crossed":true,"timestamp":"2026-03-01T12:00:00Z"}`))
	testutil.WriteFile(t, contextPath, []byte(`{"actor_id":"agent-7","authority_basis":"OWNER","tenant_id":"tenant-a"}`))

	request, err := LoadRequestFile(requestPath)
	if err != nil {
		t.Fatalf("LoadRequestFile: %v", err)
	}
	if request.TransitionID != "TOOL_CALL_HTTP" || request.RiskClass != schemadecision.RiskHigh {
		t.Fatalf("request mismatch: %+v", request)
	}
	context, err := LoadContextFile(contextPath)
	if err != nil {
		t.Fatalf("LoadContextFile: %v", err)
	}
	if context.AuthorityBasis != "OWNER" {
		t.Fatalf("context mismatch: %+v", context)
	}

	badPath := filepath.Join(dir, "bad.json")
	testutil.WriteFile(t, badPath, []byte("{broken"))
	if _, err := LoadRequestFile(badPath); err == nil {
		t.Fatal("expected error for malformed json")
	}
}
