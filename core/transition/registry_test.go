package transition

import (
	"path/filepath"
	"strings"
	"testing"

	wardenerrors "github.com/davidahmann/warden/core/errors"
	schemadecision "github.com/davidahmann/warden/core/schema/v1/decision"
	"github.com/davidahmann/warden/internal/testutil"
)

const validRegistryYAML = `version: "1"
transitions:
  - id: TOOL_CALL_HTTP
    required_authority: OWNER
    risk_class: HIGH
    irreversible: false
    gate_version: "1.0.0"
  - id: READ_LOCAL
    required_authority: USER
    risk_class: LOW
    irreversible: false
    gate_version: "1.0.0"
`

func TestParseRegistryYAMLValid(t *testing.T) {
	registry, err := ParseRegistryYAML([]byte(validRegistryYAML))
	if err != nil {
		t.Fatalf("ParseRegistryYAML: %v", err)
	}
	if len(registry) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(registry))
	}
	entry, ok := registry["TOOL_CALL_HTTP"]
	if !ok {
		t.Fatal("TOOL_CALL_HTTP missing")
	}
	if entry.RequiredAuthority != "OWNER" || entry.RiskClass != schemadecision.RiskHigh || entry.GateVersion != "1.0.0" {
		t.Fatalf("entry mismatch: %+v", entry)
	}
}

func TestParseRegistryYAMLViolations(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing version",
			yaml: "transitions: []\n",
			want: "version",
		},
		{
			name: "missing required field",
			yaml: "version: \"1\"\ntransitions:\n  - id: X\n    required_authority: USER\n    risk_class: LOW\n    gate_version: \"1\"\n",
			want: "missing required fields",
		},
		{
			name: "duplicate id",
			yaml: "version: \"1\"\ntransitions:\n" +
				"  - {id: X, required_authority: USER, risk_class: LOW, irreversible: false, gate_version: \"1\"}\n" +
				"  - {id: X, required_authority: USER, risk_class: LOW, irreversible: false, gate_version: \"1\"}\n",
			want: "duplicate transition id",
		},
		{
			name: "invalid risk class",
			yaml: "version: \"1\"\ntransitions:\n" +
				"  - {id: X, required_authority: USER, risk_class: EXTREME, irreversible: false, gate_version: \"1\"}\n",
			want: "invalid risk_class",
		},
		{
			name: "invalid required authority",
			yaml: "version: \"1\"\ntransitions:\n" +
				"  - {id: X, required_authority: ROOT, risk_class: LOW, irreversible: false, gate_version: \"1\"}\n",
			want: "invalid required_authority",
		},
		{
			name: "irreversible not boolean",
			yaml: "version: \"1\"\ntransitions:\n" +
				"  - {id: X, required_authority: USER, risk_class: LOW, irreversible: \"nope\", gate_version: \"1\"}\n",
			want: "must be a boolean",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseRegistryYAML([]byte(tc.yaml))
			if err == nil {
				t.Fatal("expected loader error")
			}
			if wardenerrors.CodeOf(err) != "invalid_registry" {
				t.Fatalf("code = %q", wardenerrors.CodeOf(err))
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err.Error(), tc.want)
			}
		})
	}
}

func TestLoadRegistryFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.yaml")
	testutil.WriteFile(t, path, []byte(validRegistryYAML))

	registry, err := LoadRegistryFile(path)
	if err != nil {
		t.Fatalf("LoadRegistryFile: %v", err)
	}
	if len(registry) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(registry))
	}

	_, err = LoadRegistryFile(filepath.Join(dir, "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if wardenerrors.CategoryOf(err) != wardenerrors.CategoryIOFailure {
		t.Fatalf("category = %q", wardenerrors.CategoryOf(err))
	}
}
