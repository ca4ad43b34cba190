package validate

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/davidahmann/warden/internal/testutil"
)

const testSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"additionalProperties": false,
	"required": ["name"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"count": {"type": "integer"}
	}
}`

func TestValidateJSON(t *testing.T) {
	if err := ValidateJSON([]byte(testSchema), []byte(`{"name":"x","count":3}`)); err != nil {
		t.Fatalf("valid document rejected: %v", err)
	}
	if err := ValidateJSON([]byte(testSchema), []byte(`{"count":3}`)); err == nil {
		t.Fatal("missing required key must fail")
	}
	if err := ValidateJSON([]byte(testSchema), []byte(`{"name":"x","extra":true}`)); err == nil {
		t.Fatal("unknown key must fail with additionalProperties false")
	}
}

func TestValidateJSONLReportsLineNumber(t *testing.T) {
	payload := []byte("{\"name\":\"a\"}\n\n{\"name\":\"b\"}\n{\"count\":1}\n")
	err := ValidateJSONL([]byte(testSchema), payload)
	if err == nil {
		t.Fatal("invalid line must fail")
	}
	if !strings.Contains(err.Error(), "line 4") {
		t.Fatalf("error must name the failing line: %v", err)
	}

	if err := ValidateJSONL([]byte(testSchema), []byte("{\"name\":\"a\"}\n{\"name\":\"b\"}\n")); err != nil {
		t.Fatalf("valid jsonl rejected: %v", err)
	}
}

func TestCompileSchemaInvalid(t *testing.T) {
	if _, err := CompileSchema([]byte("{nonsense")); err == nil {
		t.Fatal("expected compile error")
	}
}

func TestValidateJSONFile(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.json")
	docPath := filepath.Join(dir, "doc.json")
	testutil.WriteFile(t, schemaPath, []byte(testSchema))
	testutil.WriteFile(t, docPath, []byte(`{"name":"x"}`))

	if err := ValidateJSONFile(schemaPath, docPath); err != nil {
		t.Fatalf("ValidateJSONFile: %v", err)
	}
	if err := ValidateJSONFile(schemaPath, filepath.Join(dir, "absent.json")); err == nil {
		t.Fatal("missing document must fail")
	}
}
