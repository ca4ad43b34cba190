// Package validate checks JSON and JSONL payloads against JSON Schemas.
// Schemas may come from embedded bytes or from a caller-supplied path.
package validate

import (
	"bufio"
	"bytes"
	"fmt"
	"os"

	"github.com/kaptinlin/jsonschema"
)

// CompileSchema compiles schema bytes with format assertions enabled.
func CompileSchema(schemaBytes []byte) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	schema, err := compiler.Compile(schemaBytes)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// ValidateJSON validates a single JSON document against schema bytes.
func ValidateJSON(schemaBytes, data []byte) error {
	schema, err := CompileSchema(schemaBytes)
	if err != nil {
		return err
	}
	return validateDocument(schema, data)
}

// ValidateJSONL validates every non-empty line of a JSONL payload against
// schema bytes, reporting the first failing line.
func ValidateJSONL(schemaBytes, data []byte) error {
	schema, err := CompileSchema(schemaBytes)
	if err != nil {
		return err
	}
	return validateLines(schema, data)
}

// ValidateJSONFile validates the JSON document at jsonPath against the
// schema at schemaPath.
func ValidateJSONFile(schemaPath, jsonPath string) error {
	schema, err := loadSchemaFile(schemaPath)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("read json: %w", err)
	}
	return validateDocument(schema, data)
}

// ValidateJSONLFile validates the JSONL file at jsonlPath against the
// schema at schemaPath.
func ValidateJSONLFile(schemaPath, jsonlPath string) error {
	schema, err := loadSchemaFile(schemaPath)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(jsonlPath)
	if err != nil {
		return fmt.Errorf("read jsonl: %w", err)
	}
	return validateLines(schema, data)
}

func loadSchemaFile(schemaPath string) (*jsonschema.Schema, error) {
	data, err := os.ReadFile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return CompileSchema(data)
}

func validateDocument(schema *jsonschema.Schema, data []byte) error {
	result := schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	return fmt.Errorf("schema validation failed: %v", result.Errors)
}

func validateLines(schema *jsonschema.Schema, data []byte) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		b := bytes.TrimSpace(scanner.Bytes())
		if len(b) == 0 {
			continue
		}
		if err := validateDocument(schema, b); err != nil {
			return fmt.Errorf("jsonl line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read jsonl: %w", err)
	}
	return nil
}
