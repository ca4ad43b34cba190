package transition

import (
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-yaml"

	wardenerrors "github.com/davidahmann/warden/core/errors"
	"github.com/davidahmann/warden/core/evidence"
	schemadecision "github.com/davidahmann/warden/core/schema/v1/decision"
)

var requiredRegistryFields = []string{
	"gate_version",
	"id",
	"irreversible",
	"required_authority",
	"risk_class",
}

type registryFile struct {
	Version     string           `yaml:"version"`
	Transitions []map[string]any `yaml:"transitions"`
}

// LoadRegistryFile loads and validates a transition registry YAML file.
// Every check here is a load-time usage error; evaluation assumes a valid
// registry and never re-validates entries.
func LoadRegistryFile(path string) (schemadecision.Registry, error) {
	// #nosec G304 -- registry path is explicit local user input.
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, wardenerrors.Wrap(
			fmt.Errorf("read registry: %w", err),
			wardenerrors.CategoryIOFailure,
			"registry_read_failed",
			"check the registry path and permissions",
			false,
		)
	}
	return ParseRegistryYAML(content)
}

// ParseRegistryYAML parses registry YAML and enforces the loader contract:
// a top-level version, unique transition ids, all required entry fields
// present, and enum fields restricted to their closed sets.
func ParseRegistryYAML(data []byte) (schemadecision.Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, invalidRegistry(fmt.Errorf("parse registry yaml: %w", err))
	}
	if file.Version == "" {
		return nil, invalidRegistry(fmt.Errorf("registry must contain a top-level version field"))
	}

	registry := make(schemadecision.Registry, len(file.Transitions))
	for _, raw := range file.Transitions {
		entry, err := decodeRegistryEntry(raw)
		if err != nil {
			return nil, err
		}
		if _, exists := registry[entry.ID]; exists {
			return nil, invalidRegistry(fmt.Errorf("duplicate transition id %q", entry.ID))
		}
		registry[entry.ID] = entry
	}
	return registry, nil
}

func decodeRegistryEntry(raw map[string]any) (schemadecision.RegistryEntry, error) {
	missing := make([]string, 0, len(requiredRegistryFields))
	for _, field := range requiredRegistryFields {
		if _, ok := raw[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return schemadecision.RegistryEntry{}, invalidRegistry(
			fmt.Errorf("transition entry missing required fields %v", missing))
	}

	id, err := stringField(raw, "id")
	if err != nil {
		return schemadecision.RegistryEntry{}, err
	}
	requiredAuthority, err := stringField(raw, "required_authority")
	if err != nil {
		return schemadecision.RegistryEntry{}, err
	}
	riskClass, err := stringField(raw, "risk_class")
	if err != nil {
		return schemadecision.RegistryEntry{}, err
	}
	gateVersion, err := stringField(raw, "gate_version")
	if err != nil {
		return schemadecision.RegistryEntry{}, err
	}
	irreversible, ok := raw["irreversible"].(bool)
	if !ok {
		return schemadecision.RegistryEntry{}, invalidRegistry(
			fmt.Errorf("transition %q field irreversible must be a boolean", id))
	}

	if !schemadecision.RiskClass(riskClass).Valid() {
		return schemadecision.RegistryEntry{}, invalidRegistry(
			fmt.Errorf("transition %q has invalid risk_class %q (expected one of %v)",
				id, riskClass, schemadecision.RiskClassNames()))
	}
	if _, err := evidence.ParseLevel(requiredAuthority); err != nil {
		return schemadecision.RegistryEntry{}, invalidRegistry(
			fmt.Errorf("transition %q has invalid required_authority %q (expected one of %v)",
				id, requiredAuthority, evidence.LevelNames()))
	}

	return schemadecision.RegistryEntry{
		ID:                id,
		RequiredAuthority: requiredAuthority,
		RiskClass:         schemadecision.RiskClass(riskClass),
		Irreversible:      irreversible,
		GateVersion:       gateVersion,
	}, nil
}

func stringField(raw map[string]any, field string) (string, error) {
	value, ok := raw[field].(string)
	if !ok || value == "" {
		return "", invalidRegistry(fmt.Errorf("transition entry field %s must be a non-empty string", field))
	}
	return value, nil
}

func invalidRegistry(cause error) error {
	return wardenerrors.Wrap(
		cause,
		wardenerrors.CategoryInvalidInput,
		"invalid_registry",
		"fix the registry file before evaluating transitions",
		false,
	)
}
