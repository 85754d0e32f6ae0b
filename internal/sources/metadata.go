package sources

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SourceMetadata represents the parsed source.yaml manifest describing
// one briefing source (upstream API). All sources must provide name,
// version and endpoint; other fields are optional.
type SourceMetadata struct {
	Name               string                 `yaml:"name"`
	Description        string                 `yaml:"description"`
	Owner              string                 `yaml:"owner"`
	Version            string                 `yaml:"version"`
	SchemaVersion      string                 `yaml:"schema_version"`
	Endpoint           string                 `yaml:"endpoint"`
	DefaultConfig      map[string]interface{} `yaml:"default_config"`
	SettingsSchemaPath string                 `yaml:"settings_schema_path"`
}

// LoadSourceMetadata reads and parses a source.yaml file with strict validation.
// Unknown YAML fields are rejected (via KnownFields), and required fields are validated.
// SchemaVersion defaults to "v1" if not provided.
func LoadSourceMetadata(path string) (*SourceMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source metadata: %w", err)
	}

	var meta SourceMetadata
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // reject unknown YAML keys to catch typos

	if err := decoder.Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to parse source metadata: %w", err)
	}

	if meta.SchemaVersion == "" {
		meta.SchemaVersion = "v1"
	}

	if meta.Name == "" {
		return nil, fmt.Errorf("source metadata missing required field: name")
	}
	if meta.Version == "" {
		return nil, fmt.Errorf("source metadata missing required field: version")
	}
	if meta.Endpoint == "" {
		return nil, fmt.Errorf("source metadata missing required field: endpoint")
	}

	return &meta, nil
}
