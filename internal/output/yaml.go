package output

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"srschema/internal/diff"
	"srschema/internal/migration"
)

type yamlFormatter struct{}

func (yamlFormatter) FormatDiff(d *diff.SchemaDiff) (string, error) {
	return marshalYAML(newDiffPayload(d, FormatYAML))
}

func (yamlFormatter) FormatMigration(m *migration.Migration) (string, error) {
	return marshalYAML(newMigrationPayload(m, FormatYAML))
}

// marshalYAML goes through JSON first so the YAML keys follow the json tags
// of the core types.
func marshalYAML[T Payload](payload T) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return "", fmt.Errorf("yaml: %w", err)
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("yaml: %w", err)
	}
	return string(out), nil
}
