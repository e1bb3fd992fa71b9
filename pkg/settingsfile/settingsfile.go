// Package settingsfile imports and exports agent settings as standalone YAML
// or JSON files, for sharing a configuration between machines or profiles.
package settingsfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/hamidzr/surferh/model"
)

type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

const yamlHeader = `# surferh agent settings
# model fields accept registered tokens; legacy tokens are migrated on import
`

// canonicalKeys maps a squashed key variant to its persisted key, so
// MaxNSteps, max-n-steps and maxNSteps all land on max_n_steps.
var canonicalKeys = func() map[string]string {
	m := make(map[string]string, len(model.Fields))
	for _, f := range model.Fields {
		m[normalizeKeyVariant(f.Key)] = f.Key
	}
	return m
}()

// FormatFor picks the file format from the path extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("cannot tell the format of %s; use a .yaml, .yml or .json file", path)
	}
}

// Decode parses a settings document into a raw record keyed by the persisted
// field names. JSON documents are read as YAML. Keys that name no field are
// passed through untouched.
func Decode(data []byte) (map[string]any, error) {
	var raw map[string]interface{}
	if err := yamlv3.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parsing settings file")
	}

	normalized := make(map[string]any, len(raw))
	seen := make(map[string]string, len(raw))
	for key, value := range raw {
		canonical, ok := canonicalKeys[normalizeKeyVariant(key)]
		if !ok {
			canonical = key
		}
		if previous, exists := seen[canonical]; exists && previous != key {
			return nil, fmt.Errorf("duplicate settings keys %q and %q resolve to %q", previous, key, canonical)
		}
		seen[canonical] = key
		normalized[canonical] = convertNestedMaps(value)
	}
	return normalized, nil
}

// Read loads the raw record stored in the file at path.
func Read(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading settings file %s", path)
	}
	return Decode(data)
}

// Import reads the file at path and migrates it the same way a persisted
// slot is migrated on load.
func Import(path string, schema model.Schema) (model.AgentSettings, error) {
	raw, err := Read(path)
	if err != nil {
		return schema.Defaults, err
	}
	return model.Migrate(schema, raw), nil
}

// Encode renders settings in the given format.
func Encode(settings model.AgentSettings, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(settings, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "encoding settings as json")
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(settings)
		if err != nil {
			return nil, errors.Wrap(err, "encoding settings as yaml")
		}
		return append([]byte(yamlHeader), data...), nil
	default:
		return nil, fmt.Errorf("unsupported settings format %q", format)
	}
}

// Export writes settings to path in the format its extension names,
// creating parent directories as needed.
func Export(path string, settings model.AgentSettings) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	data, err := Encode(settings, format)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "creating %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "writing settings file %s", path)
	}
	return nil
}

func normalizeKeyVariant(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", "")
	key = strings.ReplaceAll(key, "-", "")
	key = strings.ReplaceAll(key, " ", "")
	return key
}

func convertNestedMaps(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		converted := make(map[string]interface{}, len(v))
		for key, nested := range v {
			converted[key] = convertNestedMaps(nested)
		}
		return converted
	case map[interface{}]interface{}:
		converted := make(map[string]interface{}, len(v))
		for key, nested := range v {
			converted[fmt.Sprint(key)] = convertNestedMaps(nested)
		}
		return converted
	case []interface{}:
		for i := range v {
			v[i] = convertNestedMaps(v[i])
		}
		return v
	default:
		return value
	}
}
