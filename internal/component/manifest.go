package component

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/slatehq/slate/model"
)

// manifestFile is the YAML shape of a component manifest. Manifests extend
// the builtin set with deployment-specific components; they cannot attach
// binding hooks, only metadata and schemas.
type manifestFile struct {
	Components []manifestEntry `yaml:"components"`
}

type manifestEntry struct {
	ID                string         `yaml:"id"`
	Name              string         `yaml:"name"`
	Category          string         `yaml:"category"`
	Description       string         `yaml:"description"`
	SupportedSlots    []string       `yaml:"supportedSlots"`
	SupportedEntities []string       `yaml:"supportedEntities"`
	DefaultProps      map[string]any `yaml:"defaultProps"`
	PropsSchema       map[string]any `yaml:"propsSchema"`
}

// LoadManifest registers the components declared in a YAML manifest file.
// Returns the number of components registered.
func LoadManifest(r *Registry, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read component manifest: %w", err)
	}
	return applyManifest(r, data, path)
}

func applyManifest(r *Registry, data []byte, source string) (int, error) {
	var mf manifestFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return 0, fmt.Errorf("parse component manifest %s: %w", source, err)
	}

	registered := 0
	for i, me := range mf.Components {
		if me.ID == "" {
			return registered, fmt.Errorf("manifest %s: component[%d] has no id", source, i)
		}
		var schema *openapi3.Schema
		if me.PropsSchema != nil {
			parsed, err := schemaFromMap(me.PropsSchema)
			if err != nil {
				return registered, fmt.Errorf("manifest %s: component %q schema: %w", source, me.ID, err)
			}
			schema = parsed
		}
		if err := r.Register(manifestToEntry(me, schema)); err != nil {
			return registered, err
		}
		registered++
	}
	return registered, nil
}

func manifestToEntry(me manifestEntry, schema *openapi3.Schema) model.ComponentEntry {
	return model.ComponentEntry{
		ID:                me.ID,
		Name:              me.Name,
		Category:          me.Category,
		Description:       me.Description,
		SupportedSlots:    me.SupportedSlots,
		SupportedEntities: me.SupportedEntities,
		DefaultProps:      me.DefaultProps,
		PropsSchema:       schema,
	}
}

// schemaFromMap converts a YAML-decoded schema object into an OpenAPI
// schema via a JSON round trip, which also validates the schema shape.
func schemaFromMap(raw map[string]any) (*openapi3.Schema, error) {
	data, err := json.Marshal(normalizeValue(raw))
	if err != nil {
		return nil, err
	}
	var schema openapi3.Schema
	if err := schema.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return &schema, nil
}
