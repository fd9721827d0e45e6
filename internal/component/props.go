package component

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/slatehq/slate/model"
)

// ValidateProps checks prop values against a component's declared schema.
// Components without a schema accept any props. Schema violations are
// reported as errors; props not declared by the schema are warnings unless
// the schema forbids additional properties.
func (r *Registry) ValidateProps(id string, props map[string]any) (model.PropValidation, error) {
	entry, ok := r.Get(id)
	if !ok {
		return model.PropValidation{}, model.NewNotFoundError(
			fmt.Sprintf("component %q is not registered", id))
	}
	return validateAgainstSchema(entry.PropsSchema, props), nil
}

func validateAgainstSchema(schema *openapi3.Schema, props map[string]any) model.PropValidation {
	result := model.PropValidation{Valid: true}
	if schema == nil {
		return result
	}

	if err := schema.VisitJSON(mapToJSONValue(props)); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
	}

	if len(schema.Properties) > 0 && allowsAdditional(schema) {
		for key := range props {
			if _, declared := schema.Properties[key]; !declared {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("prop %q is not declared by the component schema", key))
			}
		}
	}
	return result
}

// allowsAdditional reports whether the schema tolerates undeclared
// properties. When it does not, VisitJSON already rejects them as errors,
// so the warning pass only runs when additional properties are permitted.
func allowsAdditional(schema *openapi3.Schema) bool {
	if schema.AdditionalProperties.Has != nil {
		return *schema.AdditionalProperties.Has
	}
	return true
}

// mapToJSONValue normalizes prop maps for schema visiting. YAML decoding
// can produce map[any]any values which the validator does not accept.
func mapToJSONValue(props map[string]any) map[string]any {
	if props == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return mapToJSONValue(typed)
	case map[any]any:
		out := make(map[string]any, len(typed))
		for k, val := range typed {
			out[fmt.Sprintf("%v", k)] = normalizeValue(val)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}

// MergeProps layers slot props over the component defaults. Neither input is
// mutated.
func MergeProps(defaults, overrides map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}
