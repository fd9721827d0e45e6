package component

import (
	"fmt"

	"github.com/ohler55/ojg/jp"

	"github.com/slatehq/slate/model"
)

// Prop keys used by the data-binding hooks. The renderer injects the request
// payload under PropData; binding replaces it with the extracted PropItems.
const (
	PropData  = "data"
	PropItems = "items"
)

// bindItems is the binding hook for row-oriented components. When the slot
// declares an itemsPath, the rows are extracted from the injected payload
// with a JSONPath query; otherwise the payload is passed through as items
// when it is already a list.
func bindItems(rctx model.RenderContext, props map[string]any) (map[string]any, error) {
	payload, hasData := props[PropData]
	if !hasData {
		return props, nil
	}

	out := MergeProps(props, nil)
	delete(out, PropData)

	path, _ := props[model.PropItemsPath].(string)
	if path == "" {
		if items, ok := payload.([]any); ok {
			out[PropItems] = items
		}
		return out, nil
	}

	items, err := ExtractItems(payload, path)
	if err != nil {
		return nil, err
	}
	out[PropItems] = items
	return out, nil
}

// ExtractItems evaluates a JSONPath expression against a payload and returns
// the matched rows. A path matching a single array is flattened to that
// array's elements.
func ExtractItems(payload any, path string) ([]any, error) {
	expr, err := jp.ParseString(path)
	if err != nil {
		return nil, model.NewBadRequestError(fmt.Sprintf("invalid itemsPath %q: %v", path, err))
	}
	matches := expr.Get(payload)
	if len(matches) == 1 {
		if list, ok := matches[0].([]any); ok {
			return list, nil
		}
	}
	return matches, nil
}
