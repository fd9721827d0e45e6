package schema

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/slatehq/slate/internal/layout"
	"github.com/slatehq/slate/model"
)

// FixOutcome reports what ApplyFixes changed in one document.
type FixOutcome struct {
	SourceFile string
	Applied    []model.AutoFix
	Skipped    []model.AutoFix
}

// ApplyFixes applies the result's auto-fixes to the raw document in place
// and returns what was applied. Fixes are conservative: a fix whose target
// no longer matches the recorded shape is skipped, never forced.
func ApplyFixes(doc *layout.Document, result model.ValidationResult) FixOutcome {
	outcome := FixOutcome{SourceFile: doc.SourceFile}
	if doc.Raw == nil {
		outcome.Skipped = result.Fixes
		return outcome
	}

	for _, fix := range result.Fixes {
		applied := false
		switch fix.Code {
		case FixLowercaseID:
			if id, ok := stringField(doc.Raw, "id"); ok {
				lowered := strings.ToLower(id)
				if idPattern.MatchString(lowered) {
					doc.Raw["id"] = lowered
					applied = true
				}
			}
		case FixDefaultTags:
			if meta, ok := mapField(doc.Raw, "metadata"); ok {
				if _, isSlice := asSlice(meta["tags"]); !isSlice {
					meta["tags"] = []any{}
					applied = true
				}
			}
		case FixAddThreshold:
			applied = addThreshold(doc.Raw, fix.Path)
		}
		if applied {
			outcome.Applied = append(outcome.Applied, fix)
		} else {
			outcome.Skipped = append(outcome.Skipped, fix)
		}
	}
	return outcome
}

// addThreshold sets the default virtualization threshold on the slot the fix
// path points at, creating the props map if the slot has none.
func addThreshold(raw map[string]any, path string) bool {
	index, ok := slotIndexFromPath(path)
	if !ok {
		return false
	}
	structure, ok := mapField(raw, "structure")
	if !ok {
		return false
	}
	items, ok := sliceField(structure, "slots")
	if !ok || index >= len(items) {
		return false
	}
	slot, ok := asMap(items[index])
	if !ok {
		return false
	}
	props, ok := mapField(slot, "props")
	if !ok {
		props = map[string]any{}
		slot["props"] = props
	}
	if _, exists := props[model.PropVirtualizationThreshold]; exists {
		return false
	}
	props[model.PropVirtualizationThreshold] = model.DefaultVirtualizationThreshold
	return true
}

// slotIndexFromPath extracts N from "structure.slots[N].…" paths.
func slotIndexFromPath(path string) (int, bool) {
	const prefix = "structure.slots["
	if !strings.HasPrefix(path, prefix) {
		return 0, false
	}
	rest := path[len(prefix):]
	end := strings.IndexByte(rest, ']')
	if end <= 0 {
		return 0, false
	}
	var index int
	if _, err := fmt.Sscanf(rest[:end], "%d", &index); err != nil || index < 0 {
		return 0, false
	}
	return index, true
}

// WriteFixed persists a fixed document back to its source file as YAML. With
// backup enabled the original content is first copied to <file>.bak.
func WriteFixed(doc *layout.Document, backup bool) error {
	if doc.SourceFile == "" {
		return fmt.Errorf("document has no source file")
	}
	if backup {
		original, err := os.ReadFile(doc.SourceFile)
		if err != nil {
			return fmt.Errorf("read original for backup: %w", err)
		}
		if err := os.WriteFile(doc.SourceFile+".bak", original, 0o644); err != nil {
			return fmt.Errorf("write backup: %w", err)
		}
	}
	data, err := yaml.Marshal(doc.Raw)
	if err != nil {
		return fmt.Errorf("marshal fixed document: %w", err)
	}
	if err := os.WriteFile(doc.SourceFile, data, 0o644); err != nil {
		return fmt.Errorf("write fixed document: %w", err)
	}
	return nil
}
