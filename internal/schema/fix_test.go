package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/slatehq/slate/internal/layout"
	"github.com/slatehq/slate/model"
)

func TestApplyFixes_lowercase_id(t *testing.T) {
	v := newTestValidator()
	raw := validRaw()
	raw["id"] = "Org-List"
	doc := docFrom(raw)
	result := v.Validate(doc)

	outcome := ApplyFixes(&doc, result)

	if len(outcome.Applied) != 1 || outcome.Applied[0].Code != FixLowercaseID {
		t.Fatalf("applied = %v, want single lowercase-id fix", outcome.Applied)
	}
	if doc.Raw["id"] != "org-list" {
		t.Errorf("id = %v, want org-list", doc.Raw["id"])
	}
}

func TestApplyFixes_default_tags(t *testing.T) {
	v := newTestValidator()
	raw := validRaw()
	delete(raw["metadata"].(map[string]any), "tags")
	doc := docFrom(raw)
	result := v.Validate(doc)

	ApplyFixes(&doc, result)

	tags, ok := doc.Raw["metadata"].(map[string]any)["tags"].([]any)
	if !ok || len(tags) != 0 {
		t.Errorf("tags = %v, want empty array", doc.Raw["metadata"].(map[string]any)["tags"])
	}
}

func TestApplyFixes_add_threshold(t *testing.T) {
	v := newTestValidator()
	raw := validRaw()
	raw["structure"].(map[string]any)["slots"].([]any)[0].(map[string]any)["props"] = map[string]any{
		"enableVirtualization": "auto",
	}
	doc := docFrom(raw)
	result := v.Validate(doc)

	outcome := ApplyFixes(&doc, result)

	if len(outcome.Applied) != 1 {
		t.Fatalf("applied = %v, want single add-virtualization-threshold fix", outcome.Applied)
	}
	props := doc.Raw["structure"].(map[string]any)["slots"].([]any)[0].(map[string]any)["props"].(map[string]any)
	if props[model.PropVirtualizationThreshold] != model.DefaultVirtualizationThreshold {
		t.Errorf("threshold = %v, want %d",
			props[model.PropVirtualizationThreshold], model.DefaultVirtualizationThreshold)
	}

	// Re-validation after the fix clears the tip.
	fresh := v.Validate(layout.Document{Raw: doc.Raw, SourceFile: doc.SourceFile})
	if fresh.TipCount(TipMissingThreshold) != 0 {
		t.Error("tip should be gone after the fix is applied")
	}
}

func TestApplyFixes_stale_fix_skipped(t *testing.T) {
	doc := docFrom(validRaw())
	outcome := ApplyFixes(&doc, model.ValidationResult{
		Fixes: []model.AutoFix{{Code: FixAddThreshold, Path: "structure.slots[9].props.virtualizationThreshold"}},
	})
	if len(outcome.Applied) != 0 || len(outcome.Skipped) != 1 {
		t.Errorf("applied=%d skipped=%d, want 0/1 for out-of-range slot", len(outcome.Applied), len(outcome.Skipped))
	}
}

func TestWriteFixed_with_backup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.yaml")
	original := []byte("id: Org-List\n")
	if err := os.WriteFile(path, original, 0o644); err != nil {
		t.Fatal(err)
	}

	doc := layout.Document{Raw: map[string]any{"id": "org-list"}, SourceFile: path}
	if err := WriteFixed(&doc, true); err != nil {
		t.Fatalf("WriteFixed() error = %v", err)
	}

	backup, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("backup not written: %v", err)
	}
	if string(backup) != string(original) {
		t.Errorf("backup = %q, want original content", backup)
	}
	fixed, _ := os.ReadFile(path)
	if string(fixed) == string(original) {
		t.Error("source file should contain the fixed document")
	}
}
