package layout

import (
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
id: org-list
name: Organization List
version: 1.0.0
type: slots
entityType: organizations
metadata:
  displayName: Organizations
  description: Default list view
  category: list
  tags: [default]
  createdAt: "2025-01-01T00:00:00Z"
structure:
  slots:
    - id: main
      type: content
      name: Main
      required: true
      multiple: false
      defaultComponent: data-table
`

func TestParse_valid_document(t *testing.T) {
	doc := Parse([]byte(validYAML), "org-list.yaml")
	if doc.LoadErr != nil {
		t.Fatalf("LoadErr = %v", doc.LoadErr)
	}
	if doc.Checksum == "" {
		t.Error("checksum should be set")
	}
	if doc.Raw["id"] != "org-list" {
		t.Errorf("raw id = %v", doc.Raw["id"])
	}
	if doc.Config == nil {
		t.Fatal("typed config should decode")
	}
	if doc.Config.ID != "org-list" || doc.Config.Checksum != doc.Checksum {
		t.Errorf("config = %q checksum %q", doc.Config.ID, doc.Config.Checksum)
	}
}

func TestParse_malformed_yaml(t *testing.T) {
	doc := Parse([]byte("id: [unclosed"), "broken.yaml")
	if doc.LoadErr == nil {
		t.Fatal("malformed yaml should set LoadErr")
	}
	if doc.Raw != nil || doc.Config != nil || doc.Checksum != "" {
		t.Error("failed parse should leave no partial state")
	}
}

func TestParse_empty_document(t *testing.T) {
	doc := Parse([]byte("# only a comment\n"), "empty.yaml")
	if doc.LoadErr == nil {
		t.Fatal("empty document should set LoadErr")
	}
}

func TestParse_shape_error_keeps_raw(t *testing.T) {
	// tags as a scalar fails the typed decode but not the raw one.
	doc := Parse([]byte("id: x\nmetadata:\n  tags: oops\n"), "shape.yaml")
	if doc.LoadErr != nil {
		t.Fatalf("LoadErr = %v", doc.LoadErr)
	}
	if doc.Raw == nil {
		t.Fatal("raw document should survive a typed decode failure")
	}
	if doc.Config != nil {
		t.Error("typed config should be nil on shape errors")
	}
}

func TestParse_checksum_tracks_content(t *testing.T) {
	a := Parse([]byte(validYAML), "a.yaml")
	b := Parse([]byte(validYAML), "b.yaml")
	if a.Checksum != b.Checksum {
		t.Error("identical content should share a checksum")
	}
	c := Parse([]byte(validYAML+"\nupdatedAt: \"2025-02-01T00:00:00Z\"\n"), "c.yaml")
	if c.Checksum == a.Checksum {
		t.Error("changed content should change the checksum")
	}
}

func TestLoadAll_one_bad_file_never_aborts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.yaml", validYAML)
	writeFile(t, dir, "bad.yaml", "id: [unclosed")
	writeFile(t, dir, "notes.txt", "not a layout")

	docs, err := NewLoader().LoadAll([]string{dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("docs = %d, want 2 (txt ignored)", len(docs))
	}

	var loadErrs int
	for _, doc := range docs {
		if doc.LoadErr != nil {
			loadErrs++
		}
	}
	if loadErrs != 1 {
		t.Errorf("load errors = %d, want 1", loadErrs)
	}
}

func TestLoadAll_recurses_subdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "organizations")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, sub, "org-list.yml", validYAML)

	docs, err := NewLoader().LoadAll([]string{dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("docs = %d, want 1", len(docs))
	}
}

func TestLoadAll_missing_directory(t *testing.T) {
	_, err := NewLoader().LoadAll([]string{"/does/not/exist"})
	if err == nil {
		t.Fatal("missing directory should fail the scan")
	}
}

func TestLoadFile_missing(t *testing.T) {
	doc := NewLoader().LoadFile("/does/not/exist.yaml")
	if doc.LoadErr == nil {
		t.Fatal("missing file should set LoadErr")
	}
	if doc.SourceFile != "/does/not/exist.yaml" {
		t.Errorf("source = %q", doc.SourceFile)
	}
}

func TestIsLayoutFile(t *testing.T) {
	for _, path := range []string{"a.yaml", "b.YML", "c.json"} {
		if !IsLayoutFile(path) {
			t.Errorf("%s should be recognized", path)
		}
	}
	for _, path := range []string{"a.txt", "b.yaml.bak", "c"} {
		if IsLayoutFile(path) {
			t.Errorf("%s should be ignored", path)
		}
	}
}

func TestFromConfig_round_trip(t *testing.T) {
	parsed := Parse([]byte(validYAML), "org-list.yaml")
	if parsed.Config == nil {
		t.Fatal("fixture should decode")
	}
	doc, err := FromConfig(parsed.Config)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Raw["id"] != "org-list" {
		t.Errorf("raw id = %v", doc.Raw["id"])
	}
	if doc.Config == nil || doc.Config.Version != "1.0.0" {
		t.Error("typed config should survive the round trip")
	}
}

func TestFromConfig_omits_unset_optional_fields(t *testing.T) {
	parsed := Parse([]byte(validYAML), "org-list.yaml")
	if parsed.Config == nil {
		t.Fatal("fixture should decode")
	}
	doc, err := FromConfig(parsed.Config)
	if err != nil {
		t.Fatal(err)
	}
	structure, ok := doc.Raw["structure"].(map[string]any)
	if !ok {
		t.Fatalf("raw structure = %T", doc.Raw["structure"])
	}
	if _, present := structure["composition"]; present {
		t.Error("unset composition must not be serialized")
	}
	slots, ok := structure["slots"].([]any)
	if !ok || len(slots) != 1 {
		t.Fatalf("raw slots = %v", structure["slots"])
	}
	slot := slots[0].(map[string]any)
	if _, present := slot["responsive"]; present {
		t.Error("unset responsive must not be serialized")
	}
	if _, present := slot["props"]; present {
		t.Error("unset props must not be serialized")
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
