// Package layout loads layout configuration documents from disk, indexes
// them in a fast-lookup registry with atomic pointer swap, and hot-reloads
// them when the source directories change.
package layout

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/slatehq/slate/model"
)

// Document is one layout source file in both raw and typed form. The raw map
// preserves exactly what the file said, which is what the validator needs;
// the typed view is what the renderer and provider consume once the document
// is known to be valid.
type Document struct {
	Raw        map[string]any
	Config     *model.LayoutConfiguration
	Checksum   string
	SourceFile string

	// LoadErr records a read or parse failure. A Document with LoadErr set
	// has nil Raw and Config; batch validation turns it into a critical
	// parse-error finding instead of aborting.
	LoadErr error
}

// Loader scans directories for layout files and parses them.
type Loader struct{}

// NewLoader creates a new layout Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// layoutExtensions are the file extensions recognized as layout sources.
var layoutExtensions = map[string]bool{
	".yaml": true,
	".yml":  true,
	".json": true,
}

// IsLayoutFile reports whether path has a recognized layout file extension.
func IsLayoutFile(path string) bool {
	return layoutExtensions[strings.ToLower(filepath.Ext(path))]
}

// LoadAll recursively scans directories for layout files, in lexical walk
// order. Per-file read/parse failures are captured on the Document so one
// bad file never aborts the batch; only directory access failures return an
// error.
func (l *Loader) LoadAll(directories []string) ([]Document, error) {
	var docs []Document

	for _, dir := range directories {
		err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !IsLayoutFile(path) {
				return nil
			}
			docs = append(docs, l.LoadFile(path))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning directory %s: %w", dir, err)
		}
	}

	return docs, nil
}

// LoadFile loads and parses a single layout file.
func (l *Loader) LoadFile(path string) Document {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{
			SourceFile: path,
			LoadErr:    fmt.Errorf("reading %s: %w", path, err),
		}
	}
	return Parse(data, path)
}

// Parse parses layout document bytes (YAML or JSON; JSON is a YAML subset)
// into a Document and computes its SHA-256 checksum.
func Parse(data []byte, source string) Document {
	doc := Document{
		SourceFile: source,
		Checksum:   fmt.Sprintf("%x", sha256.Sum256(data)),
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		doc.Checksum = ""
		doc.LoadErr = fmt.Errorf("parsing %s: %w", source, err)
		return doc
	}
	if raw == nil {
		doc.Checksum = ""
		doc.LoadErr = fmt.Errorf("parsing %s: document is empty", source)
		return doc
	}
	doc.Raw = raw

	// The typed decode can fail on shape errors (e.g. tags as a scalar)
	// that the raw document still captures. That is a validation finding,
	// not a load failure.
	var cfg model.LayoutConfiguration
	if err := yaml.Unmarshal(data, &cfg); err == nil {
		cfg.Checksum = doc.Checksum
		cfg.SourceFile = source
		doc.Config = &cfg
	}

	return doc
}

// FromConfig rebuilds a Document from an in-memory configuration. Used when
// a caller holds a typed configuration (e.g. an update over the API) and
// needs to run it through the validator.
func FromConfig(cfg *model.LayoutConfiguration) (Document, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return Document{}, fmt.Errorf("encoding layout %s: %w", cfg.ID, err)
	}
	doc := Parse(data, cfg.SourceFile)
	return doc, doc.LoadErr
}
