// Package report renders validation reports for humans and machines: an
// emoji-prefixed console listing, raw JSON, markdown, and a standalone HTML
// page.
package report

import (
	"fmt"
	"io"

	"github.com/slatehq/slate/model"
)

// Output formats.
const (
	FormatConsole  = "console"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// ValidFormats enumerates the accepted --format values.
var ValidFormats = []string{FormatConsole, FormatJSON, FormatMarkdown, FormatHTML}

// Options adjusts what the formatters include.
type Options struct {
	// Verbose includes per-issue detail lines.
	Verbose bool
	// ShowWarnings includes warnings. Errors are always shown.
	ShowWarnings bool
	// ShowTips includes performance tips.
	ShowTips bool
}

// Formatter writes a validation report to a writer.
type Formatter interface {
	Format(w io.Writer, report model.ValidationReport) error
}

// New returns the formatter for a format name.
func New(format string, opts Options) (Formatter, error) {
	switch format {
	case FormatConsole:
		return &consoleFormatter{opts: opts}, nil
	case FormatJSON:
		return &jsonFormatter{}, nil
	case FormatMarkdown:
		return &markdownFormatter{opts: opts}, nil
	case FormatHTML:
		return &htmlFormatter{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unknown report format %q (valid: %v)", format, ValidFormats)
	}
}

// displayName labels a result by layout id, falling back to the source file
// for documents that failed before an id could be read.
func displayName(r model.ValidationResult) string {
	if r.LayoutID != "" {
		return r.LayoutID
	}
	if r.SourceFile != "" {
		return r.SourceFile
	}
	return "(unnamed)"
}
