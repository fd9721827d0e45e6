package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/slatehq/slate/internal/component"
	"github.com/slatehq/slate/internal/layout"
	"github.com/slatehq/slate/internal/report"
	"github.com/slatehq/slate/internal/schema"
	"github.com/slatehq/slate/model"
)

var validateFlags struct {
	schemaFile string
	dirs       []string
	format     string
	output     string
	strict     bool
	fix        bool
	backup     bool
	verbose    bool

	noWarnings    bool
	noPerformance bool
	noComponents  bool
	noEntity      bool
	noCrossRef    bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate layout schemas offline",
	Long: `validate checks layout schema files against the full rule set and
prints a report. With --fix, safe auto-fixes (lowercased ids, default
tags, explicit virtualization thresholds) are written back to the
source files.

Exit status is non-zero on load failures, and with --strict also when
any schema is invalid.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd)
	},
}

func init() {
	f := validateCmd.Flags()
	f.StringVar(&validateFlags.schemaFile, "schema", "", "validate a single schema file")
	f.StringSliceVar(&validateFlags.dirs, "dir", nil, "directories to scan for schema files (default: configured layout directories)")
	f.StringVar(&validateFlags.format, "format", report.FormatConsole, fmt.Sprintf("report format: %v", report.ValidFormats))
	f.StringVar(&validateFlags.output, "output", "", "write the report to a file instead of stdout")
	f.BoolVar(&validateFlags.strict, "strict", false, "exit non-zero when any schema is invalid")
	f.BoolVar(&validateFlags.fix, "fix", false, "apply safe auto-fixes to source files")
	f.BoolVar(&validateFlags.backup, "backup", true, "write a .bak copy before applying fixes")
	f.BoolVarP(&validateFlags.verbose, "verbose", "v", false, "include per-issue detail lines")
	f.BoolVar(&validateFlags.noWarnings, "no-warnings", false, "suppress warning findings")
	f.BoolVar(&validateFlags.noPerformance, "no-performance", false, "skip performance rules")
	f.BoolVar(&validateFlags.noComponents, "no-components", false, "skip component reference rules")
	f.BoolVar(&validateFlags.noEntity, "no-entity", false, "skip entity-specific rules")
	f.BoolVar(&validateFlags.noCrossRef, "no-cross-ref", false, "skip cross-reference rules")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cobraCmd *cobra.Command) error {
	cfg, err := loadConfig(cobraCmd)
	if err != nil {
		return err
	}

	// Component catalog mirrors the server's: builtins plus the configured
	// manifest, so offline runs see the same component references.
	components := component.NewRegistry()
	if err := component.RegisterBuiltins(components); err != nil {
		return err
	}
	if cfg.Components.Manifest != "" {
		if _, err := component.LoadManifest(components, cfg.Components.Manifest); err != nil {
			return fmt.Errorf("component manifest: %w", err)
		}
	}

	validator := schema.NewValidator(components, validateOptions())

	docs, err := collectDocuments(cfg.Layouts.Directories)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no schema files found")
	}

	validationReport := validator.ValidateAll(docs)

	if validateFlags.fix {
		validationReport = applyFixes(validator, docs, validationReport)
	}

	if err := writeReport(validationReport); err != nil {
		return err
	}

	if validateFlags.strict && validationReport.Summary.InvalidSchemas > 0 {
		return fmt.Errorf("%d invalid schemas", validationReport.Summary.InvalidSchemas)
	}
	return nil
}

// validateOptions maps the --no-* flags onto the validator's rule groups.
func validateOptions() schema.Options {
	opts := schema.DefaultOptions()
	opts.Warnings = !validateFlags.noWarnings
	opts.Performance = !validateFlags.noPerformance
	opts.Components = !validateFlags.noComponents
	opts.Entity = !validateFlags.noEntity
	opts.CrossRef = !validateFlags.noCrossRef
	return opts
}

// collectDocuments loads the documents named by --schema or --dir, falling
// back to the configured layout directories.
func collectDocuments(configuredDirs []string) ([]layout.Document, error) {
	if validateFlags.schemaFile != "" {
		if _, err := os.Stat(validateFlags.schemaFile); err != nil {
			return nil, fmt.Errorf("schema file: %w", err)
		}
		return []layout.Document{layout.NewLoader().LoadFile(validateFlags.schemaFile)}, nil
	}
	dirs := validateFlags.dirs
	if len(dirs) == 0 {
		dirs = configuredDirs
	}
	return layout.NewLoader().LoadAll(dirs)
}

// applyFixes writes safe auto-fixes back to their source files and
// re-validates the touched documents so the report reflects the fixed state.
func applyFixes(validator *schema.Validator, docs []layout.Document, validationReport model.ValidationReport) model.ValidationReport {
	results := validationReport.Results
	for i := range docs {
		outcome := schema.ApplyFixes(&docs[i], results[i])
		if len(outcome.Applied) == 0 {
			continue
		}
		if err := schema.WriteFixed(&docs[i], validateFlags.backup); err != nil {
			fmt.Fprintf(os.Stderr, "fix %s: %v\n", docs[i].SourceFile, err)
			continue
		}
		for _, fix := range outcome.Applied {
			fmt.Fprintf(os.Stderr, "fixed %s: %s\n", docs[i].SourceFile, fix.Description)
		}
		// Re-parse so the re-validation sees the new content, not the
		// cached result for the old checksum.
		data, err := yaml.Marshal(docs[i].Raw)
		if err != nil {
			continue
		}
		fixed := layout.Parse(data, docs[i].SourceFile)
		results[i] = validator.Validate(fixed)
	}
	return model.ValidationReport{
		Summary: schema.Summarize(results),
		Results: results,
	}
}

// writeReport formats the report to stdout or --output. The json format
// defaults to a file so piping the console view stays the common path.
func writeReport(validationReport model.ValidationReport) error {
	formatter, err := report.New(validateFlags.format, report.Options{
		Verbose:      validateFlags.verbose,
		ShowWarnings: !validateFlags.noWarnings,
		ShowTips:     !validateFlags.noPerformance,
	})
	if err != nil {
		return err
	}

	output := validateFlags.output
	if output == "" && validateFlags.format == report.FormatJSON {
		output = "validation-report.json"
	}

	var w io.Writer = os.Stdout
	if output != "" {
		file, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("report output: %w", err)
		}
		defer file.Close()
		w = file
		fmt.Fprintf(os.Stderr, "report written to %s\n", output)
	}
	return formatter.Format(w, validationReport)
}
