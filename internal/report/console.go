package report

import (
	"fmt"
	"io"

	"github.com/slatehq/slate/model"
)

// consoleFormatter prints one status line per schema plus a closing summary.
type consoleFormatter struct {
	opts Options
}

func (f *consoleFormatter) Format(w io.Writer, report model.ValidationReport) error {
	for _, r := range report.Results {
		if err := f.formatResult(w, r); err != nil {
			return err
		}
	}
	return f.formatSummary(w, report.Summary)
}

func (f *consoleFormatter) formatResult(w io.Writer, r model.ValidationResult) error {
	icon := "✅"
	if !r.Valid {
		icon = "❌"
	} else if len(r.Warnings) > 0 {
		icon = "⚠️"
	}
	if _, err := fmt.Fprintf(w, "%s %s (score %d)\n", icon, displayName(r), r.Score); err != nil {
		return err
	}

	for _, issue := range r.Errors {
		fmt.Fprintf(w, "   ❌ [%s] %s: %s\n", issue.Code, issue.Path, issue.Message)
		f.details(w, issue.Details)
	}
	if f.opts.ShowWarnings {
		for _, issue := range r.Warnings {
			fmt.Fprintf(w, "   ⚠️  [%s] %s: %s\n", issue.Code, issue.Path, issue.Message)
			f.details(w, issue.Details)
		}
	}
	if f.opts.ShowTips {
		for _, tip := range r.PerformanceTips {
			fmt.Fprintf(w, "   💡 [%s] %s\n", tip.Code, tip.Message)
			if f.opts.Verbose {
				fmt.Fprintf(w, "      suggestion: %s (impact: %s)\n", tip.Suggestion, tip.ExpectedImpact)
			}
		}
	}
	return nil
}

func (f *consoleFormatter) details(w io.Writer, details []string) {
	if !f.opts.Verbose {
		return
	}
	for _, d := range details {
		fmt.Fprintf(w, "      - %s\n", d)
	}
}

func (f *consoleFormatter) formatSummary(w io.Writer, s model.ValidationSummary) error {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Validated %d schema(s): %d valid, %d invalid\n",
		s.TotalSchemas, s.ValidSchemas, s.InvalidSchemas)
	fmt.Fprintf(w, "Errors: %d  Warnings: %d  Performance tips: %d\n",
		s.TotalErrors, s.TotalWarnings, s.TotalTips)

	for _, et := range sortedEntityTypes(s) {
		stats := s.ByEntityType[et]
		fmt.Fprintf(w, "  %-15s %d schema(s), average score %.1f\n", et, stats.Count, stats.AverageScore)
	}

	if len(s.Recommendations) > 0 {
		fmt.Fprintln(w, "\nRecommendations:")
		for _, rec := range s.Recommendations {
			fmt.Fprintf(w, "  - %s\n", rec)
		}
	}
	return nil
}
