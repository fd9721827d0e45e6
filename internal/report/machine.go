package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"

	"github.com/slatehq/slate/model"
)

// jsonFormatter emits the report verbatim for downstream tooling.
type jsonFormatter struct{}

func (f *jsonFormatter) Format(w io.Writer, report model.ValidationReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// markdownFormatter emits a summary table plus per-schema sections, suitable
// for CI job summaries and pull request comments.
type markdownFormatter struct {
	opts Options
}

func (f *markdownFormatter) Format(w io.Writer, report model.ValidationReport) error {
	var b strings.Builder
	s := report.Summary

	b.WriteString("# Layout Validation Report\n\n")
	fmt.Fprintf(&b, "| Schemas | Valid | Invalid | Errors | Warnings |\n")
	fmt.Fprintf(&b, "|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d |\n\n",
		s.TotalSchemas, s.ValidSchemas, s.InvalidSchemas, s.TotalErrors, s.TotalWarnings)

	for _, r := range report.Results {
		status := "valid"
		if !r.Valid {
			status = "invalid"
		}
		fmt.Fprintf(&b, "## %s (%s, score %d)\n\n", displayName(r), status, r.Score)
		for _, issue := range r.Errors {
			fmt.Fprintf(&b, "- **error** `%s` at `%s`: %s\n", issue.Code, issue.Path, issue.Message)
		}
		if f.opts.ShowWarnings {
			for _, issue := range r.Warnings {
				fmt.Fprintf(&b, "- warning `%s` at `%s`: %s\n", issue.Code, issue.Path, issue.Message)
			}
		}
		if f.opts.ShowTips {
			for _, tip := range r.PerformanceTips {
				fmt.Fprintf(&b, "- tip `%s`: %s\n", tip.Code, tip.Message)
			}
		}
		b.WriteString("\n")
	}

	if len(s.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, rec := range s.Recommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// htmlFormatter emits a standalone page. Issue text is user-controlled file
// content, so everything goes through the escaping template engine.
type htmlFormatter struct {
	opts Options
}

var htmlPage = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Layout Validation Report</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
.valid { color: #1a7f37; } .invalid { color: #cf222e; } .warning { color: #9a6700; }
table { border-collapse: collapse; } td, th { border: 1px solid #ccc; padding: 4px 10px; }
</style></head>
<body>
<h1>Layout Validation Report</h1>
<table>
<tr><th>Schemas</th><th>Valid</th><th>Invalid</th><th>Errors</th><th>Warnings</th></tr>
<tr><td>{{.Summary.TotalSchemas}}</td><td>{{.Summary.ValidSchemas}}</td><td>{{.Summary.InvalidSchemas}}</td><td>{{.Summary.TotalErrors}}</td><td>{{.Summary.TotalWarnings}}</td></tr>
</table>
{{range .Results}}
<h2 class="{{if .Valid}}valid{{else}}invalid{{end}}">{{.Name}} (score {{.Score}})</h2>
<ul>
{{range .Errors}}<li class="invalid">[{{.Code}}] {{.Path}}: {{.Message}}</li>{{end}}
{{range .Warnings}}<li class="warning">[{{.Code}}] {{.Path}}: {{.Message}}</li>{{end}}
{{range .Tips}}<li>[{{.Code}}] {{.Message}}</li>{{end}}
</ul>
{{end}}
{{if .Recommendations}}
<h2>Recommendations</h2>
<ul>{{range .Recommendations}}<li>{{.}}</li>{{end}}</ul>
{{end}}
</body>
</html>
`))

type htmlResult struct {
	Name     string
	Valid    bool
	Score    int
	Errors   []model.ValidationIssue
	Warnings []model.ValidationIssue
	Tips     []model.PerformanceTip
}

func (f *htmlFormatter) Format(w io.Writer, report model.ValidationReport) error {
	results := make([]htmlResult, 0, len(report.Results))
	for _, r := range report.Results {
		hr := htmlResult{
			Name:   displayName(r),
			Valid:  r.Valid,
			Score:  r.Score,
			Errors: r.Errors,
		}
		if f.opts.ShowWarnings {
			hr.Warnings = r.Warnings
		}
		if f.opts.ShowTips {
			hr.Tips = r.PerformanceTips
		}
		results = append(results, hr)
	}
	return htmlPage.Execute(w, map[string]any{
		"Summary":         report.Summary,
		"Results":         results,
		"Recommendations": report.Summary.Recommendations,
	})
}

func sortedEntityTypes(s model.ValidationSummary) []string {
	out := make([]string, 0, len(s.ByEntityType))
	for et := range s.ByEntityType {
		out = append(out, et)
	}
	sort.Strings(out)
	return out
}
