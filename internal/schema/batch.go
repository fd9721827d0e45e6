package schema

import (
	"fmt"
	"sort"
	"time"

	"github.com/slatehq/slate/internal/layout"
	"github.com/slatehq/slate/model"
)

// ValidateAll validates every document independently. A document that fails
// to parse contributes a single invalid result and never affects its
// neighbors. Result order follows input order.
func (v *Validator) ValidateAll(docs []layout.Document) model.ValidationReport {
	results := make([]model.ValidationResult, 0, len(docs))
	for _, doc := range docs {
		results = append(results, v.Validate(doc))
	}
	return model.ValidationReport{
		Summary: Summarize(results),
		Results: results,
	}
}

// Summarize aggregates results into a ValidationSummary. Per-entity average
// scores are true cumulative means over all results for that entity type,
// not running averages.
func Summarize(results []model.ValidationResult) model.ValidationSummary {
	summary := model.ValidationSummary{
		TotalSchemas: len(results),
		ByEntityType: make(map[string]*model.EntityTypeStats),
		GeneratedAt:  time.Now().UTC(),
	}

	for i := range results {
		r := &results[i]
		if r.Valid {
			summary.ValidSchemas++
		} else {
			summary.InvalidSchemas++
		}
		summary.TotalErrors += len(r.Errors)
		summary.TotalWarnings += len(r.Warnings)
		summary.TotalTips += len(r.PerformanceTips)

		key := r.EntityType
		if key == "" {
			key = "unknown"
		}
		stats, ok := summary.ByEntityType[key]
		if !ok {
			stats = &model.EntityTypeStats{}
			summary.ByEntityType[key] = stats
		}
		stats.Accumulate(*r)
	}

	summary.Recommendations = recommendations(summary, results)
	return summary
}

// recommendations derives human-readable follow-ups from aggregate findings.
func recommendations(summary model.ValidationSummary, results []model.ValidationResult) []string {
	var recs []string

	if summary.InvalidSchemas > 0 {
		recs = append(recs, fmt.Sprintf(
			"fix %d invalid schema(s) before deploying layout changes", summary.InvalidSchemas))
	}

	tipCounts := make(map[string]int)
	for i := range results {
		for _, tip := range results[i].PerformanceTips {
			tipCounts[tip.Code]++
		}
	}
	if n := tipCounts[TipMissingThreshold]; n > 0 {
		recs = append(recs, fmt.Sprintf(
			"set virtualizationThreshold on %d content slot(s) using auto virtualization", n))
	}
	if n := tipCounts[TipVirtualizationDisabled]; n > 0 {
		recs = append(recs, fmt.Sprintf(
			"re-enable virtualization on %d content slot(s) to keep large lists responsive", n))
	}

	var lowEntities []string
	for et, stats := range summary.ByEntityType {
		if stats.Count > 0 && stats.AverageScore < 70 {
			lowEntities = append(lowEntities, et)
		}
	}
	sort.Strings(lowEntities)
	for _, et := range lowEntities {
		recs = append(recs, fmt.Sprintf(
			"review %s layouts: average score below 70", et))
	}

	return recs
}
