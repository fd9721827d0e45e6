package model

import "time"

// Issue severities. Warnings never affect validity; errors and criticals do.
const (
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Performance tip impact levels.
const (
	ImpactMinor       = "minor"
	ImpactModerate    = "moderate"
	ImpactSignificant = "significant"
)

// ValidationIssue is a single finding against a layout configuration.
type ValidationIssue struct {
	Path     string   `json:"path"`
	Code     string   `json:"code"`
	Severity string   `json:"severity"`
	Message  string   `json:"message"`
	Details  []string `json:"details,omitempty"`
}

// PerformanceTip is an advisory finding. Tips never affect validity or score.
type PerformanceTip struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	Suggestion     string `json:"suggestion,omitempty"`
	ExpectedImpact string `json:"expectedImpact"`
}

// AutoFix describes a deterministic repair the validator can apply to the
// source document.
type AutoFix struct {
	Code        string `json:"code"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// ValidationResult is the complete outcome of validating one configuration.
// It is ephemeral: recomputed on demand and cached only per content checksum
// for the lifetime of one validator instance.
type ValidationResult struct {
	LayoutID        string            `json:"layoutId,omitempty"`
	EntityType      string            `json:"entityType,omitempty"`
	SourceFile      string            `json:"sourceFile,omitempty"`
	Valid           bool              `json:"valid"`
	Errors          []ValidationIssue `json:"errors"`
	Warnings        []ValidationIssue `json:"warnings"`
	PerformanceTips []PerformanceTip  `json:"performanceTips"`
	Fixes           []AutoFix         `json:"fixes,omitempty"`
	Score           int               `json:"score"`
}

// ErrorCount returns the number of findings with severity error or critical.
func (r ValidationResult) ErrorCount() int {
	n := 0
	for _, issue := range r.Errors {
		if issue.Severity == SeverityError || issue.Severity == SeverityCritical {
			n++
		}
	}
	return n
}

// HasCode reports whether any error carries the given code.
func (r ValidationResult) HasCode(code string) bool {
	for _, issue := range r.Errors {
		if issue.Code == code {
			return true
		}
	}
	return false
}

// TipCount returns the number of tips with the given code.
func (r ValidationResult) TipCount(code string) int {
	n := 0
	for _, tip := range r.PerformanceTips {
		if tip.Code == code {
			n++
		}
	}
	return n
}

// Scoring constants: each error deducts 10 points, each warning 2.
const (
	scorePerfect          = 100
	scoreErrorDeduction   = 10
	scoreWarningDeduction = 2
)

// ComputeScore derives the 0-100 score from error and warning counts.
func ComputeScore(errorCount, warningCount int) int {
	score := scorePerfect - scoreErrorDeduction*errorCount - scoreWarningDeduction*warningCount
	if score < 0 {
		return 0
	}
	return score
}

// EntityTypeStats aggregates validation outcomes for one entity type.
// AverageScore is a true cumulative mean over all results seen.
type EntityTypeStats struct {
	Count         int     `json:"count"`
	ValidCount    int     `json:"validCount"`
	TotalErrors   int     `json:"totalErrors"`
	TotalWarnings int     `json:"totalWarnings"`
	AverageScore  float64 `json:"averageScore"`

	// ScoreSum carries the running sum the mean is derived from. Not part
	// of the serialized report.
	ScoreSum int `json:"-"`
}

// Accumulate folds one result into the stats and recomputes the mean.
func (s *EntityTypeStats) Accumulate(r ValidationResult) {
	s.Count++
	if r.Valid {
		s.ValidCount++
	}
	s.TotalErrors += len(r.Errors)
	s.TotalWarnings += len(r.Warnings)
	s.ScoreSum += r.Score
	s.AverageScore = float64(s.ScoreSum) / float64(s.Count)
}

// ValidationSummary aggregates a batch validation run.
type ValidationSummary struct {
	TotalSchemas    int                         `json:"totalSchemas"`
	ValidSchemas    int                         `json:"validSchemas"`
	InvalidSchemas  int                         `json:"invalidSchemas"`
	TotalErrors     int                         `json:"totalErrors"`
	TotalWarnings   int                         `json:"totalWarnings"`
	TotalTips       int                         `json:"totalTips"`
	ByEntityType    map[string]*EntityTypeStats `json:"byEntityType"`
	Recommendations []string                    `json:"recommendations"`
	GeneratedAt     time.Time                   `json:"generatedAt"`
}

// ValidationReport is the serialized shape of a batch run: the summary plus
// every per-file result.
type ValidationReport struct {
	Summary ValidationSummary  `json:"summary"`
	Results []ValidationResult `json:"results"`
}
