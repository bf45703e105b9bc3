// Package analysis turns pull-request metadata into a structured AI review and
// a published PR comment.
package analysis

import (
	"strings"

	"github.com/prassist/prassist/ai"
)

// Risk levels, in decreasing severity.
const (
	RiskCritical = "critical"
	RiskHigh     = "high"
	RiskMedium   = "medium"
	RiskLow      = "low"
)

// ProductionRisk is a single risk identified by the model.
type ProductionRisk struct {
	Severity       string `json:"severity"`
	Area           string `json:"area"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
}

// CodeQuality is the model's assessment of the change's quality.
type CodeQuality struct {
	Score     int      `json:"score"` // 1-10
	Strengths []string `json:"strengths"`
	Concerns  []string `json:"concerns"`
}

// AnalysisReport is the structured review returned by the model. A report is
// either fully parsed and normalized, or absent; callers never see a partially
// trusted one.
type AnalysisReport struct {
	Summary            string           `json:"summary"`
	Purpose            string           `json:"purpose"`
	KeyChanges         []string         `json:"keyChanges"`
	CommitHighlights   []string         `json:"commitHighlights"`
	ProductionRisks    []ProductionRisk `json:"productionRisks"`
	CodeQuality        CodeQuality      `json:"codeQuality"`
	TestingNotes       string           `json:"testingNotes"`
	BreakingChanges    []string         `json:"breakingChanges"`
	SuggestedReviewers []string         `json:"suggestedReviewers"`
	OverallRiskLevel   string           `json:"overallRiskLevel"`
	Labels             []string         `json:"labels"`
}

// ParseReport extracts and normalizes an AnalysisReport from raw model output.
// Returns ai.ErrNoStructuredResult when no JSON could be recovered.
func ParseReport(text string) (*AnalysisReport, error) {
	var report AnalysisReport
	if err := ai.ExtractJSON(text, &report); err != nil {
		return nil, err
	}
	report.normalize()
	return &report, nil
}

// normalize fills nil slices, lowercases risk levels and clamps the quality
// score so the renderer works with a uniform shape.
func (r *AnalysisReport) normalize() {
	if r.KeyChanges == nil {
		r.KeyChanges = []string{}
	}
	if r.CommitHighlights == nil {
		r.CommitHighlights = []string{}
	}
	if r.ProductionRisks == nil {
		r.ProductionRisks = []ProductionRisk{}
	}
	if r.BreakingChanges == nil {
		r.BreakingChanges = []string{}
	}
	if r.SuggestedReviewers == nil {
		r.SuggestedReviewers = []string{}
	}
	if r.Labels == nil {
		r.Labels = []string{}
	}
	if r.CodeQuality.Strengths == nil {
		r.CodeQuality.Strengths = []string{}
	}
	if r.CodeQuality.Concerns == nil {
		r.CodeQuality.Concerns = []string{}
	}

	r.OverallRiskLevel = strings.ToLower(strings.TrimSpace(r.OverallRiskLevel))
	for i := range r.ProductionRisks {
		r.ProductionRisks[i].Severity = strings.ToLower(strings.TrimSpace(r.ProductionRisks[i].Severity))
	}

	if r.CodeQuality.Score < 0 {
		r.CodeQuality.Score = 0
	}
	if r.CodeQuality.Score > 10 {
		r.CodeQuality.Score = 10
	}
}

// IsKnownRiskLevel reports whether level is one of the defined risk levels.
func IsKnownRiskLevel(level string) bool {
	switch level {
	case RiskCritical, RiskHigh, RiskMedium, RiskLow:
		return true
	}
	return false
}
