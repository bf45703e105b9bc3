package analysis

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFormatComment(t *testing.T) {
	report := &AnalysisReport{
		Summary:          "Adds a token-bucket rate limiter.",
		Purpose:          "feature",
		KeyChanges:       []string{"New limiter middleware"},
		CommitHighlights: []string{"abc1234 introduces the bucket"},
		ProductionRisks: []ProductionRisk{
			{Severity: RiskHigh, Area: "API", Description: "Unbounded map growth", Recommendation: "Evict idle buckets"},
		},
		CodeQuality:        CodeQuality{Score: 8, Strengths: []string{"Clear naming"}, Concerns: []string{"No benchmark"}},
		TestingNotes:       "Happy path only.",
		BreakingChanges:    []string{"Removes the legacy limit header"},
		SuggestedReviewers: []string{"Gateway owner"},
		OverallRiskLevel:   RiskMedium,
		Labels:             []string{"risk:medium"},
	}

	body := FormatComment(report, "claude-sonnet-4-20250514")

	for _, want := range []string{
		"## 🤖 PR Assistant Analysis",
		"**Overall Risk Level:** 🟡 `MEDIUM`",
		"**Code Quality:** **8/10**",
		"**Type:** feature",
		"Adds a token-bucket rate limiter.",
		"| 🟠 **HIGH** | API | Unbounded map growth | Evict idle buckets |",
		"> ⚠️ Removes the legacy limit header",
		"- ✅ Clear naming",
		"- ⚠️ No benchmark",
		"- 👤 Gateway owner",
		"`risk:medium`",
		"Model: `claude-sonnet-4-20250514`",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("comment missing %q", want)
		}
	}
}

func TestFormatCommentEmptyReport(t *testing.T) {
	report := &AnalysisReport{}
	report.normalize()

	body := FormatComment(report, "m")

	for _, want := range []string{
		"`UNKNOWN`",
		"_No summary generated_",
		"_No production risks identified_ ✅",
		"_None detected_",
		"_No testing observations_",
		"_None_",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("comment missing %q", want)
		}
	}
}

func TestFormatFailureComment(t *testing.T) {
	body := FormatFailureComment("model API error: timeout")
	if !strings.Contains(body, "## 🤖 PR Assistant Analysis") {
		t.Error("failure comment missing title")
	}
	if !strings.Contains(body, "Analysis failed: model API error: timeout") {
		t.Error("failure comment missing reason")
	}
}

func TestFormatUnparsableComment(t *testing.T) {
	raw := strings.Repeat("a", 2500)
	body := FormatUnparsableComment(raw)

	if !strings.Contains(body, "Could not parse AI response") {
		t.Error("diagnostic comment missing notice")
	}
	if !strings.Contains(body, strings.Repeat("a", 1000)) {
		t.Error("raw excerpt should keep the first 1000 characters")
	}
	if strings.Contains(body, strings.Repeat("a", 1001)) {
		t.Error("raw excerpt must be bounded to 1000 characters")
	}

	short := FormatUnparsableComment("tiny")
	if !strings.Contains(short, "tiny") {
		t.Error("short raw output should be embedded whole")
	}
}

func TestFormatUnparsableCommentRuneBoundary(t *testing.T) {
	// "日" occupies bytes 999-1001, straddling the 1000-byte excerpt limit.
	raw := strings.Repeat("a", 999) + "日本語 analysis prose"
	body := FormatUnparsableComment(raw)

	if !utf8.ValidString(body) {
		t.Error("diagnostic comment contains invalid UTF-8")
	}
	if !strings.Contains(body, strings.Repeat("a", 999)) {
		t.Error("raw excerpt should keep the leading characters")
	}
	if strings.Contains(body, "日") {
		t.Error("rune straddling the limit must be dropped, not split")
	}
}
