package analysis

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// commentTitle heads every bot comment, full report or degraded.
const commentTitle = "## 🤖 PR Assistant Analysis"

// rawExcerptLimit bounds the raw model output embedded in a parse-failure
// comment.
const rawExcerptLimit = 1000

var riskEmoji = map[string]string{
	RiskCritical: "🔴",
	RiskHigh:     "🟠",
	RiskMedium:   "🟡",
	RiskLow:      "🟢",
}

func emojiFor(level string) string {
	if e, ok := riskEmoji[level]; ok {
		return e
	}
	return "⚪"
}

// FormatComment renders the full Markdown report for a parsed analysis.
func FormatComment(report *AnalysisReport, model string) string {
	var b strings.Builder

	risk := report.OverallRiskLevel
	if risk == "" {
		risk = "unknown"
	}
	quality := "N/A"
	if report.CodeQuality.Score > 0 {
		quality = fmt.Sprintf("**%d/10**", report.CodeQuality.Score)
	}
	purpose := report.Purpose
	if purpose == "" {
		purpose = "Unknown"
	}
	summary := report.Summary
	if summary == "" {
		summary = "_No summary generated_"
	}
	testingNotes := report.TestingNotes
	if testingNotes == "" {
		testingNotes = "_No testing observations_"
	}

	fmt.Fprintf(&b, "%s\n\n", commentTitle)
	fmt.Fprintf(&b, "> **Overall Risk Level:** %s `%s` &nbsp;|&nbsp; **Code Quality:** %s &nbsp;|&nbsp; **Type:** %s\n",
		emojiFor(risk), strings.ToUpper(risk), quality, purpose)
	fmt.Fprintf(&b, "> *Analyzed at %s*\n\n---\n\n", time.Now().UTC().Format(time.RFC3339))

	fmt.Fprintf(&b, "### 📋 Summary\n%s\n\n---\n\n", summary)
	fmt.Fprintf(&b, "### 🔑 Key Changes\n%s\n\n---\n\n", bulletList(report.KeyChanges, "- "))
	fmt.Fprintf(&b, "### 📝 Commit Highlights\n%s\n\n---\n\n", bulletList(report.CommitHighlights, "- "))
	fmt.Fprintf(&b, "### 🚨 Production Risk Assessment\n%s\n\n---\n\n", risksTable(report.ProductionRisks))
	fmt.Fprintf(&b, "### ⚡ Breaking Changes\n%s\n\n---\n\n", breakingList(report.BreakingChanges))
	fmt.Fprintf(&b, "### 🧪 Testing Notes\n%s\n\n---\n\n", testingNotes)

	fmt.Fprintf(&b, "### 🏆 Code Quality\n**Score:** %s\n\n", quality)
	fmt.Fprintf(&b, "**Strengths:**\n%s\n\n", bulletList(report.CodeQuality.Strengths, "- ✅ "))
	fmt.Fprintf(&b, "**Concerns:**\n%s\n\n---\n\n", bulletList(report.CodeQuality.Concerns, "- ⚠️ "))

	fmt.Fprintf(&b, "### 👥 Suggested Reviewers\n%s\n\n---\n\n", bulletList(report.SuggestedReviewers, "- 👤 "))

	fmt.Fprintf(&b, "<details>\n<summary>🏷️ Suggested Labels</summary>\n\n%s\n</details>\n\n---\n", labelBadges(report.Labels))
	fmt.Fprintf(&b, "<sub>🤖 Generated by GitHub PR Assistant · Model: `%s`</sub>", model)

	return b.String()
}

// FormatFailureComment renders the degraded comment posted when the AI call
// itself failed.
func FormatFailureComment(reason string) string {
	return fmt.Sprintf("%s\n\n> ⚠️ Analysis failed: %s\n\nPlease check the assistant logs.", commentTitle, reason)
}

// FormatUnparsableComment renders the diagnostic comment posted when the model
// responded but no structured report could be extracted. The raw response is
// embedded, bounded to the first 1000 characters.
func FormatUnparsableComment(rawResponse string) string {
	rawResponse = truncateToRuneBoundary(rawResponse, rawExcerptLimit)
	return fmt.Sprintf("%s\n\n> ⚠️ Could not parse AI response. Raw output:\n\n```\n%s\n```", commentTitle, rawResponse)
}

// truncateToRuneBoundary cuts s to at most n bytes without splitting a
// multi-byte rune.
func truncateToRuneBoundary(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func bulletList(items []string, prefix string) string {
	if len(items) == 0 {
		return "_None_"
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = prefix + item
	}
	return strings.Join(lines, "\n")
}

func breakingList(items []string) string {
	if len(items) == 0 {
		return "_None detected_"
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "> ⚠️ " + item
	}
	return strings.Join(lines, "\n")
}

func risksTable(risks []ProductionRisk) string {
	if len(risks) == 0 {
		return "_No production risks identified_ ✅"
	}

	var b strings.Builder
	b.WriteString("| Severity | Area | Issue | Recommendation |\n|---|---|---|---|")
	for _, r := range risks {
		fmt.Fprintf(&b, "\n| %s **%s** | %s | %s | %s |",
			emojiFor(r.Severity), strings.ToUpper(r.Severity), r.Area, r.Description, r.Recommendation)
	}
	return b.String()
}

func labelBadges(labels []string) string {
	if len(labels) == 0 {
		return "_None_"
	}
	badges := make([]string, len(labels))
	for i, l := range labels {
		badges[i] = "`" + l + "`"
	}
	return strings.Join(badges, " ")
}
