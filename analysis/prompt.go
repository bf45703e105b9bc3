package analysis

import (
	"fmt"
	"strings"

	"github.com/prassist/prassist/github"
)

const systemPromptHead = `You are an expert senior software engineer and code review assistant embedded as a GitHub bot.
Your job is to analyze a Pull Request and produce a structured, insightful report in Markdown.

You MUST respond with ONLY a single JSON object (no prose before or after it) wrapped in a ` + "```json" + ` block.

The JSON must have exactly this shape:
` + "```json" + `
{
  "summary": "string - 2-4 sentence high-level summary of what this PR does",
  "purpose": "string - the WHY behind this PR (feature / bugfix / refactor / docs / chore / perf)",
  "keyChanges": ["string", "string"],
  "commitHighlights": ["string"],
  "productionRisks": [
    {
      "severity": "critical | high | medium | low",
      "area": "string - e.g. 'Database', 'Auth', 'API'",
      "description": "string",
      "recommendation": "string"
    }
  ],
  "codeQuality": {
    "score": "number 1-10",
    "strengths": ["string"],
    "concerns": ["string"]
  },
  "testingNotes": "string - observations about test coverage or missing tests",
  "breakingChanges": ["string"],
  "suggestedReviewers": ["string - describe the type of reviewer needed, not names"],
  "overallRiskLevel": "critical | high | medium | low",
  "labels": ["string - concise GitHub label names like 'risk:high', 'needs-tests', 'breaking-change'"]
}
` + "```" + `

Guidelines:
- Be specific, not generic. Reference actual file names and code patterns from the diff.
- For production risks, think about: DB migrations, auth bypasses, N+1 queries, race conditions, secret exposure, breaking API contracts, missing error handling.
- Breaking changes = anything that breaks existing API contracts, DB schema, or configuration.
- Keep each string under 200 characters.
- If a section has nothing to report, use an empty array [] or "None identified.".`

// BuildSystemPrompt returns the system prompt, optionally extended with
// repository-specific reviewer instructions.
func BuildSystemPrompt(instructions string) string {
	if instructions == "" {
		return systemPromptHead
	}
	return systemPromptHead + "\n\n## Repository-Specific Instructions\n\n" + instructions
}

// BuildUserPrompt assembles the PR metadata, commits, and per-file diffs into
// the user prompt.
func BuildUserPrompt(pr *github.PullRequest, repoFullName string, files []github.ChangedFile, commits []github.CommitSummary) string {
	var b strings.Builder

	description := pr.Body
	if description == "" {
		description = "_No description provided_"
	}

	author := ""
	if pr.User != nil {
		author = pr.User.Login
	}
	baseRef, headRef := "", ""
	if pr.Base != nil {
		baseRef = pr.Base.Ref
	}
	if pr.Head != nil {
		headRef = pr.Head.Ref
	}

	fmt.Fprintf(&b, `## Pull Request Details

**Title:** %s
**Author:** %s
**Base branch:** `+"`%s`"+` <- **Head branch:** `+"`%s`"+`
**Repository:** %s
**Description:**
%s

**Stats:** %d additions, %d deletions, %d files changed

---

## Commits (%d)
%s

---

## Changed Files & Diffs (%d shown)
%s

---

Now analyze this PR and return the JSON report as instructed.`,
		pr.Title, author, baseRef, headRef, repoFullName, description,
		pr.Additions, pr.Deletions, pr.ChangedFiles,
		len(commits), formatCommits(commits),
		len(files), formatFiles(files),
	)

	return b.String()
}

func formatCommits(commits []github.CommitSummary) string {
	if len(commits) == 0 {
		return "_No commits found_"
	}

	lines := make([]string, len(commits))
	for i, c := range commits {
		date := c.Date
		if len(date) > 10 {
			date = date[:10]
		}
		subject, _, _ := strings.Cut(c.Message, "\n")
		lines[i] = fmt.Sprintf("- `%s` **%s** (%s): %s", c.SHA, c.Author, date, subject)
	}
	return strings.Join(lines, "\n")
}

func formatFiles(files []github.ChangedFile) string {
	if len(files) == 0 {
		return "_No diff available_"
	}

	sections := make([]string, len(files))
	for i, f := range files {
		sections[i] = fmt.Sprintf("### File %d: `%s` [%s] (+%d/-%d)\n```diff\n%s\n```",
			i+1, f.Filename, f.Status, f.Additions, f.Deletions, f.Patch)
	}
	return strings.Join(sections, "\n\n")
}
