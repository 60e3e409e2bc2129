package github

import (
	"fmt"
	"strings"

	"github.com/prosaic-dev/prosaic/internal/domain"
)

// CommentBody renders one suggestion as a review comment body with a
// committable suggestion block.
func CommentBody(s domain.Suggestion) string {
	var b strings.Builder

	label := "Style"
	if s.Category() == domain.CategoryGrammar {
		label = "Grammar"
	}

	reason := strings.TrimSpace(s.Reason)
	if reason == "" {
		reason = fmt.Sprintf("%s suggestion", label)
	}

	b.WriteString(fmt.Sprintf("**%s**: %s\n\n", label, reason))
	b.WriteString("```suggestion\n")
	b.WriteString(s.Suggested)
	b.WriteString("\n```\n")
	return b.String()
}

// FormatComments converts suggestions into line-anchored review comments
// on the right-hand side of the diff. Suggestions whose rewrite equals
// the original line carry nothing committable and are skipped.
func FormatComments(suggestions []domain.Suggestion) []ReviewComment {
	var comments []ReviewComment

	for _, s := range suggestions {
		if s.Line <= 0 || s.Suggested == s.Original {
			continue
		}
		comments = append(comments, ReviewComment{
			Path: s.File,
			Line: s.Line,
			Side: "RIGHT",
			Body: CommentBody(s),
		})
	}

	return comments
}

// ReviewSummary renders the top-level review body for a batch of
// suggestions.
func ReviewSummary(count int) string {
	if count == 1 {
		return "Automated prose review found 1 suggestion."
	}
	return fmt.Sprintf("Automated prose review found %d suggestions.", count)
}
