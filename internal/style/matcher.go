package style

import (
	"github.com/prosaic-dev/prosaic/internal/domain"
	"github.com/prosaic-dev/prosaic/internal/markdown"
)

// Matcher applies an ordered style rule set to document lines.
type Matcher struct {
	rules *RuleSet
}

// NewMatcher creates a matcher over the given rule set.
func NewMatcher(rules *RuleSet) *Matcher {
	return &Matcher{rules: rules}
}

// Check evaluates every line of the document and returns at most one
// suggestion per line.
func (m *Matcher) Check(doc domain.Document) []domain.Suggestion {
	return m.CheckWithMask(doc, markdown.NewBlockMask(doc.Lines))
}

// CheckWithMask is Check with a precomputed block mask.
//
// Lines inside fenced code or frontmatter are skipped. For the rest,
// rules are evaluated in order: the first rule whose pattern matches is
// applied as a global substitution across the line; if the rewrite
// changes the line, one suggestion is emitted and no further rules are
// tried for that line. A rule whose rewrite is a no-op does not stop the
// scan.
func (m *Matcher) CheckWithMask(doc domain.Document, mask *markdown.BlockMask) []domain.Suggestion {
	var suggestions []domain.Suggestion

	for i, line := range doc.Lines {
		if mask.InCodeBlock(i) || mask.InFrontmatter(i) {
			continue
		}

		for _, rule := range m.rules.rules {
			if !rule.re.MatchString(line) {
				continue
			}

			suggested := rule.re.ReplaceAllString(line, rule.replacement)
			if suggested == line {
				continue
			}

			suggestions = append(suggestions, domain.Suggestion{
				File:      doc.Path,
				Line:      i + 1,
				Original:  line,
				Suggested: suggested,
				Reason:    domain.TagReason(rule.reason, domain.CategoryStyle),
			})
			break
		}
	}

	return suggestions
}
