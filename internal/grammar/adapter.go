package grammar

import (
	"context"
	"log/slog"
	"strings"

	"github.com/prosaic-dev/prosaic/internal/domain"
	"github.com/prosaic-dev/prosaic/internal/markdown"
)

// defaultMessage stands in for matches the service reported without a
// message.
const defaultMessage = "Grammar issue"

// Adapter resolves checker matches back to original document lines
// through the extraction index.
type Adapter struct {
	checker Checker
}

// NewAdapter creates an adapter over the given checker.
func NewAdapter(checker Checker) *Adapter {
	return &Adapter{checker: checker}
}

// Suggest checks the extracted prose of a document and returns line-level
// suggestions. A checker failure is logged as a warning and yields an
// empty set; it never aborts the surrounding run.
func (a *Adapter) Suggest(ctx context.Context, doc domain.Document, ext *markdown.Extraction) []domain.Suggestion {
	if ext.Empty() || strings.TrimSpace(ext.Text) == "" {
		return nil
	}

	matches, err := a.checker.Check(ctx, ext.Text)
	if err != nil {
		slog.Warn("Grammar check failed", "file", doc.Path, "error", err)
		return nil
	}

	return resolve(doc, ext, matches)
}

// resolve maps service matches to suggestions. A match is dropped when
// its context-derived error text cannot be located verbatim in the
// resolved original line, or when the service offers no replacement:
// partial matches are not surfaced rather than risking a wrong rewrite.
func resolve(doc domain.Document, ext *markdown.Extraction, matches []Match) []domain.Suggestion {
	var suggestions []domain.Suggestion

	for _, match := range matches {
		// The service reports character offsets, not byte offsets;
		// convert before slicing or any non-ASCII rune earlier in the
		// text shifts the match onto the wrong line.
		offset := charToByteOffset(ext.Text, match.Offset)
		textLine := strings.Count(ext.Text[:offset], "\n")

		origLine, ok := ext.OriginalLine(textLine)
		if !ok || origLine >= len(doc.Lines) {
			continue
		}
		original := doc.Lines[origLine]

		errText := match.ErrorText()
		if errText == "" || len(match.Replacements) == 0 {
			continue
		}
		replacement := match.Replacements[0].Value
		if replacement == "" || !strings.Contains(original, errText) {
			continue
		}

		suggested := strings.ReplaceAll(original, errText, replacement)
		if suggested == original {
			continue
		}

		message := match.Message
		if message == "" {
			message = defaultMessage
		}

		suggestions = append(suggestions, domain.Suggestion{
			File:      doc.Path,
			Line:      origLine + 1,
			Original:  original,
			Suggested: suggested,
			Reason:    domain.TagReason(message, domain.CategoryGrammar),
		})
	}

	return suggestions
}

// charToByteOffset converts a character (code point) offset into a byte
// offset into s, clamped to [0, len(s)].
func charToByteOffset(s string, chars int) int {
	if chars <= 0 {
		return 0
	}
	n := 0
	for i := range s {
		if n == chars {
			return i
		}
		n++
	}
	return len(s)
}
