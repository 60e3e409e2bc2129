package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Extraction holds the prose extracted from a document together with the
// index mapping extracted-text line numbers back to original line numbers.
type Extraction struct {
	// Text is the retained prose lines, markup stripped, joined by "\n".
	Text string

	// Index maps extracted-text line number (0-based, dense) to original
	// document line number (0-based, sparse). Strictly increasing, one
	// entry per retained line.
	Index []int
}

// Empty reports whether no prose was retained.
func (e *Extraction) Empty() bool {
	return len(e.Index) == 0
}

// OriginalLine resolves an extracted-text line number to its original
// document line number.
func (e *Extraction) OriginalLine(extracted int) (int, bool) {
	if extracted < 0 || extracted >= len(e.Index) {
		return 0, false
	}
	return e.Index[extracted], true
}

// Extract selects the prose lines of a document, strips inline markup
// from each, and builds the extraction index.
func Extract(lines []string) *Extraction {
	return ExtractWithMask(lines, NewBlockMask(lines))
}

// ExtractWithMask is Extract with a precomputed block mask, so callers
// running several analyzers over one document scan it only once.
//
// A line is retained iff it is not: inside a code block, inside
// frontmatter, a heading, a list item, a fence delimiter, a
// link-reference definition, or blank. Lines whose stripped text is empty
// are also dropped and consume no index slot.
func ExtractWithMask(lines []string, mask *BlockMask) *Extraction {
	var textLines []string
	var index []int

	for i, line := range lines {
		if mask.InCodeBlock(i) || mask.InFrontmatter(i) ||
			IsHeading(line) || IsListItem(line) || IsFenceLine(line) ||
			IsLinkReference(line) || IsBlank(line) {
			continue
		}

		stripped := StripInline(line)
		if strings.TrimSpace(stripped) == "" {
			continue
		}

		textLines = append(textLines, stripped)
		index = append(index, i)
	}

	return &Extraction{
		Text:  strings.Join(textLines, "\n"),
		Index: index,
	}
}

// inlineMarkdown is shared across calls; goldmark parsers are safe for
// concurrent use.
var inlineMarkdown = goldmark.New()

// StripInline reduces a single markdown line to its visible text content:
// emphasis, links and code spans collapse to their text. The transform is
// lossy and one-way; no round-trip to markdown is guaranteed.
func StripInline(line string) string {
	src := []byte(line)
	doc := inlineMarkdown.Parser().Parse(text.NewReader(src))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
		case *ast.String:
			b.Write(t.Value)
		case *ast.AutoLink:
			b.Write(t.Label(src))
		}
		return ast.WalkContinue, nil
	})

	return b.String()
}
