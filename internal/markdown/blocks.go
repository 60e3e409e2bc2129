package markdown

import (
	"regexp"
	"strings"
)

var (
	headingRe  = regexp.MustCompile(`^#+\s`)
	listItemRe = regexp.MustCompile(`^[*-]\s`)
	fenceRe    = regexp.MustCompile("^\\s*```")
	linkRefRe  = regexp.MustCompile(`^\s*\[.*\]:\s*`)
)

// frontmatterMarker delimits a YAML frontmatter block.
const frontmatterMarker = "---"

// BlockMask records, for every line of a document, whether it falls
// inside a fenced code block or YAML frontmatter. Both flags are computed
// in a single forward pass over the document, so membership checks are
// O(1) afterwards.
type BlockMask struct {
	inCode        []bool
	inFrontmatter []bool
}

// NewBlockMask scans lines once and builds the mask.
//
// A line beginning with a triple-backtick fence toggles code-block state;
// line i is inside a code block iff the count of fence lines before it is
// odd. Frontmatter is only recognized when line 0 is exactly "---"; line i
// is inside frontmatter iff i == 0 or the count of "---" lines before it
// is odd.
func NewBlockMask(lines []string) *BlockMask {
	m := &BlockMask{
		inCode:        make([]bool, len(lines)),
		inFrontmatter: make([]bool, len(lines)),
	}

	hasFrontmatter := len(lines) > 0 && strings.TrimSpace(lines[0]) == frontmatterMarker

	fences := 0
	markers := 0
	for i, line := range lines {
		m.inCode[i] = fences%2 == 1
		if hasFrontmatter {
			m.inFrontmatter[i] = i == 0 || markers%2 == 1
		}

		if strings.HasPrefix(line, "```") {
			fences++
		}
		if strings.TrimSpace(line) == frontmatterMarker {
			markers++
		}
	}

	return m
}

// InCodeBlock reports whether line i lies strictly inside a fenced code
// block. Fence delimiter lines themselves are not inside the block.
func (m *BlockMask) InCodeBlock(i int) bool {
	if i < 0 || i >= len(m.inCode) {
		return false
	}
	return m.inCode[i]
}

// InFrontmatter reports whether line i lies inside YAML frontmatter,
// including the delimiter lines.
func (m *BlockMask) InFrontmatter(i int) bool {
	if i < 0 || i >= len(m.inFrontmatter) {
		return false
	}
	return m.inFrontmatter[i]
}

// Len returns the number of lines covered by the mask.
func (m *BlockMask) Len() int {
	return len(m.inCode)
}

// IsHeading reports whether line is a markdown heading.
func IsHeading(line string) bool {
	return headingRe.MatchString(line)
}

// IsListItem reports whether line starts a list item.
func IsListItem(line string) bool {
	return listItemRe.MatchString(line)
}

// IsFenceLine reports whether line is a code-fence delimiter.
func IsFenceLine(line string) bool {
	return fenceRe.MatchString(line)
}

// IsLinkReference reports whether line is a link-reference definition
// ("[label]: url" form).
func IsLinkReference(line string) bool {
	return linkRefRe.MatchString(line)
}

// IsBlank reports whether line is empty or whitespace-only.
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
