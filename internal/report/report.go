package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/prosaic-dev/prosaic/internal/domain"
)

// frontmatter holds the document metadata fields the report cares about.
type frontmatter struct {
	Title string `yaml:"title"`
}

// DocumentTitle extracts the title from a document's YAML frontmatter.
// Falls back to the first ATX heading, then to the file path.
func DocumentTitle(doc domain.Document) string {
	if len(doc.Lines) > 0 && strings.TrimSpace(doc.Lines[0]) == "---" {
		var block []string
		for _, line := range doc.Lines[1:] {
			if strings.TrimSpace(line) == "---" {
				var fm frontmatter
				if err := yaml.Unmarshal([]byte(strings.Join(block, "\n")), &fm); err == nil && fm.Title != "" {
					return fm.Title
				}
				break
			}
			block = append(block, line)
		}
	}

	for _, line := range doc.Lines {
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
	}
	return doc.Path
}

// Generator renders suggestion batches as a markdown report.
type Generator struct {
	// Now supplies the report timestamp. Defaults to time.Now.
	Now func() time.Time
}

// NewGenerator creates a report generator.
func NewGenerator() *Generator {
	return &Generator{Now: time.Now}
}

// Generate renders a markdown summary of the suggestions, grouped by
// file. Titles map file paths to display titles and may be nil.
func (g *Generator) Generate(suggestions []domain.Suggestion, titles map[string]string) string {
	var b strings.Builder

	b.WriteString("# Prose Review Report\n\n")

	if len(suggestions) == 0 {
		b.WriteString("No suggestions. All checked documents are clean.\n")
		g.writeFooter(&b)
		return b.String()
	}

	byFile := make(map[string][]domain.Suggestion)
	var files []string
	for _, s := range suggestions {
		if _, seen := byFile[s.File]; !seen {
			files = append(files, s.File)
		}
		byFile[s.File] = append(byFile[s.File], s)
	}
	sort.Strings(files)

	styleTotal, grammarTotal := 0, 0
	for _, s := range suggestions {
		if s.Category() == domain.CategoryGrammar {
			grammarTotal++
		} else {
			styleTotal++
		}
	}

	fmt.Fprintf(&b, "%d suggestion(s) across %d file(s): %d style, %d grammar.\n\n",
		len(suggestions), len(files), styleTotal, grammarTotal)

	for _, file := range files {
		title := file
		if t, ok := titles[file]; ok && t != "" {
			title = t
		}
		fmt.Fprintf(&b, "## %s\n\n", title)
		if title != file {
			fmt.Fprintf(&b, "`%s`\n\n", file)
		}

		b.WriteString("| Line | Category | Original | Suggested | Reason |\n")
		b.WriteString("| ---- | -------- | -------- | --------- | ------ |\n")

		entries := byFile[file]
		domain.SortByLine(entries)
		for _, s := range entries {
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
				s.Line,
				s.Category(),
				escapeCell(s.Original),
				escapeCell(s.Suggested),
				escapeCell(s.Reason),
			)
		}
		b.WriteString("\n")
	}

	g.writeFooter(&b)
	return b.String()
}

func (g *Generator) writeFooter(b *strings.Builder) {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	fmt.Fprintf(b, "---\nGenerated at %s.\n", now().UTC().Format(time.RFC3339))
}

// escapeCell makes a value safe inside a markdown table cell.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
