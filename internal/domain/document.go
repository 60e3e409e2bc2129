package domain

import (
	"os"
	"strings"
)

// Document is an ordered sequence of source lines identified by a file
// path. Immutable once loaded.
type Document struct {
	Path  string
	Lines []string
}

// NewDocument splits content into lines. Line endings are not preserved;
// a trailing newline produces a final empty line, matching a plain
// split on "\n".
func NewDocument(path, content string) Document {
	return Document{Path: path, Lines: strings.Split(content, "\n")}
}

// LoadDocument reads a document from disk.
func LoadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	return NewDocument(path, string(data)), nil
}

// IsMarkdownPath reports whether path has a markdown extension (.md or .mdx).
func IsMarkdownPath(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".mdx")
}
