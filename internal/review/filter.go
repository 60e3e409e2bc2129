package review

import (
	"path/filepath"
	"strings"
)

// DefaultExcludePatterns lists paths skipped when walking a directory for
// markdown documents. These cover dependency directories, build outputs
// and vendored docs that are not the project's own prose.
var DefaultExcludePatterns = []string{
	"node_modules/**", "vendor/**", "venv/**", ".venv/**",
	"target/**", "build/**", "dist/**", "out/**",
	".git/**", "_site/**", ".cache/**",
	"CHANGELOG.md", "LICENSE.md",
}

// DocFilter decides which files a directory review visits.
type DocFilter struct {
	patterns []string
}

// NewDocFilter creates a filter with the default exclusion patterns.
func NewDocFilter() *DocFilter {
	return &DocFilter{patterns: DefaultExcludePatterns}
}

// NewDocFilterWithPatterns creates a filter with custom patterns.
func NewDocFilterWithPatterns(patterns []string) *DocFilter {
	return &DocFilter{patterns: patterns}
}

// ShouldExclude returns true if the given path matches any exclusion
// pattern. The path should be relative to the walk root.
func (f *DocFilter) ShouldExclude(relPath string) bool {
	relPath = filepath.ToSlash(relPath)

	for _, pattern := range f.patterns {
		if matchPattern(pattern, relPath) {
			return true
		}
	}
	return false
}

// matchPattern matches a relative path against a glob pattern, supporting
// a trailing /** for directory subtrees.
func matchPattern(pattern, path string) bool {
	if strings.HasSuffix(pattern, "/**") {
		dir := pattern[:len(pattern)-3]
		if path == dir || strings.HasPrefix(path, dir+"/") {
			return true
		}
		parts := strings.Split(path, "/")
		for i, part := range parts {
			if part == dir && i < len(parts)-1 {
				return true
			}
		}
		return false
	}

	if matched, _ := filepath.Match(pattern, path); matched {
		return true
	}
	matched, _ := filepath.Match(pattern, filepath.Base(path))
	return matched
}
