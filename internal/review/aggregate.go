package review

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/prosaic-dev/prosaic/internal/domain"
)

// SortMode selects the ordering applied to a combined suggestion list.
type SortMode int

const (
	// SortByLine orders suggestions by line number only. Suitable for
	// single-file runs.
	SortByLine SortMode = iota

	// SortByFileLine orders by file path first, then line number. Suitable
	// for multi-file runs.
	SortByFileLine
)

// Combine merges style and grammar suggestions into a single list,
// ensures every reason carries its category tag, and sorts the result.
// Tagging is idempotent: already-tagged reasons pass through unchanged.
func Combine(style, grammar []domain.Suggestion, mode SortMode) []domain.Suggestion {
	combined := make([]domain.Suggestion, 0, len(style)+len(grammar))

	for _, s := range style {
		s.Reason = domain.TagReason(s.Reason, domain.CategoryStyle)
		combined = append(combined, s)
	}
	for _, s := range grammar {
		s.Reason = domain.TagReason(s.Reason, domain.CategoryGrammar)
		combined = append(combined, s)
	}

	switch mode {
	case SortByFileLine:
		domain.SortByFileLine(combined)
	default:
		domain.SortByLine(combined)
	}

	return combined
}

// LoadSuggestionFile reads a suggestion list from a JSON file. A missing
// file is treated as an empty run and reported through the second return
// value; a malformed file is logged and also treated as empty, so one bad
// artifact never sinks the combine step.
func LoadSuggestionFile(path string) (suggestions []domain.Suggestion, present bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("Suggestion file not found", "path", path)
			return nil, false
		}
		slog.Warn("Failed to read suggestion file", "path", path, "error", err)
		return nil, false
	}

	parsed, err := domain.ParseSuggestions(data)
	if err != nil {
		slog.Warn("Failed to parse suggestion file", "path", path, "error", err)
		return nil, true
	}
	return parsed, true
}

// CombineResult summarises a combine run over two suggestion files.
type CombineResult struct {
	Suggestions []domain.Suggestion
	// BothAbsent reports that neither input file existed. An empty combined
	// list is only a legitimate outcome in that case.
	BothAbsent bool
}

// Count returns the number of combined suggestions.
func (r CombineResult) Count() int {
	return len(r.Suggestions)
}

// OK reports whether the combine run is considered successful: either it
// produced at least one suggestion, or neither input existed so there was
// nothing to combine. A present-but-empty input pair signals an upstream
// failure.
func (r CombineResult) OK() bool {
	return len(r.Suggestions) > 0 || r.BothAbsent
}

// CombineFiles loads two suggestion files, merges them and writes the
// combined list to outPath. Missing or malformed inputs degrade to empty
// lists; only a failure to write the output is returned as an error.
func CombineFiles(stylePath, grammarPath, outPath string, mode SortMode) (CombineResult, error) {
	style, stylePresent := LoadSuggestionFile(stylePath)
	grammar, grammarPresent := LoadSuggestionFile(grammarPath)

	result := CombineResult{
		Suggestions: Combine(style, grammar, mode),
		BothAbsent:  !stylePresent && !grammarPresent,
	}

	data, err := domain.MarshalSuggestions(result.Suggestions)
	if err != nil {
		return result, fmt.Errorf("failed to marshal combined suggestions: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return result, fmt.Errorf("failed to write combined suggestions: %w", err)
	}

	return result, nil
}
