package domain

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Suggestion is a single proposed literal replacement for one original
// document line, tagged with its originating analysis category.
// It is the record shape of the JSON interchange schema.
type Suggestion struct {
	// File is the path of the document the suggestion applies to.
	File string `json:"file"`

	// Line is the 1-based line number in the original document.
	Line int `json:"line"`

	// Original is the verbatim original line text.
	Original string `json:"original"`

	// Suggested is the rewritten line text. Never equal to Original.
	Suggested string `json:"suggested"`

	// Reason is a human-readable explanation carrying a category marker
	// ("Style: ..." or "Grammar: ...").
	Reason string `json:"reason"`
}

// Category identifies which analyzer produced a suggestion.
type Category string

const (
	CategoryStyle   Category = "Style"
	CategoryGrammar Category = "Grammar"
)

// TagReason prefixes reason with the category marker unless the marker is
// already present anywhere in it. Idempotent.
func TagReason(reason string, category Category) string {
	if strings.Contains(reason, string(category)) {
		return reason
	}
	return string(category) + ": " + reason
}

// Category derives the suggestion's category from its reason marker.
// Untagged reasons default to style, matching how untagged legacy
// collections are merged.
func (s Suggestion) Category() Category {
	if strings.Contains(s.Reason, string(CategoryGrammar)) {
		return CategoryGrammar
	}
	return CategoryStyle
}

// SortByLine orders suggestions by line number only (single-file mode).
// The sort is stable: equal lines keep their relative input order.
func SortByLine(suggestions []Suggestion) {
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Line < suggestions[j].Line
	})
}

// SortByFileLine orders suggestions by (file, line) (multi-file mode).
// The sort is stable: equal keys keep their relative input order.
func SortByFileLine(suggestions []Suggestion) {
	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].File != suggestions[j].File {
			return suggestions[i].File < suggestions[j].File
		}
		return suggestions[i].Line < suggestions[j].Line
	})
}

// MarshalSuggestions serializes suggestions to the interchange schema:
// an indented JSON array of records. A nil slice serializes as [].
func MarshalSuggestions(suggestions []Suggestion) ([]byte, error) {
	if suggestions == nil {
		suggestions = []Suggestion{}
	}
	return json.MarshalIndent(suggestions, "", "  ")
}

// ParseSuggestions parses an interchange-schema JSON array.
func ParseSuggestions(data []byte) ([]Suggestion, error) {
	var suggestions []Suggestion
	if err := json.Unmarshal(data, &suggestions); err != nil {
		return nil, err
	}
	return suggestions, nil
}

// ArchivedSuggestion is the document stored in the Bleve suggestion
// archive. It extends the interchange record with a stable ID and a
// materialized category for filtering.
type ArchivedSuggestion struct {
	// ID uniquely identifies the archived record.
	// Format: "path/to/file.md:12:a1b2c3d4"
	ID string `json:"id"`

	// File is the document path the suggestion applies to.
	File string `json:"file"`

	// Line is the 1-based original line number.
	Line int `json:"line"`

	// Category is "Style" or "Grammar".
	Category string `json:"category"`

	// Reason is the tagged human-readable explanation.
	Reason string `json:"reason"`

	// Original is the verbatim original line text.
	Original string `json:"original"`

	// Suggested is the rewritten line text.
	Suggested string `json:"suggested"`
}

// NewArchivedSuggestion converts an interchange record into an archive
// document. The ID is derived from the file, line and original text so
// archiving the same suggestion twice overwrites the earlier record.
func NewArchivedSuggestion(s Suggestion) ArchivedSuggestion {
	sum := sha256.Sum256([]byte(s.Original + "\x00" + s.Suggested))
	return ArchivedSuggestion{
		ID:        fmt.Sprintf("%s:%d:%x", s.File, s.Line, sum[:4]),
		File:      s.File,
		Line:      s.Line,
		Category:  string(s.Category()),
		Reason:    s.Reason,
		Original:  s.Original,
		Suggested: s.Suggested,
	}
}

// Bleve field name constants for consistent field references in queries and mappings.
const (
	SuggestionFieldID        = "id"
	SuggestionFieldFile      = "file"
	SuggestionFieldLine      = "line"
	SuggestionFieldCategory  = "category"
	SuggestionFieldReason    = "reason"
	SuggestionFieldOriginal  = "original"
	SuggestionFieldSuggested = "suggested"
)
