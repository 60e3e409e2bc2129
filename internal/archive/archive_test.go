package archive

import (
	"path/filepath"
	"testing"

	"github.com/prosaic-dev/prosaic/internal/domain"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "archive.bleve"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func seedSuggestions() []domain.Suggestion {
	return []domain.Suggestion{
		{
			File:      "docs/guide.md",
			Line:      3,
			Original:  "We utilize the tool.",
			Suggested: "We use the tool.",
			Reason:    "Style: Use 'use' instead of 'utilize'.",
		},
		{
			File:      "docs/guide.md",
			Line:      9,
			Original:  "It have a problem.",
			Suggested: "It has a problem.",
			Reason:    "Grammar: Subject-verb agreement",
		},
		{
			File:      "README.md",
			Line:      1,
			Original:  "Please note that this utilize pattern recurs.",
			Suggested: "this utilize pattern recurs.",
			Reason:    "Style: Remove 'please note that'.",
		},
	}
}

func TestArchive_AddAndCount(t *testing.T) {
	a := openTestArchive(t)

	if err := a.Add(seedSuggestions()); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	count, err := a.Count()
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}
}

func TestArchive_AddIsIdempotent(t *testing.T) {
	a := openTestArchive(t)

	suggestions := seedSuggestions()
	if err := a.Add(suggestions); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if err := a.Add(suggestions); err != nil {
		t.Fatalf("Second Add() error: %v", err)
	}

	count, err := a.Count()
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d after re-add, want 3", count)
	}
}

func TestArchive_Search(t *testing.T) {
	a := openTestArchive(t)
	if err := a.Add(seedSuggestions()); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	hits, total, err := a.Search(Query{Text: "utilize"})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
	for _, h := range hits {
		if h.Line == 0 || h.File == "" || h.Reason == "" {
			t.Errorf("Hit fields not populated: %+v", h)
		}
	}
}

func TestArchive_SearchFileFilter(t *testing.T) {
	a := openTestArchive(t)
	if err := a.Add(seedSuggestions()); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	hits, total, err := a.Search(Query{Text: "utilize", File: "README.md"})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if total != 1 {
		t.Fatalf("total = %d, want 1", total)
	}
	if hits[0].File != "README.md" {
		t.Errorf("File = %q, want README.md", hits[0].File)
	}
}

func TestArchive_SearchCategoryFilter(t *testing.T) {
	a := openTestArchive(t)
	if err := a.Add(seedSuggestions()); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	hits, total, err := a.Search(Query{Text: "problem", Category: "Grammar"})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if total != 1 {
		t.Fatalf("total = %d, want 1", total)
	}
	if hits[0].Category != "Grammar" {
		t.Errorf("Category = %q, want Grammar", hits[0].Category)
	}
}

func TestArchive_SearchEmptyQuery(t *testing.T) {
	a := openTestArchive(t)

	if _, _, err := a.Search(Query{Text: "  "}); err == nil {
		t.Error("Expected error for empty query text")
	}
}

func TestArchive_ReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.bleve")

	a, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if err := a.Add(seedSuggestions()); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Reopen error: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	count, err := reopened.Count()
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 3 {
		t.Errorf("Count() after reopen = %d, want 3", count)
	}
}
