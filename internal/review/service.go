package review

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/prosaic-dev/prosaic/internal/domain"
	"github.com/prosaic-dev/prosaic/internal/grammar"
	"github.com/prosaic-dev/prosaic/internal/markdown"
	"github.com/prosaic-dev/prosaic/internal/style"
)

// DefaultConcurrency caps the number of documents checked in parallel
// during a directory review.
const DefaultConcurrency = 4

// Config assembles the checkers a review service runs.
type Config struct {
	// Rules drive the style pass. Required.
	Rules *style.RuleSet

	// Checker drives the grammar pass. When nil, the grammar pass is
	// skipped and only style suggestions are produced.
	Checker grammar.Checker

	// Concurrency bounds parallel file checks. Zero means
	// DefaultConcurrency.
	Concurrency int

	// Filter controls which files a directory review visits. When nil,
	// the default exclusion patterns apply.
	Filter *DocFilter
}

// Service runs the style and grammar passes over documents.
type Service struct {
	matcher     *style.Matcher
	adapter     *grammar.Adapter
	filter      *DocFilter
	concurrency int
}

// NewService creates a review service from the given config.
func NewService(cfg Config) (*Service, error) {
	if cfg.Rules == nil {
		return nil, fmt.Errorf("rules cannot be nil")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Filter == nil {
		cfg.Filter = NewDocFilter()
	}

	s := &Service{
		matcher:     style.NewMatcher(cfg.Rules),
		filter:      cfg.Filter,
		concurrency: cfg.Concurrency,
	}
	if cfg.Checker != nil {
		s.adapter = grammar.NewAdapter(cfg.Checker)
	}
	return s, nil
}

// Result holds the outcome of reviewing a single document.
type Result struct {
	File    string
	Style   []domain.Suggestion
	Grammar []domain.Suggestion
}

// Combined returns the merged, tagged and line-sorted suggestion list.
func (r Result) Combined() []domain.Suggestion {
	return Combine(r.Style, r.Grammar, SortByLine)
}

// CheckDocument runs both passes over an in-memory document. The block
// mask is computed once and shared between the passes so they agree on
// which lines are prose.
func (s *Service) CheckDocument(ctx context.Context, doc domain.Document) Result {
	mask := markdown.NewBlockMask(doc.Lines)

	result := Result{
		File:  doc.Path,
		Style: s.matcher.CheckWithMask(doc, mask),
	}

	if s.adapter != nil {
		ext := markdown.ExtractWithMask(doc.Lines, mask)
		result.Grammar = s.adapter.Suggest(ctx, doc, ext)
	}

	return result
}

// CheckFile loads a document from disk and reviews it.
func (s *Service) CheckFile(ctx context.Context, path string) (Result, error) {
	doc, err := domain.LoadDocument(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load document: %w", err)
	}
	return s.CheckDocument(ctx, doc), nil
}

// CheckDir walks root for markdown files and reviews them concurrently.
// A single unreadable file is logged and skipped; only a failed walk
// returns an error. Results come back sorted by file path.
func (s *Service) CheckDir(ctx context.Context, root string) ([]Result, error) {
	paths, err := s.collectPaths(root)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(paths))
	ok := make([]bool, len(paths))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, path := range paths {
		g.Go(func() error {
			result, err := s.CheckFile(gctx, path)
			if err != nil {
				slog.Warn("Skipping unreadable file", "path", path, "error", err)
				return nil
			}
			mu.Lock()
			results[i] = result
			ok[i] = true
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Compact out skipped files, preserving path order.
	final := results[:0]
	for i := range results {
		if ok[i] {
			final = append(final, results[i])
		}
	}
	return final, nil
}

// collectPaths gathers the markdown files under root in walk order,
// applying the exclusion filter.
func (s *Service) collectPaths(root string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}

		if d.IsDir() {
			if rel != "." && s.filter.ShouldExclude(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if !domain.IsMarkdownPath(path) || s.filter.ShouldExclude(rel) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	return paths, nil
}

// CombineResults flattens per-file results into one list sorted by file
// and line.
func CombineResults(results []Result) []domain.Suggestion {
	var style, grammar []domain.Suggestion
	for _, r := range results {
		style = append(style, r.Style...)
		grammar = append(grammar, r.Grammar...)
	}
	return Combine(style, grammar, SortByFileLine)
}
