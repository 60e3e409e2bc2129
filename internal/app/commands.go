package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prosaic-dev/prosaic/internal/archive"
	"github.com/prosaic-dev/prosaic/internal/config"
	"github.com/prosaic-dev/prosaic/internal/domain"
	"github.com/prosaic-dev/prosaic/internal/github"
	"github.com/prosaic-dev/prosaic/internal/report"
	"github.com/prosaic-dev/prosaic/internal/review"
)

// RunCheck reviews a markdown file or directory and writes the combined
// suggestion list as JSON to out (stdout when outPath is empty). Returns
// the number of suggestions produced.
func RunCheck(ctx context.Context, settings *config.Settings, path, outPath string) (int, error) {
	svc, err := NewReviewService(settings)
	if err != nil {
		return 0, err
	}

	suggestions, err := checkPath(ctx, svc, path)
	if err != nil {
		return 0, err
	}

	if settings.Archive.Enabled && len(suggestions) > 0 {
		archiveSuggestions(settings.Archive.Path, suggestions)
	}

	if err := writeSuggestions(suggestions, outPath); err != nil {
		return len(suggestions), err
	}
	return len(suggestions), nil
}

// checkPath reviews path as a directory or a single file.
func checkPath(ctx context.Context, svc *review.Service, path string) ([]domain.Suggestion, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if info.IsDir() {
		results, err := svc.CheckDir(ctx, path)
		if err != nil {
			return nil, err
		}
		return review.CombineResults(results), nil
	}

	result, err := svc.CheckFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return result.Combined(), nil
}

// archiveSuggestions stores suggestions in the archive. Failures are
// logged, never fatal: archiving is a side effect of a check, not its
// purpose.
func archiveSuggestions(path string, suggestions []domain.Suggestion) {
	store, err := archive.Open(path)
	if err != nil {
		slog.Warn("Failed to open suggestion archive", "path", path, "error", err)
		return
	}
	defer func() { _ = store.Close() }()

	if err := store.Add(suggestions); err != nil {
		slog.Warn("Failed to archive suggestions", "error", err)
	}
}

func writeSuggestions(suggestions []domain.Suggestion, outPath string) error {
	data, err := domain.MarshalSuggestions(suggestions)
	if err != nil {
		return fmt.Errorf("failed to marshal suggestions: %w", err)
	}

	if outPath == "" {
		_, err = fmt.Fprintln(os.Stdout, string(data))
		return err
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	return nil
}

// RunCombine merges two suggestion files into one. The multiFile flag
// selects (file, line) ordering instead of line-only ordering.
func RunCombine(stylePath, grammarPath, outPath string, multiFile bool) (review.CombineResult, error) {
	mode := review.SortByLine
	if multiFile {
		mode = review.SortByFileLine
	}
	return review.CombineFiles(stylePath, grammarPath, outPath, mode)
}

// RunReport renders a combined suggestion file as a markdown report.
// Document titles are resolved from each referenced file's frontmatter
// when the file is still readable.
func RunReport(inputPath, outPath string, out io.Writer) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", inputPath, err)
	}
	suggestions, err := domain.ParseSuggestions(data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", inputPath, err)
	}

	titles := make(map[string]string)
	for _, s := range suggestions {
		if _, seen := titles[s.File]; seen {
			continue
		}
		doc, err := domain.LoadDocument(s.File)
		if err != nil {
			continue
		}
		titles[s.File] = report.DocumentTitle(doc)
	}

	rendered := report.NewGenerator().Generate(suggestions, titles)

	if outPath == "" {
		_, err = fmt.Fprint(out, rendered)
		return err
	}
	if err := os.WriteFile(outPath, []byte(rendered), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	return nil
}

// RunReview checks the markdown files changed by a pull request and
// posts the suggestions as a review with committable suggestion blocks.
// Returns the number of comments posted.
func RunReview(ctx context.Context, settings *config.Settings, owner, repo string, number int) (int, error) {
	svc, err := NewReviewService(settings)
	if err != nil {
		return 0, err
	}

	client := github.NewClient(github.ClientConfig{
		Token:   settings.GitHub.Token,
		BaseURL: settings.GitHub.BaseURL,
	})

	files, err := client.ListChangedMarkdownFiles(ctx, owner, repo, number)
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		slog.Info("No markdown files changed in pull request", "owner", owner, "repo", repo, "number", number)
		return 0, nil
	}

	var all []domain.Suggestion
	for _, file := range files {
		content, err := client.GetFileContent(ctx, owner, repo, file, fmt.Sprintf("refs/pull/%d/head", number))
		if err != nil {
			slog.Warn("Skipping unreadable pull request file", "file", file, "error", err)
			continue
		}
		result := svc.CheckDocument(ctx, domain.NewDocument(file, content))
		all = append(all, result.Combined()...)
	}
	domain.SortByFileLine(all)

	comments := github.FormatComments(all)
	if len(comments) == 0 {
		slog.Info("No suggestions for pull request", "owner", owner, "repo", repo, "number", number)
		return 0, nil
	}

	if err := client.CreateReview(ctx, owner, repo, number, github.ReviewSummary(len(comments)), comments); err != nil {
		return 0, err
	}
	return len(comments), nil
}

// RunSearch queries the suggestion archive and writes the hits to out.
func RunSearch(settings *config.Settings, query, file, category string, out io.Writer) error {
	store, err := archive.Open(settings.Archive.Path)
	if err != nil {
		return fmt.Errorf("failed to open suggestion archive: %w", err)
	}
	defer func() { _ = store.Close() }()

	hits, total, err := store.Search(archive.Query{
		Text:       query,
		File:       file,
		Category:   category,
		MaxResults: settings.Archive.MaxResults,
	})
	if err != nil {
		return err
	}

	if total == 0 {
		fmt.Fprintf(out, "No archived suggestions match: %s\n", query)
		return nil
	}

	fmt.Fprintf(out, "Found %d archived suggestion(s):\n\n", total)
	for _, h := range hits {
		fmt.Fprintf(out, "%s:%d [%s] %s\n", h.File, h.Line, h.Category, h.Reason)
		fmt.Fprintf(out, "  - %s\n", h.Original)
		fmt.Fprintf(out, "  + %s\n\n", h.Suggested)
	}
	if total > uint64(len(hits)) {
		fmt.Fprintf(out, "... and %d more\n", total-uint64(len(hits)))
	}
	return nil
}

// ParseRepoSlug splits an "owner/repo" argument.
func ParseRepoSlug(slug string) (owner, repo string, err error) {
	parts := strings.Split(slug, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository must be in 'owner/repo' form, got: %s", slug)
	}
	return parts[0], parts[1], nil
}
