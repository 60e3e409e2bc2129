package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prosaic-dev/prosaic/internal/archive"
	"github.com/prosaic-dev/prosaic/internal/domain"
	"github.com/prosaic-dev/prosaic/internal/grammar"
	mcputil "github.com/prosaic-dev/prosaic/internal/mcp"
	"github.com/prosaic-dev/prosaic/internal/review"
	"github.com/prosaic-dev/prosaic/internal/style"
)

// ========================================
// Pipeline Tests
// ========================================

func TestPipeline_StyleAndGrammarCombined(t *testing.T) {
	checker := &stubChecker{
		matches: []grammar.Match{
			{
				Offset:  0,
				Length:  7,
				Message: "Possible typo",
				Context: grammar.MatchContext{
					Text:   "Teh doc covers setup.",
					Offset: 0,
					Length: 3,
				},
				Replacements: []grammar.Replacement{{Value: "The"}},
			},
		},
	}

	svc := newService(t, checker)

	doc := domain.NewDocument("guide.md", strings.Join([]string{
		"Teh doc covers setup.",
		"",
		"We utilize the standard layout.",
	}, "\n"))

	result := svc.CheckDocument(context.Background(), doc)
	combined := result.Combined()

	if len(combined) != 2 {
		t.Fatalf("Expected 2 suggestions, got %d: %+v", len(combined), combined)
	}

	// Grammar hit on line 1 sorts before the style hit on line 3
	if combined[0].Line != 1 || !strings.HasPrefix(combined[0].Reason, "Grammar: ") {
		t.Errorf("Expected grammar suggestion on line 1, got %+v", combined[0])
	}
	if combined[1].Line != 3 || !strings.HasPrefix(combined[1].Reason, "Style: ") {
		t.Errorf("Expected style suggestion on line 3, got %+v", combined[1])
	}
	if combined[1].Suggested != "We use the standard layout." {
		t.Errorf("Unexpected style rewrite: %q", combined[1].Suggested)
	}
}

func TestPipeline_CodeBlocksExcluded(t *testing.T) {
	svc := newService(t, nil)

	doc := domain.NewDocument("snippets.md", strings.Join([]string{
		"```go",
		"// We utilize reflection here.",
		"```",
		"We utilize reflection here.",
	}, "\n"))

	combined := svc.CheckDocument(context.Background(), doc).Combined()
	if len(combined) != 1 {
		t.Fatalf("Expected 1 suggestion, got %d", len(combined))
	}
	if combined[0].Line != 4 {
		t.Errorf("Expected suggestion on line 4 outside the fence, got line %d", combined[0].Line)
	}
}

func TestPipeline_DirectoryCheck(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.md":              "We utilize tools.\n",
		"sub/b.md":          "In order to test, we test.\n",
		"node_modules/c.md": "We utilize tools.\n",
		"notes.txt":         "We utilize tools.\n",
	}
	writeFiles(t, dir, files)

	svc := newService(t, nil)

	results, err := svc.CheckDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("CheckDir failed: %v", err)
	}

	combined := review.CombineResults(results)
	if len(combined) != 2 {
		t.Fatalf("Expected 2 suggestions, got %d: %+v", len(combined), combined)
	}
	for _, s := range combined {
		if strings.Contains(s.File, "node_modules") || strings.HasSuffix(s.File, ".txt") {
			t.Errorf("Excluded file leaked into results: %s", s.File)
		}
	}
}

// ========================================
// Check Tool MCP Tests
// ========================================

func TestCheckTextTool_ReturnsSuggestions(t *testing.T) {
	handler := review.NewCheckTextHandler(newService(t, nil))
	ctx := context.Background()

	result, _, err := handler.Handle(ctx, &mcp.CallToolRequest{}, review.CheckTextArgument{
		Text: "We utilize the tool.\n",
	})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	if result.IsError {
		t.Errorf("Expected success, got error: %s", extractTextContent(result))
	}

	content := extractTextContent(result)
	if !strings.Contains(content, "Found 1 suggestion") {
		t.Errorf("Expected one suggestion, got: %s", content)
	}
	if !strings.Contains(content, "We use the tool.") {
		t.Errorf("Expected rewrite in output, got: %s", content)
	}
}

func TestCheckTextTool_EmptyTextReturnsError(t *testing.T) {
	handler := review.NewCheckTextHandler(newService(t, nil))
	ctx := context.Background()

	result, _, err := handler.Handle(ctx, &mcp.CallToolRequest{}, review.CheckTextArgument{
		Text: "   ",
	})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	if !result.IsError {
		t.Error("Expected error for empty text")
	}
}

func TestCheckTextTool_CleanTextReportsClean(t *testing.T) {
	handler := review.NewCheckTextHandler(newService(t, nil))
	ctx := context.Background()

	result, _, err := handler.Handle(ctx, &mcp.CallToolRequest{}, review.CheckTextArgument{
		Text: "A short clean sentence.\n",
	})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	content := extractTextContent(result)
	if !strings.Contains(content, "No suggestions") {
		t.Errorf("Expected clean report, got: %s", content)
	}
}

func TestCheckFileTool_ReviewsFileUnderRoot(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"docs/guide.md": "We utilize the tool.\n",
	})

	handler := review.NewCheckFileHandler(newService(t, nil), dir)
	ctx := context.Background()

	result, _, err := handler.Handle(ctx, &mcp.CallToolRequest{}, review.CheckFileArgument{
		Path: "docs/guide.md",
	})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	if result.IsError {
		t.Errorf("Expected success, got error: %s", extractTextContent(result))
	}

	content := extractTextContent(result)
	if !strings.Contains(content, "We use the tool.") {
		t.Errorf("Expected rewrite in output, got: %s", content)
	}
}

func TestCheckFileTool_PathTraversalAttemptReturnsError(t *testing.T) {
	dir := t.TempDir()
	handler := review.NewCheckFileHandler(newService(t, nil), dir)
	ctx := context.Background()

	traversalPaths := []string{
		"../../../etc/passwd",
		"..\\..\\..\\etc\\passwd",
		"foo/../../../etc/passwd",
		"/etc/passwd",
	}

	for _, path := range traversalPaths {
		result, _, err := handler.Handle(ctx, &mcp.CallToolRequest{}, review.CheckFileArgument{
			Path: path,
		})
		if err != nil {
			t.Fatalf("Handle returned error for path %q: %v", path, err)
		}

		if !result.IsError {
			t.Errorf("Expected error for path traversal: %s", path)
		}
	}
}

func TestCheckFileTool_NonMarkdownReturnsError(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"main.go": "package main\n"})

	handler := review.NewCheckFileHandler(newService(t, nil), dir)
	ctx := context.Background()

	result, _, err := handler.Handle(ctx, &mcp.CallToolRequest{}, review.CheckFileArgument{
		Path: "main.go",
	})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	if !result.IsError {
		t.Error("Expected error for non-markdown file")
	}
}

func TestCheckFileTool_MissingFileReturnsError(t *testing.T) {
	dir := t.TempDir()
	handler := review.NewCheckFileHandler(newService(t, nil), dir)
	ctx := context.Background()

	result, _, err := handler.Handle(ctx, &mcp.CallToolRequest{}, review.CheckFileArgument{
		Path: "missing.md",
	})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	if !result.IsError {
		t.Error("Expected error for missing file")
	}
}

// ========================================
// Search Tool MCP Tests
// ========================================

func TestSearchTool_FindsArchivedSuggestions(t *testing.T) {
	store := setupTestArchive(t)

	handler := archive.NewSearchHandler(store)
	ctx := context.Background()

	result, _, err := handler.Handle(ctx, &mcp.CallToolRequest{}, archive.SearchArgument{
		Query: "utilize",
	})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	if result.IsError {
		t.Errorf("Expected success, got error: %s", extractTextContent(result))
	}

	content := extractTextContent(result)
	if !strings.Contains(content, "Found") || !strings.Contains(content, "guide.md:3") {
		t.Errorf("Expected archived hit, got: %s", content)
	}
}

func TestSearchTool_CategoryFilter(t *testing.T) {
	store := setupTestArchive(t)

	handler := archive.NewSearchHandler(store)
	ctx := context.Background()

	result, _, err := handler.Handle(ctx, &mcp.CallToolRequest{}, archive.SearchArgument{
		Query:    "utilize typo",
		Category: "Grammar",
	})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	content := extractTextContent(result)
	if strings.Contains(content, "[Style]") {
		t.Errorf("Style hits leaked through grammar filter: %s", content)
	}
	if !strings.Contains(content, "[Grammar]") {
		t.Errorf("Expected grammar hit, got: %s", content)
	}
}

func TestSearchTool_NoResults(t *testing.T) {
	store := setupTestArchive(t)

	handler := archive.NewSearchHandler(store)
	ctx := context.Background()

	result, _, err := handler.Handle(ctx, &mcp.CallToolRequest{}, archive.SearchArgument{
		Query: "nonexistentterm12345xyz",
	})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	if result.IsError {
		t.Errorf("Expected no error for zero results search")
	}

	content := extractTextContent(result)
	if !strings.Contains(content, "No archived suggestions") {
		t.Errorf("Expected no-results message, got: %s", content)
	}
}

func TestSearchTool_EmptyQueryReturnsError(t *testing.T) {
	store := setupTestArchive(t)

	handler := archive.NewSearchHandler(store)
	ctx := context.Background()

	result, _, err := handler.Handle(ctx, &mcp.CallToolRequest{}, archive.SearchArgument{
		Query: "  ",
	})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	if !result.IsError {
		t.Error("Expected error for empty query")
	}
}

// ========================================
// MCP Server Integration Tests
// ========================================

func TestMCPServer_ToolsRegistered(t *testing.T) {
	store := setupTestArchive(t)

	server := mcputil.CreateServer(mcputil.ServerConfig{
		Name:    "test-server",
		Version: "1.0.0",
		Review:  newService(t, nil),
		Root:    t.TempDir(),
		Archive: store,
	})

	if server == nil {
		t.Fatal("Expected server to be created")
	}

	// The MCP SDK doesn't expose a way to list registered tools directly,
	// but we can verify the server was created successfully and the tools
	// work by invoking them through handlers (tested above).
}

func TestMCPServer_NoToolsWhenServicesNil(t *testing.T) {
	server := mcputil.CreateServer(mcputil.ServerConfig{
		Name:    "test-server",
		Version: "1.0.0",
	})

	if server == nil {
		t.Fatal("Expected server to be created")
	}
}

// ========================================
// Helper Functions
// ========================================

// stubChecker returns canned grammar matches for any text
type stubChecker struct {
	matches []grammar.Match
	err     error
}

func (c *stubChecker) Check(ctx context.Context, text string) ([]grammar.Match, error) {
	return c.matches, c.err
}

// newService builds a review service over the reference rules, with an
// optional grammar checker
func newService(t *testing.T, checker grammar.Checker) *review.Service {
	t.Helper()

	rules, err := style.Compile(style.DefaultRules())
	if err != nil {
		t.Fatalf("Failed to compile rules: %v", err)
	}

	svc, err := review.NewService(review.Config{
		Rules:   rules,
		Checker: checker,
	})
	if err != nil {
		t.Fatalf("Failed to create review service: %v", err)
	}
	return svc
}

// setupTestArchive opens a temp archive seeded with a few suggestions
func setupTestArchive(t *testing.T) *archive.Archive {
	t.Helper()

	store, err := archive.Open(filepath.Join(t.TempDir(), "archive.bleve"))
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Failed to close archive: %v", err)
		}
	})

	seed := []domain.Suggestion{
		{File: "guide.md", Line: 3, Original: "We utilize tools.", Suggested: "We use tools.", Reason: "Style: Prefer 'use' over 'utilize'"},
		{File: "guide.md", Line: 7, Original: "Teh typo stands.", Suggested: "The typo stands.", Reason: "Grammar: Possible typo"},
		{File: "intro.md", Line: 1, Original: "In order to start", Suggested: "To start", Reason: "Style: Prefer 'to' over 'in order to'"},
	}
	if err := store.Add(seed); err != nil {
		t.Fatalf("Failed to seed archive: %v", err)
	}
	return store
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for relPath, content := range files {
		fullPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
	}
}

// extractTextContent extracts text from MCP result
func extractTextContent(result *mcp.CallToolResult) string {
	var sb strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}
