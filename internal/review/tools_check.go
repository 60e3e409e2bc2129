package review

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/prosaic-dev/prosaic/internal/domain"
)

// CheckTextArgument defines check_text parameters.
type CheckTextArgument struct {
	Text string `json:"text" jsonschema_description:"Markdown text to review"`
	Name string `json:"name,omitempty" jsonschema_description:"Display name for the text (defaults to 'input.md')"`
}

// CheckFileArgument defines check_file parameters.
type CheckFileArgument struct {
	Path string `json:"path" jsonschema_description:"Markdown file path relative to the server root"`
}

// CheckTextHandler handles the check_text MCP tool.
type CheckTextHandler struct {
	service *Service
}

// NewCheckTextHandler creates a new check_text handler.
func NewCheckTextHandler(service *Service) *CheckTextHandler {
	return &CheckTextHandler{service: service}
}

// Handle reviews inline text and returns the suggestions.
func (h *CheckTextHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args CheckTextArgument) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Text) == "" {
		return errorResult("Text cannot be empty"), nil, nil
	}

	name := args.Name
	if name == "" {
		name = "input.md"
	}

	result := h.service.CheckDocument(ctx, domain.NewDocument(name, args.Text))
	return suggestionsResult(result.Combined()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *CheckTextHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "check_text",
		Description: "Review markdown text for style and grammar issues, returning line-level suggestions",
	}
}

// CheckFileHandler handles the check_file MCP tool.
type CheckFileHandler struct {
	service *Service
	root    string
}

// NewCheckFileHandler creates a new check_file handler rooted at root.
// The root is resolved to an absolute path so the containment check below
// works for relative roots such as ".".
func NewCheckFileHandler(service *Service, root string) *CheckFileHandler {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &CheckFileHandler{service: service, root: root}
}

// Handle reviews a file under the server root.
func (h *CheckFileHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args CheckFileArgument) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Path) == "" {
		return errorResult("Path cannot be empty"), nil, nil
	}
	if err := validatePath(args.Path); err != nil {
		return errorResult(fmt.Sprintf("Invalid path: %s", err)), nil, nil
	}
	if !domain.IsMarkdownPath(args.Path) {
		return errorResult("Only markdown files can be reviewed"), nil, nil
	}

	fullPath := filepath.Join(h.root, filepath.Clean(args.Path))
	if fullPath != h.root && !strings.HasPrefix(fullPath, h.root+string(filepath.Separator)) {
		return errorResult("Path traversal detected"), nil, nil
	}

	result, err := h.service.CheckFile(ctx, fullPath)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to review file: %s", err)), nil, nil
	}
	return suggestionsResult(result.Combined()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *CheckFileHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "check_file",
		Description: "Review a markdown file for style and grammar issues, returning line-level suggestions",
	}
}

// validatePath performs security validation on a relative path.
func validatePath(path string) error {
	cleaned := filepath.Clean(path)

	if filepath.IsAbs(cleaned) {
		return fmt.Errorf("absolute paths are not allowed")
	}
	if strings.HasPrefix(cleaned, "..") || strings.Contains(cleaned, "/..") || strings.Contains(cleaned, "\\..") {
		return fmt.Errorf("path traversal is not allowed")
	}
	return nil
}

// suggestionsResult renders a suggestion list as a tool result.
func suggestionsResult(suggestions []domain.Suggestion) *mcp.CallToolResult {
	if len(suggestions) == 0 {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: "No suggestions. The text is clean."},
			},
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d suggestion(s):\n\n", len(suggestions)))
	for _, s := range suggestions {
		sb.WriteString(fmt.Sprintf("**Line %d**: %s\n", s.Line, s.Reason))
		sb.WriteString(fmt.Sprintf("- Original: `%s`\n", s.Original))
		sb.WriteString(fmt.Sprintf("- Suggested: `%s`\n\n", s.Suggested))
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: sb.String()},
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// RegisterCheckTools registers the check_text and check_file tools with
// an MCP server.
func RegisterCheckTools(server *mcp.Server, service *Service, root string) {
	textHandler := NewCheckTextHandler(service)
	mcp.AddTool(server, textHandler.GetToolDefinition(), textHandler.Handle)

	fileHandler := NewCheckFileHandler(service, root)
	mcp.AddTool(server, fileHandler.GetToolDefinition(), fileHandler.Handle)
}
