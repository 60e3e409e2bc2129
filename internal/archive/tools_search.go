package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SearchArgument defines search_suggestions parameters.
type SearchArgument struct {
	Query    string `json:"query" jsonschema_description:"Full-text query over archived suggestions"`
	File     string `json:"file,omitempty" jsonschema_description:"Filter by exact file path"`
	Category string `json:"category,omitempty" jsonschema_description:"Filter by category (Style or Grammar)"`
}

// SearchHandler handles the search_suggestions MCP tool.
type SearchHandler struct {
	archive *Archive
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(archive *Archive) *SearchHandler {
	return &SearchHandler{archive: archive}
}

// Handle executes the search and returns formatted results.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgument) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Query) == "" {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: "Query cannot be empty"},
			},
			IsError: true,
		}, nil, nil
	}

	hits, total, err := h.archive.Search(Query{
		Text:     args.Query,
		File:     args.File,
		Category: args.Category,
	})
	if err != nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Search failed: %s", err)},
			},
			IsError: true,
		}, nil, nil
	}

	return formatResults(hits, total, args.Query), nil, nil
}

// formatResults formats archive hits for the MCP response.
func formatResults(hits []Hit, total uint64, queryStr string) *mcp.CallToolResult {
	if total == 0 {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("No archived suggestions match: %s", queryStr)},
			},
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d archived suggestion(s) for '%s':\n\n", total, queryStr))

	for i, hit := range hits {
		sb.WriteString(fmt.Sprintf("### %d. %s:%d [%s]\n", i+1, hit.File, hit.Line, hit.Category))
		sb.WriteString(fmt.Sprintf("**Score**: %.4f\n", hit.Score))
		sb.WriteString(fmt.Sprintf("**Reason**: %s\n", hit.Reason))
		sb.WriteString(fmt.Sprintf("- Original: `%s`\n", hit.Original))
		sb.WriteString(fmt.Sprintf("- Suggested: `%s`\n\n", hit.Suggested))
	}

	if total > uint64(len(hits)) {
		sb.WriteString(fmt.Sprintf("... and %d more results\n", total-uint64(len(hits))))
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: sb.String()},
		},
	}
}

// GetToolDefinition returns the MCP tool definition.
func (h *SearchHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_suggestions",
		Description: "Search archived review suggestions using full-text search",
	}
}

// RegisterSearchTool registers the search tool with an MCP server.
func RegisterSearchTool(server *mcp.Server, archive *Archive) {
	handler := NewSearchHandler(archive)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
