package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/prosaic-dev/prosaic/internal/archive"
	"github.com/prosaic-dev/prosaic/internal/review"
)

// ServerConfig contains configuration for creating an MCP server
type ServerConfig struct {
	Name    string
	Version string

	// Review provides the check_text and check_file tools. Required.
	Review *review.Service

	// Root is the directory check_file resolves relative paths against.
	Root string

	// Archive provides the search_suggestions tool. Optional; when nil
	// the tool is not registered.
	Archive *archive.Archive
}

// CreateServer creates and configures the MCP server
func CreateServer(cfg ServerConfig) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	if cfg.Review != nil {
		review.RegisterCheckTools(s, cfg.Review, cfg.Root)
	}
	if cfg.Archive != nil {
		archive.RegisterSearchTool(s, cfg.Archive)
	}

	return s
}
