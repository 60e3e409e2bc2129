package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/pflag"

	"github.com/prosaic-dev/prosaic/internal/archive"
	"github.com/prosaic-dev/prosaic/internal/config"
	"github.com/prosaic-dev/prosaic/internal/grammar"
	mcputil "github.com/prosaic-dev/prosaic/internal/mcp"
	"github.com/prosaic-dev/prosaic/internal/review"
	"github.com/prosaic-dev/prosaic/internal/style"
)

// RunParams contains dependencies for the run function
type RunParams struct {
	LoadSettings      func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings     func(*config.Settings) error
	StartSSEServer    func(*mcp.Server, *config.Settings) error
	CreateServer      func(*config.Settings) (*mcp.Server, func(), error)
	CustomIOTransport mcp.Transport // Optional: for testing with custom IO
}

// DefaultRunParams returns production dependencies
func DefaultRunParams() RunParams {
	return RunParams{
		LoadSettings:   config.LoadSettingsWithFlags,
		ValidSettings:  config.ValidateSettings,
		StartSSEServer: StartSSEServer,
		CreateServer:   CreateMCPServer,
	}
}

// RunWithDeps executes the server with the provided dependencies
func RunWithDeps(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	// Load settings
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// Validate settings for conflicting configurations
	if err := params.ValidSettings(settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Configure logging - always use stderr to avoid buffering issues
	SetupLogging()

	slog.Info("Starting PROSAIC server", "version", version)
	config.Log(settings)

	mcpServer, cleanup, err := params.CreateServer(settings)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	// Start server
	if settings.Transport == "stdio" {
		// Use custom transport if provided (for testing), otherwise use stdio
		transport := params.CustomIOTransport
		if transport == nil {
			transport = &mcp.StdioTransport{}
		}
		return mcpServer.Run(ctx, transport)
	} else {
		slog.Info("Starting SSE server", "host", settings.Host, "port", settings.Port)
		return params.StartSSEServer(mcpServer, settings)
	}
}

// SetupLogging installs the default text handler writing to stderr
func SetupLogging() {
	handler := slog.NewTextHandler(os.Stderr, nil)
	slog.SetDefault(slog.New(handler))
}

// NewReviewService builds a review service from the resolved settings
func NewReviewService(settings *config.Settings) (*review.Service, error) {
	var rules []style.Rule
	if settings.Review.RulesPath != "" {
		loaded, err := style.LoadRules(settings.Review.RulesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load style rules: %w", err)
		}
		rules = loaded
	} else {
		rules = style.DefaultRules()
	}

	ruleSet, err := style.Compile(rules)
	if err != nil {
		return nil, fmt.Errorf("failed to compile style rules: %w", err)
	}

	var checker grammar.Checker
	if settings.Grammar.Enabled {
		checker = grammar.NewClient(grammar.ClientConfig{
			URL:      settings.Grammar.URL,
			Language: settings.Grammar.Language,
			Timeout:  settings.Grammar.Timeout,
			Retries:  settings.Grammar.Retries,
		})
	}

	return review.NewService(review.Config{
		Rules:       ruleSet,
		Checker:     checker,
		Concurrency: settings.Review.Concurrency,
	})
}

// CreateMCPServer creates the MCP server with registered tools
func CreateMCPServer(settings *config.Settings) (*mcp.Server, func(), error) {
	reviewSvc, err := NewReviewService(settings)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create review service: %w", err)
	}

	var archiveStore *archive.Archive
	var cleanup func()

	// Open the suggestion archive if enabled
	if settings.Archive.Enabled {
		store, err := archive.Open(settings.Archive.Path)
		if err != nil {
			slog.Error("Failed to open suggestion archive, continuing without it", "path", settings.Archive.Path, "error", err)
		} else {
			archiveStore = store
			cleanup = func() {
				if err := store.Close(); err != nil {
					slog.Error("Failed to close suggestion archive", "error", err)
				}
			}
		}
	}

	server := mcputil.CreateServer(mcputil.ServerConfig{
		Name:    "prosaic",
		Version: "1.0.0",
		Review:  reviewSvc,
		Root:    settings.Review.Root,
		Archive: archiveStore,
	})

	return server, cleanup, nil
}
