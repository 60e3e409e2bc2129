package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/prosaic-dev/prosaic/internal/app"
	"github.com/prosaic-dev/prosaic/internal/config"
)

var (
	// Version is injected at build time
	Version = "dev"
	// Build is injected at build time
	Build = "unknown"
	// ProgramName is injected at build time
	ProgramName = "prosaic"
)

func main() {
	runMain(os.Args, os.Exit)
}

func runMain(args []string, exit func(int)) {
	if err := Execute(Version, Build, ProgramName, args[1:]); err != nil {
		exit(1)
	}
}

// Execute is the entry point for the CLI, extracted for testing
func Execute(version, build, programName string, args []string) error {
	rootCmd := &cobra.Command{
		Use:     programName,
		Short:   "Prose review for markdown documents",
		Long:    "Prose Review with Offset-Safe Analysis and Inline Comments (PROSAIC)",
		Version: version,
	}

	rootCmd.SetVersionTemplate(`{{.Version}}
`)

	rootCmd.AddCommand(
		newCheckCmd(),
		newCombineCmd(),
		newReportCmd(),
		newReviewCmd(),
		newSearchCmd(),
		newServeCmd(version),
	)
	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}

// loadSettings resolves and validates settings from flags and environment
func loadSettings(flags *pflag.FlagSet) (*config.Settings, error) {
	settings, err := config.LoadSettingsWithFlags(flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if err := config.ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return settings, nil
}

func newCheckCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "check <path>",
		Short: "Review a markdown file or directory and emit suggestions as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.SetupLogging()
			settings, err := loadSettings(cmd.Flags())
			if err != nil {
				return err
			}

			count, err := app.RunCheck(context.Background(), settings, args[0], output)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d suggestion(s)\n", count)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (defaults to stdout)")
	app.RegisterReviewFlags(cmd.Flags())
	app.RegisterArchiveFlags(cmd.Flags())
	return cmd
}

func newCombineCmd() *cobra.Command {
	var stylePath, grammarPath, output string
	var multiFile bool

	cmd := &cobra.Command{
		Use:   "combine",
		Short: "Merge style and grammar suggestion files into one sorted list",
		Long: `Merge style and grammar suggestion files into one sorted list.

Exits successfully when the merge produced at least one suggestion, or
when neither input file existed. Two present-but-empty inputs signal an
upstream failure and exit non-zero.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.SetupLogging()

			result, err := app.RunCombine(stylePath, grammarPath, output, multiFile)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d suggestion(s) combined\n", result.Count())
			if !result.OK() {
				return fmt.Errorf("no suggestions produced from present inputs")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&stylePath, "style", "style_suggestions.json", "Style suggestions input file")
	cmd.Flags().StringVar(&grammarPath, "grammar", "grammar_suggestions.json", "Grammar suggestions input file")
	cmd.Flags().StringVarP(&output, "output", "o", "combined_suggestions.json", "Combined output file")
	cmd.Flags().BoolVar(&multiFile, "multi-file", false, "Sort by (file, line) instead of line only")
	return cmd
}

func newReportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "report <suggestions.json>",
		Short: "Render a combined suggestion file as a markdown report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.SetupLogging()
			return app.RunReport(args[0], output, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (defaults to stdout)")
	return cmd
}

func newReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review <owner/repo> <pr-number>",
		Short: "Review a pull request's markdown changes and post suggestions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.SetupLogging()
			settings, err := loadSettings(cmd.Flags())
			if err != nil {
				return err
			}

			owner, repo, err := app.ParseRepoSlug(args[0])
			if err != nil {
				return err
			}
			var number int
			if _, err := fmt.Sscanf(args[1], "%d", &number); err != nil || number <= 0 {
				return fmt.Errorf("invalid pull request number: %s", args[1])
			}

			count, err := app.RunReview(context.Background(), settings, owner, repo, number)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d comment(s) posted\n", count)
			return nil
		},
	}

	app.RegisterReviewFlags(cmd.Flags())
	app.RegisterGitHubFlags(cmd.Flags())
	return cmd
}

func newSearchCmd() *cobra.Command {
	var file, category string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the suggestion archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.SetupLogging()
			settings, err := loadSettings(cmd.Flags())
			if err != nil {
				return err
			}
			return app.RunSearch(settings, args[0], file, category, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Filter by exact file path")
	cmd.Flags().StringVar(&category, "category", "", "Filter by category (Style or Grammar)")
	app.RegisterArchiveFlags(cmd.Flags())
	return cmd
}

func newServeCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server exposing the review tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunWithDeps(context.Background(), app.DefaultRunParams(), cmd.Flags(), version)
		},
	}

	app.RegisterServeFlags(cmd.Flags())
	return cmd
}
