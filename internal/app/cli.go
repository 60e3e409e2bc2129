package app

import "github.com/spf13/pflag"

// RegisterServeFlags registers the serve command's flags on the given FlagSet
func RegisterServeFlags(flags *pflag.FlagSet) {
	flags.StringP("transport", "t", "", "Transport type: stdio or sse")
	flags.StringP("host", "H", "", "Host for SSE transport")
	flags.IntP("port", "p", 0, "Port for SSE transport")
	flags.StringP("auth-type", "a", "", "Authentication type: none, basic, or apikey")
	flags.StringP("auth-basic-username", "u", "", "Basic auth username")
	flags.StringP("auth-basic-password", "P", "", "Basic auth password")
	flags.StringSliceP("auth-api-keys", "k", nil, "API keys (comma-separated)")

	RegisterReviewFlags(flags)
	RegisterArchiveFlags(flags)
}

// RegisterReviewFlags registers the flags shared by all reviewing commands
func RegisterReviewFlags(flags *pflag.FlagSet) {
	flags.StringP("rules", "r", "", "Path to a JSON style rules file (defaults to built-in rules)")
	flags.IntP("concurrency", "c", 0, "Maximum number of files checked in parallel")
	flags.String("root", "", "Root directory for resolving document paths")

	flags.Bool("grammar-enabled", true, "Enable the grammar checking pass")
	flags.String("grammar-url", "", "Grammar service endpoint URL")
	flags.String("grammar-language", "", "Grammar service language code")
	flags.Duration("grammar-timeout", 0, "Grammar service request timeout")
	flags.Int("grammar-retries", 0, "Grammar service retry attempts")
}

// RegisterArchiveFlags registers the suggestion archive flags
func RegisterArchiveFlags(flags *pflag.FlagSet) {
	flags.Bool("archive-enabled", false, "Enable the suggestion archive")
	flags.String("archive-path", "", "Path to the suggestion archive index")
	flags.Int("archive-max-results", 0, "Maximum archive search results")
}

// RegisterGitHubFlags registers the pull request review flags
func RegisterGitHubFlags(flags *pflag.FlagSet) {
	flags.String("github-token", "", "GitHub API token")
	flags.String("github-base-url", "", "GitHub API base URL (for GitHub Enterprise)")
}
