package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Auth type constants
const (
	AuthTypeNone   = "none"
	AuthTypeBasic  = "basic"
	AuthTypeAPIKey = "apikey"
)

// AuthSettings configuration for authentication
type AuthSettings struct {
	Type    string            `mapstructure:"type"` // AuthTypeNone, AuthTypeBasic, or AuthTypeAPIKey
	Basic   BasicAuthSettings `mapstructure:"basic"`
	APIKeys []string          `mapstructure:"api_keys"`
}

// BasicAuthSettings configuration for basic auth
type BasicAuthSettings struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// GrammarSettings configuration for the grammar checking service
type GrammarSettings struct {
	Enabled  bool          `mapstructure:"enabled"`
	URL      string        `mapstructure:"url"`
	Language string        `mapstructure:"language"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Retries  int           `mapstructure:"retries"`
}

// ArchiveSettings configuration for the suggestion archive
type ArchiveSettings struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxResults int    `mapstructure:"max_results"`
}

// GitHubSettings configuration for the pull request review flow
type GitHubSettings struct {
	Token   string `mapstructure:"token"`
	BaseURL string `mapstructure:"base_url"`
}

// ReviewSettings configuration for the review pipeline
type ReviewSettings struct {
	RulesPath   string `mapstructure:"rules_path"`
	Concurrency int    `mapstructure:"concurrency"`
	Root        string `mapstructure:"root"`
}

// Settings application settings
type Settings struct {
	Transport string          `mapstructure:"transport"`
	Host      string          `mapstructure:"host"`
	Port      int             `mapstructure:"port"`
	Auth      AuthSettings    `mapstructure:"auth"`
	Grammar   GrammarSettings `mapstructure:"grammar"`
	Archive   ArchiveSettings `mapstructure:"archive"`
	GitHub    GitHubSettings  `mapstructure:"github"`
	Review    ReviewSettings  `mapstructure:"review"`
}

// LoadSettings loads settings from environment variables and optional .env file
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithFlags(nil)
}

// LoadSettingsWithFlags loads settings with optional CLI flag overrides.
// Priority: CLI flags > environment variables > .env file > defaults.
// If flags is nil, only env vars and defaults are used.
func LoadSettingsWithFlags(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	// Default values
	v.SetDefault("transport", "stdio")
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("auth.type", AuthTypeNone)

	// Grammar defaults
	v.SetDefault("grammar.enabled", true)
	v.SetDefault("grammar.url", "https://api.languagetool.org/v2/check")
	v.SetDefault("grammar.language", "en-US")
	v.SetDefault("grammar.timeout", 30*time.Second)
	v.SetDefault("grammar.retries", 2)

	// Archive defaults
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.path", defaultArchivePath())
	v.SetDefault("archive.max_results", 20)

	// Review defaults
	v.SetDefault("review.concurrency", 4)
	v.SetDefault("review.root", ".")

	// Environment variables
	v.SetEnvPrefix("PROSAIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind specific env vars for nested config
	_ = v.BindEnv("auth.type", "PROSAIC_AUTH_TYPE")
	_ = v.BindEnv("auth.basic.username", "PROSAIC_AUTH_BASIC_USERNAME")
	_ = v.BindEnv("auth.basic.password", "PROSAIC_AUTH_BASIC_PASSWORD")
	_ = v.BindEnv("auth.api_keys", "PROSAIC_AUTH_API_KEYS")

	_ = v.BindEnv("grammar.enabled", "PROSAIC_GRAMMAR_ENABLED")
	_ = v.BindEnv("grammar.url", "PROSAIC_GRAMMAR_URL")
	_ = v.BindEnv("grammar.language", "PROSAIC_GRAMMAR_LANGUAGE")
	_ = v.BindEnv("grammar.timeout", "PROSAIC_GRAMMAR_TIMEOUT")
	_ = v.BindEnv("grammar.retries", "PROSAIC_GRAMMAR_RETRIES")

	_ = v.BindEnv("archive.enabled", "PROSAIC_ARCHIVE_ENABLED")
	_ = v.BindEnv("archive.path", "PROSAIC_ARCHIVE_PATH")
	_ = v.BindEnv("archive.max_results", "PROSAIC_ARCHIVE_MAX_RESULTS")

	_ = v.BindEnv("github.token", "PROSAIC_GITHUB_TOKEN")
	_ = v.BindEnv("github.base_url", "PROSAIC_GITHUB_BASE_URL")

	_ = v.BindEnv("review.rules_path", "PROSAIC_REVIEW_RULES_PATH")
	_ = v.BindEnv("review.concurrency", "PROSAIC_REVIEW_CONCURRENCY")
	_ = v.BindEnv("review.root", "PROSAIC_REVIEW_ROOT")

	// Bind CLI flags if provided (highest priority)
	if flags != nil {
		_ = v.BindPFlag("transport", flags.Lookup("transport"))
		_ = v.BindPFlag("host", flags.Lookup("host"))
		_ = v.BindPFlag("port", flags.Lookup("port"))
		_ = v.BindPFlag("auth.type", flags.Lookup("auth-type"))
		_ = v.BindPFlag("auth.basic.username", flags.Lookup("auth-basic-username"))
		_ = v.BindPFlag("auth.basic.password", flags.Lookup("auth-basic-password"))
		_ = v.BindPFlag("auth.api_keys", flags.Lookup("auth-api-keys"))

		_ = v.BindPFlag("grammar.enabled", flags.Lookup("grammar-enabled"))
		_ = v.BindPFlag("grammar.url", flags.Lookup("grammar-url"))
		_ = v.BindPFlag("grammar.language", flags.Lookup("grammar-language"))
		_ = v.BindPFlag("grammar.timeout", flags.Lookup("grammar-timeout"))
		_ = v.BindPFlag("grammar.retries", flags.Lookup("grammar-retries"))

		_ = v.BindPFlag("archive.enabled", flags.Lookup("archive-enabled"))
		_ = v.BindPFlag("archive.path", flags.Lookup("archive-path"))
		_ = v.BindPFlag("archive.max_results", flags.Lookup("archive-max-results"))

		_ = v.BindPFlag("github.token", flags.Lookup("github-token"))
		_ = v.BindPFlag("github.base_url", flags.Lookup("github-base-url"))

		_ = v.BindPFlag("review.rules_path", flags.Lookup("rules"))
		_ = v.BindPFlag("review.concurrency", flags.Lookup("concurrency"))
		_ = v.BindPFlag("review.root", flags.Lookup("root"))
	}

	// Helper to look for .env file
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if .env doesn't exist

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	// Handle explicit parsing of API keys if provided via env var as comma-separated string
	apiKeysEnv := os.Getenv("PROSAIC_AUTH_API_KEYS")
	if apiKeysEnv != "" {
		if len(settings.Auth.APIKeys) == 0 || (len(settings.Auth.APIKeys) == 1 && strings.Contains(settings.Auth.APIKeys[0], ",")) {
			settings.Auth.APIKeys = strings.Split(apiKeysEnv, ",")
		}
	}

	// Trim spaces from API keys
	for i := range settings.Auth.APIKeys {
		settings.Auth.APIKeys[i] = strings.TrimSpace(settings.Auth.APIKeys[i])
	}

	// Expand home directory in the archive path
	settings.Archive.Path = expandHomeDir(settings.Archive.Path)

	return &settings, nil
}

// defaultArchivePath returns the default location of the suggestion archive
func defaultArchivePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".prosaic/archive.bleve"
	}
	return filepath.Join(home, ".prosaic", "archive.bleve")
}

// expandHomeDir expands ~ to the user's home directory
func expandHomeDir(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	return path
}

// ValidateSettings checks for conflicting configurations.
// Returns an error if the settings contain mutually exclusive or incomplete auth config.
func ValidateSettings(s *Settings) error {
	// Validate transport type
	switch s.Transport {
	case "stdio", "sse":
		// valid
	default:
		return errors.New("transport must be 'stdio' or 'sse', got: " + s.Transport)
	}

	hasBasicCreds := s.Auth.Basic.Username != "" || s.Auth.Basic.Password != ""
	hasAPIKeys := len(s.Auth.APIKeys) > 0

	switch s.Auth.Type {
	case AuthTypeNone, "":
		if hasBasicCreds || hasAPIKeys {
			return errors.New("auth-type 'none' is incompatible with auth credentials")
		}
	case AuthTypeBasic:
		if hasAPIKeys {
			return errors.New("auth-type 'basic' is mutually exclusive with auth-api-keys")
		}
		if s.Auth.Basic.Username == "" || s.Auth.Basic.Password == "" {
			return errors.New("auth-type 'basic' requires both username and password")
		}
	case AuthTypeAPIKey:
		if hasBasicCreds {
			return errors.New("auth-type 'apikey' is mutually exclusive with basic auth credentials")
		}
		if !hasAPIKeys {
			return errors.New("auth-type 'apikey' requires at least one API key")
		}
	default:
		return errors.New("unknown auth-type: " + s.Auth.Type)
	}

	if err := validateGrammarSettings(&s.Grammar); err != nil {
		return err
	}
	if err := validateArchiveSettings(&s.Archive); err != nil {
		return err
	}
	if err := validateReviewSettings(&s.Review); err != nil {
		return err
	}

	return nil
}

// validateGrammarSettings validates the grammar service configuration
func validateGrammarSettings(g *GrammarSettings) error {
	if !g.Enabled {
		return nil // No validation needed when disabled
	}

	if g.URL == "" {
		return errors.New("grammar-url cannot be empty when grammar checking is enabled")
	}
	if g.Language == "" {
		return errors.New("grammar-language cannot be empty when grammar checking is enabled")
	}
	if g.Timeout <= 0 {
		return errors.New("grammar-timeout must be positive")
	}
	if g.Retries < 0 {
		return errors.New("grammar-retries cannot be negative")
	}

	return nil
}

// validateArchiveSettings validates the suggestion archive configuration
func validateArchiveSettings(a *ArchiveSettings) error {
	if !a.Enabled {
		return nil
	}

	if a.Path == "" {
		return errors.New("archive-path cannot be empty when the archive is enabled")
	}
	if a.MaxResults <= 0 {
		return errors.New("archive-max-results must be positive")
	}

	return nil
}

// validateReviewSettings validates the review pipeline configuration
func validateReviewSettings(r *ReviewSettings) error {
	if r.Concurrency <= 0 {
		return errors.New("concurrency must be positive")
	}
	return nil
}
