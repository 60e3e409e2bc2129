package grammar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultServiceURL is the public LanguageTool endpoint.
	DefaultServiceURL = "https://api.languagetool.org/v2/check"

	// DefaultLanguage is the locale the service is queried with.
	DefaultLanguage = "en-US"

	// DefaultTimeout bounds a single check request.
	DefaultTimeout = 30 * time.Second

	// retryBackoff is the base delay between retry attempts.
	retryBackoff = 500 * time.Millisecond
)

// Match is a single issue reported by a grammar checker, positioned by
// character offset within the checked text.
type Match struct {
	Offset       int           `json:"offset"`
	Length       int           `json:"length"`
	Message      string        `json:"message"`
	Context      MatchContext  `json:"context"`
	Replacements []Replacement `json:"replacements"`
}

// MatchContext is the service-local context window around an error span.
// The erroneous text must be re-located inside the original line through
// this window, not through the raw document offset.
type MatchContext struct {
	Text   string `json:"text"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

// Replacement is one proposed substitution, highest priority first.
type Replacement struct {
	Value string `json:"value"`
}

// ErrorText returns the erroneous span as seen by the service, extracted
// from the context window. Returns "" when the window bounds are invalid.
func (m Match) ErrorText() string {
	start := m.Context.Offset
	end := start + m.Context.Length
	if start < 0 || end < start || end > len(m.Context.Text) {
		return ""
	}
	return m.Context.Text[start:end]
}

// Checker reports grammar issues in plain text. Implementations may call
// a remote service or run a local engine; the adapter does not care.
type Checker interface {
	Check(ctx context.Context, text string) ([]Match, error)
}

// ClientConfig configures the HTTP grammar client.
type ClientConfig struct {
	URL      string
	Language string
	Timeout  time.Duration
	Retries  int
}

// Client checks text against a LanguageTool-compatible HTTP endpoint.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
}

// NewClient creates a grammar client, filling unset config fields with
// defaults.
func NewClient(cfg ClientConfig) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultServiceURL
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type checkResponse struct {
	Matches []Match `json:"matches"`
}

// Check posts the text and decodes the reported matches. Transient
// failures are retried with a linear backoff up to the configured number
// of retries; the last error is returned when all attempts fail.
func (c *Client) Check(ctx context.Context, text string) ([]Match, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * retryBackoff):
			}
		}

		matches, err := c.check(ctx, text)
		if err == nil {
			return matches, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) check(ctx context.Context, text string) ([]Match, error) {
	form := url.Values{}
	form.Set("text", text)
	form.Set("language", c.cfg.Language)
	form.Set("enabledOnly", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("grammar service request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("grammar service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode grammar service response: %w", err)
	}

	return decoded.Matches, nil
}
