package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prosaic-dev/prosaic/internal/domain"
)

const (
	// DefaultBaseURL is the GitHub REST API root.
	DefaultBaseURL = "https://api.github.com"

	// DefaultTimeout bounds a single API request.
	DefaultTimeout = 30 * time.Second
)

// ErrNotFound is returned when a requested resource does not exist, for
// example a file absent from the pull request's head branch.
var ErrNotFound = errors.New("resource not found")

// ClientConfig configures the GitHub API client.
type ClientConfig struct {
	// Token authenticates requests. Required for private repositories
	// and for creating reviews.
	Token string

	// BaseURL overrides the API root, mainly for tests and GitHub
	// Enterprise installs.
	BaseURL string

	Timeout time.Duration
}

// Client talks to the GitHub REST API for the pull request review flow.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
}

// NewClient creates a GitHub client, filling unset config fields with
// defaults.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type pullFile struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
}

// ListChangedMarkdownFiles returns the markdown files a pull request adds
// or modifies. Removed files are skipped since there is nothing left to
// review.
func (c *Client) ListChangedMarkdownFiles(ctx context.Context, owner, repo string, number int) ([]string, error) {
	var files []string

	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files?per_page=100&page=%d", c.cfg.BaseURL, owner, repo, number, page)

		var pageFiles []pullFile
		if err := c.get(ctx, url, &pageFiles); err != nil {
			return nil, fmt.Errorf("failed to list pull request files: %w", err)
		}
		if len(pageFiles) == 0 {
			break
		}

		for _, f := range pageFiles {
			if f.Status == "removed" || !domain.IsMarkdownPath(f.Filename) {
				continue
			}
			files = append(files, f.Filename)
		}
	}

	return files, nil
}

type contentResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// GetFileContent fetches a file's content at the given ref. Returns
// ErrNotFound when the file does not exist at that ref.
func (c *Client) GetFileContent(ctx context.Context, owner, repo, path, ref string) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s", c.cfg.BaseURL, owner, repo, path, ref)

	var decoded contentResponse
	if err := c.get(ctx, url, &decoded); err != nil {
		return "", err
	}

	if decoded.Encoding != "base64" {
		return "", fmt.Errorf("unexpected content encoding %q", decoded.Encoding)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(decoded.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("failed to decode file content: %w", err)
	}
	return string(raw), nil
}

// ReviewComment is a single line-anchored comment in a review.
type ReviewComment struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Side string `json:"side"`
	Body string `json:"body"`
}

type reviewRequest struct {
	Body     string          `json:"body"`
	Event    string          `json:"event"`
	Comments []ReviewComment `json:"comments"`
}

// CreateReview posts a COMMENT review on a pull request with the given
// line comments.
func (c *Client) CreateReview(ctx context.Context, owner, repo string, number int, body string, comments []ReviewComment) error {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/reviews", c.cfg.BaseURL, owner, repo, number)

	payload, err := json.Marshal(reviewRequest{
		Body:     body,
		Event:    "COMMENT",
		Comments: comments,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal review: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "token "+c.cfg.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github request failed: %w", err)
	}
	return resp, nil
}

func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("github returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
