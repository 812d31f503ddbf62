// Package reader fetches readable page text through a reader-proxy service
// (r.jina.ai style): the target URL is appended to the service base URL and
// the service returns cleaned text.
package reader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxBodyBytes bounds how much extracted text is read from the service.
const maxBodyBytes = int64(2 << 20)

// Client extracts page text via the reader service.
type Client struct {
	baseURL   string
	apiKey    string
	userAgent string
	client    *http.Client
}

// NewClient creates a reader client.
func NewClient(baseURL, apiKey, userAgent string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://r.jina.ai"
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = "msearch/0.1"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    strings.TrimSpace(apiKey),
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

// HasAPIKey reports whether the client holds a credential.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// Extract fetches the readable text of pageURL. Any failure, including an
// empty body, is returned as an error; callers degrade rather than propagate.
func (c *Client) Extract(ctx context.Context, pageURL string) (string, error) {
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		return "", fmt.Errorf("page url cannot be empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch request failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	text := string(body)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no content retrieved for %s", pageURL)
	}

	return text, nil
}
