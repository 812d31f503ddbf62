package imagesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// MatchType selects which class of reverse-image matches the provider returns.
type MatchType string

const (
	MatchAll     MatchType = "all"
	MatchProduct MatchType = "products"
	MatchExact   MatchType = "exact_matches"
	MatchVisual  MatchType = "visual_matches"
)

// ParseMatchType maps a user-supplied string onto a MatchType, defaulting to
// visual matches.
func ParseMatchType(s string) MatchType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all":
		return MatchAll
	case "products":
		return MatchProduct
	case "exact_matches":
		return MatchExact
	default:
		return MatchVisual
	}
}

// Match is one reverse-image hit in provider rank order.
type Match struct {
	Position  int    `json:"position"`
	Title     string `json:"title"`
	Link      string `json:"link"`
	Source    string `json:"source"`
	Thumbnail string `json:"thumbnail"`
	Image     string `json:"image"`
}

// FetchURL returns the URL to download this match's image from, preferring
// the thumbnail over the full image.
func (m Match) FetchURL() string {
	if m.Thumbnail != "" {
		return m.Thumbnail
	}
	return m.Image
}

// Client queries the SerpAPI Google Lens endpoint.
type Client struct {
	baseURL   string
	apiKey    string
	userAgent string
	client    *http.Client
}

// NewClient creates a reverse-image search client.
func NewClient(baseURL, apiKey, userAgent string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://serpapi.com/search.json"
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = "msearch/0.1"
	}
	if timeout <= 0 {
		timeout = 300 * time.Second
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

type lensResponse struct {
	SearchMetadata struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	} `json:"search_metadata"`
	VisualMatches []Match `json:"visual_matches"`
}

// Search runs a reverse-image search for a publicly reachable image URL and
// returns the matches in provider rank order. An empty match list with a nil
// error is a valid outcome.
func (c *Client) Search(ctx context.Context, imageURL string, matchType MatchType) ([]Match, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("SERPAPI_API_KEY is not set")
	}
	if matchType == "" {
		matchType = MatchVisual
	}

	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	params := url.Values{}
	params.Set("engine", "google_lens")
	params.Set("url", imageURL)
	params.Set("api_key", c.apiKey)
	params.Set("type", string(matchType))
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search request failed with status %d", resp.StatusCode)
	}

	var payload lensResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if payload.SearchMetadata.Status != "Success" {
		msg := fmt.Sprintf("search failed with status: %s", payload.SearchMetadata.Status)
		if payload.SearchMetadata.Error != "" {
			msg += " - " + payload.SearchMetadata.Error
		}
		return nil, fmt.Errorf("%s", msg)
	}

	return payload.VisualMatches, nil
}
