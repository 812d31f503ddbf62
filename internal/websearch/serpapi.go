package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SerpAPIProvider queries the SerpAPI hosted search endpoint.
type SerpAPIProvider struct {
	baseURL   string
	apiKey    string
	engine    string
	userAgent string
	client    *http.Client
}

// NewSerpAPIProvider creates a SerpAPI-backed search provider.
func NewSerpAPIProvider(baseURL, apiKey, engine, userAgent string, timeout time.Duration) *SerpAPIProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://serpapi.com/search.json"
	}
	if strings.TrimSpace(engine) == "" {
		engine = "google"
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = "msearch/0.1"
	}
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &SerpAPIProvider{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    strings.TrimSpace(apiKey),
		engine:    engine,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

func (p *SerpAPIProvider) Name() string {
	return "serpapi"
}

type serpOrganicResult struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
}

type serpSearchResponse struct {
	SearchMetadata struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	} `json:"search_metadata"`
	OrganicResults []serpOrganicResult `json:"organic_results"`
}

// Search runs one query and returns results in provider rank order, truncated
// to limit when limit is positive.
func (p *SerpAPIProvider) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if p.apiKey == "" {
		return nil, fmt.Errorf("serpapi api key is not configured")
	}

	endpoint, err := url.Parse(p.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("engine", p.engine)
	params.Set("api_key", p.apiKey)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search request failed with status %d", resp.StatusCode)
	}

	var payload serpSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if payload.SearchMetadata.Error != "" {
		return nil, fmt.Errorf("search failed: %s", payload.SearchMetadata.Error)
	}

	results := make([]Result, 0, len(payload.OrganicResults))
	for _, res := range payload.OrganicResults {
		if limit > 0 && len(results) >= limit {
			break
		}
		link := strings.TrimSpace(res.Link)
		if link == "" {
			continue
		}
		results = append(results, Result{
			Title:   strings.TrimSpace(res.Title),
			URL:     link,
			Snippet: strings.TrimSpace(res.Snippet),
			Source:  p.Name(),
		})
	}

	return results, nil
}
