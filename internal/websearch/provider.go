package websearch

import (
	"context"
)

// Result is a single search result entry. Order in a result slice is the
// provider's rank order and is preserved by all downstream stages.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
}

// Provider performs web searches.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// Links extracts the ordered list of non-empty result URLs.
func Links(results []Result) []string {
	links := make([]string, 0, len(results))
	for _, r := range results {
		if r.URL != "" {
			links = append(links, r.URL)
		}
	}
	return links
}
