// Package searchtool implements the two retrieval tools exposed to agents:
// reverse-image search (live provider or precomputed cache) and web text
// search with per-page summarization. Provider faults never escape this
// package; every request yields exactly one report string and one Status.
package searchtool

import (
	"context"
	"image"

	"github.com/hquan/msearch/internal/imagecache"
	"github.com/hquan/msearch/internal/imagesearch"
	"github.com/hquan/msearch/internal/websearch"
)

const (
	// DefaultTopK is the fallback number of results per request.
	DefaultTopK = 3

	// maxTopK guards against absurd fan-out widths; requests are small
	// (single digits) in practice.
	maxTopK = 25

	// maxSummaryChars bounds the page text handed to the summarizer.
	maxSummaryChars = 20000
)

// Origin records whether image results came from the live provider or the
// precomputed cache.
type Origin string

const (
	OriginLive  Origin = "live"
	OriginCache Origin = "cache"
)

// CandidateResult is one ranked hit. Ranks are contiguous from 1 in every
// returned sequence.
type CandidateResult struct {
	Rank    int
	Title   string
	Image   *image.RGBA // populated only when the fetch succeeded
	Link    string
	Source  string
	Summary string // text variant only
}

// Status is the single terminal execution record produced per request.
type Status struct {
	RequestID   string
	Success     bool
	ResultCount int
	ImageCount  int // image variant only
	Origin      Origin
	Error       string
}

// WebSearcher returns candidate URLs for a query in provider rank order.
type WebSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]websearch.Result, error)
}

// PageExtractor fetches readable page text.
type PageExtractor interface {
	Extract(ctx context.Context, pageURL string) (string, error)
}

// Summarizer produces a query-focused summary of page text.
type Summarizer interface {
	Summarize(ctx context.Context, query, pageText string) (string, error)
}

// MatchSearcher performs a reverse-image search.
type MatchSearcher interface {
	Search(ctx context.Context, imageURL string, matchType imagesearch.MatchType) ([]imagesearch.Match, error)
}

// ImageFetcher downloads and decodes one image, nil on failure.
type ImageFetcher interface {
	Fetch(ctx context.Context, rawURL string) *image.RGBA
}

// CacheLookup resolves precomputed image results by item ID.
type CacheLookup interface {
	Lookup(partition, itemID string) (imagecache.Entry, bool, error)
}

// clampTopK applies the default and the upper bound.
func clampTopK(topK, fallback int) int {
	if topK <= 0 {
		topK = fallback
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > maxTopK {
		topK = maxTopK
	}
	return topK
}
