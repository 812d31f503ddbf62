package searchtool

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/google/uuid"

	"github.com/hquan/msearch/internal/imagecache"
	"github.com/hquan/msearch/internal/imagesearch"
	"github.com/hquan/msearch/internal/imaging"
	"github.com/hquan/msearch/internal/logger"
)

// ImageRequest describes one reverse-image lookup. An HTTP(S) ImageURL
// selects the live provider; otherwise ItemID selects the cache. SplitHint
// picks the cache partition.
type ImageRequest struct {
	ImageURL   string
	TopK       int
	SearchType imagesearch.MatchType
	ItemID     string
	SplitHint  string
}

// ImageResolver answers image requests from the live provider or the
// precomputed cache and renders the report.
type ImageResolver struct {
	searcher    MatchSearcher
	fetcher     ImageFetcher
	cache       CacheLookup
	defaultTopK int
}

// NewImageResolver wires the resolver. defaultTopK <= 0 falls back to
// DefaultTopK.
func NewImageResolver(searcher MatchSearcher, fetcher ImageFetcher, cache CacheLookup, defaultTopK int) *ImageResolver {
	return &ImageResolver{
		searcher:    searcher,
		fetcher:     fetcher,
		cache:       cache,
		defaultTopK: defaultTopK,
	}
}

// Resolve executes one image request. It always returns a report string
// and a Status; results may be non-nil even on failure so callers can
// inspect what was retrieved.
func (r *ImageResolver) Resolve(ctx context.Context, req ImageRequest) (string, []CandidateResult, Status) {
	st := Status{RequestID: uuid.New().String()}
	topK := clampTopK(req.TopK, r.defaultTopK)

	var (
		results []CandidateResult
		err     error
	)
	switch {
	case imaging.IsHTTPURL(req.ImageURL):
		st.Origin = OriginLive
		results, err = r.queryLive(ctx, req.ImageURL, req.SearchType, topK)
	case strings.TrimSpace(req.ItemID) != "":
		st.Origin = OriginCache
		results, err = r.resolveFromCache(ctx, req.ItemID, req.SplitHint, topK)
	default:
		st.Error = "no URL and no cache key"
		logger.Error("image search %s: %s", st.RequestID, st.Error)
		return ImageFailureReport, nil, st
	}
	if err != nil {
		st.Error = err.Error()
		logger.Error("image search %s failed: %v", st.RequestID, err)
		return ImageFailureReport, nil, st
	}
	if results == nil {
		logger.Info("image search %s: no matches", st.RequestID)
		return ImageNoResultsReport, nil, st
	}

	st.ResultCount = len(results)
	for _, res := range results {
		if res.Image != nil {
			st.ImageCount++
		}
	}
	// A result set without a single retrievable image is useless to a
	// multimodal consumer and is reported as a failure.
	st.Success = st.ImageCount > 0
	if !st.Success {
		logger.Warn("image search %s: %d results but no retrievable images", st.RequestID, st.ResultCount)
		return ImageFailureReport, results, st
	}
	logger.Info("image search %s: %d results, %d images (%s)", st.RequestID, st.ResultCount, st.ImageCount, st.Origin)
	return FormatImageReport(results), results, st
}

// queryLive asks the provider and fetches each match's preferred image.
// A nil, nil return means the provider answered with zero matches.
func (r *ImageResolver) queryLive(ctx context.Context, imageURL string, matchType imagesearch.MatchType, topK int) ([]CandidateResult, error) {
	matches, err := r.searcher.Search(ctx, imageURL, matchType)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	if len(matches) > topK {
		matches = matches[:topK]
	}
	results := make([]CandidateResult, 0, len(matches))
	for i, m := range matches {
		title := strings.TrimSpace(m.Title)
		if title == "" {
			title = fmt.Sprintf("Result %d", i+1)
		}
		var img *image.RGBA
		if u := m.FetchURL(); u != "" {
			img = r.fetcher.Fetch(ctx, u)
		}
		results = append(results, CandidateResult{
			Rank:   i + 1,
			Title:  title,
			Image:  img,
			Link:   m.Link,
			Source: m.Source,
		})
	}
	return results, nil
}

// resolveFromCache materializes a precomputed entry. Stored references are
// either URLs to fetch or inline encoded images to decode; an undecodable
// reference degrades to a title-only result.
func (r *ImageResolver) resolveFromCache(ctx context.Context, itemID, splitHint string, topK int) ([]CandidateResult, error) {
	partition := imagecache.PartitionForSplit(splitHint)
	entry, found, err := r.cache.Lookup(partition, itemID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("cache miss")
	}
	refs := entry.Refs
	if len(refs) > topK {
		refs = refs[:topK]
	}
	if len(refs) == 0 {
		return nil, nil
	}
	results := make([]CandidateResult, 0, len(refs))
	for i, ref := range refs {
		var img *image.RGBA
		switch {
		case len(ref.Image) > 0:
			decoded, derr := imaging.Decode(ref.Image)
			if derr != nil {
				logger.Warn("cached image %s[%d] undecodable: %v", itemID, i, derr)
			} else {
				img = decoded
			}
		case ref.URL != "":
			img = r.fetcher.Fetch(ctx, ref.URL)
		}
		results = append(results, CandidateResult{
			Rank:  i + 1,
			Title: entry.Title(i),
			Image: img,
		})
	}
	return results, nil
}
