package searchtool

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/hquan/msearch/internal/imagecache"
	"github.com/hquan/msearch/internal/imagesearch"
)

type fakeMatchSearcher struct {
	matches []imagesearch.Match
	err     error
	calls   int
}

func (f *fakeMatchSearcher) Search(_ context.Context, _ string, _ imagesearch.MatchType) ([]imagesearch.Match, error) {
	f.calls++
	return f.matches, f.err
}

type fakeFetcher struct {
	mu     sync.Mutex
	images map[string]*image.RGBA
	calls  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) *image.RGBA {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, rawURL)
	return f.images[rawURL]
}

type fakeCache struct {
	entries map[string]imagecache.Entry
	err     error
	lastKey string
}

func (f *fakeCache) Lookup(partition, itemID string) (imagecache.Entry, bool, error) {
	f.lastKey = partition + "/" + itemID
	if f.err != nil {
		return imagecache.Entry{}, false, f.err
	}
	e, ok := f.entries[itemID]
	return e, ok, nil
}

func testImage(t *testing.T) *image.RGBA {
	t.Helper()
	return image.NewRGBA(image.Rect(0, 0, 2, 2))
}

func pngData(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestImageResolverLiveSuccess(t *testing.T) {
	img := testImage(t)
	searcher := &fakeMatchSearcher{matches: []imagesearch.Match{
		{Title: "First", Link: "https://a.example", Source: "a.example", Thumbnail: "https://thumb/1"},
		{Title: "Second", Link: "https://b.example", Image: "https://full/2"},
	}}
	fetcher := &fakeFetcher{images: map[string]*image.RGBA{
		"https://thumb/1": img,
		"https://full/2":  img,
	}}
	resolver := NewImageResolver(searcher, fetcher, &fakeCache{}, 3)

	report, results, st := resolver.Resolve(context.Background(), ImageRequest{ImageURL: "https://img.example/q.jpg"})

	if !st.Success {
		t.Fatalf("Success = false, error = %q", st.Error)
	}
	if st.Origin != OriginLive {
		t.Errorf("Origin = %q, want %q", st.Origin, OriginLive)
	}
	if st.ResultCount != 2 || st.ImageCount != 2 {
		t.Errorf("counts = (%d, %d), want (2, 2)", st.ResultCount, st.ImageCount)
	}
	if st.RequestID == "" {
		t.Errorf("RequestID is empty")
	}
	for i, res := range results {
		if res.Rank != i+1 {
			t.Errorf("results[%d].Rank = %d, want %d", i, res.Rank, i+1)
		}
	}
	if !strings.Contains(report, "1. image: "+VisionPlaceholder) {
		t.Errorf("report missing first image line: %q", report)
	}
	if !strings.Contains(report, "source: a.example\n") {
		t.Errorf("report missing source line: %q", report)
	}
}

func TestImageResolverPrefersThumbnail(t *testing.T) {
	searcher := &fakeMatchSearcher{matches: []imagesearch.Match{
		{Title: "Hit", Thumbnail: "https://thumb/1", Image: "https://full/1"},
	}}
	fetcher := &fakeFetcher{images: map[string]*image.RGBA{"https://thumb/1": testImage(t)}}
	resolver := NewImageResolver(searcher, fetcher, &fakeCache{}, 3)

	resolver.Resolve(context.Background(), ImageRequest{ImageURL: "https://img.example/q.jpg"})

	if len(fetcher.calls) != 1 || fetcher.calls[0] != "https://thumb/1" {
		t.Errorf("fetch calls = %v, want only the thumbnail", fetcher.calls)
	}
}

func TestImageResolverTitleFallback(t *testing.T) {
	searcher := &fakeMatchSearcher{matches: []imagesearch.Match{
		{Title: "  ", Thumbnail: "https://thumb/1"},
		{Title: "Named", Thumbnail: "https://thumb/2"},
	}}
	fetcher := &fakeFetcher{images: map[string]*image.RGBA{
		"https://thumb/1": testImage(t),
		"https://thumb/2": testImage(t),
	}}
	resolver := NewImageResolver(searcher, fetcher, &fakeCache{}, 3)

	_, results, _ := resolver.Resolve(context.Background(), ImageRequest{ImageURL: "https://img.example/q.jpg"})

	if results[0].Title != "Result 1" {
		t.Errorf("results[0].Title = %q, want %q", results[0].Title, "Result 1")
	}
	if results[1].Title != "Named" {
		t.Errorf("results[1].Title = %q, want %q", results[1].Title, "Named")
	}
}

func TestImageResolverTopKTruncation(t *testing.T) {
	img := testImage(t)
	var matches []imagesearch.Match
	images := map[string]*image.RGBA{}
	for _, u := range []string{"https://t/1", "https://t/2", "https://t/3", "https://t/4", "https://t/5"} {
		matches = append(matches, imagesearch.Match{Title: u, Thumbnail: u})
		images[u] = img
	}
	resolver := NewImageResolver(&fakeMatchSearcher{matches: matches}, &fakeFetcher{images: images}, &fakeCache{}, 3)

	_, results, st := resolver.Resolve(context.Background(), ImageRequest{ImageURL: "https://img.example/q.jpg", TopK: 2})

	if len(results) != 2 || st.ResultCount != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
}

func TestImageResolverNoMatches(t *testing.T) {
	resolver := NewImageResolver(&fakeMatchSearcher{}, &fakeFetcher{}, &fakeCache{}, 3)

	report, results, st := resolver.Resolve(context.Background(), ImageRequest{ImageURL: "https://img.example/q.jpg"})

	if report != ImageNoResultsReport {
		t.Errorf("report = %q, want no-results report", report)
	}
	if st.Success || st.Error != "" || results != nil {
		t.Errorf("empty result set must not be an error: %+v", st)
	}
}

func TestImageResolverProviderError(t *testing.T) {
	searcher := &fakeMatchSearcher{err: context.DeadlineExceeded}
	resolver := NewImageResolver(searcher, &fakeFetcher{}, &fakeCache{}, 3)

	report, _, st := resolver.Resolve(context.Background(), ImageRequest{ImageURL: "https://img.example/q.jpg"})

	if report != ImageFailureReport {
		t.Errorf("report = %q, want failure report", report)
	}
	if st.Success || st.Error == "" {
		t.Errorf("status = %+v, want failure with error message", st)
	}
}

func TestImageResolverAllFetchesFail(t *testing.T) {
	searcher := &fakeMatchSearcher{matches: []imagesearch.Match{
		{Title: "First", Thumbnail: "https://gone/1"},
		{Title: "Second", Thumbnail: "https://gone/2"},
	}}
	resolver := NewImageResolver(searcher, &fakeFetcher{}, &fakeCache{}, 3)

	report, results, st := resolver.Resolve(context.Background(), ImageRequest{ImageURL: "https://img.example/q.jpg"})

	if report != ImageFailureReport {
		t.Errorf("report = %q, want failure report", report)
	}
	if st.Success {
		t.Errorf("Success = true with zero retrievable images")
	}
	if st.ResultCount != 2 || st.ImageCount != 0 {
		t.Errorf("counts = (%d, %d), want (2, 0)", st.ResultCount, st.ImageCount)
	}
	if len(results) != 2 {
		t.Errorf("results still returned for inspection, got %d", len(results))
	}
}

func TestImageResolverCacheHit(t *testing.T) {
	img := testImage(t)
	cache := &fakeCache{entries: map[string]imagecache.Entry{
		"item-7": {
			Titles: []string{"Alpha", "Beta"},
			Refs: []imagecache.Ref{
				{URL: "https://c/1"},
				{URL: "https://c/2"},
				{URL: "https://c/3"},
				{URL: "https://c/4"},
			},
		},
	}}
	fetcher := &fakeFetcher{images: map[string]*image.RGBA{
		"https://c/1": img, "https://c/2": img, "https://c/3": img,
	}}
	resolver := NewImageResolver(&fakeMatchSearcher{}, fetcher, cache, 3)

	_, results, st := resolver.Resolve(context.Background(), ImageRequest{ItemID: "item-7", SplitHint: "train_v2"})

	if !st.Success || st.Origin != OriginCache {
		t.Fatalf("status = %+v, want cache success", st)
	}
	if cache.lastKey != "train/item-7" {
		t.Errorf("lookup key = %q, want train partition", cache.lastKey)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	wantTitles := []string{"Alpha", "Beta", "Result 3"}
	for i, res := range results {
		if res.Title != wantTitles[i] {
			t.Errorf("results[%d].Title = %q, want %q", i, res.Title, wantTitles[i])
		}
		if res.Rank != i+1 {
			t.Errorf("results[%d].Rank = %d, want %d", i, res.Rank, i+1)
		}
	}
}

func TestImageResolverCacheInlineImage(t *testing.T) {
	cache := &fakeCache{entries: map[string]imagecache.Entry{
		"item-1": {
			Titles: []string{"Inline"},
			Refs:   []imagecache.Ref{{Image: pngData(t)}},
		},
	}}
	fetcher := &fakeFetcher{}
	resolver := NewImageResolver(&fakeMatchSearcher{}, fetcher, cache, 3)

	_, results, st := resolver.Resolve(context.Background(), ImageRequest{ItemID: "item-1", SplitHint: "test"})

	if !st.Success {
		t.Fatalf("Success = false, error = %q", st.Error)
	}
	if results[0].Image == nil {
		t.Errorf("inline reference not decoded")
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("inline reference must not trigger a fetch, got %v", fetcher.calls)
	}
}

func TestImageResolverCacheMiss(t *testing.T) {
	resolver := NewImageResolver(&fakeMatchSearcher{}, &fakeFetcher{}, &fakeCache{}, 3)

	report, _, st := resolver.Resolve(context.Background(), ImageRequest{ItemID: "unknown", SplitHint: "test"})

	if report != ImageFailureReport {
		t.Errorf("report = %q, want failure report", report)
	}
	if st.Error != "cache miss" {
		t.Errorf("Error = %q, want %q", st.Error, "cache miss")
	}
}

func TestImageResolverNoInput(t *testing.T) {
	searcher := &fakeMatchSearcher{}
	resolver := NewImageResolver(searcher, &fakeFetcher{}, &fakeCache{}, 3)

	report, _, st := resolver.Resolve(context.Background(), ImageRequest{ImageURL: "file:///etc/passwd"})

	if report != ImageFailureReport {
		t.Errorf("report = %q, want failure report", report)
	}
	if st.Error != "no URL and no cache key" {
		t.Errorf("Error = %q", st.Error)
	}
	if searcher.calls != 0 {
		t.Errorf("provider called %d times for invalid input", searcher.calls)
	}
}
