package searchtool

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/hquan/msearch/internal/logger"
	"github.com/hquan/msearch/internal/websearch"
)

// Credentials holds the keys all three text-pipeline stages require.
// Every key is checked before the first outbound call so a misconfigured
// run fails without spending provider quota.
type Credentials struct {
	SearchKey  string
	ReaderKey  string
	SummaryKey string
}

// missing returns the env-var name of the first absent key, or "".
func (c Credentials) missing() string {
	switch {
	case strings.TrimSpace(c.SearchKey) == "":
		return "SERPAPI_API_KEY"
	case strings.TrimSpace(c.ReaderKey) == "":
		return "JINA_API_KEY"
	case strings.TrimSpace(c.SummaryKey) == "":
		return "OPENROUTER_API_KEY"
	}
	return ""
}

// TextPipeline runs web search, then fetches and summarizes each hit
// concurrently, then collates the summaries in rank order.
type TextPipeline struct {
	searcher    WebSearcher
	extractor   PageExtractor
	summarizer  Summarizer
	creds       Credentials
	defaultTopK int
}

// NewTextPipeline wires the pipeline. defaultTopK <= 0 falls back to
// DefaultTopK.
func NewTextPipeline(searcher WebSearcher, extractor PageExtractor, summarizer Summarizer, creds Credentials, defaultTopK int) *TextPipeline {
	return &TextPipeline{
		searcher:    searcher,
		extractor:   extractor,
		summarizer:  summarizer,
		creds:       creds,
		defaultTopK: defaultTopK,
	}
}

// Run executes one text search request and always returns a report string
// and a Status.
func (p *TextPipeline) Run(ctx context.Context, query string, topK int) (string, Status) {
	st := Status{RequestID: uuid.New().String(), Origin: OriginLive}

	if strings.TrimSpace(query) == "" {
		st.Error = "query cannot be empty"
		logger.Error("text search %s: %s", st.RequestID, st.Error)
		return TextFailureReport, st
	}
	if missing := p.creds.missing(); missing != "" {
		st.Error = fmt.Sprintf("%s is not set. Please set it as an environment variable.", missing)
		logger.Error("text search %s: %s", st.RequestID, st.Error)
		return TextFailureReport, st
	}

	topK = clampTopK(topK, p.defaultTopK)
	hits, err := p.searcher.Search(ctx, query, 0)
	if err != nil {
		st.Error = err.Error()
		logger.Error("text search %s failed: %v", st.RequestID, err)
		return TextFailureReport, st
	}
	links := websearch.Links(hits)
	if len(links) == 0 {
		logger.Info("text search %s: no results for %q", st.RequestID, query)
		return TextNoResultsReport, st
	}
	if len(links) > topK {
		links = links[:topK]
	}

	// Fan out one worker per link; a failed link leaves its slot empty
	// and never aborts the siblings.
	summaries := make([]string, len(links))
	var wg sync.WaitGroup
	for i, link := range links {
		wg.Add(1)
		go func(i int, link string) {
			defer wg.Done()
			summaries[i] = p.summarizeLink(ctx, query, link)
		}(i, link)
	}
	wg.Wait()

	var collated []CandidateResult
	for i, link := range links {
		if summaries[i] == "" {
			continue
		}
		collated = append(collated, CandidateResult{
			Rank:    len(collated) + 1,
			Link:    link,
			Summary: summaries[i],
		})
	}
	if len(collated) == 0 {
		logger.Warn("text search %s: all %d pages failed", st.RequestID, len(links))
		return TextFailureReport, st
	}
	st.Success = true
	st.ResultCount = len(collated)
	logger.Info("text search %s: %d summaries from %d links", st.RequestID, st.ResultCount, len(links))
	return FormatTextReport(collated), st
}

// summarizeLink fetches one page and summarizes it against the query.
// Any stage failure yields "" and is logged, not propagated.
func (p *TextPipeline) summarizeLink(ctx context.Context, query, link string) string {
	text, err := p.extractor.Extract(ctx, link)
	if err != nil {
		logger.Warn("no content retrieved for %s: %v", link, err)
		return ""
	}
	summary, err := p.summarizer.Summarize(ctx, query, TruncateForSummary(text))
	if err != nil {
		logger.Warn("failed to summarize %s: %v", link, err)
		return ""
	}
	return strings.TrimSpace(summary)
}
