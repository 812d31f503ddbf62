package searchtool

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/hquan/msearch/internal/websearch"
)

type fakeWebSearcher struct {
	results []websearch.Result
	err     error
	calls   int
}

func (f *fakeWebSearcher) Search(_ context.Context, _ string, _ int) ([]websearch.Result, error) {
	f.calls++
	return f.results, f.err
}

type fakeExtractor struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (f *fakeExtractor) Extract(_ context.Context, pageURL string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, pageURL)
	f.mu.Unlock()
	text, ok := f.pages[pageURL]
	if !ok {
		return "", errors.New("fetch failed")
	}
	return text, nil
}

type fakeSummarizer struct {
	mu     sync.Mutex
	texts  []string
	failOn string
}

func (f *fakeSummarizer) Summarize(_ context.Context, _ string, text string) (string, error) {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return "", errors.New("summarizer unavailable")
	}
	return "summary of " + text, nil
}

var testCreds = Credentials{SearchKey: "sk", ReaderKey: "rk", SummaryKey: "ok"}

func hits(urls ...string) []websearch.Result {
	var out []websearch.Result
	for _, u := range urls {
		out = append(out, websearch.Result{Title: u, URL: u})
	}
	return out
}

func TestTextPipelineSuccess(t *testing.T) {
	searcher := &fakeWebSearcher{results: hits("https://a.example", "https://b.example", "https://c.example")}
	extractor := &fakeExtractor{pages: map[string]string{
		"https://a.example": "page a",
		"https://b.example": "page b",
		"https://c.example": "page c",
	}}
	p := NewTextPipeline(searcher, extractor, &fakeSummarizer{}, testCreds, 3)

	report, st := p.Run(context.Background(), "test query", 3)

	if !st.Success {
		t.Fatalf("Success = false, error = %q", st.Error)
	}
	if st.ResultCount != 3 {
		t.Errorf("ResultCount = %d, want 3", st.ResultCount)
	}
	if st.RequestID == "" {
		t.Errorf("RequestID is empty")
	}
	want := TextPreamble +
		"1. (https://a.example) summary of page a\n" +
		"2. (https://b.example) summary of page b\n" +
		"3. (https://c.example) summary of page c\n"
	if report != want {
		t.Errorf("report = %q, want %q", report, want)
	}
}

func TestTextPipelineCredentialGating(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		wantKey string
	}{
		{"missing search key", Credentials{ReaderKey: "rk", SummaryKey: "ok"}, "SERPAPI_API_KEY"},
		{"missing reader key", Credentials{SearchKey: "sk", SummaryKey: "ok"}, "JINA_API_KEY"},
		{"missing summary key", Credentials{SearchKey: "sk", ReaderKey: "rk"}, "OPENROUTER_API_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &fakeWebSearcher{results: hits("https://a.example")}
			extractor := &fakeExtractor{}
			p := NewTextPipeline(searcher, extractor, &fakeSummarizer{}, tt.creds, 3)

			report, st := p.Run(context.Background(), "test query", 3)

			if report != TextFailureReport {
				t.Errorf("report = %q, want failure report", report)
			}
			if !strings.Contains(st.Error, tt.wantKey) {
				t.Errorf("Error = %q, want mention of %s", st.Error, tt.wantKey)
			}
			if searcher.calls != 0 || len(extractor.calls) != 0 {
				t.Errorf("outbound calls made despite missing credential")
			}
		})
	}
}

func TestTextPipelineEmptyQuery(t *testing.T) {
	searcher := &fakeWebSearcher{}
	p := NewTextPipeline(searcher, &fakeExtractor{}, &fakeSummarizer{}, testCreds, 3)

	report, st := p.Run(context.Background(), "   ", 3)

	if report != TextFailureReport {
		t.Errorf("report = %q, want failure report", report)
	}
	if st.Error == "" || searcher.calls != 0 {
		t.Errorf("status = %+v, searcher calls = %d", st, searcher.calls)
	}
}

func TestTextPipelineSearchError(t *testing.T) {
	searcher := &fakeWebSearcher{err: errors.New("provider down")}
	p := NewTextPipeline(searcher, &fakeExtractor{}, &fakeSummarizer{}, testCreds, 3)

	report, st := p.Run(context.Background(), "test query", 3)

	if report != TextFailureReport {
		t.Errorf("report = %q, want failure report", report)
	}
	if st.Error != "provider down" {
		t.Errorf("Error = %q", st.Error)
	}
}

func TestTextPipelineNoResults(t *testing.T) {
	p := NewTextPipeline(&fakeWebSearcher{}, &fakeExtractor{}, &fakeSummarizer{}, testCreds, 3)

	report, st := p.Run(context.Background(), "obscure query", 3)

	if report != TextNoResultsReport {
		t.Errorf("report = %q, want no-results report", report)
	}
	if st.Success || st.Error != "" || st.ResultCount != 0 {
		t.Errorf("empty result set must not be an error: %+v", st)
	}
}

func TestTextPipelineSkipsFailedLinks(t *testing.T) {
	searcher := &fakeWebSearcher{results: hits("https://a.example", "https://broken.example", "https://c.example")}
	extractor := &fakeExtractor{pages: map[string]string{
		"https://a.example": "page a",
		"https://c.example": "page c",
	}}
	p := NewTextPipeline(searcher, extractor, &fakeSummarizer{}, testCreds, 3)

	report, st := p.Run(context.Background(), "test query", 3)

	if !st.Success || st.ResultCount != 2 {
		t.Fatalf("status = %+v, want 2 results", st)
	}
	// Survivors keep provider order under fresh contiguous ranks.
	want := TextPreamble +
		"1. (https://a.example) summary of page a\n" +
		"2. (https://c.example) summary of page c\n"
	if report != want {
		t.Errorf("report = %q, want %q", report, want)
	}
}

func TestTextPipelineSummarizerFailure(t *testing.T) {
	searcher := &fakeWebSearcher{results: hits("https://a.example", "https://b.example")}
	extractor := &fakeExtractor{pages: map[string]string{
		"https://a.example": "page a",
		"https://b.example": "page b",
	}}
	p := NewTextPipeline(searcher, extractor, &fakeSummarizer{failOn: "page a"}, testCreds, 3)

	report, st := p.Run(context.Background(), "test query", 3)

	if !st.Success || st.ResultCount != 1 {
		t.Fatalf("status = %+v, want 1 result", st)
	}
	if !strings.Contains(report, "1. (https://b.example)") {
		t.Errorf("report = %q", report)
	}
}

func TestTextPipelineAllPagesFail(t *testing.T) {
	searcher := &fakeWebSearcher{results: hits("https://a.example", "https://b.example")}
	p := NewTextPipeline(searcher, &fakeExtractor{}, &fakeSummarizer{}, testCreds, 3)

	report, st := p.Run(context.Background(), "test query", 3)

	if report != TextFailureReport {
		t.Errorf("report = %q, want failure report", report)
	}
	if st.Success {
		t.Errorf("Success = true with zero summaries")
	}
}

func TestTextPipelineTopKLimitsFanOut(t *testing.T) {
	searcher := &fakeWebSearcher{results: hits(
		"https://1.example", "https://2.example", "https://3.example",
		"https://4.example", "https://5.example",
	)}
	extractor := &fakeExtractor{pages: map[string]string{
		"https://1.example": "p1",
		"https://2.example": "p2",
	}}
	p := NewTextPipeline(searcher, extractor, &fakeSummarizer{}, testCreds, 3)

	_, st := p.Run(context.Background(), "test query", 2)

	if st.ResultCount != 2 {
		t.Errorf("ResultCount = %d, want 2", st.ResultCount)
	}
	if len(extractor.calls) != 2 {
		t.Errorf("extractor called %d times, want 2", len(extractor.calls))
	}
}

func TestTextPipelineTruncatesPageText(t *testing.T) {
	long := strings.Repeat("x", maxSummaryChars+5000)
	searcher := &fakeWebSearcher{results: hits("https://long.example")}
	extractor := &fakeExtractor{pages: map[string]string{"https://long.example": long}}
	summarizer := &fakeSummarizer{}
	p := NewTextPipeline(searcher, extractor, summarizer, testCreds, 3)

	_, st := p.Run(context.Background(), "test query", 1)

	if !st.Success {
		t.Fatalf("Success = false, error = %q", st.Error)
	}
	if len(summarizer.texts) != 1 || len(summarizer.texts[0]) != maxSummaryChars {
		t.Errorf("summarizer received %d chars, want %d", len(summarizer.texts[0]), maxSummaryChars)
	}
}

func TestTextPipelineIdempotentReports(t *testing.T) {
	searcher := &fakeWebSearcher{results: hits("https://a.example")}
	extractor := &fakeExtractor{pages: map[string]string{"https://a.example": "page a"}}
	p := NewTextPipeline(searcher, extractor, &fakeSummarizer{}, testCreds, 3)

	first, _ := p.Run(context.Background(), "test query", 3)
	second, _ := p.Run(context.Background(), "test query", 3)

	if first != second {
		t.Errorf("reports differ across identical runs:\n%q\n%q", first, second)
	}
}
