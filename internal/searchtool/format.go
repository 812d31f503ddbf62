package searchtool

import (
	"fmt"
	"strings"
)

// Report strings are part of the tool contract consumed by downstream
// models; they must stay byte-stable across releases.
const (
	ImagePreamble = "[Image Search Results] The result of the image search consists of web page information related to the image from the user's original question. Each result includes the main image from the web page and its title, ranked in descending order of search relevance, as demonstrated below:\n"

	ImageFailureReport = "[Image Search Results] There is an error encountered in performing search. Please reason with your own capaibilities."

	ImageNoResultsReport = "[Image Search Results] No relevant results found for the provided image."

	TextPreamble = "[Text Search Results] Below are the text summaries of the most relevant webpages related to your query, ranked in descending order of relevance:\n"

	TextFailureReport = "[Text Search Results] There is an error encountered in performing search. Please reason with your own capaibilities."

	TextNoResultsReport = "[Text Search Results] No relevant results found for the provided query."

	// VisionPlaceholder marks where a consumer substitutes the actual
	// image in a multimodal prompt.
	VisionPlaceholder = "<|vision_start|><|image_pad|><|vision_end|>"
)

// FormatImageReport renders ranked image results. Entries with a decoded
// image carry the vision placeholder; title-only entries omit it. Source
// and link lines appear only when known.
func FormatImageReport(results []CandidateResult) string {
	var b strings.Builder
	b.WriteString(ImagePreamble)
	for _, res := range results {
		if res.Image != nil {
			fmt.Fprintf(&b, "%d. image: %s\ntitle: %s\n", res.Rank, VisionPlaceholder, res.Title)
		} else {
			fmt.Fprintf(&b, "%d. title: %s\n", res.Rank, res.Title)
		}
		if res.Source != "" {
			fmt.Fprintf(&b, "source: %s\n", res.Source)
		}
		if res.Link != "" {
			fmt.Fprintf(&b, "link: %s\n", res.Link)
		}
	}
	return b.String()
}

// FormatTextReport renders ranked page summaries as numbered
// "(url) summary" lines.
func FormatTextReport(results []CandidateResult) string {
	var b strings.Builder
	b.WriteString(TextPreamble)
	for _, res := range results {
		fmt.Fprintf(&b, "%d. (%s) %s\n", res.Rank, res.Link, res.Summary)
	}
	return b.String()
}

// TruncateForSummary bounds page text to the summarizer input budget
// without splitting a multi-byte rune.
func TruncateForSummary(text string) string {
	if len(text) <= maxSummaryChars {
		return text
	}
	count := 0
	for i := range text {
		if count == maxSummaryChars {
			return text[:i]
		}
		count++
	}
	return text
}
