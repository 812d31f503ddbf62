package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/hquan/msearch/internal/imagesearch"
	"github.com/hquan/msearch/internal/searchtool"
)

// ImageResolver is the part of the image search resolver the tool needs.
type ImageResolver interface {
	Resolve(ctx context.Context, req searchtool.ImageRequest) (string, []searchtool.CandidateResult, searchtool.Status)
}

// ImageSearchTool performs reverse-image search from a URL or from the
// precomputed cache.
type ImageSearchTool struct {
	resolver ImageResolver
}

// NewImageSearchTool creates an image search tool.
func NewImageSearchTool(resolver ImageResolver) *ImageSearchTool {
	return &ImageSearchTool{resolver: resolver}
}

func (t *ImageSearchTool) Name() string {
	return "image_search"
}

func (t *ImageSearchTool) Description() string {
	return "Reverse-search an image by URL and return ranked pages featuring it, with titles and thumbnails."
}

func (t *ImageSearchTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "image_url",
			Type:        "string",
			Description: "HTTP(S) URL of the query image",
			Required:    false,
		},
		{
			Name:        "item_id",
			Type:        "string",
			Description: "Cache key for precomputed results (used when no URL is given)",
			Required:    false,
		},
		{
			Name:        "split",
			Type:        "string",
			Description: "Dataset split hint selecting the cache partition",
			Required:    false,
		},
		{
			Name:        "search_type",
			Type:        "string",
			Description: "Match type: all, products, exact_matches or visual_matches",
			Required:    false,
		},
		{
			Name:        "top_k",
			Type:        "number",
			Description: "Number of results to return (default from config)",
			Required:    false,
		},
	}
}

func (t *ImageSearchTool) Execute(args map[string]any) (string, error) {
	req := searchtool.ImageRequest{
		SearchType: imagesearch.MatchVisual,
	}
	if v, ok := args["image_url"].(string); ok {
		req.ImageURL = strings.TrimSpace(v)
	}
	if v, ok := args["item_id"].(string); ok {
		req.ItemID = strings.TrimSpace(v)
	}
	if v, ok := args["split"].(string); ok {
		req.SplitHint = v
	}
	if v, ok := args["search_type"].(string); ok && strings.TrimSpace(v) != "" {
		req.SearchType = imagesearch.ParseMatchType(v)
	}
	if v, ok := args["top_k"].(float64); ok && v > 0 {
		req.TopK = int(v)
	}
	if req.ImageURL == "" && req.ItemID == "" {
		return "", fmt.Errorf("either image_url or item_id is required")
	}

	report, _, _ := t.resolver.Resolve(context.Background(), req)
	return report, nil
}
