package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/hquan/msearch/internal/searchtool"
)

// TextPipeline is the part of the text search pipeline the tool needs.
type TextPipeline interface {
	Run(ctx context.Context, query string, topK int) (string, searchtool.Status)
}

// TextSearchTool searches the web and returns collated page summaries.
type TextSearchTool struct {
	pipeline TextPipeline
}

// NewTextSearchTool creates a text search tool.
func NewTextSearchTool(pipeline TextPipeline) *TextSearchTool {
	return &TextSearchTool{pipeline: pipeline}
}

func (t *TextSearchTool) Name() string {
	return "text_search"
}

func (t *TextSearchTool) Description() string {
	return "Search the web for a query and return ranked summaries of the most relevant pages."
}

func (t *TextSearchTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "query",
			Type:        "string",
			Description: "Search query",
			Required:    true,
		},
		{
			Name:        "top_k",
			Type:        "number",
			Description: "Number of pages to summarize (default from config)",
			Required:    false,
		},
	}
}

func (t *TextSearchTool) Execute(args map[string]any) (string, error) {
	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("missing required parameter: query")
	}

	topK := 0
	if val, ok := args["top_k"].(float64); ok && val > 0 {
		topK = int(val)
	}

	report, _ := t.pipeline.Run(context.Background(), query, topK)
	return report, nil
}
