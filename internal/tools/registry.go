package tools

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hquan/msearch/internal/config"
	"github.com/hquan/msearch/internal/imagecache"
	"github.com/hquan/msearch/internal/imagesearch"
	"github.com/hquan/msearch/internal/imaging"
	"github.com/hquan/msearch/internal/llm"
	"github.com/hquan/msearch/internal/reader"
	"github.com/hquan/msearch/internal/searchtool"
	"github.com/hquan/msearch/internal/websearch"
)

// Registry tool registry
type Registry struct {
	tools map[string]Tool
	mu    sync.RWMutex
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register registers a tool
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already exists", name)
	}

	r.tools[name] = tool
	return nil
}

// Get gets a tool by name
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	return tool, exists
}

// List lists all tools
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	return tools
}

// Execute executes a tool by name
func (r *Registry) Execute(name string, args map[string]any) (string, error) {
	tool, exists := r.Get(name)
	if !exists {
		return "", fmt.Errorf("tool not found: %s", name)
	}
	return tool.Execute(args)
}

// ToolSchema tool schema (for Function Calling)
type ToolSchema struct {
	Type     string         `json:"type"`
	Function FunctionSchema `json:"function"`
}

// FunctionSchema function schema
type FunctionSchema struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// GetSchemas gets all tool schemas for Function Calling
func (r *Registry) GetSchemas() []ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemas := make([]ToolSchema, 0, len(r.tools))
	for _, tool := range r.tools {
		schema := ToolSchema{
			Type: "function",
			Function: FunctionSchema{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  buildParameterSchema(tool.Parameters()),
			},
		}
		schemas = append(schemas, schema)
	}
	return schemas
}

// buildParameterSchema builds parameter schema
func buildParameterSchema(params []ParameterDef) map[string]interface{} {
	properties := make(map[string]interface{})
	required := make([]string, 0)

	for _, param := range params {
		properties[param.Name] = map[string]interface{}{
			"type":        param.Type,
			"description": param.Description,
		}
		if param.Required {
			required = append(required, param.Name)
		}
	}

	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

// NewDefaultRegistry wires both search tools from config and registers them.
func NewDefaultRegistry(cfg *config.Config) *Registry {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	searchTimeout := time.Duration(cfg.Search.TimeoutSeconds) * time.Second
	readerTimeout := time.Duration(cfg.Reader.TimeoutSeconds) * time.Second
	summaryTimeout := time.Duration(cfg.Summary.TimeoutSeconds) * time.Second
	imageTimeout := time.Duration(cfg.Image.TimeoutSeconds) * time.Second

	var webProvider websearch.Provider
	switch strings.ToLower(strings.TrimSpace(cfg.Search.Provider)) {
	case "searxng":
		webProvider = websearch.NewSearXNGProvider(cfg.Search.BaseURL, cfg.Search.UserAgent, cfg.Search.APIKey, searchTimeout)
	default:
		webProvider = websearch.NewSerpAPIProvider(cfg.Search.BaseURL, cfg.Search.APIKey, cfg.Search.Engine, cfg.Search.UserAgent, searchTimeout)
	}

	pipeline := searchtool.NewTextPipeline(
		webProvider,
		reader.NewClient(cfg.Reader.BaseURL, cfg.Reader.APIKey, cfg.Search.UserAgent, readerTimeout),
		llm.New(cfg.Summary.APIKey, cfg.Summary.BaseURL, cfg.Summary.Model, cfg.Summary.Temperature, cfg.Summary.MaxTokens, summaryTimeout),
		searchtool.Credentials{
			SearchKey:  cfg.Search.APIKey,
			ReaderKey:  cfg.Reader.APIKey,
			SummaryKey: cfg.Summary.APIKey,
		},
		cfg.Search.DefaultTopK,
	)

	resolver := searchtool.NewImageResolver(
		imagesearch.NewClient(cfg.Search.BaseURL, cfg.Search.APIKey, cfg.Search.UserAgent, searchTimeout),
		imaging.NewFetcher(imageTimeout, cfg.Search.UserAgent, cfg.Image.MaxDimension),
		imagecache.NewStore(cfg.Cache.Dir),
		cfg.Search.DefaultTopK,
	)

	registry := NewRegistry()
	_ = registry.Register(NewTextSearchTool(pipeline))
	_ = registry.Register(NewImageSearchTool(resolver))
	return registry
}
