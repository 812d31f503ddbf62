package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// configDir is the configuration directory path
	// Can be set via SetConfigDir before loading config
	configDir     string
	configDirInit bool
)

// SetConfigDir sets a custom configuration directory
// Must be called before any config loading functions
func SetConfigDir(dir string) {
	configDir = dir
	configDirInit = true
}

// GetConfigDir returns the configuration directory
// Priority: 1. Manually set via SetConfigDir, 2. ./config in current directory
func GetConfigDir() string {
	if !configDirInit {
		cwd, err := os.Getwd()
		if err == nil {
			configDir = filepath.Join(cwd, "config")
		}
		configDirInit = true
	}
	return configDir
}

// Config application configuration structure
type Config struct {
	Search  SearchConfig  `yaml:"search"`
	Reader  ReaderConfig  `yaml:"reader"`
	Summary SummaryConfig `yaml:"summary"`
	Image   ImageConfig   `yaml:"image"`
	Cache   CacheConfig   `yaml:"cache"`
}

// SearchConfig web and reverse-image search provider configuration
type SearchConfig struct {
	Provider       string `yaml:"provider"` // "serpapi" | "searxng"
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	Engine         string `yaml:"engine"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	DefaultTopK    int    `yaml:"default_top_k"`
	UserAgent      string `yaml:"user_agent"`
}

// ReaderConfig page content extraction service configuration
type ReaderConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// SummaryConfig summarization model configuration
type SummaryConfig struct {
	BaseURL        string  `yaml:"base_url"`
	APIKey         string  `yaml:"api_key"`
	Model          string  `yaml:"model"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// ImageConfig result image download configuration
type ImageConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
	MaxDimension   int `yaml:"max_dimension"`
}

// CacheConfig precomputed image-search cache configuration
type CacheConfig struct {
	Dir string `yaml:"dir"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Search: SearchConfig{
			Provider:       "serpapi",
			BaseURL:        "https://serpapi.com/search.json",
			APIKey:         "",
			Engine:         "google",
			TimeoutSeconds: 300,
			DefaultTopK:    3,
			UserAgent:      "msearch/0.1",
		},
		Reader: ReaderConfig{
			BaseURL:        "https://r.jina.ai",
			APIKey:         "",
			TimeoutSeconds: 120,
		},
		Summary: SummaryConfig{
			BaseURL:        "https://openrouter.ai/api",
			APIKey:         "",
			Model:          "qwen/qwen3-32b",
			Temperature:    0.3,
			MaxTokens:      1024,
			TimeoutSeconds: 120,
		},
		Image: ImageConfig{
			TimeoutSeconds: 300,
			MaxDimension:   512,
		},
		Cache: CacheConfig{
			Dir: filepath.Join(homeDir, ".msearch", "cache"),
		},
	}
}

// ConfigDir returns the configuration directory path
func ConfigDir() (string, error) {
	dir := GetConfigDir()
	if dir == "" {
		return "", fmt.Errorf("failed to determine config directory")
	}
	return dir, nil
}

// LogDir returns the log directory path
func LogDir() string {
	dir := GetConfigDir()
	if dir == "" {
		return "logs"
	}
	return filepath.Join(dir, "logs")
}

// ConfigPath returns the configuration file path
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads configuration from file and merges with secrets
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Config file doesn't exist, create default config
		cfg := DefaultConfig()
		cfg.mergeSecrets()

		if err := Save(cfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig() // Use default values as base
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.mergeSecrets()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeSecrets fills credentials left empty in the config file from the
// .secrets file
func (c *Config) mergeSecrets() {
	secrets, _ := LoadSecrets()
	if secrets == nil {
		return
	}
	if c.Search.APIKey == "" {
		c.Search.APIKey = secrets.GetSerpAPIKey()
	}
	if c.Reader.APIKey == "" {
		c.Reader.APIKey = secrets.GetJinaAPIKey()
	}
	if c.Summary.APIKey == "" {
		c.Summary.APIKey = secrets.GetOpenRouterAPIKey()
	}
}

// Save saves configuration to file
func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	// Ensure config directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	content := "# msearch Configuration File\n\n" + string(data)

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	provider := strings.ToLower(strings.TrimSpace(c.Search.Provider))
	if provider == "" {
		provider = "serpapi"
	}
	if provider != "serpapi" && provider != "searxng" {
		return fmt.Errorf("config error: search.provider must be serpapi or searxng")
	}
	if strings.TrimSpace(c.Search.BaseURL) == "" {
		return fmt.Errorf("config error: search.base_url cannot be empty")
	}
	if c.Search.TimeoutSeconds <= 0 {
		return fmt.Errorf("config error: search.timeout_seconds must be greater than 0")
	}
	if c.Search.DefaultTopK <= 0 {
		return fmt.Errorf("config error: search.default_top_k must be greater than 0")
	}

	if strings.TrimSpace(c.Reader.BaseURL) == "" {
		return fmt.Errorf("config error: reader.base_url cannot be empty")
	}
	if c.Reader.TimeoutSeconds <= 0 {
		return fmt.Errorf("config error: reader.timeout_seconds must be greater than 0")
	}

	if strings.TrimSpace(c.Summary.BaseURL) == "" {
		return fmt.Errorf("config error: summary.base_url cannot be empty")
	}
	if strings.TrimSpace(c.Summary.Model) == "" {
		return fmt.Errorf("config error: summary.model cannot be empty")
	}
	if c.Summary.Temperature < 0 || c.Summary.Temperature > 2 {
		return fmt.Errorf("config error: summary.temperature must be between 0 and 2")
	}
	if c.Summary.MaxTokens <= 0 {
		return fmt.Errorf("config error: summary.max_tokens must be greater than 0")
	}
	if c.Summary.TimeoutSeconds <= 0 {
		return fmt.Errorf("config error: summary.timeout_seconds must be greater than 0")
	}

	if c.Image.TimeoutSeconds <= 0 {
		return fmt.Errorf("config error: image.timeout_seconds must be greater than 0")
	}
	if c.Image.MaxDimension < 0 {
		return fmt.Errorf("config error: image.max_dimension cannot be negative")
	}

	if strings.TrimSpace(c.Cache.Dir) == "" {
		return fmt.Errorf("config error: cache.dir cannot be empty")
	}

	return nil
}

// String returns string representation of config (hides sensitive info)
func (c *Config) String() string {
	return fmt.Sprintf(`msearch Configuration:
  Search:
    Provider: %s
    Base URL: %s
    API Key: %s
    Engine: %s
    Timeout Seconds: %d
    Default Top K: %d
  Reader:
    Base URL: %s
    API Key: %s
    Timeout Seconds: %d
  Summary:
    Base URL: %s
    API Key: %s
    Model: %s
    Temperature: %.1f
    Max Tokens: %d
  Image:
    Timeout Seconds: %d
    Max Dimension: %d
  Cache:
    Dir: %s`,
		c.Search.Provider,
		c.Search.BaseURL,
		redactAPIKey(c.Search.APIKey),
		c.Search.Engine,
		c.Search.TimeoutSeconds,
		c.Search.DefaultTopK,
		c.Reader.BaseURL,
		redactAPIKey(c.Reader.APIKey),
		c.Reader.TimeoutSeconds,
		c.Summary.BaseURL,
		redactAPIKey(c.Summary.APIKey),
		c.Summary.Model,
		c.Summary.Temperature,
		c.Summary.MaxTokens,
		c.Image.TimeoutSeconds,
		c.Image.MaxDimension,
		c.Cache.Dir,
	)
}

func redactAPIKey(value string) string {
	if value == "" {
		return "(not configured)"
	}
	if len(value) > 8 {
		return value[:8] + "..."
	}
	return "***"
}
