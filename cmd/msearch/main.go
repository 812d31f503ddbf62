package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hquan/msearch/internal/cli"
	"github.com/hquan/msearch/internal/config"
	"github.com/hquan/msearch/internal/logger"
	"github.com/hquan/msearch/internal/tools"
)

var (
	version = "0.1.0"
)

func main() {
	var (
		topK       int
		searchType string
		split      string
	)

	rootCmd := &cobra.Command{
		Use:   "msearch",
		Short: "msearch - multimodal web search",
		Long: `msearch searches the web with text queries and reverse-image lookups.

It can:
  • Search the web and summarize the most relevant pages
  • Reverse-search an image by URL and return pages featuring it
  • Resolve precomputed image-search results from a local cache`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return cli.Run(cfg)
		},
	}

	textCmd := &cobra.Command{
		Use:   "text <query>",
		Short: "Search the web and summarize the top pages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			registry := tools.NewDefaultRegistry(cfg)
			toolArgs := map[string]any{"query": strings.Join(args, " ")}
			if topK > 0 {
				toolArgs["top_k"] = float64(topK)
			}
			report, err := registry.Execute("text_search", toolArgs)
			if err != nil {
				return err
			}
			fmt.Println(report)
			return nil
		},
	}
	textCmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of pages to summarize")

	imageCmd := &cobra.Command{
		Use:   "image <url | item_id>",
		Short: "Reverse-search an image by URL or cache key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			registry := tools.NewDefaultRegistry(cfg)
			toolArgs := map[string]any{"search_type": searchType}
			if strings.HasPrefix(args[0], "http://") || strings.HasPrefix(args[0], "https://") {
				toolArgs["image_url"] = args[0]
			} else {
				toolArgs["item_id"] = args[0]
				toolArgs["split"] = split
			}
			if topK > 0 {
				toolArgs["top_k"] = float64(topK)
			}
			report, err := registry.Execute("image_search", toolArgs)
			if err != nil {
				return err
			}
			fmt.Println(report)
			return nil
		},
	}
	imageCmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of results to return")
	imageCmd.Flags().StringVarP(&searchType, "type", "t", "visual_matches", "match type: all, products, exact_matches, visual_matches")
	imageCmd.Flags().StringVarP(&split, "split", "s", "test", "dataset split hint for cache lookups")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or manage configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			fmt.Println(cfg.String())

			path, _ := config.ConfigPath()
			fmt.Printf("\nConfig file path: %s\n", path)
			return nil
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("msearch v%s\n", version)
		},
	}

	rootCmd.AddCommand(textCmd)
	rootCmd.AddCommand(imageCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration and initializes logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.Config{
		LogDir:  config.LogDir(),
		Level:   logger.INFO,
		MaxDays: 7,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
	logConfigInfo(cfg)

	return cfg, nil
}

// logConfigInfo records the effective configuration without exposing keys.
func logConfigInfo(cfg *config.Config) {
	logger.Info("search provider: %s (%s), engine %s, top_k %d",
		cfg.Search.Provider, cfg.Search.BaseURL, cfg.Search.Engine, cfg.Search.DefaultTopK)
	logger.Info("reader: %s, summary model: %s @ %s",
		cfg.Reader.BaseURL, cfg.Summary.Model, cfg.Summary.BaseURL)
	logger.Info("cache dir: %s", cfg.Cache.Dir)
	logger.Info("credentials: search=%v reader=%v summary=%v",
		cfg.Search.APIKey != "", cfg.Reader.APIKey != "", cfg.Summary.APIKey != "")
}
