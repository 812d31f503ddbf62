package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/chzyer/readline"

	"github.com/hquan/msearch/internal/config"
	"github.com/hquan/msearch/internal/tools"
)

const (
	Version = "0.1.0"

	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// Run starts the interactive search shell.
func Run(cfg *config.Config) error {
	printWelcome()

	if strings.TrimSpace(cfg.Search.APIKey) == "" {
		if err := promptAPIKey(cfg); err != nil {
			return err
		}
	}

	registry := tools.NewDefaultRegistry(cfg)
	return runREPL(registry)
}

// printWelcome prints welcome message
func printWelcome() {
	fmt.Printf("\n%smsearch v%s%s - multimodal web search\n", colorCyan, Version, colorReset)
	fmt.Printf("%sType a query to search the web, /image <url> for reverse-image search, /help for help%s\n\n", colorGray, colorReset)
}

// promptAPIKey asks for the search provider key and persists it.
func promptAPIKey(cfg *config.Config) error {
	fmt.Printf("%s⚠️  Search API key not configured%s\n\n", colorYellow, colorReset)

	rl, err := readline.New("Please enter your SerpAPI key: ")
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	apiKey, err := rl.Readline()
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	cfg.Search.APIKey = apiKey
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("\n%s✅ API key saved%s\n\n", colorGreen, colorReset)
	return nil
}

// getHistoryFilePath returns the history file path
func getHistoryFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	historyDir := filepath.Join(homeDir, ".msearch")
	if err := os.MkdirAll(historyDir, 0755); err != nil {
		return ""
	}
	return filepath.Join(historyDir, "history")
}

// runREPL runs the interactive loop with readline support
func runREPL(registry *tools.Registry) error {
	rlConfig := &readline.Config{
		Prompt:            fmt.Sprintf("%ssearch> %s", colorGreen, colorReset),
		HistoryFile:       getHistoryFilePath(),
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	}

	rl, err := readline.NewEx(rlConfig)
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Printf("\n%sGoodbye!%s\n", colorCyan, colorReset)
		rl.Close()
		os.Exit(0)
	}()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				fmt.Printf("\n%sPress Ctrl+C again or type /exit to quit%s\n", colorYellow, colorReset)
				continue
			}
			if err == io.EOF {
				fmt.Printf("\n%sGoodbye!%s\n", colorCyan, colorReset)
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if handleCommand(input, registry) {
				continue
			}
			return nil // /exit
		}

		// Bare input is a text search query
		runTool(registry, "text_search", map[string]any{"query": input})
	}
}

// handleCommand dispatches a /command; returns false to exit the loop.
func handleCommand(input string, registry *tools.Registry) bool {
	fields := strings.Fields(input)
	cmd := fields[0]
	rest := strings.TrimSpace(strings.TrimPrefix(input, cmd))

	switch cmd {
	case "/exit", "/quit":
		fmt.Printf("%sGoodbye!%s\n", colorCyan, colorReset)
		return false

	case "/help":
		printHelp()

	case "/text":
		if rest == "" {
			fmt.Printf("%sUsage: /text <query>%s\n", colorYellow, colorReset)
			break
		}
		runTool(registry, "text_search", map[string]any{"query": rest})

	case "/image":
		if rest == "" {
			fmt.Printf("%sUsage: /image <url>  or  /image cache <item_id> [split]%s\n", colorYellow, colorReset)
			break
		}
		args := map[string]any{}
		if parts := strings.Fields(rest); parts[0] == "cache" && len(parts) > 1 {
			args["item_id"] = parts[1]
			if len(parts) > 2 {
				args["split"] = parts[2]
			}
		} else {
			args["image_url"] = parts[0]
		}
		runTool(registry, "image_search", args)

	case "/tools":
		for _, tool := range registry.List() {
			fmt.Printf("%s%s%s - %s\n", colorGreen, tool.Name(), colorReset, tool.Description())
		}

	default:
		fmt.Printf("%sUnknown command: %s (type /help)%s\n", colorYellow, cmd, colorReset)
	}
	return true
}

// runTool executes a tool and prints its report.
func runTool(registry *tools.Registry, name string, args map[string]any) {
	fmt.Printf("\n%sSearching...%s\n", colorGray, colorReset)
	report, err := registry.Execute(name, args)
	if err != nil {
		fmt.Printf("%s❌ Error: %v%s\n\n", colorRed, err, colorReset)
		return
	}
	fmt.Printf("%s%s%s\n\n", colorBlue, report, colorReset)
}

// printHelp prints help message
func printHelp() {
	fmt.Printf(`
%sCommands:%s
  /text <query>                    Search the web and summarize the top pages
  /image <url>                     Reverse-search an image by URL
  /image cache <item_id> [split]   Resolve precomputed image results
  /tools                           List available tools
  /help                            Show this help
  /exit                            Quit

Bare input runs a text search.

`, colorCyan, colorReset)
}
