package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Secrets sensitive configuration loaded from .secrets file
type Secrets struct {
	values map[string]string
}

// NewSecrets creates a new Secrets instance
func NewSecrets() *Secrets {
	return &Secrets{
		values: make(map[string]string),
	}
}

// SecretsPath returns the secrets file path
func SecretsPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".secrets"), nil
}

// LoadSecrets loads secrets from the .secrets file, falling back to the
// process environment for keys the file does not define
func LoadSecrets() (*Secrets, error) {
	secrets := NewSecrets()

	secretsPath, err := SecretsPath()
	if err != nil {
		return secrets, nil // Return empty secrets if path can't be determined
	}

	if _, err := os.Stat(secretsPath); os.IsNotExist(err) {
		return secrets, nil
	}

	file, err := os.Open(secretsPath)
	if err != nil {
		return secrets, nil
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse key=value pairs
		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			secrets.values[key] = value
		}
	}

	return secrets, scanner.Err()
}

// Get returns the value for a key, consulting the environment when the
// .secrets file has no entry
func (s *Secrets) Get(key string) string {
	if s == nil || s.values == nil {
		return os.Getenv(key)
	}
	if value, ok := s.values[key]; ok && value != "" {
		return value
	}
	return os.Getenv(key)
}

// Has checks if a key has a non-empty value
func (s *Secrets) Has(key string) bool {
	return s.Get(key) != ""
}

// GetSerpAPIKey returns the SerpAPI key used for web and reverse-image search
func (s *Secrets) GetSerpAPIKey() string {
	return s.Get("SERPAPI_API_KEY")
}

// GetJinaAPIKey returns the page reader service key
func (s *Secrets) GetJinaAPIKey() string {
	return s.Get("JINA_API_KEY")
}

// GetOpenRouterAPIKey returns the summarization model key
func (s *Secrets) GetOpenRouterAPIKey() string {
	return s.Get("OPENROUTER_API_KEY")
}
