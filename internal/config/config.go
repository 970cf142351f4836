package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the top-level application configuration.
type Config struct {
	Provider ProviderConfig `toml:"provider"`
	Annotate AnnotateConfig `toml:"annotate"`
	Analyzer AnalyzerConfig `toml:"analyzer"`
}

// ProviderConfig holds settings for AI provider selection and configuration.
type ProviderConfig struct {
	Default     string                   `toml:"default"`
	Model       string                   `toml:"model"`
	MaxTokens   int                      `toml:"max_tokens"`
	Temperature *float64                 `toml:"temperature"` // provider default when unset
	Anthropic   AnthropicProviderConfig  `toml:"anthropic"`
	OpenAI      []OpenAICompatibleConfig `toml:"openai_compatible"`
}

// AnthropicProviderConfig holds Anthropic-specific provider settings.
type AnthropicProviderConfig struct {
	APIKeySource string `toml:"api_key_source"`
	APIKey       string `toml:"api_key"`
}

// OpenAICompatibleConfig holds settings for an OpenAI-compatible provider.
type OpenAICompatibleConfig struct {
	Name         string            `toml:"name"`
	BaseURL      string            `toml:"base_url"`
	APIKeySource string            `toml:"api_key_source"`
	APIKey       string            `toml:"api_key"`
	ExtraHeaders map[string]string `toml:"extra_headers"`
}

// AnnotateConfig controls file discovery and generation fan-out.
type AnnotateConfig struct {
	Concurrency int      `toml:"concurrency"`
	ExcludeDirs []string `toml:"exclude_dirs"`
	StyleGuide  string   `toml:"style_guide"`
}

// AnalyzerConfig holds the proximity windows of the pattern-based
// TypeScript/JavaScript analyzer.
type AnalyzerConfig struct {
	CallWindow      int `toml:"call_window"`
	DecoratorWindow int `toml:"decorator_window"`
	DocLookback     int `toml:"doc_lookback"`
	ContextLines    int `toml:"context_lines"`
}

// DefaultConfig returns a Config populated with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Default:   "anthropic",
			Model:     "claude-sonnet-4-5",
			MaxTokens: 4096,
			Anthropic: AnthropicProviderConfig{
				APIKeySource: "env",
			},
		},
		Annotate: AnnotateConfig{
			Concurrency: 4,
			StyleGuide:  "ANNOTATOR.md",
		},
		Analyzer: AnalyzerConfig{
			CallWindow:      1,
			DecoratorWindow: 5,
			DocLookback:     20,
			ContextLines:    30,
		},
	}
}

// Load reads the TOML file at path over the defaults. A missing file is not
// an error; the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if cfg.Annotate.Concurrency < 1 {
		cfg.Annotate.Concurrency = 1
	}
	return cfg, nil
}

// Save writes cfg to path, creating the parent directory if needed. The file
// may hold API keys, so it is only readable by the owner.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing config file: %w", err)
	}
	return nil
}
