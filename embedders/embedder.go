// Package embedders turns text into vector embeddings via external
// embedding services.
package embedders

import (
	"context"
	"fmt"
)

// Embedder converts text into a vector embedding.
type Embedder interface {
	Embed(text string) ([]float32, error)
	EmbedWithContext(ctx context.Context, text string) ([]float32, error)
	GetDimension() int
	GetModelName() string
	Close() error
}

// ProviderType identifies an embedder implementation.
type ProviderType string

const (
	ProviderOllama ProviderType = "ollama"
	ProviderOpenAI ProviderType = "openai"
)

// Config configures an embedder provider.
type Config struct {
	Type       ProviderType `yaml:"type"`
	Model      string       `yaml:"model,omitempty"`
	Host       string       `yaml:"host,omitempty"`
	APIKey     string       `yaml:"api_key,omitempty"`
	Dimension  int          `yaml:"dimension,omitempty"`
	Timeout    int          `yaml:"timeout,omitempty"` // seconds
	MaxRetries int          `yaml:"max_retries,omitempty"`
}

// SetDefaults applies per-provider default values.
func (c *Config) SetDefaults() {
	if c.Type == "" {
		c.Type = ProviderOllama
	}
	switch c.Type {
	case ProviderOllama:
		if c.Model == "" {
			c.Model = OllamaNomicEmbedText
		}
		if c.Host == "" {
			c.Host = "http://localhost:11434"
		}
		if c.Dimension == 0 {
			c.Dimension = 768
		}
	case ProviderOpenAI:
		if c.Model == "" {
			c.Model = OpenAITextEmbedding3Small
		}
		if c.Host == "" {
			c.Host = "https://api.openai.com"
		}
		if c.Dimension == 0 {
			c.Dimension = 1536
		}
	}
	if c.Timeout == 0 {
		c.Timeout = 30
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Type {
	case ProviderOllama:
		return nil
	case ProviderOpenAI:
		if c.APIKey == "" {
			return fmt.Errorf("api_key is required for OpenAI embedder")
		}
		return nil
	default:
		return fmt.Errorf("unknown embedder type: %q", c.Type)
	}
}

// NewEmbedder creates an embedder from configuration.
func NewEmbedder(cfg *Config) (Embedder, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case ProviderOllama:
		return NewOllamaEmbedderFromConfig(cfg)
	case ProviderOpenAI:
		return NewOpenAIEmbedderFromConfig(cfg)
	default:
		return nil, fmt.Errorf("unknown embedder type: %q", cfg.Type)
	}
}
