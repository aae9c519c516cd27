// Package config loads the application configuration from YAML with
// environment variable expansion and .env loading.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mgryszko/starting-ragchatbot-codebase/docproc"
	"github.com/mgryszko/starting-ragchatbot-codebase/embedders"
	"github.com/mgryszko/starting-ragchatbot-codebase/llms"
	"github.com/mgryszko/starting-ragchatbot-codebase/observability"
	"github.com/mgryszko/starting-ragchatbot-codebase/server"
	"github.com/mgryszko/starting-ragchatbot-codebase/session"
	"github.com/mgryszko/starting-ragchatbot-codebase/store"
	"github.com/mgryszko/starting-ragchatbot-codebase/vector"
)

// Config is the single entry point for all configuration.
type Config struct {
	// DocsFolder holds the course documents indexed at startup.
	DocsFolder string `yaml:"docs_folder,omitempty"`

	// WatchDocs re-indexes documents when the folder changes.
	WatchDocs bool `yaml:"watch_docs,omitempty"`

	Anthropic llms.AnthropicConfig        `yaml:"anthropic,omitempty"`
	Embedder  embedders.Config            `yaml:"embedder,omitempty"`
	Vector    vector.ProviderConfig       `yaml:"vector,omitempty"`
	Store     store.Config                `yaml:"store,omitempty"`
	Chunking  docproc.ChunkerConfig       `yaml:"chunking,omitempty"`
	Session   session.Config              `yaml:"session,omitempty"`
	Server    server.Config               `yaml:"server,omitempty"`
	Metrics   observability.MetricsConfig `yaml:"metrics,omitempty"`
}

// SetDefaults applies defaults across all sections. The Anthropic API
// key falls back to the conventional environment variable.
func (c *Config) SetDefaults() {
	if c.DocsFolder == "" {
		c.DocsFolder = "docs"
	}
	if c.Anthropic.APIKey == "" {
		c.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	c.Anthropic.SetDefaults()
	c.Embedder.SetDefaults()
	c.Vector.SetDefaults()
	c.Store.SetDefaults()
	c.Chunking.SetDefaults()
	c.Session.SetDefaults()
	c.Server.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Anthropic.Validate(); err != nil {
		return fmt.Errorf("anthropic configuration invalid: %w", err)
	}
	if err := c.Embedder.Validate(); err != nil {
		return fmt.Errorf("embedder configuration invalid: %w", err)
	}
	if err := c.Vector.Validate(); err != nil {
		return fmt.Errorf("vector configuration invalid: %w", err)
	}
	return nil
}

// Load reads a YAML config file, expands environment variables, and
// applies defaults and validation. path may be "" for a pure
// defaults-and-environment configuration.
func Load(path string) (*Config, error) {
	if err := LoadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		var raw map[string]interface{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}

		expanded := ExpandEnvVarsInData(raw)
		normalized, err := yaml.Marshal(expanded)
		if err != nil {
			return nil, fmt.Errorf("failed to process config: %w", err)
		}
		if err := yaml.Unmarshal(normalized, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
