package llms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mgryszko/starting-ragchatbot-codebase/internal/httpclient"
)

const (
	defaultAnthropicHost  = "https://api.anthropic.com"
	anthropicVersion      = "2023-06-01"
	defaultAnthropicModel = "claude-sonnet-4-20250514"

	// Answers are deterministic and short on purpose.
	defaultMaxTokens   = 800
	defaultTemperature = 0.0
)

// AnthropicConfig configures the Anthropic provider.
type AnthropicConfig struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Host        string  `yaml:"host,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty"`
	Timeout     int     `yaml:"timeout,omitempty"` // seconds
	MaxRetries  int     `yaml:"max_retries,omitempty"`
}

func (c *AnthropicConfig) SetDefaults() {
	if c.Model == "" {
		c.Model = defaultAnthropicModel
	}
	if c.Host == "" {
		c.Host = defaultAnthropicHost
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.Temperature == 0 {
		c.Temperature = defaultTemperature
	}
	if c.Timeout == 0 {
		c.Timeout = 120
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

func (c *AnthropicConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("API key is required for Anthropic")
	}
	return nil
}

// AnthropicProvider implements Provider against the Anthropic Messages API.
type AnthropicProvider struct {
	config *AnthropicConfig
	client *httpclient.Client
}

// anthropicTool is a tool definition in Anthropic wire format.
type anthropicTool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// anthropicToolChoice selects how the model may use tools.
type anthropicToolChoice struct {
	Type string `json:"type"`
}

type anthropicRequest struct {
	Model       string               `json:"model"`
	Messages    []Message            `json:"messages"`
	MaxTokens   int                  `json:"max_tokens"`
	Temperature float64              `json:"temperature"`
	System      string               `json:"system,omitempty"`
	Tools       []anthropicTool      `json:"tools,omitempty"`
	ToolChoice  *anthropicToolChoice `json:"tool_choice,omitempty"`
}

type anthropicResponse struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Role       string          `json:"role"`
	Content    []ContentBlock  `json:"content"`
	Model      string          `json:"model"`
	StopReason string          `json:"stop_reason"`
	Usage      Usage           `json:"usage"`
	Error      *anthropicError `json:"error,omitempty"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewAnthropicProvider creates a provider from configuration.
func NewAnthropicProvider(cfg *AnthropicConfig) (*AnthropicProvider, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := httpclient.New(
		httpclient.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second}),
		httpclient.WithMaxRetries(cfg.MaxRetries),
		httpclient.WithHeaderParser(httpclient.AnthropicHeaderParser),
	)

	return &AnthropicProvider{
		config: cfg,
		client: client,
	}, nil
}

// GetModelName returns the configured model name.
func (p *AnthropicProvider) GetModelName() string {
	return p.config.Model
}

// Close releases provider resources.
func (p *AnthropicProvider) Close() error {
	return nil
}

// Generate sends one messages request. Tool definitions are attached
// together with auto tool choice only when req.Tools is non-empty.
func (p *AnthropicProvider) Generate(ctx context.Context, req GenerateRequest) (*Response, error) {
	request := p.buildRequest(req)

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.Host+"/v1/messages", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(jsonData)), nil
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.config.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response anthropicResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if response.Error != nil {
		return nil, fmt.Errorf("Anthropic API error: %s", response.Error.Message)
	}

	return &Response{
		Content:    response.Content,
		StopReason: response.StopReason,
		Model:      response.Model,
		Usage:      response.Usage,
	}, nil
}

func (p *AnthropicProvider) buildRequest(req GenerateRequest) anthropicRequest {
	request := anthropicRequest{
		Model:       p.config.Model,
		Messages:    req.Messages,
		MaxTokens:   p.config.MaxTokens,
		Temperature: p.config.Temperature,
		System:      req.System,
	}

	if len(req.Tools) > 0 {
		tools := make([]anthropicTool, len(req.Tools))
		for i, tool := range req.Tools {
			tools[i] = anthropicTool{
				Name:        tool.Name,
				Description: tool.Description,
				InputSchema: tool.Parameters,
			}
		}
		request.Tools = tools
		request.ToolChoice = &anthropicToolChoice{Type: "auto"}
	}

	return request
}

var _ Provider = (*AnthropicProvider)(nil)
