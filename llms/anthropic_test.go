package llms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestProvider(t *testing.T, host string) *AnthropicProvider {
	t.Helper()
	provider, err := NewAnthropicProvider(&AnthropicConfig{
		APIKey: "test-key",
		Model:  "claude-test",
		Host:   host,
	})
	if err != nil {
		t.Fatalf("NewAnthropicProvider() error = %v", err)
	}
	return provider
}

func TestNewAnthropicProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewAnthropicProvider(&AnthropicConfig{Model: "claude-test"})
	if err == nil {
		t.Fatal("NewAnthropicProvider() error = nil, want error for missing API key")
	}
}

func TestAnthropicProvider_Generate(t *testing.T) {
	var captured anthropicRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("request method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v1/messages" {
			t.Errorf("request path = %s, want /v1/messages", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key header = %s, want test-key", got)
		}
		if got := r.Header.Get("anthropic-version"); got != "2023-06-01" {
			t.Errorf("anthropic-version header = %s, want 2023-06-01", got)
		}

		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}

		resp := anthropicResponse{
			Content: []ContentBlock{
				{Type: "text", Text: "The answer."},
			},
			StopReason: "end_turn",
			Model:      "claude-test",
			Usage:      Usage{InputTokens: 10, OutputTokens: 5},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider := newTestProvider(t, server.URL)

	resp, err := provider.Generate(context.Background(), GenerateRequest{
		System:   "You answer questions.",
		Messages: []Message{UserMessage("What is RAG?")},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if resp.StopReason != StopReasonEndTurn {
		t.Errorf("StopReason = %s, want %s", resp.StopReason, StopReasonEndTurn)
	}
	if got := resp.FirstText(); got != "The answer." {
		t.Errorf("FirstText() = %q, want %q", got, "The answer.")
	}

	if captured.System != "You answer questions." {
		t.Errorf("request system = %q, want %q", captured.System, "You answer questions.")
	}
	if captured.MaxTokens != defaultMaxTokens {
		t.Errorf("request max_tokens = %d, want %d", captured.MaxTokens, defaultMaxTokens)
	}
	if captured.Temperature != 0 {
		t.Errorf("request temperature = %v, want 0", captured.Temperature)
	}
	if captured.Tools != nil {
		t.Errorf("request tools = %v, want nil when no tools given", captured.Tools)
	}
	if captured.ToolChoice != nil {
		t.Errorf("request tool_choice = %v, want nil when no tools given", captured.ToolChoice)
	}
}

func TestAnthropicProvider_GenerateWithTools(t *testing.T) {
	var captured anthropicRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}

		resp := anthropicResponse{
			Content: []ContentBlock{
				{
					Type:  "tool_use",
					ID:    "toolu_01",
					Name:  "search_course_content",
					Input: map[string]interface{}{"query": "embeddings"},
				},
			},
			StopReason: "tool_use",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider := newTestProvider(t, server.URL)

	tools := []ToolDefinition{
		{
			Name:        "search_course_content",
			Description: "Search course materials",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{"type": "string"},
				},
				"required": []string{"query"},
			},
		},
	}

	resp, err := provider.Generate(context.Background(), GenerateRequest{
		Messages: []Message{UserMessage("What lesson covers embeddings?")},
		Tools:    tools,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if resp.StopReason != StopReasonToolUse {
		t.Errorf("StopReason = %s, want %s", resp.StopReason, StopReasonToolUse)
	}

	uses := resp.ToolUses()
	if len(uses) != 1 {
		t.Fatalf("ToolUses() length = %d, want 1", len(uses))
	}
	if uses[0].Name != "search_course_content" {
		t.Errorf("tool_use name = %s, want search_course_content", uses[0].Name)
	}
	if uses[0].Input["query"] != "embeddings" {
		t.Errorf("tool_use input query = %v, want embeddings", uses[0].Input["query"])
	}

	if len(captured.Tools) != 1 {
		t.Fatalf("request tools length = %d, want 1", len(captured.Tools))
	}
	if captured.Tools[0].Name != "search_course_content" {
		t.Errorf("request tool name = %s, want search_course_content", captured.Tools[0].Name)
	}
	if captured.ToolChoice == nil || captured.ToolChoice.Type != "auto" {
		t.Errorf("request tool_choice = %v, want auto", captured.ToolChoice)
	}
}

func TestAnthropicProvider_GenerateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad request"}}`))
	}))
	defer server.Close()

	provider := newTestProvider(t, server.URL)

	_, err := provider.Generate(context.Background(), GenerateRequest{
		Messages: []Message{UserMessage("hello")},
	})
	if err == nil {
		t.Fatal("Generate() error = nil, want error for 400 response")
	}
}

func TestResponse_FirstText(t *testing.T) {
	tests := []struct {
		name     string
		response Response
		want     string
	}{
		{
			name: "single text block",
			response: Response{Content: []ContentBlock{
				{Type: "text", Text: "hello"},
			}},
			want: "hello",
		},
		{
			name: "text after tool_use",
			response: Response{Content: []ContentBlock{
				{Type: "tool_use", ID: "toolu_01", Name: "search_course_content"},
				{Type: "text", Text: "found it"},
			}},
			want: "found it",
		},
		{
			name: "first of multiple text blocks",
			response: Response{Content: []ContentBlock{
				{Type: "text", Text: "first"},
				{Type: "text", Text: "second"},
			}},
			want: "first",
		},
		{
			name:     "no content",
			response: Response{},
			want:     "",
		},
		{
			name: "only tool_use blocks",
			response: Response{Content: []ContentBlock{
				{Type: "tool_use", ID: "toolu_01", Name: "search_course_content"},
			}},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.response.FirstText(); got != tt.want {
				t.Errorf("FirstText() = %q, want %q", got, tt.want)
			}
		})
	}
}
