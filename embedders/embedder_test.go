package embedders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaEmbedder_Embed(t *testing.T) {
	var captured ollamaEmbedRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("request path = %s, want /api/embeddings", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	}))
	defer server.Close()

	embedder, err := NewEmbedder(&Config{Type: ProviderOllama, Host: server.URL})
	if err != nil {
		t.Fatalf("NewEmbedder() error = %v", err)
	}

	vec, err := embedder.EmbedWithContext(context.Background(), "course content")
	if err != nil {
		t.Fatalf("EmbedWithContext() error = %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("embedding length = %d, want 3", len(vec))
	}
	if captured.Model != OllamaNomicEmbedText {
		t.Errorf("request model = %s, want %s", captured.Model, OllamaNomicEmbedText)
	}
	if captured.Prompt != "course content" {
		t.Errorf("request prompt = %q, want %q", captured.Prompt, "course content")
	}
}

func TestOllamaEmbedder_EmptyEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaEmbedResponse{})
	}))
	defer server.Close()

	embedder, err := NewEmbedder(&Config{Type: ProviderOllama, Host: server.URL})
	if err != nil {
		t.Fatalf("NewEmbedder() error = %v", err)
	}

	if _, err := embedder.Embed("text"); err == nil {
		t.Error("Embed() error = nil, want error for empty embedding")
	}
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("request path = %s, want /v1/embeddings", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization header = %s, want Bearer test-key", got)
		}
		w.Write([]byte(`{"data":[{"embedding":[0.5,0.6]}]}`))
	}))
	defer server.Close()

	embedder, err := NewEmbedder(&Config{Type: ProviderOpenAI, Host: server.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewEmbedder() error = %v", err)
	}

	vec, err := embedder.Embed("course content")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vec) != 2 {
		t.Errorf("embedding length = %d, want 2", len(vec))
	}
}

func TestNewEmbedder_Validation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"ollama defaults", Config{Type: ProviderOllama}, false},
		{"openai without api key", Config{Type: ProviderOpenAI}, true},
		{"openai with api key", Config{Type: ProviderOpenAI, APIKey: "k"}, false},
		{"unknown type", Config{Type: "cohere"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEmbedder(&tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewEmbedder() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_SetDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	if cfg.Type != ProviderOllama {
		t.Errorf("default type = %s, want %s", cfg.Type, ProviderOllama)
	}
	if cfg.Model != OllamaNomicEmbedText {
		t.Errorf("default model = %s, want %s", cfg.Model, OllamaNomicEmbedText)
	}
	if cfg.Dimension != 768 {
		t.Errorf("default dimension = %d, want 768", cfg.Dimension)
	}
}
