package embedders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Global mutex to serialize Ollama embedding requests. Ollama's llama
// runner crashes when receiving concurrent embedding requests.
var ollamaEmbedMu sync.Mutex

type OllamaEmbedder struct {
	config *Config
	client *http.Client
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func NewOllamaEmbedderFromConfig(config *Config) (*OllamaEmbedder, error) {
	return &OllamaEmbedder{
		config: config,
		client: &http.Client{Timeout: time.Duration(config.Timeout) * time.Second},
	}, nil
}

func (e *OllamaEmbedder) Embed(text string) ([]float32, error) {
	return e.EmbedWithContext(context.Background(), text)
}

func (e *OllamaEmbedder) EmbedWithContext(ctx context.Context, text string) ([]float32, error) {
	ollamaEmbedMu.Lock()
	defer ollamaEmbedMu.Unlock()

	textLen := len(text)
	slog.Debug("Ollama embedding request", "model", e.config.Model, "text_length", textLen)

	body, err := json.Marshal(ollamaEmbedRequest{
		Model:  e.config.Model,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var resp *http.Response
	for attempt := 0; attempt < e.config.MaxRetries; attempt++ {
		resp, err = e.makeRequest(ctx, body)
		if err == nil {
			break
		}

		slog.Debug("Ollama embedding retry", "attempt", attempt+1, "error", err, "text_length", textLen)
		if attempt < e.config.MaxRetries-1 {
			time.Sleep(time.Duration(attempt+1) * time.Second)
		}
	}

	if err != nil {
		slog.Error("Ollama embedding failed", "error", err, "text_length", textLen, "model", e.config.Model)
		return nil, fmt.Errorf("failed to send request to Ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var response ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(response.Embedding) == 0 {
		return nil, fmt.Errorf("received empty embedding from Ollama")
	}

	return response.Embedding, nil
}

func (e *OllamaEmbedder) makeRequest(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.Host+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return e.client.Do(req)
}

func (e *OllamaEmbedder) GetDimension() int {
	return e.config.Dimension
}

func (e *OllamaEmbedder) GetModelName() string {
	return e.config.Model
}

func (e *OllamaEmbedder) Close() error {
	return nil
}

var (
	OllamaNomicEmbedText = "nomic-embed-text"
	OllamaAllMiniLML6V2  = "all-minilm:l6-v2"
	OllamaBGESmallEnV15  = "bge-small-en-v1.5"
)

var _ Embedder = (*OllamaEmbedder)(nil)
