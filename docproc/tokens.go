package docproc

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/mgryszko/starting-ragchatbot-codebase/store"
)

// TokenCounter measures chunk sizes in model tokens, used for indexing
// statistics and for keeping chunks inside embedding model limits.
type TokenCounter struct {
	encoding *tiktoken.Tiktoken
	model    string
	mu       sync.RWMutex
}

var (
	// encodings are expensive to build, cache them per model
	encodingCache = make(map[string]*tiktoken.Tiktoken)
	cacheMu       sync.RWMutex
)

// NewTokenCounter creates a counter for the given model, falling back
// to cl100k_base when the model has no known encoding.
func NewTokenCounter(model string) (*TokenCounter, error) {
	cacheMu.RLock()
	cached, exists := encodingCache[model]
	cacheMu.RUnlock()

	if exists {
		return &TokenCounter{encoding: cached, model: model}, nil
	}

	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("failed to get encoding: %w", err)
		}
	}

	cacheMu.Lock()
	encodingCache[model] = encoding
	cacheMu.Unlock()

	return &TokenCounter{encoding: encoding, model: model}, nil
}

// Count returns the token count for text.
func (tc *TokenCounter) Count(text string) int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()

	return len(tc.encoding.Encode(text, nil, nil))
}

// ChunkStats summarizes the token footprint of a chunked document.
type ChunkStats struct {
	Chunks      int
	TotalTokens int
	MaxTokens   int
}

// CountChunks measures the token footprint of a document's chunks.
func (tc *TokenCounter) CountChunks(chunks []store.CourseChunk) ChunkStats {
	stats := ChunkStats{Chunks: len(chunks)}
	for _, chunk := range chunks {
		tokens := tc.Count(chunk.Content)
		stats.TotalTokens += tokens
		if tokens > stats.MaxTokens {
			stats.MaxTokens = tokens
		}
	}
	return stats
}

// GetModel returns the model name this counter was built for.
func (tc *TokenCounter) GetModel() string {
	return tc.model
}
