package docproc

import (
	"strings"
	"testing"
)

func TestChunker_EmptyInput(t *testing.T) {
	chunker := NewChunker(ChunkerConfig{})

	if chunks := chunker.Chunk(""); chunks != nil {
		t.Errorf("Chunk(\"\") = %v, want nil", chunks)
	}
	if chunks := chunker.Chunk("   \n\t  "); chunks != nil {
		t.Errorf("Chunk(whitespace) = %v, want nil", chunks)
	}
}

func TestChunker_ShortTextSingleChunk(t *testing.T) {
	chunker := NewChunker(ChunkerConfig{})

	text := "RAG systems combine retrieval with generation. They ground answers in documents."
	chunks := chunker.Chunk(text)
	if len(chunks) != 1 {
		t.Fatalf("Chunk() count = %d, want 1", len(chunks))
	}
	if chunks[0] != text {
		t.Errorf("Chunk() = %q, want %q", chunks[0], text)
	}
}

func TestChunker_NormalizesWhitespace(t *testing.T) {
	chunker := NewChunker(ChunkerConfig{})

	chunks := chunker.Chunk("First   sentence.\n\nSecond\tsentence.")
	if len(chunks) != 1 {
		t.Fatalf("Chunk() count = %d, want 1", len(chunks))
	}
	if chunks[0] != "First sentence. Second sentence." {
		t.Errorf("Chunk() = %q", chunks[0])
	}
}

func TestChunker_SplitsOnSentenceBoundaries(t *testing.T) {
	chunker := NewChunker(ChunkerConfig{Size: 60, Overlap: 1})

	text := "Embeddings map text to vectors. Vector stores index them. Similarity search retrieves neighbors."
	chunks := chunker.Chunk(text)
	if len(chunks) < 2 {
		t.Fatalf("Chunk() count = %d, want at least 2", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 60 {
			t.Errorf("chunk %d length = %d, exceeds size limit", i, len(chunk))
		}
		if strings.HasPrefix(chunk, " ") || strings.HasSuffix(chunk, " ") {
			t.Errorf("chunk %d has stray whitespace: %q", i, chunk)
		}
	}
}

func TestChunker_OverlapRepeatsSentences(t *testing.T) {
	chunker := NewChunker(ChunkerConfig{Size: 60, Overlap: 30})

	text := "Alpha sentence here. Beta sentence here. Gamma sentence here. Delta sentence here."
	chunks := chunker.Chunk(text)
	if len(chunks) < 2 {
		t.Fatalf("Chunk() count = %d, want at least 2", len(chunks))
	}

	// the second chunk starts with the tail of the first
	first := strings.Split(chunks[0], ". ")
	lastSentence := first[len(first)-1]
	if !strings.Contains(chunks[1], strings.TrimSuffix(lastSentence, ".")) {
		t.Errorf("chunk 1 = %q, want overlap with end of chunk 0 %q", chunks[1], chunks[0])
	}
}

func TestChunker_OversizedSentenceStillProgresses(t *testing.T) {
	chunker := NewChunker(ChunkerConfig{Size: 20, Overlap: 10})

	text := "This single sentence is far longer than the chunk size allows. Short one."
	chunks := chunker.Chunk(text)
	if len(chunks) != 2 {
		t.Fatalf("Chunk() count = %d, want 2", len(chunks))
	}
	if chunks[1] != "Short one." {
		t.Errorf("chunk 1 = %q, want %q", chunks[1], "Short one.")
	}
}

func TestChunkerConfig_SetDefaults(t *testing.T) {
	config := ChunkerConfig{}
	config.SetDefaults()

	if config.Size != 800 {
		t.Errorf("Size = %d, want 800", config.Size)
	}
	if config.Overlap != 100 {
		t.Errorf("Overlap = %d, want 100", config.Overlap)
	}
}
