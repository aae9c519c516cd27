package docproc

import "strings"

const (
	defaultChunkSize    = 800
	defaultChunkOverlap = 100
)

// ChunkerConfig controls sentence-based chunking.
type ChunkerConfig struct {
	// Size is the maximum chunk length in characters (default: 800).
	Size int `yaml:"size,omitempty"`

	// Overlap is the number of trailing characters repeated at the
	// start of the next chunk (default: 100).
	Overlap int `yaml:"overlap,omitempty"`
}

func (c *ChunkerConfig) SetDefaults() {
	if c.Size == 0 {
		c.Size = defaultChunkSize
	}
	if c.Overlap == 0 {
		c.Overlap = defaultChunkOverlap
	}
}

// Chunker splits text into overlapping chunks on sentence boundaries.
// Sentences are never split mid-way except when a single sentence
// exceeds the chunk size.
type Chunker struct {
	config ChunkerConfig
}

func NewChunker(config ChunkerConfig) *Chunker {
	config.SetDefaults()
	return &Chunker{config: config}
}

// Chunk splits text into chunks. Whitespace is normalized; empty input
// yields no chunks.
func (c *Chunker) Chunk(text string) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	i := 0
	for i < len(sentences) {
		var current []string
		total := 0
		j := i

		for j < len(sentences) {
			length := len(sentences[j])
			if len(current) > 0 {
				length++ // joining space
			}
			if total+length > c.config.Size && len(current) > 0 {
				break
			}
			current = append(current, sentences[j])
			total += length
			j++
		}

		chunks = append(chunks, strings.Join(current, " "))
		if j >= len(sentences) {
			break
		}

		// step back whole sentences up to the overlap budget
		back := 0
		chars := 0
		for k := j - 1; k > i; k-- {
			if chars+len(sentences[k]) > c.config.Overlap {
				break
			}
			chars += len(sentences[k])
			back++
		}

		next := j - back
		if next <= i {
			next = j
		}
		i = next
	}

	return chunks
}

// splitSentences breaks text into sentences at .!? boundaries followed
// by whitespace. Whitespace runs are collapsed.
func splitSentences(text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	normalized := strings.Join(fields, " ")

	var sentences []string
	start := 0
	runes := []rune(normalized)
	for idx, r := range runes {
		if r == '.' || r == '!' || r == '?' {
			end := idx + 1
			if end >= len(runes) || runes[end] == ' ' {
				sentence := strings.TrimSpace(string(runes[start:end]))
				if sentence != "" {
					sentences = append(sentences, sentence)
				}
				start = end
			}
		}
	}

	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}

	return sentences
}
