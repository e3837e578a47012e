package retrieval

import "strings"

// DefaultChunkSize is the maximum chunk length in characters.
const DefaultChunkSize = 900

// Chunk is a slice of a knowledge document.
type Chunk struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// ScoredChunk is a chunk ranked for a single query.
type ScoredChunk struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// Document is a raw knowledge source before chunking.
type Document struct {
	Source string
	Text   string
}

// SplitDocument trims text and cuts it into consecutive, non-overlapping
// chunks of at most size characters. Empty text yields no chunks.
func SplitDocument(source, text string, size int) []Chunk {
	if size <= 0 {
		size = DefaultChunkSize
	}
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	chunks := make([]Chunk, 0, (len(runes)+size-1)/size)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{Source: source, Text: string(runes[i:end])})
	}
	return chunks
}

// ChunkDocuments splits every document in order.
func ChunkDocuments(docs []Document, size int) []Chunk {
	var out []Chunk
	for _, d := range docs {
		out = append(out, SplitDocument(d.Source, d.Text, size)...)
	}
	return out
}
