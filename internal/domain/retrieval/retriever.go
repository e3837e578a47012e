// Package retrieval implements lexical guideline retrieval: tokenization,
// Jaccard scoring and an in-memory chunk index.
package retrieval

import (
	"sort"
	"strings"
	"sync"
)

type indexedChunk struct {
	chunk  Chunk
	tokens TokenSet
}

// Retriever holds the guideline chunk collection. Index may be called while
// searches are in flight; it swaps the collection under the write lock.
type Retriever struct {
	mu     sync.RWMutex
	chunks []indexedChunk
}

func NewRetriever() *Retriever {
	return &Retriever{}
}

// Index replaces the whole collection.
func (r *Retriever) Index(chunks []Chunk) {
	indexed := make([]indexedChunk, len(chunks))
	for i, c := range chunks {
		indexed[i] = indexedChunk{chunk: c, tokens: Tokenize(c.Text)}
	}
	r.mu.Lock()
	r.chunks = indexed
	r.mu.Unlock()
}

// Len returns the number of indexed chunks.
func (r *Retriever) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chunks)
}

// Chunks returns a copy of the indexed chunks in collection order.
func (r *Retriever) Chunks() []Chunk {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Chunk, len(r.chunks))
	for i, c := range r.chunks {
		out[i] = c.chunk
	}
	return out
}

// Sources returns the chunk count per source.
func (r *Retriever) Sources() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]int)
	for _, c := range r.chunks {
		out[c.chunk.Source]++
	}
	return out
}

// Search returns at most k chunks ranked by normalized Jaccard similarity to
// query. Ties keep collection order. An empty index, a blank query or k <= 0
// yields an empty result.
func (r *Retriever) Search(query string, k int) []ScoredChunk {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.chunks) == 0 || strings.TrimSpace(query) == "" || k <= 0 {
		return []ScoredChunk{}
	}

	q := Tokenize(query)
	raw := make([]float64, len(r.chunks))
	for i, c := range r.chunks {
		raw[i] = Similarity(q, c.tokens)
	}
	norm := Normalize(raw)

	order := make([]int, len(r.chunks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return norm[order[a]] > norm[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	out := make([]ScoredChunk, 0, k)
	for _, idx := range order[:k] {
		c := r.chunks[idx].chunk
		out = append(out, ScoredChunk{Text: c.Text, Source: c.Source, Score: norm[idx]})
	}
	return out
}
