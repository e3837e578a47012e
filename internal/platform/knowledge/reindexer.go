package knowledge

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/ehr/copilot/internal/domain/retrieval"
)

// Index is the part of *retrieval.Retriever the reindexer drives.
type Index interface {
	Index(chunks []retrieval.Chunk)
	Sources() map[string]int
	Len() int
}

// Stats describes the index after a load.
type Stats struct {
	Documents int            `json:"documents"`
	Chunks    int            `json:"chunks"`
	Sources   map[string]int `json:"sources"`
}

// Reindexer reloads a knowledge directory into an index. Concurrent
// reloads are serialized.
type Reindexer struct {
	mu        sync.Mutex
	dir       string
	chunkSize int
	index     Index
	logger    zerolog.Logger
	onReload  func(chunks int)
}

func NewReindexer(dir string, chunkSize int, index Index, logger zerolog.Logger) *Reindexer {
	if chunkSize <= 0 {
		chunkSize = retrieval.DefaultChunkSize
	}
	return &Reindexer{dir: dir, chunkSize: chunkSize, index: index, logger: logger}
}

// OnReload registers a hook called with the chunk count after each reload.
func (r *Reindexer) OnReload(fn func(chunks int)) {
	r.onReload = fn
}

// Reload reads the directory and swaps the index contents. On a read error
// the current index is left untouched.
func (r *Reindexer) Reload() (Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	docs, err := LoadDir(r.dir, r.logger)
	if err != nil {
		return Stats{}, err
	}
	chunks := retrieval.ChunkDocuments(docs, r.chunkSize)
	r.index.Index(chunks)

	if len(chunks) == 0 {
		r.logger.Warn().Str("dir", r.dir).Msg("no knowledge documents indexed; add .txt, .md or .pdf files")
	} else {
		r.logger.Info().Str("dir", r.dir).Int("documents", len(docs)).Int("chunks", len(chunks)).Msg("knowledge indexed")
	}
	if r.onReload != nil {
		r.onReload(len(chunks))
	}
	return Stats{Documents: len(docs), Chunks: len(chunks), Sources: r.index.Sources()}, nil
}

// Current reports the index as it is now.
func (r *Reindexer) Current() Stats {
	sources := r.index.Sources()
	return Stats{Documents: len(sources), Chunks: r.index.Len(), Sources: sources}
}
