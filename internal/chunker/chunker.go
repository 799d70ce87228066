// Package chunker splits raw corpus documents into fixed-size overlapping
// chunks, the unit of embedding and retrieval.
package chunker

import (
	"fmt"

	"github.com/custodia-labs/cardiomind/internal/core/domain"
)

// DefaultChunkSize is the default number of runes per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping runes.
const DefaultChunkOverlap = 200

// Chunker splits document content into fixed-size overlapping chunks.
type Chunker struct {
	chunkSize int
	overlap   int
}

// New creates a chunker. A zero chunk size selects the default geometry;
// with an explicit chunk size, a zero overlap means no overlap at all. The
// chunk size must be positive and the overlap must be non-negative and
// smaller than the chunk size, otherwise chunking could never advance.
func New(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
		if overlap == 0 {
			overlap = DefaultChunkOverlap
		}
	}
	if chunkSize < 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidInput, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap must be in [0, chunk size), got %d", domain.ErrInvalidInput, overlap)
	}

	return &Chunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Split cuts a raw document into chunks with sequential position metadata.
// Empty content produces no chunks. Boundaries are rune-aligned so multibyte
// text is never cut mid-character.
func (c *Chunker) Split(doc domain.RawDocument) []domain.Chunk {
	if doc.Content == "" {
		return nil
	}

	runes := []rune(doc.Content)
	step := c.chunkSize - c.overlap

	chunks := make([]domain.Chunk, 0, len(runes)/step+1)
	position := 0

	for start := 0; start < len(runes); start += step {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}

		metadata := make(map[string]string, len(doc.Metadata))
		for k, v := range doc.Metadata {
			metadata[k] = v
		}

		// Deterministic IDs keep re-ingestion idempotent: splitting the
		// same document again upserts over the previous chunks.
		chunks = append(chunks, domain.Chunk{
			ID:       fmt.Sprintf("%s#%d", doc.Source, position),
			Text:     string(runes[start:end]),
			Source:   doc.Source,
			Position: position,
			Metadata: metadata,
		})
		position++

		if end == len(runes) {
			break
		}
	}

	return chunks
}
