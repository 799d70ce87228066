package driven

import (
	"context"

	"github.com/custodia-labs/cardiomind/internal/core/domain"
)

// VectorMatch is a similarity search result.
type VectorMatch struct {
	// Chunk is the stored chunk the vector belongs to.
	Chunk domain.Chunk

	// Score is the cosine similarity to the query, in [-1, 1].
	Score float64
}

// VectorStore owns the full set of vector records plus the index used for
// search. The dimension is fixed per store instance: an empty store adopts
// it from the first insert and rejects mismatches thereafter.
//
// Mutations are serialized by the implementation; Search may run
// concurrently with other Search calls but never observes a partially
// applied mutation.
type VectorStore interface {
	// Add inserts a new record. Fails with domain.ErrDuplicateID if the id
	// already exists and domain.ErrDimensionMismatch on a wrong-length vector.
	Add(ctx context.Context, id string, vector []float32, chunk domain.Chunk) error

	// Upsert inserts or atomically replaces a record. There is no transient
	// state in which both the old and the new vector are searchable.
	Upsert(ctx context.Context, id string, vector []float32, chunk domain.Chunk) error

	// Delete removes a record. Fails with domain.ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	// Search returns up to k records with similarity >= threshold, ordered
	// by descending score with ties broken by insertion order. The threshold
	// is applied before truncating to k. An empty store returns an empty
	// result, not an error.
	Search(ctx context.Context, query []float32, k int, threshold float64) ([]VectorMatch, error)

	// Save checkpoints the store to the given location. The snapshot is
	// self-describing: dimension, records and chunk metadata are all
	// recoverable without external input.
	Save(ctx context.Context, path string) error

	// Size returns the number of records.
	Size() int

	// Dimension returns the fixed vector dimension, or 0 while empty.
	Dimension() int

	// Close releases resources.
	Close() error
}
