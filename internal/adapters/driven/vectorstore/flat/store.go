// Package flat provides an exact, in-memory vector store with cosine
// similarity search and bbolt-backed snapshots.
//
// The index is a flat scan: every query computes the dot product against
// every stored vector, O(n*D) per search. Vectors are unit-normalised on
// insert, so the dot product against a normalised query equals cosine
// similarity. Results are exact top-k; there is no approximation.
package flat

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/cardiomind/internal/core/domain"
	"github.com/custodia-labs/cardiomind/internal/core/ports/driven"
	"github.com/custodia-labs/cardiomind/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// record is one stored vector with its chunk and insertion sequence.
// The sequence number gives Search a stable tie-break.
type record struct {
	id     string
	vector []float32 // unit-normalised
	chunk  domain.Chunk
	seq    uint64
}

// Store is a flat cosine-similarity vector store.
//
// All mutations take the write lock over the records and the id index
// together, so a reader never observes a half-applied change. Searches
// share the read lock and may run concurrently.
type Store struct {
	mu        sync.RWMutex
	dimension int
	nextSeq   uint64
	records   []record
	byID      map[string]int // id -> index into records
}

// New creates an empty store. The dimension is adopted from the first
// insert.
func New() *Store {
	return &Store{byID: make(map[string]int)}
}

// Add inserts a new record.
func (s *Store) Add(_ context.Context, id string, vector []float32, chunk domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[id]; exists {
		return fmt.Errorf("add %q: %w", id, domain.ErrDuplicateID)
	}
	normalised, err := s.checkAndNormalise(vector)
	if err != nil {
		return fmt.Errorf("add %q: %w", id, err)
	}

	s.insertLocked(id, normalised, chunk)
	return nil
}

// Upsert inserts or replaces a record. The replacement is atomic under the
// write lock: the old vector is gone before any reader can see the new one.
func (s *Store) Upsert(_ context.Context, id string, vector []float32, chunk domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalised, err := s.checkAndNormalise(vector)
	if err != nil {
		return fmt.Errorf("upsert %q: %w", id, err)
	}

	if idx, exists := s.byID[id]; exists {
		// Replace in place, keeping the original insertion sequence so
		// repeated upserts do not reshuffle tie-breaks.
		s.records[idx].vector = normalised
		s.records[idx].chunk = chunk
		return nil
	}

	s.insertLocked(id, normalised, chunk)
	return nil
}

// Delete removes a record by id.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, exists := s.byID[id]
	if !exists {
		return fmt.Errorf("delete %q: %w", id, domain.ErrNotFound)
	}

	s.records = append(s.records[:idx], s.records[idx+1:]...)
	delete(s.byID, id)
	for i := idx; i < len(s.records); i++ {
		s.byID[s.records[i].id] = i
	}
	return nil
}

// Search returns up to k records with cosine similarity >= threshold,
// best first. The threshold filter is applied before truncation to k, and
// equal scores keep insertion order, so repeated queries return identical
// rankings.
func (s *Store) Search(_ context.Context, query []float32, k int, threshold float64) ([]driven.VectorMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.records) == 0 || k <= 0 {
		return []driven.VectorMatch{}, nil
	}
	if len(query) != s.dimension {
		return nil, fmt.Errorf("search: query has %d dimensions, store has %d: %w",
			len(query), s.dimension, domain.ErrDimensionMismatch)
	}

	q := normalise(query)

	type scored struct {
		rec   *record
		score float64
	}
	matches := make([]scored, 0, len(s.records))
	for i := range s.records {
		score := dot(s.records[i].vector, q)
		if score >= threshold {
			matches = append(matches, scored{rec: &s.records[i], score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].rec.seq < matches[j].rec.seq
	})

	if len(matches) > k {
		matches = matches[:k]
	}

	results := make([]driven.VectorMatch, len(matches))
	for i, m := range matches {
		results[i] = driven.VectorMatch{Chunk: m.rec.chunk, Score: m.score}
	}
	return results, nil
}

// Size returns the number of stored records.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Dimension returns the fixed vector dimension, or 0 while the store is
// empty.
func (s *Store) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

// Close releases resources. The in-memory index needs none; snapshots are
// closed by Save and Load themselves.
func (s *Store) Close() error {
	return nil
}

// insertLocked appends a record. Caller holds the write lock.
func (s *Store) insertLocked(id string, vector []float32, chunk domain.Chunk) {
	if s.dimension == 0 {
		s.dimension = len(vector)
		logger.Debug("Vector store adopted dimension %d", s.dimension)
	}
	s.records = append(s.records, record{
		id:     id,
		vector: vector,
		chunk:  chunk,
		seq:    s.nextSeq,
	})
	s.byID[id] = len(s.records) - 1
	s.nextSeq++
}

// checkAndNormalise validates the vector length against the store dimension
// and returns a unit-normalised copy. Caller holds the write lock.
func (s *Store) checkAndNormalise(vector []float32) ([]float32, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("empty vector: %w", domain.ErrInvalidInput)
	}
	if s.dimension != 0 && len(vector) != s.dimension {
		return nil, fmt.Errorf("vector has %d dimensions, store has %d: %w",
			len(vector), s.dimension, domain.ErrDimensionMismatch)
	}
	return normalise(vector), nil
}

// normalise returns a unit-length copy of v. A zero vector is returned
// unchanged; it scores 0 against everything.
func normalise(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)

	out := make([]float32, len(v))
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// dot computes the dot product of two equal-length vectors in float64 to
// limit accumulation error.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
