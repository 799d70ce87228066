package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Note: This is separate from VectorStore, which stores and searches vectors.
// EmbeddingService generates vectors; VectorStore stores them.
//
// A call either produces one vector per input text, in input order, or fails
// as a whole; there is no partial success within one call. Implementations
// mark retryable failures (network errors, rate limits, 5xx) with
// retry.Transient so callers can distinguish them from permanent ones.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	// This is more efficient than calling Embed in a loop for large batches.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 1536, 3584).
	// This must match the vector store's dimension once records exist.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
