package domain

// RawDocument is an unprocessed text document supplied by a document source.
// It is the input to ingestion; the retrieval pipeline splits it into chunks.
type RawDocument struct {
	// Source identifies where the document came from (file name, URL).
	Source string

	// Content is the full raw text.
	Content string

	// Metadata contains source-specific key-value pairs.
	Metadata map[string]string
}

// Chunk represents a bounded span of corpus text with provenance metadata.
// Chunks are immutable once created: ingestion builds them, the vector store
// owns them afterwards.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// Text is the chunk content.
	Text string

	// Source identifies the document the chunk was cut from.
	Source string

	// Position is the ordinal position within the source document.
	Position int

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]string
}
