package domain

// Passage is one retrieved chunk with its similarity score.
type Passage struct {
	// ChunkID identifies the stored chunk the passage came from.
	ChunkID string `json:"chunk_id"`

	// Text is the chunk content.
	Text string `json:"text"`

	// Source is the originating document.
	Source string `json:"source"`

	// Score is the cosine similarity to the query, in [-1, 1].
	Score float64 `json:"score"`
}

// RetrievedContext is the ranked literature context returned for a query.
// Passages are ordered by descending score; ties keep insertion order.
type RetrievedContext struct {
	// Query is the text the context was retrieved for.
	Query string `json:"query"`

	// Passages are the matching chunks, best first.
	Passages []Passage `json:"passages"`
}

// Sources returns the distinct source documents across the passages.
func (c RetrievedContext) Sources() []string {
	seen := make(map[string]bool, len(c.Passages))
	var sources []string
	for _, p := range c.Passages {
		if !seen[p.Source] {
			seen[p.Source] = true
			sources = append(sources, p.Source)
		}
	}
	return sources
}

// ChunkIDs returns the IDs of all passages, in rank order.
func (c RetrievedContext) ChunkIDs() []string {
	ids := make([]string, len(c.Passages))
	for i, p := range c.Passages {
		ids[i] = p.ChunkID
	}
	return ids
}

// IngestSummary reports what ingestion achieved. Partial failure is not an
// error state: failed chunks are listed, succeeded chunks are stored.
type IngestSummary struct {
	// Documents is the number of raw documents processed.
	Documents int `json:"documents"`

	// Chunks is the total number of chunks produced.
	Chunks int `json:"chunks"`

	// Stored is the number of chunks embedded and stored.
	Stored int `json:"stored"`

	// FailedChunkIDs lists chunks whose embedding batch permanently failed.
	FailedChunkIDs []string `json:"failed_chunk_ids,omitempty"`
}

// Complete reports whether every produced chunk was stored.
func (s IngestSummary) Complete() bool {
	return len(s.FailedChunkIDs) == 0
}
