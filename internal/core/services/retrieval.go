package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/cardiomind/internal/chunker"
	"github.com/custodia-labs/cardiomind/internal/core/domain"
	"github.com/custodia-labs/cardiomind/internal/core/ports/driven"
	"github.com/custodia-labs/cardiomind/internal/core/ports/driving"
	"github.com/custodia-labs/cardiomind/internal/logger"
	"github.com/custodia-labs/cardiomind/internal/retry"
)

// Ensure RetrievalPipeline implements the interface.
var _ driving.RetrievalService = (*RetrievalPipeline)(nil)

// Default pipeline tuning values.
const (
	DefaultBatchSize  = 10
	DefaultMaxWorkers = 5
	DefaultMaxRetries = 3
	DefaultTopK       = 5
	DefaultThreshold  = 0.7
)

// RetrievalConfig tunes the ingestion and query behaviour of the pipeline.
type RetrievalConfig struct {
	// BatchSize is how many chunks one embedding call carries.
	BatchSize int

	// MaxWorkers caps concurrent embedding calls during ingest.
	MaxWorkers int

	// MaxRetries bounds attempts per embedding batch, first call included.
	MaxRetries int

	// RetryBaseDelay is the backoff before the first retry; doubles per
	// retry. Zero means retry.DefaultBaseDelay.
	RetryBaseDelay time.Duration

	// RatePerSecond throttles embedding calls. Zero disables throttling.
	RatePerSecond float64

	// TopK is the default result count for Query when k <= 0.
	TopK int

	// Threshold is the default similarity floor for Query when the caller
	// passes a negative threshold.
	Threshold float64
}

// RetrievalPipeline ingests corpus documents and answers similarity queries.
type RetrievalPipeline struct {
	chunker  *chunker.Chunker
	embedder driven.EmbeddingService
	store    driven.VectorStore
	limiter  *rate.Limiter
	cfg      RetrievalConfig
}

// NewRetrievalPipeline creates a retrieval pipeline. Zero config values
// select the defaults.
func NewRetrievalPipeline(
	ch *chunker.Chunker,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	cfg RetrievalConfig,
) *RetrievalPipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = DefaultMaxWorkers
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}

	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}

	return &RetrievalPipeline{
		chunker:  ch,
		embedder: embedder,
		store:    store,
		limiter:  limiter,
		cfg:      cfg,
	}
}

// batchResult is the outcome of embedding and storing one batch of chunks.
type batchResult struct {
	stored    int
	failedIDs []string
	err       error
}

// Ingest chunks, embeds and stores the given documents. Embedding batches
// run concurrently up to MaxWorkers. A batch that permanently fails is
// recorded in the summary and does not abort the rest of the run.
func (p *RetrievalPipeline) Ingest(ctx context.Context, docs []domain.RawDocument) (domain.IngestSummary, error) {
	logger.Section("Corpus Ingestion")
	logger.Info("Ingesting %d document(s)", len(docs))

	summary := domain.IngestSummary{Documents: len(docs)}

	var chunks []domain.Chunk
	for _, doc := range docs {
		split := p.chunker.Split(doc)
		logger.Debug("Document %s: %d chunk(s)", doc.Source, len(split))
		chunks = append(chunks, split...)
	}
	summary.Chunks = len(chunks)

	if len(chunks) == 0 {
		logger.Info("Nothing to ingest")
		return summary, nil
	}

	batches := batchChunks(chunks, p.cfg.BatchSize)
	logger.Debug("Embedding %d chunk(s) in %d batch(es), %d worker(s)",
		len(chunks), len(batches), p.cfg.MaxWorkers)

	results := make([]batchResult, len(batches))
	sem := make(chan struct{}, p.cfg.MaxWorkers)
	var wg sync.WaitGroup

	for i, batch := range batches {
		wg.Add(1)
		go func(i int, batch []domain.Chunk) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = p.embedAndStore(ctx, batch)
		}(i, batch)
	}
	wg.Wait()

	for _, r := range results {
		summary.Stored += r.stored
		summary.FailedChunkIDs = append(summary.FailedChunkIDs, r.failedIDs...)
		if r.err != nil {
			logger.Warn("Batch failed: %v", r.err)
		}
	}

	if ctx.Err() != nil {
		return summary, fmt.Errorf("ingest interrupted: %w", ctx.Err())
	}

	logger.Info("Ingest finished: %d/%d chunk(s) stored", summary.Stored, summary.Chunks)
	if !summary.Complete() {
		logger.Warn("%d chunk(s) failed to embed", len(summary.FailedChunkIDs))
	}
	return summary, nil
}

// embedAndStore embeds one batch with bounded retries and upserts the
// resulting vectors. On permanent failure every chunk ID in the batch is
// reported failed.
func (p *RetrievalPipeline) embedAndStore(ctx context.Context, batch []domain.Chunk) batchResult {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}

	var vectors [][]float32
	err := retry.Do(ctx, retry.Policy{MaxAttempts: p.cfg.MaxRetries, BaseDelay: p.cfg.RetryBaseDelay}, func(ctx context.Context) error {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		var embedErr error
		vectors, embedErr = p.embedder.EmbedBatch(ctx, texts)
		return embedErr
	})
	if err != nil {
		ids := make([]string, len(batch))
		for i, c := range batch {
			ids[i] = c.ID
		}
		return batchResult{failedIDs: ids, err: fmt.Errorf("embed batch: %w", err)}
	}

	if len(vectors) != len(batch) {
		ids := make([]string, len(batch))
		for i, c := range batch {
			ids[i] = c.ID
		}
		return batchResult{
			failedIDs: ids,
			err:       fmt.Errorf("embed batch: expected %d vectors, got %d", len(batch), len(vectors)),
		}
	}

	var result batchResult
	for i, c := range batch {
		if err := p.store.Upsert(ctx, c.ID, vectors[i], c); err != nil {
			result.failedIDs = append(result.failedIDs, c.ID)
			result.err = fmt.Errorf("store chunk %s: %w", c.ID, err)
			continue
		}
		result.stored++
	}
	return result
}

// Query embeds the text and returns the top-k passages scoring at or above
// the threshold. Pass k <= 0 or threshold < 0 for the configured defaults.
func (p *RetrievalPipeline) Query(ctx context.Context, text string, k int, threshold float64) (domain.RetrievedContext, error) {
	if k <= 0 {
		k = p.cfg.TopK
	}
	if threshold < 0 {
		threshold = p.cfg.Threshold
	}

	logger.Debug("Query: k=%d threshold=%.2f text=%.60q", k, threshold, text)

	var vector []float32
	err := retry.Do(ctx, retry.Policy{MaxAttempts: p.cfg.MaxRetries, BaseDelay: p.cfg.RetryBaseDelay}, func(ctx context.Context) error {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		var embedErr error
		vector, embedErr = p.embedder.Embed(ctx, text)
		return embedErr
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return domain.RetrievedContext{}, err
		}
		return domain.RetrievedContext{}, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}

	matches, err := p.store.Search(ctx, vector, k, threshold)
	if err != nil {
		return domain.RetrievedContext{}, fmt.Errorf("vector search: %w", err)
	}

	result := domain.RetrievedContext{Query: text}
	result.Passages = make([]domain.Passage, len(matches))
	for i, m := range matches {
		result.Passages[i] = domain.Passage{
			ChunkID: m.Chunk.ID,
			Text:    m.Chunk.Text,
			Source:  m.Chunk.Source,
			Score:   m.Score,
		}
	}

	logger.Debug("Query returned %d passage(s)", len(result.Passages))
	return result, nil
}

// batchChunks cuts the chunk list into batches of at most size elements.
func batchChunks(chunks []domain.Chunk, size int) [][]domain.Chunk {
	batches := make([][]domain.Chunk, 0, (len(chunks)+size-1)/size)
	for start := 0; start < len(chunks); start += size {
		end := start + size
		if end > len(chunks) {
			end = len(chunks)
		}
		batches = append(batches, chunks[start:end])
	}
	return batches
}
