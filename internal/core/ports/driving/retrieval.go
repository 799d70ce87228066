package driving

import (
	"context"

	"github.com/custodia-labs/cardiomind/internal/core/domain"
)

// RetrievalService turns raw documents into stored vectors and queries
// into ranked literature context.
type RetrievalService interface {
	// Ingest chunks, embeds and stores the given documents. Partial
	// embedding failure does not abort the run: the summary lists failed
	// chunk IDs alongside what was stored.
	Ingest(ctx context.Context, docs []domain.RawDocument) (domain.IngestSummary, error)

	// Query embeds the text and returns the top-k passages scoring at or
	// above the threshold. Fails with domain.ErrEmbeddingUnavailable when
	// the embedding collaborator is down, so callers can tell "no relevant
	// documents" apart from "retrieval subsystem is down".
	Query(ctx context.Context, text string, k int, threshold float64) (domain.RetrievedContext, error)
}

// DiagnosisService runs the multi-stage diagnostic workflow.
type DiagnosisService interface {
	// Diagnose runs the full workflow for one patient case and returns the
	// aggregated report. Fails with domain.ErrEmptyCase before any
	// collaborator call when the case carries no usable information, and
	// with domain.ErrDiagnosisFailed when the mandatory reasoning stage
	// fails.
	Diagnose(ctx context.Context, patientCase domain.PatientCase) (*domain.DiagnosisReport, error)
}

// StoreStats is a read-only snapshot of the vector store for administration.
type StoreStats struct {
	// Records is the number of stored vector records.
	Records int

	// Dimension is the fixed vector dimension, 0 while empty.
	Dimension int
}

// StoreAdmin exposes vector store administration to external tooling.
type StoreAdmin interface {
	// Stats returns store size and dimension.
	Stats(ctx context.Context) (StoreStats, error)

	// DeleteRecord removes a single record by ID.
	DeleteRecord(ctx context.Context, id string) error

	// Checkpoint persists the store to its configured snapshot location.
	Checkpoint(ctx context.Context) error
}
