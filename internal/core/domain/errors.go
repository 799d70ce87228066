package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID indicates an explicit add collided with an existing record.
	ErrDuplicateID = errors.New("duplicate record id")

	// ErrDimensionMismatch indicates a vector's length disagrees with the
	// store's fixed dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmbeddingUnavailable indicates the embedding collaborator could not
	// produce a vector after retries. Callers must not treat this as
	// "no relevant documents".
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrReasoningUnavailable indicates the reasoning collaborator could not
	// be reached or returned an unusable response.
	ErrReasoningUnavailable = errors.New("reasoning service unavailable")

	// ErrIngestIncomplete indicates ingestion finished but some chunks failed
	// to embed. The ingest summary carries the failed chunk IDs.
	ErrIngestIncomplete = errors.New("ingest completed with failures")

	// ErrEmptyCase indicates a patient case with no chief complaint and no
	// clinical findings. Diagnosis fails before any collaborator call.
	ErrEmptyCase = errors.New("patient case has no chief complaint or findings")

	// ErrStageTimeout indicates a workflow stage exceeded its deadline.
	ErrStageTimeout = errors.New("stage timed out")

	// ErrDiagnosisFailed indicates the mandatory reasoning stage failed and
	// no report could be produced.
	ErrDiagnosisFailed = errors.New("diagnosis failed")

	// ErrMalformedResponse indicates a collaborator response did not conform
	// to the stage's expected schema.
	ErrMalformedResponse = errors.New("malformed collaborator response")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")
)

// StageError describes a workflow stage failure with enough structure for a
// caller to decide whether retrying the whole session is worthwhile.
type StageError struct {
	// Stage is the stage that failed.
	Stage Stage

	// Err is the underlying error kind.
	Err error

	// Attempts is the number of collaborator attempts used, retries included.
	Attempts int
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed after %d attempt(s): %v", e.Stage, e.Attempts, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
