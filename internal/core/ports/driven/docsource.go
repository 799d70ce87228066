package driven

import (
	"context"

	"github.com/custodia-labs/cardiomind/internal/core/domain"
)

// DocumentSource supplies raw corpus documents for ingestion.
type DocumentSource interface {
	// Load returns all documents currently available from the source.
	Load(ctx context.Context) ([]domain.RawDocument, error)
}

// WatchableSource is a document source that can report changes, so callers
// can re-ingest documents as they appear or change.
type WatchableSource interface {
	DocumentSource

	// LoadFile reads a single document by the path a Watch event reported.
	LoadFile(ctx context.Context, path string) (domain.RawDocument, error)

	// Watch reports changed document paths until ctx is cancelled. The
	// channel is closed when the watcher stops.
	Watch(ctx context.Context) (<-chan string, error)
}

// SessionStore archives diagnostic sessions after their report is emitted.
type SessionStore interface {
	// Archive persists a finished session, report included.
	Archive(ctx context.Context, session *domain.DiagnosticSession) error

	// Get retrieves an archived session by ID.
	// Fails with domain.ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.DiagnosticSession, error)

	// List returns archived session IDs, most recent first.
	List(ctx context.Context) ([]string, error)

	// Close releases resources.
	Close() error
}
