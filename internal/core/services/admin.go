package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/cardiomind/internal/core/ports/driven"
	"github.com/custodia-labs/cardiomind/internal/core/ports/driving"
	"github.com/custodia-labs/cardiomind/internal/logger"
)

// Ensure StoreAdmin implements the interface.
var _ driving.StoreAdmin = (*StoreAdmin)(nil)

// StoreAdmin exposes vector store administration to external tooling.
type StoreAdmin struct {
	store        driven.VectorStore
	snapshotPath string
}

// NewStoreAdmin creates a store admin bound to a snapshot location.
func NewStoreAdmin(store driven.VectorStore, snapshotPath string) *StoreAdmin {
	return &StoreAdmin{store: store, snapshotPath: snapshotPath}
}

// Stats returns store size and dimension.
func (a *StoreAdmin) Stats(_ context.Context) (driving.StoreStats, error) {
	return driving.StoreStats{
		Records:   a.store.Size(),
		Dimension: a.store.Dimension(),
	}, nil
}

// DeleteRecord removes a single record by ID.
func (a *StoreAdmin) DeleteRecord(ctx context.Context, id string) error {
	if err := a.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	logger.Info("Deleted record %s", id)
	return nil
}

// Checkpoint persists the store to its configured snapshot location.
func (a *StoreAdmin) Checkpoint(ctx context.Context) error {
	if err := a.store.Save(ctx, a.snapshotPath); err != nil {
		return fmt.Errorf("checkpoint to %s: %w", a.snapshotPath, err)
	}
	logger.Info("Checkpointed %d record(s) to %s", a.store.Size(), a.snapshotPath)
	return nil
}
