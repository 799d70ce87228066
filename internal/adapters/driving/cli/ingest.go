package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cardiomind/internal/core/domain"
	"github.com/custodia-labs/cardiomind/internal/core/ports/driven"
)

var ingestWatch bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [corpus-dir]",
	Short: "Index a literature corpus",
	Long: `Reads every .txt and .md file under the corpus directory, splits
them into overlapping chunks, embeds the chunks and stores the vectors.

Re-running ingest over the same corpus replaces existing chunks rather than
duplicating them. With --watch, the command keeps running and re-ingests
files as they are created or changed.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestWatch, "watch", false, "keep running and re-ingest changed files")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}
	if newCorpusSource == nil {
		return errors.New("corpus source not configured")
	}

	source, err := newCorpusSource(args[0])
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)

	docs, err := source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	summary, err := retrievalService.Ingest(ctx, docs)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	printIngestSummary(cmd, summary)

	// The store lives in process memory; without a checkpoint the indexed
	// vectors would vanish when this command exits.
	if err := checkpointStore(ctx); err != nil {
		return fmt.Errorf("checkpoint store: %w", err)
	}

	if !ingestWatch {
		return nil
	}
	return watchCorpus(ctx, cmd, source)
}

// checkpointStore persists the vector store snapshot when an admin service
// is wired.
func checkpointStore(ctx context.Context) error {
	if storeAdmin == nil {
		return nil
	}
	return storeAdmin.Checkpoint(ctx)
}

func printIngestSummary(cmd *cobra.Command, summary domain.IngestSummary) {
	cmd.Printf("Ingested %d document(s): %d/%d chunk(s) stored.\n",
		summary.Documents, summary.Stored, summary.Chunks)
	for _, id := range summary.FailedChunkIDs {
		cmd.Printf("  failed: %s\n", id)
	}
}

// watchCorpus re-ingests files as the watcher reports them, until the
// process is interrupted.
func watchCorpus(ctx context.Context, cmd *cobra.Command, source driven.WatchableSource) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	changes, err := source.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch corpus: %w", err)
	}

	cmd.Println("Watching for corpus changes. Press Ctrl+C to stop.")
	for path := range changes {
		doc, err := source.LoadFile(ctx, path)
		if err != nil {
			// Removed or non-corpus file; nothing to re-ingest.
			continue
		}
		summary, err := retrievalService.Ingest(ctx, []domain.RawDocument{doc})
		if err != nil {
			cmd.Printf("re-ingest %s failed: %v\n", doc.Source, err)
			continue
		}
		if err := checkpointStore(ctx); err != nil {
			cmd.Printf("checkpoint after %s failed: %v\n", doc.Source, err)
		}
		cmd.Printf("Re-ingested %s: %d/%d chunk(s) stored.\n", doc.Source, summary.Stored, summary.Chunks)
	}
	return nil
}
