// Command cardiomind is the CLI entry point. It composes the adapters and
// core services, then hands control to the command tree.
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/cardiomind/internal/adapters/driven/config/file"
	"github.com/custodia-labs/cardiomind/internal/adapters/driven/docsource/filesystem"
	"github.com/custodia-labs/cardiomind/internal/adapters/driven/embedding/gme"
	"github.com/custodia-labs/cardiomind/internal/adapters/driven/reasoning/deepseek"
	"github.com/custodia-labs/cardiomind/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/cardiomind/internal/adapters/driven/vectorstore/flat"
	"github.com/custodia-labs/cardiomind/internal/adapters/driving/cli"
	"github.com/custodia-labs/cardiomind/internal/chunker"
	"github.com/custodia-labs/cardiomind/internal/core/ports/driven"
	"github.com/custodia-labs/cardiomind/internal/core/services"
	"github.com/custodia-labs/cardiomind/internal/logger"
)

func main() {
	// A .env in the working directory supplies API keys during development.
	_ = godotenv.Load()

	if err := run(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

// run composes whatever the configuration allows. Services whose endpoint
// or credentials are missing stay unwired; the commands that need them
// report the gap instead of the whole binary refusing to start.
func run() error {
	cfg, err := file.Load("")
	if err != nil {
		return err
	}

	ctx := context.Background()

	store, err := openVectorStore(ctx, cfg.SnapshotPath())
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := sqlite.NewStore(cfg.Store.DataDir)
	if err != nil {
		return err
	}
	defer sessions.Close()

	svcs := cli.Services{
		Admin:    services.NewStoreAdmin(store, cfg.SnapshotPath()),
		Sessions: sessions,
		NewCorpusSource: func(dir string) (driven.WatchableSource, error) {
			return filesystem.New(dir)
		},
	}

	if cfg.Embedding.BaseURL != "" {
		embedder, err := gme.NewEmbeddingService(gme.Config{
			BaseURL:    cfg.Embedding.BaseURL,
			APIKey:     cfg.Embedding.APIKey,
			Model:      cfg.Embedding.Model,
			Timeout:    cfg.EmbeddingTimeout(),
			Dimensions: cfg.Embedding.Dimensions,
		})
		if err != nil {
			return err
		}
		defer embedder.Close()

		ch, err := chunker.New(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
		if err != nil {
			return err
		}

		retrieval := services.NewRetrievalPipeline(ch, embedder, store, services.RetrievalConfig{
			BatchSize:     cfg.Retrieval.BatchSize,
			MaxWorkers:    cfg.Retrieval.MaxWorkers,
			MaxRetries:    cfg.Retrieval.MaxRetries,
			RatePerSecond: cfg.Retrieval.RatePerSecond,
			TopK:          cfg.Retrieval.TopK,
			Threshold:     cfg.Retrieval.Threshold,
		})
		svcs.Retrieval = retrieval

		if cfg.Reasoning.APIKey != "" {
			reasoner, err := deepseek.NewReasoningService(deepseek.Config{
				APIKey:  cfg.Reasoning.APIKey,
				BaseURL: cfg.Reasoning.BaseURL,
				Model:   cfg.Reasoning.Model,
				Timeout: cfg.ReasoningTimeout(),
			})
			if err != nil {
				return err
			}
			defer reasoner.Close()

			svcs.Diagnosis = services.NewOrchestrator(retrieval, reasoner, sessions, services.WorkflowConfig{
				StageTimeout: cfg.StageTimeout(),
				MaxTokens:    cfg.Workflow.MaxTokens,
				Temperature:  cfg.Workflow.Temperature,
			})
		} else {
			logger.Debug("DEEPSEEK_API_KEY not set, diagnosis disabled")
		}
	} else {
		logger.Debug("embedding endpoint not configured, retrieval disabled")
	}

	cli.SetServices(svcs)
	return cli.Execute()
}

// openVectorStore restores the store from its snapshot, or starts empty
// when no snapshot exists yet.
func openVectorStore(ctx context.Context, path string) (*flat.Store, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return flat.New(), nil
		}
		return nil, err
	}
	return flat.Load(ctx, path)
}
