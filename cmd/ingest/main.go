// ingest embeds the transaction dataset and writes it to the vector
// collection. Run this for one-off (re-)ingestion when the API server is not
// doing it at startup. Ingestion is idempotent; -reset additionally deletes
// the collection file first, which clears embeddings for records no longer in
// the dataset.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/time/rate"

	"github.com/finsight/txnchat/internal/config"
	"github.com/finsight/txnchat/internal/dataset"
	"github.com/finsight/txnchat/internal/googleai"
	"github.com/finsight/txnchat/internal/openai"
	"github.com/finsight/txnchat/internal/service"
	"github.com/finsight/txnchat/internal/vectorstore"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	reset := flag.Bool("reset", false, "delete the collection file before ingesting")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)

		return exitFailure
	}

	ctx := context.Background()

	if *reset {
		if err := os.Remove(cfg.VectorDBPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Error("Failed to remove collection file", "path", cfg.VectorDBPath, "error", err)

			return exitFailure
		}

		slog.Info("Collection file removed", "path", cfg.VectorDBPath)
	}

	store, err := vectorstore.Open(cfg.VectorDBPath, cfg.CollectionName, cfg.EmbeddingDimensions)
	if err != nil {
		slog.Error("Failed to open vector store", "error", err)

		return exitFailure
	}
	defer store.Close()

	client, err := newEmbeddingClient(ctx, cfg)
	if err != nil {
		slog.Error("Failed to create provider client", "error", err)

		return exitFailure
	}

	records, err := dataset.Load(cfg.TransactionsFile)
	if err != nil {
		slog.Error("Failed to load dataset", "error", err)

		return exitFailure
	}

	ingestService := service.NewIngestService(service.IngestServiceParams{
		EmbeddingClient: client,
		Store:           store,
		Limiter:         rate.NewLimiter(rate.Limit(cfg.EmbeddingRateLimit), 1),
		Logger:          slog.Default(),
	})

	ingested, err := ingestService.IngestAll(ctx, records)
	if err != nil {
		slog.Error("Ingestion failed", "ingested", ingested, "error", err)

		return exitFailure
	}

	slog.Info("Ingestion finished", "ingested", ingested)

	return exitSuccess
}

// newEmbeddingClient builds the provider client selected by EMBEDDING_PROVIDER.
// Only the embedding surface is needed here.
func newEmbeddingClient(ctx context.Context, cfg *config.Config) (service.EmbeddingClient, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewClient(cfg.ProviderAPIKey,
			openai.WithEmbeddingModel(cfg.EmbeddingModel),
			openai.WithDimensions(cfg.EmbeddingDimensions),
		), nil
	case config.ProviderGoogle:
		client, err := googleai.NewClient(ctx, cfg.ProviderAPIKey,
			googleai.WithEmbeddingModel(cfg.EmbeddingModel),
			googleai.WithDimensions(cfg.EmbeddingDimensions),
		)
		if err != nil {
			return nil, fmt.Errorf("create google client: %w", err)
		}

		return client, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}
