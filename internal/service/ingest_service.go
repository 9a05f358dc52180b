package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"github.com/finsight/txnchat/internal/dataset"
	"github.com/finsight/txnchat/internal/models"
)

// VectorWriter provides the write and count operations of the vector store.
type VectorWriter interface {
	Upsert(ctx context.Context, txn models.Transaction, description string, embedding []float32) error
	Count(ctx context.Context) (int, error)
}

// IngestService embeds transaction descriptions and writes them to the vector
// store. Ingestion is keyed by record id, so running it again overwrites
// rather than duplicates. A mutex serializes concurrent ingest triggers;
// queries against the store are not blocked.
type IngestService struct {
	embeddingClient EmbeddingClient
	store           VectorWriter
	limiter         *rate.Limiter
	logger          *slog.Logger

	mu sync.Mutex
}

// IngestServiceParams configures IngestService. Limiter may be nil (no rate limiting).
type IngestServiceParams struct {
	EmbeddingClient EmbeddingClient
	Store           VectorWriter
	Limiter         *rate.Limiter
	Logger          *slog.Logger
}

// NewIngestService creates an IngestService.
func NewIngestService(p IngestServiceParams) *IngestService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &IngestService{
		embeddingClient: p.EmbeddingClient,
		store:           p.Store,
		limiter:         p.Limiter,
		logger:          logger,
	}
}

// IngestAll embeds and upserts every record, returning the number ingested.
// An empty record set is a no-op, not an error. The first failed embedding or
// write aborts the run; records ingested before the failure remain stored.
func (s *IngestService) IngestAll(ctx context.Context, records []models.Transaction) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := dataset.BuildDocuments(records)

	for i, doc := range docs {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return i, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		embedding, err := s.embeddingClient.CreateEmbedding(ctx, doc.Description)
		if err != nil {
			return i, fmt.Errorf("embed record %d: %w", doc.Transaction.ID, err)
		}

		if err := s.store.Upsert(ctx, doc.Transaction, doc.Description, embedding); err != nil {
			return i, fmt.Errorf("store record %d: %w", doc.Transaction.ID, err)
		}
	}

	s.logger.Info("ingestion complete", "records", len(docs))

	return len(docs), nil
}

// Count returns the number of documents currently stored.
func (s *IngestService) Count(ctx context.Context) (int, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}

	return count, nil
}
