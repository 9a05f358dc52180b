package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/finsight/txnchat/internal/models"
)

// Sentinel errors for retrieval (used by handlers for status mapping).
var ErrEmptyQuery = errors.New("query is required and must be non-empty")

// maxTopK caps how many transactions a single query may retrieve.
const maxTopK = 100

// VectorSearcher provides the nearest-neighbor read operation of the vector store.
type VectorSearcher interface {
	Query(ctx context.Context, embedding []float32, k int) ([]models.TransactionWithScore, error)
}

// RetrievalService embeds a query and returns the top-k most similar stored
// transactions. It adds no ranking of its own; ordering comes from the store.
type RetrievalService struct {
	embeddingClient EmbeddingClient
	store           VectorSearcher
	defaultTopK     int
	queryCache      *lru.Cache[string, []float32]
	queryLoadGroup  singleflight.Group
	logger          *slog.Logger
}

// RetrievalServiceParams configures RetrievalService. QueryCache may be nil (no caching).
type RetrievalServiceParams struct {
	EmbeddingClient EmbeddingClient
	Store           VectorSearcher
	DefaultTopK     int
	QueryCache      *lru.Cache[string, []float32]
	Logger          *slog.Logger
}

// NewRetrievalService creates a RetrievalService.
func NewRetrievalService(p RetrievalServiceParams) *RetrievalService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	defaultTopK := p.DefaultTopK
	if defaultTopK <= 0 {
		defaultTopK = 5
	}

	return &RetrievalService{
		embeddingClient: p.EmbeddingClient,
		store:           p.Store,
		defaultTopK:     defaultTopK,
		queryCache:      p.QueryCache,
		logger:          logger,
	}
}

// Retrieve returns up to k stored transactions nearest to the query, ordered
// by non-increasing similarity. k <= 0 uses the configured default; an empty
// collection yields an empty result. Requires a non-empty (after trim) query.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, k int) ([]models.TransactionWithScore, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	if k <= 0 {
		k = s.defaultTopK
	}

	if k > maxTopK {
		k = maxTopK
	}

	var (
		embedding []float32
		err       error
	)

	if s.queryCache != nil {
		embedding, err = s.getQueryEmbeddingCached(ctx, query)
	} else {
		embedding, err = s.embeddingClient.CreateEmbedding(ctx, query)
	}

	if err != nil {
		s.logger.Error("retrieve: create embedding failed", "error", err, "topK", k)

		return nil, fmt.Errorf("create embedding: %w", err)
	}

	results, err := s.store.Query(ctx, embedding, k)
	if err != nil {
		s.logger.Error("retrieve: nearest failed", "error", err, "topK", k)

		return nil, fmt.Errorf("nearest transactions: %w", err)
	}

	return results, nil
}

func (s *RetrievalService) getQueryEmbeddingCached(ctx context.Context, query string) ([]float32, error) {
	if vec, ok := s.queryCache.Get(query); ok {
		return vec, nil
	}

	val, err, _ := s.queryLoadGroup.Do(query, func() (any, error) {
		vec, loadErr := s.embeddingClient.CreateEmbedding(ctx, query)
		if loadErr != nil {
			return nil, fmt.Errorf("create embedding: %w", loadErr)
		}

		s.queryCache.Add(query, vec)

		return vec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	return val.([]float32), nil
}
