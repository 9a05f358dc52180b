package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/finsight/txnchat/internal/api/handlers"
	"github.com/finsight/txnchat/internal/api/middleware"
	"github.com/finsight/txnchat/internal/config"
	"github.com/finsight/txnchat/internal/dataset"
	"github.com/finsight/txnchat/internal/googleai"
	"github.com/finsight/txnchat/internal/models"
	"github.com/finsight/txnchat/internal/openai"
	"github.com/finsight/txnchat/internal/service"
	"github.com/finsight/txnchat/internal/vectorstore"
)

// version is reported by GET /health.
const version = "1.0.0"

const queryEmbeddingCacheSize = 1000

// modelClient is the combined provider surface: embeddings plus chat.
type modelClient interface {
	service.EmbeddingClient
	service.ChatClient
}

// App holds all server dependencies and coordinates startup and shutdown.
type App struct {
	cfg    *config.Config
	store  *vectorstore.Store
	server *http.Server
}

// newModelClient builds the provider client selected by EMBEDDING_PROVIDER.
func newModelClient(ctx context.Context, cfg *config.Config) (modelClient, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewClient(cfg.ProviderAPIKey,
			openai.WithEmbeddingModel(cfg.EmbeddingModel),
			openai.WithChatModel(cfg.ChatModel),
			openai.WithDimensions(cfg.EmbeddingDimensions),
			openai.WithTemperature(cfg.Temperature),
		), nil
	case config.ProviderGoogle:
		client, err := googleai.NewClient(ctx, cfg.ProviderAPIKey,
			googleai.WithEmbeddingModel(cfg.EmbeddingModel),
			googleai.WithChatModel(cfg.ChatModel),
			googleai.WithDimensions(cfg.EmbeddingDimensions),
			googleai.WithTemperature(cfg.Temperature),
		)
		if err != nil {
			return nil, fmt.Errorf("create google client: %w", err)
		}

		return client, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

// NewApp builds and wires all components, including startup ingestion when the
// collection is empty. It does not start the HTTP server; call Run to start
// and block until shutdown or failure.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := vectorstore.Open(cfg.VectorDBPath, cfg.CollectionName, cfg.EmbeddingDimensions)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}

	client, err := newModelClient(ctx, cfg)
	if err != nil {
		store.Close()

		return nil, err
	}

	records, err := dataset.Load(cfg.TransactionsFile)
	if err != nil {
		store.Close()

		return nil, fmt.Errorf("load dataset: %w", err)
	}

	ingestService := service.NewIngestService(service.IngestServiceParams{
		EmbeddingClient: client,
		Store:           store,
		Limiter:         rate.NewLimiter(rate.Limit(cfg.EmbeddingRateLimit), 1),
		Logger:          slog.Default(),
	})

	// Populate on first start; an already-ingested collection is reused as-is.
	count, err := store.Count(ctx)
	if err != nil {
		store.Close()

		return nil, fmt.Errorf("count stored records: %w", err)
	}

	if count == 0 && len(records) > 0 {
		slog.Info("vector store empty, ingesting dataset", "records", len(records))

		if _, err := ingestService.IngestAll(ctx, records); err != nil {
			store.Close()

			return nil, fmt.Errorf("startup ingestion: %w", err)
		}
	} else {
		slog.Info("vector store ready", "stored", count, "dataset", len(records))
	}

	queryCache, err := lru.New[string, []float32](queryEmbeddingCacheSize)
	if err != nil {
		store.Close()

		return nil, fmt.Errorf("create query cache: %w", err)
	}

	retrievalService := service.NewRetrievalService(service.RetrievalServiceParams{
		EmbeddingClient: client,
		Store:           store,
		DefaultTopK:     cfg.TopK,
		QueryCache:      queryCache,
		Logger:          slog.Default(),
	})

	answerService := service.NewAnswerService(service.AnswerServiceParams{
		ChatClient: client,
		Logger:     slog.Default(),
	})

	server := newHTTPServer(cfg, records, store, ingestService, retrievalService, answerService)

	return &App{
		cfg:    cfg,
		store:  store,
		server: server,
	}, nil
}

// newHTTPServer builds the HTTP server and mux.
// Handler chain: RequestID -> CORS -> Logging -> MaxBody -> mux.
func newHTTPServer(
	cfg *config.Config,
	records []models.Transaction,
	store *vectorstore.Store,
	ingestService *service.IngestService,
	retrievalService *service.RetrievalService,
	answerService *service.AnswerService,
) *http.Server {
	healthHandler := handlers.NewHealthHandler(store, version)
	transactionsHandler := handlers.NewTransactionsHandler(records)
	chatHandler := handlers.NewChatHandler(retrievalService, answerService)
	ingestHandler := handlers.NewIngestHandler(ingestService, records)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Check)
	mux.HandleFunc("GET /transactions", transactionsHandler.List)
	mux.HandleFunc("POST /chat", chatHandler.Chat)
	mux.HandleFunc("POST /admin/ingest", ingestHandler.Trigger)

	var handler http.Handler = mux
	handler = middleware.MaxBody(cfg.MaxRequestBodyBytes)(handler)
	handler = middleware.Logging(handler)
	handler = middleware.CORS(handler)
	handler = middleware.RequestID(handler)

	const (
		readTimeout  = 15 * time.Second
		writeTimeout = 60 * time.Second
		idleTimeout  = 60 * time.Second
	)

	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
}

// Run starts the HTTP server and blocks until ctx is cancelled (e.g. signal)
// or the server fails. Caller should then call Shutdown.
func (a *App) Run(ctx context.Context) error {
	runErr := make(chan error, 1)

	go func() {
		slog.Info("Starting server", "port", a.cfg.Port)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case runErr <- fmt.Errorf("server: %w", err):
			default:
			}
		}
	}()

	select {
	case err := <-runErr:
		return err
	case <-ctx.Done():
		return nil
	}
}

// Shutdown stops the server and closes the vector store. Call after Run returns.
func (a *App) Shutdown(ctx context.Context) error {
	if err := a.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		if closeErr := a.store.Close(); closeErr != nil {
			slog.Error("close vector store during server shutdown", "error", closeErr)
		}

		return fmt.Errorf("server shutdown: %w", err)
	}

	if err := a.store.Close(); err != nil {
		return fmt.Errorf("close vector store: %w", err)
	}

	return nil
}
