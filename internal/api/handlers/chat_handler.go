package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/finsight/txnchat/internal/api/response"
	"github.com/finsight/txnchat/internal/models"
	"github.com/finsight/txnchat/internal/service"
	"github.com/finsight/txnchat/internal/txnerrors"
)

// Retriever returns the top-k stored transactions most similar to the query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]models.TransactionWithScore, error)
}

// Answerer generates an answer conditioned on the retrieved transactions.
type Answerer interface {
	Answer(ctx context.Context, query string, retrieved []models.TransactionWithScore) (string, []models.Transaction, error)
}

// ChatHandler handles HTTP requests for the RAG chat endpoint.
type ChatHandler struct {
	retriever Retriever
	answerer  Answerer
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(retriever Retriever, answerer Answerer) *ChatHandler {
	return &ChatHandler{retriever: retriever, answerer: answerer}
}

// ChatRequest is the body for POST /chat. UseMemory is accepted for
// compatibility with chat clients that send it; conversation state is not
// kept server-side, so the flag is ignored.
type ChatRequest struct {
	Query     string `json:"query"`
	UseMemory bool   `json:"use_memory"`
}

// ChatResponse is the response for POST /chat: the generated answer plus the
// transactions used as context (for UI citation).
type ChatResponse struct {
	Answer  string               `json:"answer"`
	Sources []models.Transaction `json:"sources"`
	Query   string               `json:"query"`
}

// Chat handles POST /chat. Retrieval uses the configured default top-k.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		response.RespondBadRequest(w, "query is required and must be non-empty")

		return
	}

	retrieved, err := h.retriever.Retrieve(r.Context(), query, 0)
	if err != nil {
		respondPipelineError(w, err, "Retrieval failed")

		return
	}

	answer, sources, err := h.answerer.Answer(r.Context(), query, retrieved)
	if err != nil {
		respondPipelineError(w, err, "Answer generation failed")

		return
	}

	if sources == nil {
		sources = []models.Transaction{}
	}

	response.RespondJSON(w, http.StatusOK, ChatResponse{
		Answer:  answer,
		Sources: sources,
		Query:   query,
	})
}

// respondPipelineError maps pipeline errors to the HTTP boundary: validation
// to 400, hosted-API failures to 502, store corruption and anything else to 500.
// Nothing is retried.
func respondPipelineError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrEmptyQuery):
		response.RespondBadRequest(w, "query is required and must be non-empty")
	case errors.Is(err, txnerrors.ErrEmbeddingUnavailable):
		response.RespondBadGateway(w, "Embedding API is unavailable")
	case errors.Is(err, txnerrors.ErrAnswerUnavailable):
		response.RespondBadGateway(w, "Chat completion API is unavailable")
	case errors.Is(err, txnerrors.ErrStoreCorrupted):
		response.RespondInternalServerError(w, "Vector store is unreadable; re-ingestion required")
	default:
		response.RespondInternalServerError(w, fallback)
	}
}
