package handlers

import (
	"context"
	"net/http"

	"github.com/finsight/txnchat/internal/api/response"
)

// ServiceName identifies this API in health responses.
const ServiceName = "txnchat-api"

// StoreCounter reports how many documents the vector store currently holds.
type StoreCounter interface {
	Count(ctx context.Context) (int, error)
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	counter StoreCounter
	version string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(counter StoreCounter, version string) *HealthHandler {
	return &HealthHandler{counter: counter, version: version}
}

// HealthResponse is the body for GET /health.
type HealthResponse struct {
	Status                 string `json:"status"`
	Service                string `json:"service"`
	Version                string `json:"version"`
	VectorStoreInitialized bool   `json:"vector_store_initialized"`
	TotalTransactions      int    `json:"total_transactions"`
}

// Check handles GET /health. An un-ingested store reports
// vector_store_initialized false and total_transactions 0.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	count, err := h.counter.Count(r.Context())
	if err != nil {
		response.RespondJSON(w, http.StatusOK, HealthResponse{
			Status:                 "unhealthy",
			Service:                ServiceName,
			Version:                h.version,
			VectorStoreInitialized: false,
			TotalTransactions:      0,
		})

		return
	}

	status := "healthy"
	if count == 0 {
		status = "degraded"
	}

	response.RespondJSON(w, http.StatusOK, HealthResponse{
		Status:                 status,
		Service:                ServiceName,
		Version:                h.version,
		VectorStoreInitialized: count > 0,
		TotalTransactions:      count,
	})
}
