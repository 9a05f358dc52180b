package handlers

import (
	"context"
	"net/http"

	"github.com/finsight/txnchat/internal/api/response"
	"github.com/finsight/txnchat/internal/models"
)

// Ingestor re-embeds and overwrites the stored dataset. Implementations
// serialize concurrent calls.
type Ingestor interface {
	IngestAll(ctx context.Context, records []models.Transaction) (int, error)
}

// IngestHandler handles the administrative re-ingestion trigger.
type IngestHandler struct {
	ingestor Ingestor
	records  []models.Transaction
}

// NewIngestHandler creates a new ingest handler over the dataset loaded at startup.
func NewIngestHandler(ingestor Ingestor, records []models.Transaction) *IngestHandler {
	return &IngestHandler{ingestor: ingestor, records: records}
}

// IngestResponse is the body for POST /admin/ingest.
type IngestResponse struct {
	Ingested int `json:"ingested"`
}

// Trigger handles POST /admin/ingest. Re-ingestion is idempotent: the
// collection ends up the same size as the dataset, not doubled.
func (h *IngestHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	ingested, err := h.ingestor.IngestAll(r.Context(), h.records)
	if err != nil {
		respondPipelineError(w, err, "Ingestion failed")

		return
	}

	response.RespondJSON(w, http.StatusOK, IngestResponse{Ingested: ingested})
}
