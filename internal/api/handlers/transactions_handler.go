package handlers

import (
	"net/http"

	"github.com/finsight/txnchat/internal/api/response"
	"github.com/finsight/txnchat/internal/models"
)

// TransactionsHandler serves the static transaction dataset.
type TransactionsHandler struct {
	records []models.Transaction
}

// NewTransactionsHandler creates a handler over the dataset loaded at startup.
func NewTransactionsHandler(records []models.Transaction) *TransactionsHandler {
	return &TransactionsHandler{records: records}
}

// TransactionListResponse is the body for GET /transactions.
type TransactionListResponse struct {
	Transactions []models.Transaction `json:"transactions"`
	Total        int                  `json:"total"`
}

// List handles GET /transactions. An empty dataset yields an empty list.
func (h *TransactionsHandler) List(w http.ResponseWriter, _ *http.Request) {
	records := h.records
	if records == nil {
		records = []models.Transaction{}
	}

	response.RespondJSON(w, http.StatusOK, TransactionListResponse{
		Transactions: records,
		Total:        len(records),
	})
}
