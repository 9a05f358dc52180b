// Package dataset loads the static transaction dataset and renders the
// description strings that get embedded into the vector store.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/finsight/txnchat/internal/models"
)

// Document pairs a transaction with the description text to embed. The
// description is what similarity search runs over; the transaction rides along
// as metadata so every retrieval result traces back to exactly one record.
type Document struct {
	Transaction models.Transaction
	Description string
}

// Load reads the transaction dataset from a JSON file. An empty array is a
// valid dataset; a missing or malformed file is an error.
func Load(path string) ([]models.Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transactions file %s: %w", path, err)
	}

	var records []models.Transaction
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse transactions file %s: %w", path, err)
	}

	return records, nil
}

// Describe renders the deterministic description for one transaction. The
// template repeats customer, product, amount, and date as labeled fields so
// records for the same customer or product embed near each other.
func Describe(t models.Transaction) string {
	amount := formatAmount(t.Amount)

	return fmt.Sprintf(
		"Transaction ID %d: On %s, %s purchased a %s for ₹%s. Customer: %s, Product: %s, Amount: %s, Date: %s.",
		t.ID, t.Date, t.Customer, t.Product, amount, t.Customer, t.Product, amount, t.Date,
	)
}

// BuildDocuments converts the full record set into embeddable documents.
// An empty record set yields an empty (non-nil) result, not an error;
// downstream retrieval tolerates zero candidates.
func BuildDocuments(records []models.Transaction) []Document {
	docs := make([]Document, 0, len(records))
	for _, record := range records {
		docs = append(docs, Document{
			Transaction: record,
			Description: Describe(record),
		})
	}

	return docs
}

// formatAmount renders amounts without a fixed decimal tail: 55000 not 55000.00,
// 249.5 not 249.50. Keeps descriptions stable for whole-currency datasets.
func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
