// Package models defines the domain types shared across the service.
package models

// Transaction is one immutable transaction record from the static dataset.
// Records are loaded once at startup and never mutated.
type Transaction struct {
	ID       int64   `json:"id"`
	Customer string  `json:"customer"`
	Product  string  `json:"product"`
	Amount   float64 `json:"amount"`
	Date     string  `json:"date"`
}

// TransactionWithScore is one retrieval result: the stored transaction, the
// description text that was embedded, and the cosine similarity score.
// Created per query and discarded after use.
type TransactionWithScore struct {
	Transaction Transaction
	Description string
	Score       float64
}
