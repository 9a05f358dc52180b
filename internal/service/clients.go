package service

import "context"

// EmbeddingClient generates embedding vectors for text.
// Implemented by provider-specific clients (e.g. OpenAI, Google Gemini).
type EmbeddingClient interface {
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)
}

// ChatClient generates an answer from a system instruction and a user prompt.
// Implemented by provider-specific clients (e.g. OpenAI, Google Gemini).
type ChatClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
