package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/finsight/txnchat/internal/models"
)

const systemPrompt = `You are a transaction assistant that answers natural-language questions about customer purchases and spending, even when they contain typos or grammatical errors. Use only the transactions listed in the context to answer. For spending questions, calculate totals by summing the transaction amounts for the customer. For purchase-history questions, list the matching transactions with product names, amounts, and dates. Always format currency with the ₹ symbol. If the context states that no matching transactions were found, say clearly that no transactions exist for that customer or product; never invent a transaction that is not in the context.`

// noContextNote is sent instead of a context block when retrieval came back
// empty, so the model states that no data matched instead of hallucinating.
const noContextNote = "No matching transactions were found in the database."

// defaultMaxContextChars bounds the context block passed to the chat model.
const defaultMaxContextChars = 6000

// AnswerService assembles the retrieval context into a prompt and submits it
// to the hosted chat-completion API.
type AnswerService struct {
	chatClient      ChatClient
	maxContextChars int
	logger          *slog.Logger
}

// AnswerServiceParams configures AnswerService. MaxContextChars <= 0 uses the default.
type AnswerServiceParams struct {
	ChatClient      ChatClient
	MaxContextChars int
	Logger          *slog.Logger
}

// NewAnswerService creates an AnswerService.
func NewAnswerService(p AnswerServiceParams) *AnswerService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	maxChars := p.MaxContextChars
	if maxChars <= 0 {
		maxChars = defaultMaxContextChars
	}

	return &AnswerService{
		chatClient:      p.ChatClient,
		maxContextChars: maxChars,
		logger:          logger,
	}
}

// Answer generates an answer for the query conditioned on the retrieved
// transactions, and returns the answer text plus the transactions that were
// actually included in the context (for citation). When retrieved is empty the
// model is still called, with an explicit no-matching-transactions note.
func (s *AnswerService) Answer(
	ctx context.Context, query string, retrieved []models.TransactionWithScore,
) (string, []models.Transaction, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil, ErrEmptyQuery
	}

	contextBlock, sources := s.buildContext(retrieved)

	prompt := fmt.Sprintf("Transaction context:\n%s\n\nQuestion: %s", contextBlock, query)

	answer, err := s.chatClient.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		s.logger.Error("answer: chat completion failed", "error", err, "sources", len(sources))

		return "", nil, fmt.Errorf("chat completion: %w", err)
	}

	return answer, sources, nil
}

// buildContext concatenates retrieved descriptions in descending-similarity
// order, bounded by maxContextChars, and returns the transactions that made it
// into the block. The sources list is exactly what the model saw.
func (s *AnswerService) buildContext(retrieved []models.TransactionWithScore) (string, []models.Transaction) {
	if len(retrieved) == 0 {
		return noContextNote, []models.Transaction{}
	}

	var (
		b       strings.Builder
		sources = make([]models.Transaction, 0, len(retrieved))
	)

	for i, item := range retrieved {
		line := fmt.Sprintf("%d. %s\n", i+1, item.Description)
		if b.Len() > 0 && b.Len()+len(line) > s.maxContextChars {
			s.logger.Warn("answer: context truncated", "included", len(sources), "retrieved", len(retrieved))

			break
		}

		b.WriteString(line)
		sources = append(sources, item.Transaction)
	}

	return strings.TrimRight(b.String(), "\n"), sources
}
