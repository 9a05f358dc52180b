package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/txnchat/internal/models"
	"github.com/finsight/txnchat/internal/service"
	"github.com/finsight/txnchat/internal/txnerrors"
)

type mockRetriever struct {
	retrieveFunc func(ctx context.Context, query string, k int) ([]models.TransactionWithScore, error)
}

func (m *mockRetriever) Retrieve(
	ctx context.Context, query string, k int,
) ([]models.TransactionWithScore, error) {
	if m.retrieveFunc != nil {
		return m.retrieveFunc(ctx, query, k)
	}

	return nil, nil
}

type mockAnswerer struct {
	answerFunc func(ctx context.Context, query string, retrieved []models.TransactionWithScore) (string, []models.Transaction, error)
}

func (m *mockAnswerer) Answer(
	ctx context.Context, query string, retrieved []models.TransactionWithScore,
) (string, []models.Transaction, error) {
	if m.answerFunc != nil {
		return m.answerFunc(ctx, query, retrieved)
	}

	return "mock answer", []models.Transaction{}, nil
}

func chatRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "http://test/chat", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")

	return req
}

func TestChatHandler_Chat(t *testing.T) {
	t.Run("success returns answer with sources", func(t *testing.T) {
		retrieved := []models.TransactionWithScore{
			{
				Transaction: models.Transaction{ID: 1, Customer: "Amit", Product: "Laptop", Amount: 55000, Date: "2024-01-12"},
				Description: "Amit purchased a Laptop",
				Score:       0.92,
			},
		}

		retriever := &mockRetriever{
			retrieveFunc: func(_ context.Context, query string, k int) ([]models.TransactionWithScore, error) {
				assert.Equal(t, "what did Amit buy", query)
				assert.Equal(t, 0, k)

				return retrieved, nil
			},
		}
		answerer := &mockAnswerer{
			answerFunc: func(_ context.Context, _ string, got []models.TransactionWithScore) (string, []models.Transaction, error) {
				assert.Equal(t, retrieved, got)

				return "Amit bought a Laptop for ₹55000.", []models.Transaction{retrieved[0].Transaction}, nil
			},
		}

		handler := NewChatHandler(retriever, answerer)
		rec := httptest.NewRecorder()

		handler.Chat(rec, chatRequest(`{"query":"what did Amit buy"}`))

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp ChatResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		assert.Equal(t, "Amit bought a Laptop for ₹55000.", resp.Answer)
		assert.Equal(t, "what did Amit buy", resp.Query)
		require.Len(t, resp.Sources, 1)
		assert.Equal(t, int64(1), resp.Sources[0].ID)
	})

	t.Run("malformed JSON returns 400", func(t *testing.T) {
		handler := NewChatHandler(&mockRetriever{}, &mockAnswerer{})
		rec := httptest.NewRecorder()

		handler.Chat(rec, chatRequest(`{"query":`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	})

	t.Run("use_memory field is accepted and ignored", func(t *testing.T) {
		handler := NewChatHandler(&mockRetriever{}, &mockAnswerer{})
		rec := httptest.NewRecorder()

		handler.Chat(rec, chatRequest(`{"query":"what did Amit buy","use_memory":true}`))

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp ChatResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "mock answer", resp.Answer)
	})

	t.Run("unknown fields return 400", func(t *testing.T) {
		handler := NewChatHandler(&mockRetriever{}, &mockAnswerer{})
		rec := httptest.NewRecorder()

		handler.Chat(rec, chatRequest(`{"query":"q","extra":true}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing query returns 400", func(t *testing.T) {
		handler := NewChatHandler(&mockRetriever{}, &mockAnswerer{})
		rec := httptest.NewRecorder()

		handler.Chat(rec, chatRequest(`{}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("whitespace-only query returns 400", func(t *testing.T) {
		handler := NewChatHandler(&mockRetriever{}, &mockAnswerer{})
		rec := httptest.NewRecorder()

		handler.Chat(rec, chatRequest(`{"query":"   "}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty-query error from service returns 400", func(t *testing.T) {
		retriever := &mockRetriever{
			retrieveFunc: func(_ context.Context, _ string, _ int) ([]models.TransactionWithScore, error) {
				return nil, service.ErrEmptyQuery
			},
		}

		handler := NewChatHandler(retriever, &mockAnswerer{})
		rec := httptest.NewRecorder()

		handler.Chat(rec, chatRequest(`{"query":"q"}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("embedding API failure returns 502", func(t *testing.T) {
		retriever := &mockRetriever{
			retrieveFunc: func(_ context.Context, _ string, _ int) ([]models.TransactionWithScore, error) {
				return nil, txnerrors.NewEmbeddingUnavailableError("embedding API request failed", nil)
			},
		}

		handler := NewChatHandler(retriever, &mockAnswerer{})
		rec := httptest.NewRecorder()

		handler.Chat(rec, chatRequest(`{"query":"q"}`))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("chat completion failure returns 502", func(t *testing.T) {
		answerer := &mockAnswerer{
			answerFunc: func(_ context.Context, _ string, _ []models.TransactionWithScore) (string, []models.Transaction, error) {
				return "", nil, txnerrors.NewAnswerUnavailableError("chat completion request failed", nil)
			},
		}

		handler := NewChatHandler(&mockRetriever{}, answerer)
		rec := httptest.NewRecorder()

		handler.Chat(rec, chatRequest(`{"query":"q"}`))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("corrupted store returns 500", func(t *testing.T) {
		retriever := &mockRetriever{
			retrieveFunc: func(_ context.Context, _ string, _ int) ([]models.TransactionWithScore, error) {
				return nil, txnerrors.NewStoreCorruptedError("nearest-neighbor query", nil)
			},
		}

		handler := NewChatHandler(retriever, &mockAnswerer{})
		rec := httptest.NewRecorder()

		handler.Chat(rec, chatRequest(`{"query":"q"}`))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("nil sources serialize as empty array", func(t *testing.T) {
		answerer := &mockAnswerer{
			answerFunc: func(_ context.Context, _ string, _ []models.TransactionWithScore) (string, []models.Transaction, error) {
				return "No transactions exist for that customer.", nil, nil
			},
		}

		handler := NewChatHandler(&mockRetriever{}, answerer)
		rec := httptest.NewRecorder()

		handler.Chat(rec, chatRequest(`{"query":"what did Nobody buy"}`))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"sources":[]`)
	})
}
