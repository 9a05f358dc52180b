// Package googleai provides a thin wrapper around the Google Gen AI SDK for
// embeddings and content generation (Gemini API).
package googleai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"google.golang.org/genai"

	"github.com/finsight/txnchat/internal/txnerrors"
)

var (
	// ErrEmptyInput is returned when CreateEmbedding is called with empty input.
	ErrEmptyInput = errors.New("googleai: input text is empty")
	// ErrInvalidDims is returned when dimensions is not positive.
	ErrInvalidDims = errors.New("googleai: embedding dimensions must be positive")
	// ErrNoEmbeddingInResponse is returned when the API response contains no embedding data.
	ErrNoEmbeddingInResponse = errors.New("googleai: no embedding in response")
	// ErrDimensionMismatch is returned when the response embedding length does not match configured dimensions.
	ErrDimensionMismatch = errors.New("googleai: embedding dimension mismatch")
	// ErrNoCompletionInResponse is returned when the generation response contains no text.
	ErrNoCompletionInResponse = errors.New("googleai: no completion in response")
)

const (
	defaultDimension      = 1536
	defaultEmbeddingModel = "gemini-embedding-001"
	defaultChatModel      = "gemini-2.0-flash"
)

// Client calls the Gemini embeddings and generation APIs via the Google Gen AI SDK.
type Client struct {
	client         *genai.Client
	embeddingModel string
	chatModel      string
	dimensions     int
	temperature    float64
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithDimensions sets the requested embedding dimension (must match the vector collection).
func WithDimensions(dim int) ClientOption {
	return func(c *Client) {
		c.dimensions = dim
	}
}

// WithEmbeddingModel sets the embedding model name (e.g. gemini-embedding-001). Empty uses default.
func WithEmbeddingModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.embeddingModel = model
		}
	}
}

// WithChatModel sets the generation model name (e.g. gemini-2.0-flash). Empty uses default.
func WithChatModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.chatModel = model
		}
	}
}

// WithTemperature sets the generation temperature (0 = deterministic).
func WithTemperature(t float64) ClientOption {
	return func(c *Client) {
		c.temperature = t
	}
}

// NewClient creates a Gemini client.
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("googleai client: %w", err)
	}

	client := &Client{
		client:         genaiClient,
		embeddingModel: defaultEmbeddingModel,
		chatModel:      defaultChatModel,
		dimensions:     defaultDimension,
		temperature:    0,
	}
	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// CreateEmbedding returns the embedding vector for the given text using the configured model.
// The returned slice length equals the configured dimensions.
// API failures are normalized to EmbeddingUnavailableError.
func (c *Client) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}

	if c.dimensions <= 0 || c.dimensions > math.MaxInt32 {
		return nil, ErrInvalidDims
	}

	contents := []*genai.Content{genai.NewContentFromText(input, genai.RoleUser)}
	//nolint:gosec // G115: c.dimensions is bounded above by math.MaxInt32
	dimInt32 := int32(c.dimensions)

	resp, err := c.client.Models.EmbedContent(ctx, c.embeddingModel, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &dimInt32,
	})
	if err != nil {
		return nil, txnerrors.NewEmbeddingUnavailableError("gemini embedding", err)
	}

	if len(resp.Embeddings) == 0 {
		return nil, ErrNoEmbeddingInResponse
	}

	emb := resp.Embeddings[0].Values
	if len(emb) != c.dimensions {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(emb), c.dimensions)
	}

	out := make([]float32, len(emb))
	copy(out, emb)

	return out, nil
}

// Complete sends a system+user prompt to the generation API and returns the
// generated text. API failures are normalized to AnswerUnavailableError.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if strings.TrimSpace(user) == "" {
		return "", ErrEmptyInput
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(c.temperature)),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	contents := []*genai.Content{genai.NewContentFromText(user, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, c.chatModel, contents, cfg)
	if err != nil {
		return "", txnerrors.NewAnswerUnavailableError("gemini generation", err)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrNoCompletionInResponse
	}

	return text, nil
}
