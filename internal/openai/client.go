// Package openai provides a thin wrapper around the official OpenAI Go SDK
// for embeddings and chat completions.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"

	"github.com/finsight/txnchat/internal/txnerrors"
)

var (
	// ErrEmptyInput is returned when CreateEmbedding is called with empty input.
	ErrEmptyInput = errors.New("openai: input text is empty")
	// ErrInvalidDims is returned when dimensions is not positive.
	ErrInvalidDims = errors.New("openai: embedding dimensions must be positive")
	// ErrNoEmbeddingInResponse is returned when the API response contains no embedding data.
	ErrNoEmbeddingInResponse = errors.New("openai: no embedding in response")
	// ErrDimensionMismatch is returned when the response embedding length does not match configured dimensions.
	ErrDimensionMismatch = errors.New("openai: embedding dimension mismatch")
	// ErrNoCompletionInResponse is returned when the chat API response contains no choices.
	ErrNoCompletionInResponse = errors.New("openai: no completion in response")
)

const (
	defaultDimension      = 1536
	defaultEmbeddingModel = "text-embedding-3-small"
	defaultChatModel      = "gpt-4o-mini"
)

// Client calls the OpenAI embeddings and chat APIs via the official SDK.
type Client struct {
	sdk            openaisdk.Client
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

// WithEmbeddingModel sets the embedding model name. Empty uses default.
func WithEmbeddingModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.embeddingModel = model
		}
	}
}

// WithChatModel sets the chat-completion model name. Empty uses default.
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

// NewClient creates an OpenAI client using the official SDK.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	client := &Client{
		sdk:            openaisdk.NewClient(option.WithAPIKey(apiKey)),
		embeddingModel: defaultEmbeddingModel,
		chatModel:      defaultChatModel,
		dimensions:     defaultDimension,
		temperature:    0,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// CreateEmbedding returns the embedding vector for the given text.
// The returned slice length equals the configured dimensions.
// API failures are normalized to EmbeddingUnavailableError.
func (c *Client) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}

	if c.dimensions <= 0 {
		return nil, ErrInvalidDims
	}

	resp, err := c.sdk.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfString: param.NewOpt(input),
		},
		Model:      openaisdk.EmbeddingModel(c.embeddingModel),
		Dimensions: param.NewOpt(int64(c.dimensions)),
	})
	if err != nil {
		return nil, txnerrors.NewEmbeddingUnavailableError("openai embedding", err)
	}

	if len(resp.Data) == 0 {
		return nil, ErrNoEmbeddingInResponse
	}

	emb := resp.Data[0].Embedding
	if len(emb) != c.dimensions {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(emb), c.dimensions)
	}

	out := make([]float32, len(emb))
	for i := range emb {
		out[i] = float32(emb[i])
	}

	return out, nil
}

// Complete sends a system+user prompt to the chat-completions API and returns
// the generated text. API failures are normalized to AnswerUnavailableError.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if strings.TrimSpace(user) == "" {
		return "", ErrEmptyInput
	}

	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		messages = append(messages, openaisdk.SystemMessage(system))
	}

	messages = append(messages, openaisdk.UserMessage(user))

	resp, err := c.sdk.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Messages:    messages,
		Model:       openaisdk.ChatModel(c.chatModel),
		Temperature: param.NewOpt(c.temperature),
	})
	if err != nil {
		return "", txnerrors.NewAnswerUnavailableError("openai chat completion", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoCompletionInResponse
	}

	return resp.Choices[0].Message.Content, nil
}
