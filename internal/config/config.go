// Package config provides application configuration loaded from environment variables.
package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/finsight/txnchat/internal/txnerrors"
)

// Supported hosted-model provider names for EMBEDDING_PROVIDER.
const (
	ProviderOpenAI = "openai"
	ProviderGoogle = "google"
)

// Config holds all application configuration.
type Config struct {
	Port     string
	LogLevel string

	// Hosted model provider: "openai" or "google".
	Provider       string
	ProviderAPIKey string

	EmbeddingModel      string
	EmbeddingDimensions int
	ChatModel           string
	Temperature         float64

	// Number of transactions retrieved as context per query.
	TopK int

	VectorDBPath     string
	CollectionName   string
	TransactionsFile string

	// Ingest-time embedding calls per second.
	EmbeddingRateLimit float64

	// Request body size cap in bytes; 0 disables the limit.
	MaxRequestBodyBytes int64
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat retrieves an environment variable as a float or returns a default value.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// Load reads configuration from environment variables and returns a Config struct.
// It automatically loads .env file if it exists.
// Returns default values for any missing environment variables.
// EMBEDDING_PROVIDER and EMBEDDING_PROVIDER_API_KEY are required; Load returns
// a ConfigurationError when either is missing or invalid.
func Load() (*Config, error) {
	// Load .env file if it exists. Skip logging when absent (e.g. env from secrets/parameter store).
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	provider := os.Getenv("EMBEDDING_PROVIDER")
	if provider == "" {
		return nil, txnerrors.NewConfigurationError("EMBEDDING_PROVIDER",
			"EMBEDDING_PROVIDER environment variable is required but not set")
	}

	if provider != ProviderOpenAI && provider != ProviderGoogle {
		return nil, txnerrors.NewConfigurationError("EMBEDDING_PROVIDER",
			"EMBEDDING_PROVIDER must be one of: openai, google")
	}

	apiKey := os.Getenv("EMBEDDING_PROVIDER_API_KEY")
	if apiKey == "" {
		return nil, txnerrors.NewConfigurationError("EMBEDDING_PROVIDER_API_KEY",
			"EMBEDDING_PROVIDER_API_KEY environment variable is required but not set")
	}

	dimensions := getEnvAsInt("EMBEDDING_DIMENSIONS", 1536)
	if dimensions <= 0 {
		return nil, txnerrors.NewConfigurationError("EMBEDDING_DIMENSIONS",
			"EMBEDDING_DIMENSIONS must be a positive integer")
	}

	topK := getEnvAsInt("TOP_K_RESULTS", 5)
	if topK <= 0 {
		return nil, txnerrors.NewConfigurationError("TOP_K_RESULTS",
			"TOP_K_RESULTS must be a positive integer")
	}

	rateLimit := getEnvAsFloat("EMBEDDING_RATE_LIMIT", 5)
	if rateLimit <= 0 {
		return nil, txnerrors.NewConfigurationError("EMBEDDING_RATE_LIMIT",
			"EMBEDDING_RATE_LIMIT must be a positive number")
	}

	defaultEmbeddingModel := "text-embedding-3-small"
	defaultChatModel := "gpt-4o-mini"
	if provider == ProviderGoogle {
		defaultEmbeddingModel = "gemini-embedding-001"
		defaultChatModel = "gemini-2.0-flash"
	}

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Provider:       provider,
		ProviderAPIKey: apiKey,

		EmbeddingModel:      getEnv("EMBEDDING_MODEL", defaultEmbeddingModel),
		EmbeddingDimensions: dimensions,
		ChatModel:           getEnv("LLM_MODEL", defaultChatModel),
		Temperature:         getEnvAsFloat("TEMPERATURE", 0),

		TopK: topK,

		VectorDBPath:     getEnv("VECTOR_DB_PATH", "./txnchat.db"),
		CollectionName:   getEnv("COLLECTION_NAME", "transactions"),
		TransactionsFile: getEnv("TRANSACTIONS_FILE", "data/transactions.json"),

		EmbeddingRateLimit: rateLimit,

		MaxRequestBodyBytes: int64(getEnvAsInt("MAX_REQUEST_BODY_BYTES", 1<<20)),
	}

	return cfg, nil
}
