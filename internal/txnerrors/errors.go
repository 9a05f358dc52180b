// Package txnerrors provides sentinel and custom error types for the application.
package txnerrors

// ErrConfiguration represents an invalid or missing configuration value.
// Fatal at startup; never surfaced through the HTTP API.
var ErrConfiguration = &ConfigurationError{}

// ConfigurationError is a sentinel error for configuration failures.
type ConfigurationError struct {
	Key     string
	Message string
}

// NewConfigurationError creates a ConfigurationError for the given config key.
func NewConfigurationError(key, message string) *ConfigurationError {
	return &ConfigurationError{
		Key:     key,
		Message: message,
	}
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Key != "" {
		return "invalid configuration: " + e.Key
	}

	return "configuration error"
}

// Is implements the error interface for error comparison.
func (e *ConfigurationError) Is(target error) bool {
	_, ok := target.(*ConfigurationError)

	return ok
}

// ErrEmbeddingUnavailable is the sentinel for embedding-API failures
// (network, auth, rate limit). Surfaced to the caller as a 5xx; never retried.
var ErrEmbeddingUnavailable = &EmbeddingUnavailableError{}

// EmbeddingUnavailableError wraps a failure of the hosted embedding API.
type EmbeddingUnavailableError struct {
	Message string
	Cause   error
}

// NewEmbeddingUnavailableError creates an EmbeddingUnavailableError wrapping cause.
func NewEmbeddingUnavailableError(message string, cause error) *EmbeddingUnavailableError {
	return &EmbeddingUnavailableError{Message: message, Cause: cause}
}

// Error implements the error interface.
func (e *EmbeddingUnavailableError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "embedding API unavailable"
	}

	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}

	return msg
}

// Unwrap returns the underlying provider error.
func (e *EmbeddingUnavailableError) Unwrap() error {
	return e.Cause
}

// Is implements the error interface for error comparison.
func (e *EmbeddingUnavailableError) Is(target error) bool {
	_, ok := target.(*EmbeddingUnavailableError)

	return ok
}

// ErrAnswerUnavailable is the sentinel for chat-completion API failures
// (network, auth, quota). Surfaced to the caller as a 5xx; never retried.
var ErrAnswerUnavailable = &AnswerUnavailableError{}

// AnswerUnavailableError wraps a failure of the hosted chat-completion API.
type AnswerUnavailableError struct {
	Message string
	Cause   error
}

// NewAnswerUnavailableError creates an AnswerUnavailableError wrapping cause.
func NewAnswerUnavailableError(message string, cause error) *AnswerUnavailableError {
	return &AnswerUnavailableError{Message: message, Cause: cause}
}

// Error implements the error interface.
func (e *AnswerUnavailableError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "chat completion API unavailable"
	}

	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}

	return msg
}

// Unwrap returns the underlying provider error.
func (e *AnswerUnavailableError) Unwrap() error {
	return e.Cause
}

// Is implements the error interface for error comparison.
func (e *AnswerUnavailableError) Is(target error) bool {
	_, ok := target.(*AnswerUnavailableError)

	return ok
}

// ErrStoreCorrupted is the sentinel for unreadable persisted vector data.
// Hard failure: the collection must be re-ingested.
var ErrStoreCorrupted = &StoreCorruptedError{}

// StoreCorruptedError indicates the persisted vector collection is unreadable
// or inconsistent (e.g. stored dimension does not match the configured one).
type StoreCorruptedError struct {
	Message string
	Cause   error
}

// NewStoreCorruptedError creates a StoreCorruptedError wrapping cause.
func NewStoreCorruptedError(message string, cause error) *StoreCorruptedError {
	return &StoreCorruptedError{Message: message, Cause: cause}
}

// Error implements the error interface.
func (e *StoreCorruptedError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "vector store corrupted"
	}

	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}

	return msg
}

// Unwrap returns the underlying storage error.
func (e *StoreCorruptedError) Unwrap() error {
	return e.Cause
}

// Is implements the error interface for error comparison.
func (e *StoreCorruptedError) Is(target error) bool {
	_, ok := target.(*StoreCorruptedError)

	return ok
}

// ErrValidation represents a validation error.
// Use when client input fails validation; surfaced as a 4xx.
var ErrValidation = &ValidationError{}

// ValidationError is a sentinel error for validation failures.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new ValidationError with a custom message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Field != "" {
		return "validation failed for field: " + e.Field
	}

	return "validation error"
}

// Is implements the error interface for error comparison.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)

	return ok
}
