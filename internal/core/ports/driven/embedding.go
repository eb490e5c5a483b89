package driven

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// EmbeddingProvider sends texts to an external embedding model.
//
// Providers return the raw JSON response body; the embedding client in
// core normalises the shape (flat vector, list of vectors or token-level
// vectors), retries and batches. Providers perform no retries themselves.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Hugging Face inference (sentence-transformers models)
type EmbeddingProvider interface {
	// EmbedRaw sends texts in one request and returns the response payload.
	// HTTP failures are reported as *ProviderError.
	EmbedRaw(ctx context.Context, texts []string) (json.RawMessage, error)

	// MaxInputChars is the per-text truncation limit.
	MaxInputChars() int

	// MaxBatchSize is the largest number of texts per request.
	MaxBatchSize() int

	// Dimensions returns the embedding vector size (e.g., 384, 1536, 3072).
	// This is fixed per deployment and must match the VectorIndex collection.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ProviderError is a failed provider call with enough detail for the
// caller to decide whether to retry.
type ProviderError struct {
	// StatusCode is the HTTP status, or 0 for transport failures.
	StatusCode int

	// Retryable is true for transient failures (model loading, 429, 5xx, network).
	Retryable bool

	// RetryAfter is the provider-signalled wait, if any.
	RetryAfter time.Duration

	// Message is the provider's error text.
	Message string
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return "provider request failed: " + e.Message
	}
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Message)
}

// IsClientError reports a non-retryable 4xx response.
func (e *ProviderError) IsClientError() bool {
	return !e.Retryable && e.StatusCode >= 400 && e.StatusCode < 500
}

// NewStatusError classifies an HTTP error response.
func NewStatusError(status int, body string, retryAfter time.Duration) *ProviderError {
	retryable := status == http.StatusTooManyRequests ||
		status == http.StatusRequestTimeout ||
		status >= http.StatusInternalServerError
	return &ProviderError{
		StatusCode: status,
		Retryable:  retryable,
		RetryAfter: retryAfter,
		Message:    body,
	}
}

// NewTransportError wraps a network failure as retryable.
func NewTransportError(err error) *ProviderError {
	return &ProviderError{Retryable: true, Message: err.Error()}
}

// NewResponseError reads a failed response body and classifies it,
// honouring a Retry-After header given in seconds.
func NewResponseError(resp *http.Response) *ProviderError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return NewStatusError(resp.StatusCode, strings.TrimSpace(string(body)), parseRetryAfter(resp.Header.Get("Retry-After")))
}

func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}
