package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates an unknown provider, backend or MIME type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmbeddingProvider indicates the embedding provider failed after retries
	// or returned a response that could not be normalised.
	ErrEmbeddingProvider = errors.New("embedding provider error")

	// ErrDimensionMismatch indicates a vector length differs from the
	// deployment's configured dimension.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrStoreUnavailable indicates the record store or vector index
	// could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrPartialFailure indicates some but not all items of a batch succeeded.
	// It is reported on results, never returned from an orchestrator.
	ErrPartialFailure = errors.New("partial failure")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Structured extraction and job generation are disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// Pipeline operations reported by StageError.
const (
	OpIngest = "IngestionFailed"
	OpSearch = "SearchFailed"
	OpDelete = "DeletionFailed"
)

// Failure stages reported by StageError.
const (
	StageInput     = "input"
	StageStore     = "store"
	StageEmbedding = "embedding"
	StageIndex     = "index"
)

// StageError records which stage of a pipeline operation failed.
type StageError struct {
	// Op is the failing operation (OpIngest, OpSearch, OpDelete).
	Op string

	// Reason is the stage that failed (StageStore, StageEmbedding, ...).
	Reason string

	// Err is the underlying cause.
	Err error
}

// NewStageError wraps err as a failure of op at the given stage.
func NewStageError(op, reason string, err error) *StageError {
	return &StageError{Op: op, Reason: reason, Err: err}
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s(reason=%s)", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s(reason=%s): %v", e.Op, e.Reason, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the failure stage recorded in err, or "" when err
// carries no StageError.
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Reason
	}
	return ""
}
