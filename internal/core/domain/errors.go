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

	// ErrConstraintViolation indicates a uniqueness or foreign-key
	// violation on write. Callers decide whether to treat it as
	// "already exists"; it is never retried here.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrDimensionMismatch indicates a vector's length does not match
	// the configured embedding dimension. This points at an embedder /
	// index version mismatch and is fatal to the operation.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingProvider indicates the embedding provider failed or
	// timed out. Retry policy belongs to the caller.
	ErrEmbeddingProvider = errors.New("embedding provider failure")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")
)

// IngestionError wraps any failure during a batch ingestion. When it is
// returned, nothing from the batch has been persisted, so the caller may
// retry the whole batch.
type IngestionError struct {
	// WebsiteID identifies the batch's target website.
	WebsiteID string

	// Cause is the underlying failure.
	Cause error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingestion failed for website %s: %v", e.WebsiteID, e.Cause)
}

func (e *IngestionError) Unwrap() error {
	return e.Cause
}
