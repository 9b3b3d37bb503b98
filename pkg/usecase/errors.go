package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Request validation errors
	ErrEmptyMessage = errors.New("Invalid request: message is required")
	ErrEmptyContent = errors.New("Invalid request: content is required and must be a string")
	ErrEmptyItems   = errors.New("Invalid request: items array cannot be empty")
	ErrEmptyQuery   = errors.New("Invalid request: query is required")

	// Ingestion errors
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// Configuration errors
	ErrEmbedderNotConfigured    = errors.New("embedding provider is not configured")
	ErrVectorStoreNotConfigured = errors.New("vector store is not configured")
)

// Context keys for error values
const (
	EmbeddingIDKey = "embedding_id"
	DimensionKey   = "dimension"
)
