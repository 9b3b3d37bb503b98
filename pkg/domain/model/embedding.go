package model

import (
	"time"

	"github.com/secmon-lab/termfolio/pkg/domain/types"
)

// EmbeddingDimension is the dimension of the embedding vector.
// sentence-transformers/all-MiniLM-L6-v2 produces 384 dimensions.
const EmbeddingDimension = 384

// EmbeddingItem is a piece of content waiting to be embedded
type EmbeddingItem struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// EmbeddingRecord is a stored embedding row
type EmbeddingRecord struct {
	ID        string
	Content   string
	Metadata  map[string]any
	Embedding []float32
	CreatedAt time.Time
}

// VectorSearchResult is one row returned by similarity search
type VectorSearchResult struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Similarity float64        `json:"similarity"`
}

// EmbeddingResult is the outcome of embedding one text. A degraded result
// carries a zero vector and the provider error that caused it.
type EmbeddingResult struct {
	Vector   []float32
	Degraded bool
	Cause    error
}

// ZeroVector returns a zero-filled vector of the given dimension
func ZeroVector(dim int) []float32 {
	return make([]float32, dim)
}

// Retrieval is the outcome of a similarity lookup for prompt context
type Retrieval struct {
	Status  types.RetrievalStatus
	Results []*VectorSearchResult
	Cause   error
}
