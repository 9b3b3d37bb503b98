package interfaces

import (
	"context"

	"github.com/secmon-lab/termfolio/pkg/domain/model"
)

// VectorStore persists embeddings and answers similarity queries
type VectorStore interface {
	// Upsert inserts the record or replaces the one with the same ID
	Upsert(ctx context.Context, record *model.EmbeddingRecord) error

	// Get returns the record by ID. A missing record is model.ErrNotFound.
	Get(ctx context.Context, id string) (*model.EmbeddingRecord, error)

	// Search returns at most limit records whose cosine similarity to query is
	// at least threshold, most similar first
	Search(ctx context.Context, query []float32, limit int, threshold float64) ([]*model.VectorSearchResult, error)

	Close() error
}
