package interfaces

import (
	"context"

	"github.com/secmon-lab/termfolio/pkg/domain/model"
)

// Retriever looks up portfolio snippets similar to a query text
type Retriever interface {
	Retrieve(ctx context.Context, query string, limit int, threshold float64) *model.Retrieval
}
