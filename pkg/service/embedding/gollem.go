package embedding

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/termfolio/pkg/domain/interfaces"
)

// LLM generates embeddings through a gollem client
type LLM struct {
	client    gollem.LLMClient
	dimension int
}

var _ interfaces.Embedder = &LLM{}

// NewLLM creates an embedder producing vectors of the given dimension
func NewLLM(client gollem.LLMClient, dimension int) *LLM {
	return &LLM{client: client, dimension: dimension}
}

// Embed returns the embedding of text
func (l *LLM) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := l.client.GenerateEmbedding(ctx, l.dimension, []string{text})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embedding")
	}
	if len(embeddings) == 0 {
		return nil, goerr.Wrap(ErrInvalidResponse, "no embedding returned")
	}

	vec := make([]float32, len(embeddings[0]))
	for i, v := range embeddings[0] {
		vec[i] = float32(v)
	}
	return vec, nil
}
