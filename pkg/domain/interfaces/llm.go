package interfaces

import (
	"context"
	"iter"
)

// Embedder turns text into a dense vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Completer sends a prompt to a chat model and returns the whole reply
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// StreamCompleter yields reply fragments as the model produces them. Iteration
// stops at the first non-nil error.
type StreamCompleter interface {
	CompleteStream(ctx context.Context, prompt string) iter.Seq2[string, error]
}
