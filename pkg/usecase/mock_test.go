package usecase_test

import (
	"context"
	"iter"
	"sync"

	"github.com/secmon-lab/termfolio/pkg/domain/model"
)

// mockCompleter is a Completer with a replaceable Complete
type mockCompleter struct {
	completeFn func(ctx context.Context, prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.completeFn != nil {
		return m.completeFn(ctx, prompt)
	}
	return "", nil
}

// mockStreamCompleter also streams fragments
type mockStreamCompleter struct {
	mockCompleter
	fragments []string
	err       error
}

func (m *mockStreamCompleter) CompleteStream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, f := range m.fragments {
			if !yield(f, nil) {
				return
			}
		}
		if m.err != nil {
			yield("", m.err)
		}
	}
}

// mockEmbedder is an Embedder with a replaceable Embed
type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) ([]float32, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return make([]float32, model.EmbeddingDimension), nil
}

// failingStore is a VectorStore whose every call fails
type failingStore struct {
	err error
}

func (s *failingStore) Upsert(ctx context.Context, record *model.EmbeddingRecord) error {
	return s.err
}

func (s *failingStore) Get(ctx context.Context, id string) (*model.EmbeddingRecord, error) {
	return nil, s.err
}

func (s *failingStore) Search(ctx context.Context, query []float32, limit int, threshold float64) ([]*model.VectorSearchResult, error) {
	return nil, s.err
}

func (s *failingStore) Close() error {
	return nil
}

// unitVector returns a vector of the default dimension with 1 at index i
func unitVector(i int) []float32 {
	v := make([]float32, model.EmbeddingDimension)
	v[i] = 1
	return v
}

// recorder collects stream events
type recorder struct {
	events []*model.StreamEvent
}

func (r *recorder) emit(ctx context.Context, event *model.StreamEvent) error {
	r.events = append(r.events, event)
	return nil
}
