package memory

import (
	"context"
	"maps"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/termfolio/pkg/domain/interfaces"
	"github.com/secmon-lab/termfolio/pkg/domain/model"
)

// VectorStore keeps embeddings in process memory and searches them by brute
// force cosine similarity. Intended for development and tests.
type VectorStore struct {
	mu      sync.RWMutex
	records map[string]*model.EmbeddingRecord
}

var _ interfaces.VectorStore = &VectorStore{}

// NewVectorStore creates an empty store
func NewVectorStore() *VectorStore {
	return &VectorStore{
		records: make(map[string]*model.EmbeddingRecord),
	}
}

func copyRecord(r *model.EmbeddingRecord) *model.EmbeddingRecord {
	copied := &model.EmbeddingRecord{
		ID:        r.ID,
		Content:   r.Content,
		Metadata:  maps.Clone(r.Metadata),
		CreatedAt: r.CreatedAt,
	}
	if r.Embedding != nil {
		copied.Embedding = make([]float32, len(r.Embedding))
		copy(copied.Embedding, r.Embedding)
	}
	return copied
}

func (s *VectorStore) Upsert(ctx context.Context, record *model.EmbeddingRecord) error {
	if record == nil || record.ID == "" {
		return goerr.New("embedding record ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := copyRecord(record)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.records[stored.ID] = stored
	return nil
}

func (s *VectorStore) Get(ctx context.Context, id string) (*model.EmbeddingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "embedding not found", goerr.V("id", id))
	}
	return copyRecord(r), nil
}

func (s *VectorStore) Search(ctx context.Context, query []float32, limit int, threshold float64) ([]*model.VectorSearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*model.VectorSearchResult, 0)
	if limit <= 0 {
		return results, nil
	}

	for _, r := range s.records {
		if len(r.Embedding) == 0 {
			continue
		}
		score := cosineSimilarity(query, r.Embedding)
		if score < threshold {
			continue
		}
		results = append(results, &model.VectorSearchResult{
			ID:         r.ID,
			Content:    r.Content,
			Metadata:   maps.Clone(r.Metadata),
			Similarity: score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity == results[j].Similarity {
			return results[i].ID < results[j].ID
		}
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Close is a no-op
func (s *VectorStore) Close() error {
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}

	return dot / denom
}
