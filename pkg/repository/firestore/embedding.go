package firestore

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/termfolio/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const distanceField = "VectorDistance"

// embeddingDoc is the Firestore document representation of model.EmbeddingRecord.
// Embedding is stored as firestore.Vector32 so that FindNearest vector search works.
type embeddingDoc struct {
	ID        string             `firestore:"ID"`
	Content   string             `firestore:"Content"`
	Metadata  map[string]any     `firestore:"Metadata"`
	Embedding firestore.Vector32 `firestore:"Embedding"`
	CreatedAt time.Time          `firestore:"CreatedAt"`
}

func toEmbeddingDoc(r *model.EmbeddingRecord) *embeddingDoc {
	return &embeddingDoc{
		ID:        r.ID,
		Content:   r.Content,
		Metadata:  r.Metadata,
		Embedding: firestore.Vector32(r.Embedding),
		CreatedAt: r.CreatedAt,
	}
}

func fromEmbeddingDoc(d *embeddingDoc) *model.EmbeddingRecord {
	r := &model.EmbeddingRecord{
		ID:        d.ID,
		Content:   d.Content,
		Metadata:  d.Metadata,
		CreatedAt: d.CreatedAt.UTC(),
	}
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	if len(d.Embedding) > 0 {
		r.Embedding = []float32(d.Embedding)
	}
	return r
}

func (s *VectorStore) Upsert(ctx context.Context, record *model.EmbeddingRecord) error {
	if record == nil || record.ID == "" {
		return goerr.New("embedding record ID is required")
	}

	doc := toEmbeddingDoc(record)
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	if _, err := s.collection().Doc(record.ID).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to upsert embedding", goerr.V("id", record.ID))
	}
	return nil
}

func (s *VectorStore) Get(ctx context.Context, id string) (*model.EmbeddingRecord, error) {
	snap, err := s.collection().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "embedding not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get embedding", goerr.V("id", id))
	}

	var d embeddingDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal embedding", goerr.V("id", id))
	}
	return fromEmbeddingDoc(&d), nil
}

// Search runs a cosine FindNearest query. Firestore reports cosine distance,
// which is converted to similarity as 1 - distance.
func (s *VectorStore) Search(ctx context.Context, query []float32, limit int, threshold float64) ([]*model.VectorSearchResult, error) {
	results := make([]*model.VectorSearchResult, 0, max(limit, 0))
	if limit <= 0 {
		return results, nil
	}

	maxDistance := 1 - threshold
	vq := s.collection().FindNearest("Embedding", firestore.Vector32(query), limit,
		firestore.DistanceMeasureCosine,
		&firestore.FindNearestOptions{
			DistanceThreshold:   &maxDistance,
			DistanceResultField: distanceField,
		})

	iter := vq.Documents(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate vector search results")
		}

		var d embeddingDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal embedding from vector search")
		}

		distance, ok := snap.Data()[distanceField].(float64)
		if !ok {
			continue
		}
		similarity := 1 - distance
		if similarity < threshold {
			continue
		}

		r := fromEmbeddingDoc(&d)
		results = append(results, &model.VectorSearchResult{
			ID:         r.ID,
			Content:    r.Content,
			Metadata:   r.Metadata,
			Similarity: similarity,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	return results, nil
}
