package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/termfolio/pkg/domain/interfaces"
)

// EmbeddingCollection is the default collection holding embedding documents
const EmbeddingCollection = "embeddings"

// VectorStore stores embeddings in Firestore and searches them with
// FindNearest. The collection needs a vector index on the Embedding field,
// created by the migrate command.
type VectorStore struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.VectorStore = &VectorStore{}

type Option func(*VectorStore)

// WithCollectionPrefix prefixes the collection name, isolating test data
func WithCollectionPrefix(prefix string) Option {
	return func(s *VectorStore) {
		s.collectionPrefix = prefix
	}
}

// New connects to the Firestore database. An empty databaseID selects the default database.
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*VectorStore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	s := &VectorStore{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *VectorStore) collection() *firestore.CollectionRef {
	return s.client.Collection(s.collectionPrefix + EmbeddingCollection)
}

func (s *VectorStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
