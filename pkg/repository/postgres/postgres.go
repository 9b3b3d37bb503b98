package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/secmon-lab/termfolio/pkg/domain/interfaces"
	"github.com/secmon-lab/termfolio/pkg/domain/model"
)

// VectorStore stores embeddings in PostgreSQL with the pgvector extension.
// It works against Supabase as well as a plain pgvector server.
type VectorStore struct {
	pool      *pgxpool.Pool
	dimension int
}

var _ interfaces.VectorStore = &VectorStore{}

type Option func(*VectorStore)

// WithDimension sets the vector column dimension used by Migrate
func WithDimension(dim int) Option {
	return func(s *VectorStore) {
		s.dimension = dim
	}
}

// New connects to the database at dsn and verifies the connection
func New(ctx context.Context, dsn string, opts ...Option) (*VectorStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, goerr.Wrap(err, "failed to ping database")
	}

	s := &VectorStore{
		pool:      pool,
		dimension: model.EmbeddingDimension,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Migrate creates the extension, table, index and search function if missing
func (s *VectorStore) Migrate(ctx context.Context) error {
	for _, stmt := range SchemaStatements(s.dimension) {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return goerr.Wrap(err, "failed to apply schema", goerr.V("statement", stmt))
		}
	}
	return nil
}

const upsertSQL = `
INSERT INTO embeddings (id, content, metadata, embedding, created_at)
VALUES ($1, $2, $3::jsonb, $4::vector, $5)
ON CONFLICT (id) DO UPDATE SET
	content    = EXCLUDED.content,
	metadata   = EXCLUDED.metadata,
	embedding  = EXCLUDED.embedding,
	created_at = EXCLUDED.created_at`

func (s *VectorStore) Upsert(ctx context.Context, record *model.EmbeddingRecord) error {
	if record == nil || record.ID == "" {
		return goerr.New("embedding record ID is required")
	}

	metadata, err := marshalMetadata(record.Metadata)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal metadata", goerr.V("id", record.ID))
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	if _, err := s.pool.Exec(ctx, upsertSQL,
		record.ID,
		record.Content,
		metadata,
		pgvector.NewVector(record.Embedding),
		createdAt,
	); err != nil {
		return goerr.Wrap(err, "failed to upsert embedding", goerr.V("id", record.ID))
	}
	return nil
}

const getSQL = `
SELECT id, content, metadata, embedding::text, created_at
FROM embeddings
WHERE id = $1`

func (s *VectorStore) Get(ctx context.Context, id string) (*model.EmbeddingRecord, error) {
	var (
		record   model.EmbeddingRecord
		metadata []byte
		vec      pgvector.Vector
	)

	err := s.pool.QueryRow(ctx, getSQL, id).Scan(&record.ID, &record.Content, &metadata, &vec, &record.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, goerr.Wrap(model.ErrNotFound, "embedding not found", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get embedding", goerr.V("id", id))
	}

	md, err := unmarshalMetadata(metadata)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal metadata", goerr.V("id", id))
	}
	record.Metadata = md
	record.Embedding = vec.Slice()
	record.CreatedAt = record.CreatedAt.UTC()

	return &record, nil
}

const searchSQL = `
SELECT id, content, metadata, similarity
FROM match_embeddings($1::vector, $2, $3)`

// Search delegates ranking to the match_embeddings database function
func (s *VectorStore) Search(ctx context.Context, query []float32, limit int, threshold float64) ([]*model.VectorSearchResult, error) {
	results := make([]*model.VectorSearchResult, 0, max(limit, 0))
	if limit <= 0 {
		return results, nil
	}

	rows, err := s.pool.Query(ctx, searchSQL, pgvector.NewVector(query), threshold, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search embeddings")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r        model.VectorSearchResult
			metadata []byte
		)
		if err := rows.Scan(&r.ID, &r.Content, &metadata, &r.Similarity); err != nil {
			return nil, goerr.Wrap(err, "failed to scan search result")
		}
		md, err := unmarshalMetadata(metadata)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal metadata", goerr.V("id", r.ID))
		}
		r.Metadata = md
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate search results")
	}

	return results, nil
}

// Truncate deletes every stored embedding
func (s *VectorStore) Truncate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE TABLE embeddings`); err != nil {
		return goerr.Wrap(err, "failed to truncate embeddings")
	}
	return nil
}

func (s *VectorStore) Close() error {
	s.pool.Close()
	return nil
}

func marshalMetadata(md map[string]any) (string, error) {
	if md == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(md)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func unmarshalMetadata(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	md := map[string]any{}
	if err := json.Unmarshal(raw, &md); err != nil {
		return nil, err
	}
	return md, nil
}
