package postgres

import "fmt"

// SchemaStatements returns the DDL that prepares a database for the store:
// the pgvector extension, the embeddings table, a cosine HNSW index and the
// match_embeddings search function used by Supabase style RPC clients.
func SchemaStatements(dimension int) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS embeddings (
	id         TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	metadata   JSONB NOT NULL DEFAULT '{}'::jsonb,
	embedding  vector(%d) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, dimension),

		`CREATE INDEX IF NOT EXISTS embeddings_embedding_idx
	ON embeddings USING hnsw (embedding vector_cosine_ops)`,

		fmt.Sprintf(`CREATE OR REPLACE FUNCTION match_embeddings(
	query_embedding vector(%d),
	match_threshold float,
	match_count int
)
RETURNS TABLE (id text, content text, metadata jsonb, similarity float)
LANGUAGE sql STABLE
AS $$
	SELECT
		e.id,
		e.content,
		e.metadata,
		1 - (e.embedding <=> query_embedding) AS similarity
	FROM embeddings e
	WHERE 1 - (e.embedding <=> query_embedding) >= match_threshold
	ORDER BY e.embedding <=> query_embedding
	LIMIT match_count
$$`, dimension),
	}
}
