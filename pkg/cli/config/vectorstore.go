package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/termfolio/pkg/domain/interfaces"
	"github.com/secmon-lab/termfolio/pkg/repository/firestore"
	"github.com/secmon-lab/termfolio/pkg/repository/memory"
	"github.com/secmon-lab/termfolio/pkg/repository/postgres"
	"github.com/urfave/cli/v3"
)

const (
	VectorStoreMemory    = "memory"
	VectorStorePostgres  = "postgres"
	VectorStoreFirestore = "firestore"
)

// VectorStore selects the backend holding portfolio embeddings
type VectorStore struct {
	backend    string
	dsn        string
	projectID  string
	databaseID string
}

// Flags returns CLI flags for the vector store
func (v *VectorStore) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "vector-store",
			Usage:       "Vector store backend (memory, postgres, firestore)",
			Value:       VectorStoreMemory,
			Category:    "Vector Store",
			Sources:     cli.EnvVars("TERMFOLIO_VECTOR_STORE"),
			Destination: &v.backend,
		},
		&cli.StringFlag{
			Name:        "postgres-dsn",
			Usage:       "PostgreSQL connection string (Supabase or any pgvector server)",
			Category:    "Vector Store",
			Sources:     cli.EnvVars("TERMFOLIO_POSTGRES_DSN", "SUPABASE_DB_URL"),
			Destination: &v.dsn,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID",
			Category:    "Vector Store",
			Sources:     cli.EnvVars("TERMFOLIO_FIRESTORE_PROJECT_ID"),
			Destination: &v.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Value:       "(default)",
			Category:    "Vector Store",
			Sources:     cli.EnvVars("TERMFOLIO_FIRESTORE_DATABASE_ID"),
			Destination: &v.databaseID,
		},
	}
}

// Backend returns the selected backend name
func (v *VectorStore) Backend() string { return v.backend }

// FirestoreProjectID returns the configured Firestore project
func (v *VectorStore) FirestoreProjectID() string { return v.projectID }

// FirestoreDatabaseID returns the configured Firestore database
func (v *VectorStore) FirestoreDatabaseID() string { return v.databaseID }

func (v *VectorStore) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("backend", v.backend),
		slog.Bool("postgres_dsn_set", v.dsn != ""),
		slog.String("firestore_project_id", v.projectID),
		slog.String("firestore_database_id", v.databaseID),
	}
}

// Configure opens the selected vector store. The returned closer releases the
// connection and is never nil.
func (v *VectorStore) Configure(ctx context.Context, dimension int) (interfaces.VectorStore, func(), error) {
	switch v.backend {
	case VectorStoreMemory:
		return memory.NewVectorStore(), func() {}, nil

	case VectorStorePostgres:
		store, err := v.ConfigurePostgres(ctx, dimension)
		if err != nil {
			return nil, func() {}, err
		}
		return store, func() { _ = store.Close() }, nil

	case VectorStoreFirestore:
		if v.projectID == "" {
			return nil, func() {}, goerr.Wrap(ErrInvalidConfig, "--firestore-project-id is required")
		}
		store, err := firestore.New(ctx, v.projectID, v.databaseID)
		if err != nil {
			return nil, func() {}, goerr.Wrap(err, "failed to initialize firestore vector store")
		}
		return store, func() { _ = store.Close() }, nil

	default:
		return nil, func() {}, goerr.Wrap(ErrInvalidProvider, "unknown vector store", goerr.V(ProviderKey, v.backend))
	}
}

// ConfigurePostgres connects to the PostgreSQL backend directly. The migrate
// command uses it to apply the schema.
func (v *VectorStore) ConfigurePostgres(ctx context.Context, dimension int) (*postgres.VectorStore, error) {
	if v.dsn == "" {
		return nil, goerr.Wrap(ErrInvalidConfig, "--postgres-dsn is required")
	}
	store, err := postgres.New(ctx, v.dsn, postgres.WithDimension(dimension))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize postgres vector store")
	}
	return store, nil
}
