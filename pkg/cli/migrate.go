package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/termfolio/pkg/cli/config"
	"github.com/secmon-lab/termfolio/pkg/repository/firestore"
	"github.com/secmon-lab/termfolio/pkg/repository/postgres"
	"github.com/secmon-lab/termfolio/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var storeCfg config.VectorStore
	var embeddingCfg config.Embedding
	var dryRun bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Preview changes without applying",
			Destination: &dryRun,
		},
	}
	flags = append(flags, storeCfg.Flags()...)
	flags = append(flags, embeddingCfg.Flags()...)

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Prepare the vector store schema (PostgreSQL) or vector index (Firestore)",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.Default().Info("Migrate configuration",
				"backend", storeCfg.Backend(),
				"dimension", embeddingCfg.Dimension(),
				"dryRun", dryRun)

			switch storeCfg.Backend() {
			case config.VectorStorePostgres:
				return migratePostgres(ctx, &storeCfg, embeddingCfg.Dimension(), dryRun)
			case config.VectorStoreFirestore:
				return migrateFirestore(ctx, &storeCfg, embeddingCfg.Dimension(), dryRun)
			case config.VectorStoreMemory:
				logging.Default().Info("Memory vector store needs no migration")
				return nil
			default:
				return goerr.Wrap(config.ErrInvalidProvider, "unknown vector store", goerr.V(config.ProviderKey, storeCfg.Backend()))
			}
		},
	}
}

func migratePostgres(ctx context.Context, cfg *config.VectorStore, dimension int, dryRun bool) error {
	logger := logging.Default()

	if dryRun {
		logger.Info("Dry run mode - previewing changes")
		for _, stmt := range postgres.SchemaStatements(dimension) {
			logger.Info("Migration step", "statement", stmt)
		}
		return nil
	}

	store, err := cfg.ConfigurePostgres(ctx, dimension)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close postgres vector store", "error", err.Error())
		}
	}()

	logger.Info("Applying migrations")
	if err := store.Migrate(ctx); err != nil {
		return goerr.Wrap(err, "failed to apply migrations")
	}
	logger.Info("Migrations applied successfully")
	return nil
}

func migrateFirestore(ctx context.Context, cfg *config.VectorStore, dimension int, dryRun bool) error {
	logger := logging.Default()

	if cfg.FirestoreProjectID() == "" {
		return goerr.Wrap(config.ErrInvalidConfig, "--firestore-project-id is required")
	}

	indexConfig := getIndexConfig(dimension)

	client, err := fireconf.NewClient(ctx, cfg.FirestoreProjectID(), cfg.FirestoreDatabaseID())
	if err != nil {
		return goerr.Wrap(err, "failed to create fireconf client")
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close fireconf client", "error", err.Error())
		}
	}()

	if dryRun {
		logger.Info("Dry run mode - previewing changes")
		plan, err := client.GetMigrationPlan(ctx, indexConfig)
		if err != nil {
			return goerr.Wrap(err, "failed to create migration plan")
		}

		if len(plan.Steps) == 0 {
			logger.Info("No changes required")
			return nil
		}

		for _, step := range plan.Steps {
			logger.Info("Migration step",
				"collection", step.Collection,
				"operation", step.Operation,
				"description", step.Description,
				"destructive", step.Destructive)
		}
		return nil
	}

	logger.Info("Applying migrations")
	if err := client.Migrate(ctx, indexConfig); err != nil {
		return goerr.Wrap(err, "failed to apply migrations")
	}
	logger.Info("Migrations applied successfully")
	return nil
}

// getIndexConfig returns the Firestore vector index on embedding documents
func getIndexConfig(dimension int) *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: firestore.EmbeddingCollection,
				Indexes: []fireconf.Index{
					{
						Fields: []fireconf.IndexField{
							{
								Path: "Embedding",
								Vector: &fireconf.VectorConfig{
									Dimension: dimension,
								},
							},
						},
					},
				},
			},
		},
	}
}
