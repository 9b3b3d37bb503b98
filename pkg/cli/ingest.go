package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/termfolio/pkg/cli/config"
	"github.com/secmon-lab/termfolio/pkg/usecase"
	"github.com/secmon-lab/termfolio/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdIngest() *cli.Command {
	var contentPath string
	var batchSize int
	var batchInterval time.Duration
	var geminiCfg config.Gemini
	var embeddingCfg config.Embedding
	var storeCfg config.VectorStore

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "content",
			Aliases:     []string{"c"},
			Usage:       "TOML file with [[content]] entries (built-in sample if empty)",
			Sources:     cli.EnvVars("TERMFOLIO_CONTENT"),
			Destination: &contentPath,
		},
		&cli.IntFlag{
			Name:        "batch-size",
			Usage:       "Number of items embedded concurrently",
			Value:       usecase.DefaultBatchSize,
			Sources:     cli.EnvVars("TERMFOLIO_BATCH_SIZE"),
			Destination: &batchSize,
		},
		&cli.DurationFlag{
			Name:        "batch-interval",
			Usage:       "Pause between two groups of items",
			Value:       usecase.DefaultBatchInterval,
			Sources:     cli.EnvVars("TERMFOLIO_BATCH_INTERVAL"),
			Destination: &batchInterval,
		},
	}
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, embeddingCfg.Flags()...)
	flags = append(flags, storeCfg.Flags()...)

	return &cli.Command{
		Name:    "ingest",
		Aliases: []string{"i"},
		Usage:   "Embed portfolio content and store it in the vector store",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()
			logger.Info("Ingest configuration",
				"content", contentPath,
				"batch_size", batchSize,
				"batch_interval", batchInterval,
				slog.Any("embedding", slog.GroupValue(embeddingCfg.LogAttrs()...)),
				slog.Any("vector_store", slog.GroupValue(storeCfg.LogAttrs()...)))

			contents, err := loadPortfolio(contentPath)
			if err != nil {
				return err
			}

			embedder, err := embeddingCfg.Configure(ctx, &geminiCfg)
			if err != nil {
				return goerr.Wrap(err, "failed to configure embedding")
			}
			if embedder == nil {
				return goerr.Wrap(usecase.ErrEmbedderNotConfigured, "ingest needs an embedding provider")
			}

			store, closer, err := storeCfg.Configure(ctx, embeddingCfg.Dimension())
			if err != nil {
				return goerr.Wrap(err, "failed to configure vector store")
			}
			defer closer()

			uc := usecase.NewEmbeddingUseCase(embedder, store,
				usecase.WithEmbeddingDimension(embeddingCfg.Dimension()),
				usecase.WithBatchSize(batchSize),
				usecase.WithBatchInterval(batchInterval),
			)

			processed, err := uc.IngestPortfolio(ctx, contents)
			if err != nil {
				return goerr.Wrap(err, "failed to ingest portfolio content", goerr.V("processed", processed))
			}

			logger.Info("Portfolio content ingested", "contents", len(contents), "processed", processed)
			return nil
		},
	}
}
