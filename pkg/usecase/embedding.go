package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/termfolio/pkg/domain/interfaces"
	"github.com/secmon-lab/termfolio/pkg/domain/model"
	"github.com/secmon-lab/termfolio/pkg/domain/types"
	"github.com/secmon-lab/termfolio/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBatchSize is the number of items embedded concurrently
	DefaultBatchSize = 5
	// DefaultBatchInterval is the pause between two ingestion groups
	DefaultBatchInterval = time.Second
)

// EmbeddingUseCase embeds text, ingests it into the vector store and serves
// similarity lookups
type EmbeddingUseCase struct {
	embedder      interfaces.Embedder
	store         interfaces.VectorStore
	dimension     int
	batchSize     int
	batchInterval time.Duration
}

var _ interfaces.Retriever = &EmbeddingUseCase{}

type EmbeddingOption func(*EmbeddingUseCase)

func WithEmbeddingDimension(dim int) EmbeddingOption {
	return func(uc *EmbeddingUseCase) {
		uc.dimension = dim
	}
}

func WithBatchSize(size int) EmbeddingOption {
	return func(uc *EmbeddingUseCase) {
		uc.batchSize = size
	}
}

func WithBatchInterval(d time.Duration) EmbeddingOption {
	return func(uc *EmbeddingUseCase) {
		uc.batchInterval = d
	}
}

// NewEmbeddingUseCase creates a new EmbeddingUseCase instance. embedder and
// store may be nil; the operations needing them then degrade or fail.
func NewEmbeddingUseCase(embedder interfaces.Embedder, store interfaces.VectorStore, opts ...EmbeddingOption) *EmbeddingUseCase {
	uc := &EmbeddingUseCase{
		embedder:      embedder,
		store:         store,
		dimension:     model.EmbeddingDimension,
		batchSize:     DefaultBatchSize,
		batchInterval: DefaultBatchInterval,
	}
	for _, opt := range opts {
		opt(uc)
	}
	if uc.batchSize <= 0 {
		uc.batchSize = DefaultBatchSize
	}
	return uc
}

// Dimension returns the configured vector dimension
func (uc *EmbeddingUseCase) Dimension() int {
	return uc.dimension
}

// Enabled reports whether both an embedder and a vector store are configured
func (uc *EmbeddingUseCase) Enabled() bool {
	return uc.embedder != nil && uc.store != nil
}

// Embed returns the embedding of text. Provider failures never surface as
// errors: the result is a zero vector marked Degraded with the cause attached.
func (uc *EmbeddingUseCase) Embed(ctx context.Context, text string) *model.EmbeddingResult {
	if uc.embedder == nil {
		return &model.EmbeddingResult{
			Vector:   model.ZeroVector(uc.dimension),
			Degraded: true,
			Cause:    ErrEmbedderNotConfigured,
		}
	}

	vec, err := uc.embedder.Embed(ctx, text)
	if err != nil {
		logging.From(ctx).Warn("embedding failed, using zero vector",
			logging.ErrAttr(err),
			"text_length", len(text),
		)
		return &model.EmbeddingResult{
			Vector:   model.ZeroVector(uc.dimension),
			Degraded: true,
			Cause:    err,
		}
	}

	return &model.EmbeddingResult{Vector: vec}
}

// Search embeds query and looks up similar records. A degraded query
// embedding or a store failure yields a failed Retrieval, never an error.
func (uc *EmbeddingUseCase) Search(ctx context.Context, query string, limit int, threshold float64) *model.Retrieval {
	if uc.store == nil {
		return &model.Retrieval{Status: types.RetrievalFailed, Cause: ErrVectorStoreNotConfigured}
	}

	emb := uc.Embed(ctx, query)
	if emb.Degraded {
		return &model.Retrieval{Status: types.RetrievalFailed, Cause: emb.Cause}
	}

	results, err := uc.store.Search(ctx, emb.Vector, limit, threshold)
	if err != nil {
		logging.From(ctx).Warn("similarity search failed",
			logging.ErrAttr(err),
			"limit", limit,
			"threshold", threshold,
		)
		return &model.Retrieval{Status: types.RetrievalFailed, Cause: err}
	}

	if len(results) == 0 {
		return &model.Retrieval{Status: types.RetrievalNoMatch}
	}
	return &model.Retrieval{Status: types.RetrievalMatched, Results: results}
}

// Retrieve implements interfaces.Retriever
func (uc *EmbeddingUseCase) Retrieve(ctx context.Context, query string, limit int, threshold float64) *model.Retrieval {
	return uc.Search(ctx, query, limit, threshold)
}

// Ingest embeds and stores items in groups of the batch size. Items in a
// group run concurrently and groups are separated by the batch interval.
// Items without ID get a UUID. It returns the number of stored items.
func (uc *EmbeddingUseCase) Ingest(ctx context.Context, items []*model.EmbeddingItem) (int, error) {
	if len(items) == 0 {
		return 0, goerr.Wrap(ErrEmptyItems, "no items to ingest")
	}
	if uc.store == nil {
		return 0, goerr.Wrap(ErrVectorStoreNotConfigured, "cannot ingest embeddings")
	}

	logger := logging.From(ctx)
	processed := 0
	total := len(items)

	for start := 0; start < total; start += uc.batchSize {
		if start > 0 && uc.batchInterval > 0 {
			timer := time.NewTimer(uc.batchInterval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return processed, goerr.Wrap(ctx.Err(), "ingestion cancelled", goerr.V("processed", processed))
			case <-timer.C:
			}
		}

		end := min(start+uc.batchSize, total)
		eg, egCtx := errgroup.WithContext(ctx)
		for _, item := range items[start:end] {
			eg.Go(func() error {
				return uc.ingestOne(egCtx, item)
			})
		}
		if err := eg.Wait(); err != nil {
			return processed, err
		}

		processed = end
		logger.Info("processed embedding batch",
			"batch", start/uc.batchSize+1,
			"processed", processed,
			"total", total,
		)
	}

	return processed, nil
}

func (uc *EmbeddingUseCase) ingestOne(ctx context.Context, item *model.EmbeddingItem) error {
	if item == nil || strings.TrimSpace(item.Content) == "" {
		return goerr.Wrap(ErrEmptyContent, "item has no content")
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	emb := uc.Embed(ctx, item.Content)
	if len(emb.Vector) != uc.dimension {
		return goerr.Wrap(ErrDimensionMismatch, "embedding has unexpected dimension",
			goerr.V(EmbeddingIDKey, item.ID),
			goerr.V(DimensionKey, len(emb.Vector)),
			goerr.V("expected", uc.dimension),
		)
	}

	record := &model.EmbeddingRecord{
		ID:        item.ID,
		Content:   item.Content,
		Metadata:  item.Metadata,
		Embedding: emb.Vector,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.store.Upsert(ctx, record); err != nil {
		return goerr.Wrap(err, "failed to store embedding", goerr.V(EmbeddingIDKey, item.ID))
	}
	return nil
}

// IngestPortfolio validates the content, prepares chunked embedding items and
// ingests them. It returns the number of stored items.
func (uc *EmbeddingUseCase) IngestPortfolio(ctx context.Context, contents []*model.PortfolioContent) (int, error) {
	var items []*model.EmbeddingItem
	for _, c := range contents {
		if err := c.Validate(); err != nil {
			return 0, goerr.Wrap(err, "invalid portfolio content", goerr.V("id", c.ID), goerr.V("title", c.Title))
		}
		items = append(items, c.EmbeddingItems()...)
	}

	logging.From(ctx).Info("ingesting portfolio content",
		"contents", len(contents),
		"items", len(items),
	)
	return uc.Ingest(ctx, items)
}
