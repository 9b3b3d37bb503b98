package usecase

import (
	"time"

	"github.com/secmon-lab/termfolio/pkg/domain/interfaces"
	"github.com/secmon-lab/termfolio/pkg/domain/model"
	"github.com/secmon-lab/termfolio/pkg/domain/types"
	"github.com/secmon-lab/termfolio/pkg/service/prompt"
)

type UseCases struct {
	completer   interfaces.Completer
	embedder    interfaces.Embedder
	store       interfaces.VectorStore
	promptCfg   prompt.Config
	streamMode  types.StreamMode
	chunkDelay  time.Duration
	dimension   int
	batchSize   int
	batchPeriod time.Duration

	Chat      *ChatUseCase
	Embedding *EmbeddingUseCase
}

type Option func(*UseCases)

// WithEmbedder enables embedding and similar content retrieval
func WithEmbedder(embedder interfaces.Embedder) Option {
	return func(uc *UseCases) {
		uc.embedder = embedder
	}
}

// WithVectorStore sets the store used by ingestion and retrieval
func WithVectorStore(store interfaces.VectorStore) Option {
	return func(uc *UseCases) {
		uc.store = store
	}
}

func WithPromptConfig(cfg prompt.Config) Option {
	return func(uc *UseCases) {
		uc.promptCfg = cfg
	}
}

func WithStreamMode(mode types.StreamMode) Option {
	return func(uc *UseCases) {
		uc.streamMode = mode
	}
}

// WithChunkDelay sets the pause between simulated stream chunks
func WithChunkDelay(d time.Duration) Option {
	return func(uc *UseCases) {
		uc.chunkDelay = d
	}
}

func WithDimension(dim int) Option {
	return func(uc *UseCases) {
		uc.dimension = dim
	}
}

// WithBatch sets the ingestion group size and the pause between groups
func WithBatch(size int, interval time.Duration) Option {
	return func(uc *UseCases) {
		uc.batchSize = size
		uc.batchPeriod = interval
	}
}

func New(completer interfaces.Completer, opts ...Option) *UseCases {
	uc := &UseCases{
		completer:   completer,
		promptCfg:   prompt.DefaultConfig(),
		streamMode:  types.StreamModeNative,
		chunkDelay:  DefaultChunkDelay,
		dimension:   model.EmbeddingDimension,
		batchSize:   DefaultBatchSize,
		batchPeriod: DefaultBatchInterval,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Embedding = NewEmbeddingUseCase(uc.embedder, uc.store,
		WithEmbeddingDimension(uc.dimension),
		WithBatchSize(uc.batchSize),
		WithBatchInterval(uc.batchPeriod),
	)

	var retriever interfaces.Retriever
	if uc.Embedding.Enabled() {
		retriever = uc.Embedding
	}

	uc.Chat = NewChatUseCase(completer, prompt.NewManager(retriever),
		WithChatPromptConfig(uc.promptCfg),
		WithChatStreamMode(uc.streamMode),
		WithChatChunkDelay(uc.chunkDelay),
	)

	return uc
}
