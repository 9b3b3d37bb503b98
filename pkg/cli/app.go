package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/termfolio/pkg/cli/config"
	"github.com/secmon-lab/termfolio/pkg/domain/model"
	"github.com/secmon-lab/termfolio/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// appConfig groups the settings needed to build the use cases
type appConfig struct {
	llm       config.LLM
	gemini    config.Gemini
	embedding config.Embedding
	store     config.VectorStore
	chat      config.Chat
}

func (a *appConfig) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, a.llm.Flags()...)
	flags = append(flags, a.gemini.Flags()...)
	flags = append(flags, a.embedding.Flags()...)
	flags = append(flags, a.store.Flags()...)
	flags = append(flags, a.chat.Flags()...)
	return flags
}

func (a *appConfig) LogAttrs() []any {
	return []any{
		slog.Any("llm", slog.GroupValue(a.llm.LogAttrs()...)),
		slog.Any("gemini", slog.GroupValue(a.gemini.LogAttrs()...)),
		slog.Any("embedding", slog.GroupValue(a.embedding.LogAttrs()...)),
		slog.Any("vector_store", slog.GroupValue(a.store.LogAttrs()...)),
		slog.Any("chat", slog.GroupValue(a.chat.LogAttrs()...)),
	}
}

// Configure builds the use cases. The returned closer releases the vector
// store and is never nil.
func (a *appConfig) Configure(ctx context.Context) (*usecase.UseCases, func(), error) {
	completer, err := a.llm.Configure(ctx, &a.gemini)
	if err != nil {
		return nil, func() {}, goerr.Wrap(err, "failed to configure LLM")
	}

	embedder, err := a.embedding.Configure(ctx, &a.gemini)
	if err != nil {
		return nil, func() {}, goerr.Wrap(err, "failed to configure embedding")
	}

	chatOpts, err := a.chat.Configure()
	if err != nil {
		return nil, func() {}, goerr.Wrap(err, "failed to configure chat")
	}

	opts := append(chatOpts, usecase.WithDimension(a.embedding.Dimension()))

	closer := func() {}
	if embedder != nil {
		store, storeCloser, err := a.store.Configure(ctx, a.embedding.Dimension())
		if err != nil {
			return nil, func() {}, goerr.Wrap(err, "failed to configure vector store")
		}
		closer = storeCloser
		opts = append(opts, usecase.WithEmbedder(embedder), usecase.WithVectorStore(store))
	}

	return usecase.New(completer, opts...), closer, nil
}

// loadPortfolio reads the content file, or returns the built-in sample content
// when path is empty.
func loadPortfolio(path string) ([]*model.PortfolioContent, error) {
	if path == "" {
		return model.SamplePortfolioContent(), nil
	}
	contents, err := config.LoadContentFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load portfolio content")
	}
	return contents, nil
}
