package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/termfolio/pkg/domain/interfaces"
	"github.com/secmon-lab/termfolio/pkg/domain/model"
	"github.com/secmon-lab/termfolio/pkg/service/embedding"
	"github.com/urfave/cli/v3"
)

const (
	EmbeddingProviderHuggingFace = "huggingface"
	EmbeddingProviderGemini      = "gemini"
	EmbeddingProviderOpenAI      = "openai"
	EmbeddingProviderNone        = "none"
)

// Embedding selects and configures the embedding provider
type Embedding struct {
	provider  string
	dimension int
	hfURL     string
	hfToken   string
	oaiKey    string
	oaiURL    string
	oaiModel  string
}

// Flags returns CLI flags for the embedding provider
func (e *Embedding) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "embedding-provider",
			Usage:       "Embedding provider (huggingface, gemini, openai, none)",
			Value:       EmbeddingProviderHuggingFace,
			Category:    "Embedding",
			Sources:     cli.EnvVars("TERMFOLIO_EMBEDDING_PROVIDER"),
			Destination: &e.provider,
		},
		&cli.IntFlag{
			Name:        "embedding-dimension",
			Usage:       "Dimension of embedding vectors",
			Value:       model.EmbeddingDimension,
			Category:    "Embedding",
			Sources:     cli.EnvVars("TERMFOLIO_EMBEDDING_DIMENSION"),
			Destination: &e.dimension,
		},
		&cli.StringFlag{
			Name:        "huggingface-endpoint",
			Usage:       "HuggingFace feature extraction endpoint",
			Value:       embedding.DefaultHuggingFaceEndpoint,
			Category:    "Embedding",
			Sources:     cli.EnvVars("TERMFOLIO_HUGGINGFACE_ENDPOINT"),
			Destination: &e.hfURL,
		},
		&cli.StringFlag{
			Name:        "huggingface-token",
			Usage:       "HuggingFace API token (optional)",
			Category:    "Embedding",
			Sources:     cli.EnvVars("TERMFOLIO_HUGGINGFACE_TOKEN", "HUGGINGFACE_API_TOKEN"),
			Destination: &e.hfToken,
		},
		&cli.StringFlag{
			Name:        "openai-embedding-api-key",
			Usage:       "API key of the OpenAI compatible embedding endpoint",
			Category:    "Embedding",
			Sources:     cli.EnvVars("TERMFOLIO_OPENAI_EMBEDDING_API_KEY"),
			Destination: &e.oaiKey,
		},
		&cli.StringFlag{
			Name:        "openai-embedding-base-url",
			Usage:       "Base URL of the OpenAI compatible embedding endpoint",
			Category:    "Embedding",
			Sources:     cli.EnvVars("TERMFOLIO_OPENAI_EMBEDDING_BASE_URL"),
			Destination: &e.oaiURL,
		},
		&cli.StringFlag{
			Name:        "openai-embedding-model",
			Usage:       "Embedding model of the OpenAI compatible endpoint",
			Value:       "text-embedding-3-small",
			Category:    "Embedding",
			Sources:     cli.EnvVars("TERMFOLIO_OPENAI_EMBEDDING_MODEL"),
			Destination: &e.oaiModel,
		},
	}
}

// Dimension returns the configured vector dimension
func (e *Embedding) Dimension() int {
	return e.dimension
}

func (e *Embedding) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("provider", e.provider),
		slog.Int("dimension", e.dimension),
		slog.String("huggingface_endpoint", e.hfURL),
		slog.Bool("huggingface_token_set", e.hfToken != ""),
		slog.String("openai_base_url", e.oaiURL),
		slog.String("openai_model", e.oaiModel),
	}
}

// Configure creates the embedder for the selected provider. The none provider
// returns nil, which disables retrieval.
func (e *Embedding) Configure(ctx context.Context, gemini *Gemini) (interfaces.Embedder, error) {
	if e.dimension <= 0 {
		return nil, goerr.Wrap(ErrInvalidConfig, "embedding dimension must be positive", goerr.V("dimension", e.dimension))
	}

	switch e.provider {
	case EmbeddingProviderHuggingFace:
		return embedding.NewHuggingFace(
			embedding.WithEndpoint(e.hfURL),
			embedding.WithToken(e.hfToken),
		), nil

	case EmbeddingProviderGemini:
		client, err := gemini.Client(ctx, e.provider)
		if err != nil {
			return nil, err
		}
		return embedding.NewLLM(client, e.dimension), nil

	case EmbeddingProviderOpenAI:
		if e.oaiKey == "" {
			return nil, goerr.Wrap(ErrMissingAPIKey, "--openai-embedding-api-key is required", goerr.V(ProviderKey, e.provider))
		}
		return embedding.NewOpenAI(e.oaiKey, e.oaiURL, e.oaiModel, e.dimension), nil

	case EmbeddingProviderNone:
		return nil, nil

	default:
		return nil, goerr.Wrap(ErrInvalidProvider, "unknown embedding provider", goerr.V(ProviderKey, e.provider))
	}
}
