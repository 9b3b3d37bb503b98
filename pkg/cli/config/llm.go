package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/termfolio/pkg/domain/interfaces"
	"github.com/secmon-lab/termfolio/pkg/service/completion"
	"github.com/urfave/cli/v3"
)

const (
	LLMProviderMistral = "mistral"
	LLMProviderGemini  = "gemini"
)

// LLM selects and configures the chat completion provider
type LLM struct {
	provider      string
	mistralAPIKey string
	mistralURL    string
	mistralModel  string
}

// Flags returns CLI flags for the completion provider
func (l *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-provider",
			Usage:       "Chat completion provider (mistral, gemini)",
			Value:       LLMProviderMistral,
			Category:    "LLM",
			Sources:     cli.EnvVars("TERMFOLIO_LLM_PROVIDER"),
			Destination: &l.provider,
		},
		&cli.StringFlag{
			Name:        "mistral-api-key",
			Usage:       "Mistral AI API key",
			Category:    "LLM",
			Sources:     cli.EnvVars("TERMFOLIO_MISTRAL_API_KEY", "MISTRAL_API_KEY"),
			Destination: &l.mistralAPIKey,
		},
		&cli.StringFlag{
			Name:        "mistral-base-url",
			Usage:       "Mistral AI API base URL",
			Value:       completion.DefaultMistralBaseURL,
			Category:    "LLM",
			Sources:     cli.EnvVars("TERMFOLIO_MISTRAL_BASE_URL"),
			Destination: &l.mistralURL,
		},
		&cli.StringFlag{
			Name:        "mistral-model",
			Usage:       "Mistral AI chat model",
			Value:       completion.DefaultMistralModel,
			Category:    "LLM",
			Sources:     cli.EnvVars("TERMFOLIO_MISTRAL_MODEL"),
			Destination: &l.mistralModel,
		},
	}
}

// LogAttrs returns log attributes for the LLM configuration. The API key is
// reported only as present or absent.
func (l *LLM) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("provider", l.provider),
		slog.String("mistral_base_url", l.mistralURL),
		slog.String("mistral_model", l.mistralModel),
		slog.Bool("mistral_api_key_set", l.mistralAPIKey != ""),
	}
}

// Configure creates the completion client for the selected provider
func (l *LLM) Configure(ctx context.Context, gemini *Gemini) (interfaces.Completer, error) {
	switch l.provider {
	case LLMProviderMistral:
		if l.mistralAPIKey == "" {
			return nil, goerr.Wrap(ErrMissingAPIKey, "--mistral-api-key is required", goerr.V(ProviderKey, l.provider))
		}
		return completion.NewMistral(l.mistralAPIKey,
			completion.WithMistralBaseURL(l.mistralURL),
			completion.WithMistralModel(l.mistralModel),
		), nil

	case LLMProviderGemini:
		client, err := gemini.Client(ctx, l.provider)
		if err != nil {
			return nil, err
		}
		return completion.NewLLM(client), nil

	default:
		return nil, goerr.Wrap(ErrInvalidProvider, "unknown LLM provider", goerr.V(ProviderKey, l.provider))
	}
}
