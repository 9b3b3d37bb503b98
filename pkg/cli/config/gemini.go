package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/urfave/cli/v3"
)

// Gemini configures the Vertex AI client shared by the gemini completion and
// embedding providers. The client is created on first use and reused.
type Gemini struct {
	project  string
	location string
	client   gollem.LLMClient
}

func (g *Gemini) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project of the Vertex AI Gemini API",
			Category:    "Gemini",
			Sources:     cli.EnvVars("TERMFOLIO_GEMINI_PROJECT", "GOOGLE_CLOUD_PROJECT"),
			Destination: &g.project,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Vertex AI region",
			Value:       "us-central1",
			Category:    "Gemini",
			Sources:     cli.EnvVars("TERMFOLIO_GEMINI_LOCATION", "GOOGLE_CLOUD_LOCATION"),
			Destination: &g.location,
		},
	}
}

// Enabled reports whether a project is set
func (g *Gemini) Enabled() bool {
	return g.project != ""
}

func (g *Gemini) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("project", g.project),
		slog.String("location", g.location),
	}
}

// Client returns the shared Gemini client. provider names the component that
// asked for it and is attached to the error when no project is configured.
func (g *Gemini) Client(ctx context.Context, provider string) (gollem.LLMClient, error) {
	if g.client != nil {
		return g.client, nil
	}
	if !g.Enabled() {
		return nil, goerr.Wrap(ErrInvalidConfig, "--gemini-project is required", goerr.V(ProviderKey, provider))
	}

	client, err := gemini.New(ctx, g.project, g.location)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini client",
			goerr.V("project", g.project),
			goerr.V("location", g.location))
	}
	g.client = client
	return client, nil
}
