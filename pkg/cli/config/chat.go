package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/termfolio/pkg/domain/types"
	"github.com/secmon-lab/termfolio/pkg/service/prompt"
	"github.com/secmon-lab/termfolio/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Chat holds the conversation tuning shared by the server and the REPL
type Chat struct {
	persona        string
	maxMessages    int
	matchCount     int
	matchThreshold float64
	streamMode     string
	chunkDelay     time.Duration
}

// Flags returns CLI flags for chat behavior
func (c *Chat) Flags() []cli.Flag {
	def := prompt.DefaultConfig()
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "persona",
			Usage:       "Assistant persona (default, technical, projectDetails)",
			Value:       def.Persona.String(),
			Category:    "Chat",
			Sources:     cli.EnvVars("TERMFOLIO_PERSONA"),
			Destination: &c.persona,
		},
		&cli.IntFlag{
			Name:        "max-messages",
			Usage:       "Number of recent messages sent to the model (0 keeps all)",
			Value:       def.MaxMessages,
			Category:    "Chat",
			Sources:     cli.EnvVars("TERMFOLIO_MAX_MESSAGES"),
			Destination: &c.maxMessages,
		},
		&cli.IntFlag{
			Name:        "match-count",
			Usage:       "Number of similar portfolio entries added to the prompt",
			Value:       def.MatchCount,
			Category:    "Chat",
			Sources:     cli.EnvVars("TERMFOLIO_MATCH_COUNT"),
			Destination: &c.matchCount,
		},
		&cli.FloatFlag{
			Name:        "match-threshold",
			Usage:       "Minimum similarity of portfolio entries added to the prompt",
			Value:       def.MatchThreshold,
			Category:    "Chat",
			Sources:     cli.EnvVars("TERMFOLIO_MATCH_THRESHOLD"),
			Destination: &c.matchThreshold,
		},
		&cli.StringFlag{
			Name:        "stream-mode",
			Usage:       "Streaming mode (native, simulated)",
			Value:       types.StreamModeNative.String(),
			Category:    "Chat",
			Sources:     cli.EnvVars("TERMFOLIO_STREAM_MODE"),
			Destination: &c.streamMode,
		},
		&cli.DurationFlag{
			Name:        "chunk-delay",
			Usage:       "Pause between simulated stream chunks",
			Value:       usecase.DefaultChunkDelay,
			Category:    "Chat",
			Sources:     cli.EnvVars("TERMFOLIO_CHUNK_DELAY"),
			Destination: &c.chunkDelay,
		},
	}
}

func (c *Chat) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("persona", c.persona),
		slog.Int("max_messages", c.maxMessages),
		slog.Int("match_count", c.matchCount),
		slog.Float64("match_threshold", c.matchThreshold),
		slog.String("stream_mode", c.streamMode),
		slog.Duration("chunk_delay", c.chunkDelay),
	}
}

// Configure validates the flags and returns the matching use case options
func (c *Chat) Configure() ([]usecase.Option, error) {
	persona := types.Persona(c.persona)
	if !persona.IsValid() {
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid persona", goerr.V("persona", c.persona))
	}

	mode, err := types.ParseStreamMode(c.streamMode)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, err.Error(), goerr.V("stream_mode", c.streamMode))
	}

	if c.matchCount < 0 {
		return nil, goerr.Wrap(ErrInvalidConfig, "match count must not be negative", goerr.V("match_count", c.matchCount))
	}
	if c.matchThreshold < 0 || c.matchThreshold > 1 {
		return nil, goerr.Wrap(ErrInvalidConfig, "match threshold must be between 0 and 1", goerr.V("match_threshold", c.matchThreshold))
	}
	if c.chunkDelay < 0 {
		return nil, goerr.Wrap(ErrInvalidConfig, "chunk delay must not be negative", goerr.V("chunk_delay", c.chunkDelay))
	}

	cfg := prompt.DefaultConfig()
	cfg.Persona = persona
	cfg.MaxMessages = c.maxMessages
	cfg.MatchCount = c.matchCount
	cfg.MatchThreshold = c.matchThreshold

	return []usecase.Option{
		usecase.WithPromptConfig(cfg),
		usecase.WithStreamMode(mode),
		usecase.WithChunkDelay(c.chunkDelay),
	}, nil
}
