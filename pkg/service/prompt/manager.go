package prompt

import (
	"context"
	"strings"

	"github.com/secmon-lab/termfolio/pkg/domain/interfaces"
	"github.com/secmon-lab/termfolio/pkg/domain/model"
	"github.com/secmon-lab/termfolio/pkg/domain/types"
	"github.com/secmon-lab/termfolio/pkg/utils/logging"
)

const (
	retrievalHeader = "Here is some relevant information about the portfolio that may help with your response:\n\n"
	retrievalPrefix = "Relevant information: "
)

// Config controls how the conversation context is assembled
type Config struct {
	// MaxMessages is the number of most recent turns kept. Zero or less keeps all.
	MaxMessages           int
	IncludeSystemPrompt   bool
	IncludeSimilarContent bool
	Persona               types.Persona
	MatchCount            int
	MatchThreshold        float64
}

// DefaultConfig returns the configuration used by the chat endpoints
func DefaultConfig() Config {
	return Config{
		MaxMessages:           10,
		IncludeSystemPrompt:   true,
		IncludeSimilarContent: true,
		Persona:               types.PersonaDefault,
		MatchCount:            2,
		MatchThreshold:        0.7,
	}
}

// Manager assembles the message list sent to the model
type Manager struct {
	retriever interfaces.Retriever
}

// NewManager creates a Manager. A nil retriever disables similar content lookup.
func NewManager(retriever interfaces.Retriever) *Manager {
	return &Manager{retriever: retriever}
}

// Manage trims messages to the most recent cfg.MaxMessages and prepends the
// persona prompt and retrieved portfolio context as system messages.
func (m *Manager) Manage(ctx context.Context, messages []model.ConversationMessage, cfg Config) []model.ConversationMessage {
	recent := messages
	if cfg.MaxMessages > 0 && len(recent) > cfg.MaxMessages {
		recent = recent[len(recent)-cfg.MaxMessages:]
	}

	out := make([]model.ConversationMessage, 0, len(recent)+2)
	if cfg.IncludeSystemPrompt {
		out = append(out, model.ConversationMessage{
			Role:    types.RoleSystem,
			Content: SystemPrompt(cfg.Persona),
		})
	}

	if cfg.IncludeSimilarContent && len(recent) > 0 && m.retriever != nil {
		if msg, ok := m.retrievalMessage(ctx, recent, cfg); ok {
			out = append(out, msg)
		}
	}

	return append(out, recent...)
}

func (m *Manager) retrievalMessage(ctx context.Context, recent []model.ConversationMessage, cfg Config) (model.ConversationMessage, bool) {
	query, ok := lastUserMessage(recent)
	if !ok {
		return model.ConversationMessage{}, false
	}

	r := m.retriever.Retrieve(ctx, query, cfg.MatchCount, cfg.MatchThreshold)
	if r == nil {
		return model.ConversationMessage{}, false
	}

	switch r.Status {
	case types.RetrievalMatched:
		entries := make([]string, 0, len(r.Results))
		for _, res := range r.Results {
			entries = append(entries, retrievalPrefix+res.Content)
		}
		return model.ConversationMessage{
			Role:    types.RoleSystem,
			Content: retrievalHeader + strings.Join(entries, "\n\n"),
		}, true

	case types.RetrievalFailed:
		logging.From(ctx).Warn("similar content lookup failed, continuing without it",
			logging.ErrAttr(r.Cause))
	}

	return model.ConversationMessage{}, false
}

func lastUserMessage(messages []model.ConversationMessage) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == types.RoleUser {
			return messages[i].Content, true
		}
	}
	return "", false
}
