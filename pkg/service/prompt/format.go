package prompt

import (
	"context"
	"strings"

	"github.com/secmon-lab/termfolio/pkg/domain/model"
	"github.com/secmon-lab/termfolio/pkg/domain/types"
)

// Format renders messages as a single completion prompt ending in an
// "Assistant:" cue.
func Format(messages []model.ConversationMessage) string {
	var system, turns []string
	for _, msg := range messages {
		switch msg.Role {
		case types.RoleSystem:
			system = append(system, msg.Content)
		case types.RoleUser:
			turns = append(turns, "User: "+msg.Content)
		default:
			turns = append(turns, "Assistant: "+msg.Content)
		}
	}

	var b strings.Builder
	if len(system) > 0 {
		b.WriteString(strings.Join(system, "\n\n"))
		b.WriteString("\n\n")
	}
	b.WriteString(strings.Join(turns, "\n\n"))
	b.WriteString("\n\nAssistant:")
	return b.String()
}

// Generate manages the context of messages and formats the result
func (m *Manager) Generate(ctx context.Context, messages []model.ConversationMessage, cfg Config) string {
	return Format(m.Manage(ctx, messages, cfg))
}
