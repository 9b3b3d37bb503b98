package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/termfolio/pkg/domain/types"
)

// ConversationMessage is one turn handed to the prompt builder
type ConversationMessage struct {
	Role    types.Role `json:"role"`
	Content string     `json:"content"`
}

// ChatMessageID is a UUID-based identifier for a displayed chat message
type ChatMessageID string

// NewChatMessageID generates a new UUID v4 ChatMessageID
func NewChatMessageID() ChatMessageID {
	return ChatMessageID(uuid.New().String())
}

// ChatMessage is a message as shown in the terminal and exchanged with the chat API
type ChatMessage struct {
	ID        ChatMessageID `json:"id"`
	Text      string        `json:"text"`
	IsUser    bool          `json:"isUser"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewUserMessage creates a user message stamped with now
func NewUserMessage(text string, now time.Time) *ChatMessage {
	return &ChatMessage{
		ID:        NewChatMessageID(),
		Text:      text,
		IsUser:    true,
		Timestamp: now,
	}
}

// NewAssistantMessage creates an assistant message stamped with now
func NewAssistantMessage(text string, now time.Time) *ChatMessage {
	return &ChatMessage{
		ID:        NewChatMessageID(),
		Text:      text,
		IsUser:    false,
		Timestamp: now,
	}
}

// ToConversation converts the display message into a prompt turn
func (m *ChatMessage) ToConversation() ConversationMessage {
	role := types.RoleAssistant
	if m.IsUser {
		role = types.RoleUser
	}
	return ConversationMessage{Role: role, Content: m.Text}
}

// ToConversation converts a chat history into prompt turns, preserving order
func ToConversation(history []*ChatMessage) []ConversationMessage {
	out := make([]ConversationMessage, 0, len(history))
	for _, m := range history {
		if m == nil {
			continue
		}
		out = append(out, m.ToConversation())
	}
	return out
}
