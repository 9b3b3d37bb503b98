package model

import "github.com/secmon-lab/termfolio/pkg/domain/types"

// StreamEvent is one server-sent event of a streamed reply. All events of a
// reply share the same ID.
type StreamEvent struct {
	ID      ChatMessageID         `json:"id"`
	Type    types.StreamEventType `json:"type"`
	Content string                `json:"content,omitempty"`
	Error   string                `json:"error,omitempty"`
}
