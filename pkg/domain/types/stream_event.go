package types

import "fmt"

// StreamEventType is the kind of a server-sent chat event
type StreamEventType string

const (
	StreamEventStart StreamEventType = "start"
	StreamEventChunk StreamEventType = "chunk"
	StreamEventEnd   StreamEventType = "end"
	StreamEventError StreamEventType = "error"
)

// IsValid checks if the event type is valid
func (t StreamEventType) IsValid() bool {
	switch t {
	case StreamEventStart,
		StreamEventChunk,
		StreamEventEnd,
		StreamEventError:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further events follow this one
func (t StreamEventType) IsTerminal() bool {
	return t == StreamEventEnd || t == StreamEventError
}

// String returns the string representation of the event type
func (t StreamEventType) String() string {
	return string(t)
}

// ParseStreamEventType parses a string into a StreamEventType
func ParseStreamEventType(s string) (StreamEventType, error) {
	t := StreamEventType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid stream event type: %s", s)
	}
	return t, nil
}

// StreamMode selects how reply fragments are produced
type StreamMode string

const (
	// StreamModeNative relays provider fragments as they arrive
	StreamModeNative StreamMode = "native"
	// StreamModeSimulated splits a complete reply into word chunks with a pause between them
	StreamModeSimulated StreamMode = "simulated"
)

// IsValid checks if the stream mode is valid
func (m StreamMode) IsValid() bool {
	return m == StreamModeNative || m == StreamModeSimulated
}

// String returns the string representation of the stream mode
func (m StreamMode) String() string {
	return string(m)
}

// ParseStreamMode parses a string into a StreamMode
func ParseStreamMode(s string) (StreamMode, error) {
	m := StreamMode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("invalid stream mode: %s", s)
	}
	return m, nil
}
