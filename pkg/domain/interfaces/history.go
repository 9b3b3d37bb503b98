package interfaces

import "context"

// HistoryStore is the client side key-value store for chat history.
// Load returns nil data without error when the key is absent.
type HistoryStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}
