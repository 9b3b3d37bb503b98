package memory

import (
	"context"
	"sync"

	"github.com/secmon-lab/termfolio/pkg/domain/interfaces"
)

// HistoryStore is an in-process key-value store for chat history
type HistoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ interfaces.HistoryStore = &HistoryStore{}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{data: make(map[string][]byte)}
}

func (h *HistoryStore) Load(ctx context.Context, key string) ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	v, ok := h.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (h *HistoryStore) Save(ctx context.Context, key string, data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	v := make([]byte, len(data))
	copy(v, data)
	h.data[key] = v
	return nil
}
