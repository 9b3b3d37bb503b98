package bolt

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/termfolio/pkg/domain/interfaces"
	bbolt "go.etcd.io/bbolt"
)

// HistoryBucket holds persisted chat histories keyed by storage key
var HistoryBucket = []byte("history")

// HistoryStore persists chat history in a local bbolt file, the terminal
// client's counterpart of browser local storage.
type HistoryStore struct {
	db *bbolt.DB
}

var _ interfaces.HistoryStore = &HistoryStore{}

// Open opens or creates the database file at path
func Open(path string) (*HistoryStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open history database", goerr.V("path", path))
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(HistoryBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to create history bucket", goerr.V("path", path))
	}

	return &HistoryStore{db: db}, nil
}

func (h *HistoryStore) Load(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := h.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(HistoryBucket).Get([]byte(key))
		if v != nil {
			// bbolt values are only valid inside the transaction
			out = make([]byte, len(v))
			copy(out, v)
		}
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load history", goerr.V("key", key))
	}
	return out, nil
}

func (h *HistoryStore) Save(ctx context.Context, key string, data []byte) error {
	err := h.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(HistoryBucket).Put([]byte(key), data)
	})
	if err != nil {
		return goerr.Wrap(err, "failed to save history", goerr.V("key", key))
	}
	return nil
}

func (h *HistoryStore) Close() error {
	return h.db.Close()
}
