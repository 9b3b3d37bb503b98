package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/termfolio/pkg/domain/model"
	"github.com/secmon-lab/termfolio/pkg/domain/types"
	"github.com/secmon-lab/termfolio/pkg/repository/memory"
	"github.com/secmon-lab/termfolio/pkg/session"
)

type mockSender struct {
	sendFn   func(ctx context.Context, text string, history []*model.ChatMessage) (*model.ChatMessage, error)
	events   []*model.StreamEvent
	streamFn func(yield func(*model.StreamEvent, error) bool)
	history  []*model.ChatMessage
}

func (m *mockSender) Send(ctx context.Context, text string, history []*model.ChatMessage) (*model.ChatMessage, error) {
	m.history = history
	return m.sendFn(ctx, text, history)
}

func (m *mockSender) Stream(ctx context.Context, text string, history []*model.ChatMessage) iter.Seq2[*model.StreamEvent, error] {
	m.history = history
	if m.streamFn != nil {
		return m.streamFn
	}
	return func(yield func(*model.StreamEvent, error) bool) {
		for _, ev := range m.events {
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// flakyStore fails Save while failing is set
type flakyStore struct {
	*memory.HistoryStore
	failing bool
}

func (s *flakyStore) Save(ctx context.Context, key string, data []byte) error {
	if s.failing {
		return errors.New("disk full")
	}
	return s.HistoryStore.Save(ctx, key, data)
}

var fixedNow = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func clock() time.Time {
	return fixedNow
}

func stored(t *testing.T, store *memory.HistoryStore) []*model.ChatMessage {
	t.Helper()
	data, err := store.Load(context.Background(), session.StorageKey)
	gt.NoError(t, err).Required()
	var msgs []*model.ChatMessage
	gt.NoError(t, json.Unmarshal(data, &msgs)).Required()
	return msgs
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store starts with welcome message", func(t *testing.T) {
		s := session.New(ctx, memory.NewHistoryStore(), &mockSender{})
		msgs := s.Messages()
		gt.Array(t, msgs).Length(1)
		gt.Value(t, msgs[0].Text).Equal(session.WelcomeText)
		gt.Bool(t, msgs[0].IsUser).False()
	})

	t.Run("unparsable data falls back to welcome message", func(t *testing.T) {
		store := memory.NewHistoryStore()
		gt.NoError(t, store.Save(ctx, session.StorageKey, []byte("{not json"))).Required()

		msgs := session.New(ctx, store, &mockSender{}).Messages()
		gt.Array(t, msgs).Length(1)
		gt.Value(t, msgs[0].Text).Equal(session.WelcomeText)
	})

	t.Run("empty array falls back to welcome message", func(t *testing.T) {
		store := memory.NewHistoryStore()
		gt.NoError(t, store.Save(ctx, session.StorageKey, []byte("[]"))).Required()

		msgs := session.New(ctx, store, &mockSender{}).Messages()
		gt.Value(t, msgs[0].Text).Equal(session.WelcomeText)
	})

	t.Run("rehydrates stored history", func(t *testing.T) {
		store := memory.NewHistoryStore()
		data := `[{"id":"1","text":"Hi","isUser":true,"timestamp":"2026-01-01T00:00:00Z"},{"id":"2","text":"Hello","isUser":false,"timestamp":"2026-01-01T00:00:01Z"}]`
		gt.NoError(t, store.Save(ctx, session.StorageKey, []byte(data))).Required()

		msgs := session.New(ctx, store, &mockSender{}).Messages()
		gt.Array(t, msgs).Length(2)
		gt.Value(t, msgs[0].Text).Equal("Hi")
		gt.Bool(t, msgs[0].IsUser).True()
		gt.Value(t, msgs[1].ID).Equal(model.ChatMessageID("2"))
	})
}

func TestSession_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("appends user and assistant messages and persists", func(t *testing.T) {
		store := memory.NewHistoryStore()
		sender := &mockSender{
			sendFn: func(ctx context.Context, text string, history []*model.ChatMessage) (*model.ChatMessage, error) {
				return &model.ChatMessage{ID: "r1", Text: "Answer to " + text, Timestamp: fixedNow}, nil
			},
		}
		s := session.New(ctx, store, sender, session.WithClock(clock))

		reply, err := s.Send(ctx, "What stack?")
		gt.NoError(t, err).Required()
		gt.Value(t, reply.Text).Equal("Answer to What stack?")

		msgs := s.Messages()
		gt.Array(t, msgs).Length(3)
		gt.Value(t, msgs[1].Text).Equal("What stack?")
		gt.Bool(t, msgs[1].IsUser).True()
		gt.Value(t, msgs[2].ID).Equal(model.ChatMessageID("r1"))

		// the server gets the history preceding the new message
		gt.Array(t, sender.history).Length(1)
		gt.Value(t, sender.history[0].Text).Equal(session.WelcomeText)

		gt.Array(t, stored(t, store)).Length(3)
	})

	t.Run("failure appends an error message", func(t *testing.T) {
		store := memory.NewHistoryStore()
		sender := &mockSender{
			sendFn: func(ctx context.Context, text string, history []*model.ChatMessage) (*model.ChatMessage, error) {
				return nil, errors.New("Chat API error: 500 Internal Server Error")
			},
		}
		s := session.New(ctx, store, sender)

		reply, err := s.Send(ctx, "Hi")
		gt.Value(t, err).NotNil()
		gt.Value(t, reply.Text).Equal("Sorry, there was an error: Chat API error: 500 Internal Server Error. Please try again.")

		msgs := stored(t, store)
		gt.Array(t, msgs).Length(3)
		gt.Value(t, msgs[2].Text).Equal(reply.Text)
	})

	t.Run("unsaved user message is rolled back", func(t *testing.T) {
		store := &flakyStore{HistoryStore: memory.NewHistoryStore(), failing: true}
		sender := &mockSender{
			sendFn: func(ctx context.Context, text string, history []*model.ChatMessage) (*model.ChatMessage, error) {
				return &model.ChatMessage{ID: "r1", Text: "ok"}, nil
			},
		}
		s := session.New(ctx, store, sender, session.WithClock(clock))

		_, err := s.Send(ctx, "lost")
		gt.Value(t, err).NotNil()
		gt.Array(t, s.Messages()).Length(1)
		gt.Value(t, sender.history).Nil()

		store.failing = false
		_, err = s.Send(ctx, "kept")
		gt.NoError(t, err).Required()
		gt.Array(t, sender.history).Length(1).Required()
		gt.Value(t, sender.history[0].Text).Equal(session.WelcomeText)

		msgs := s.Messages()
		gt.Array(t, msgs).Length(3)
		gt.Value(t, msgs[1].Text).Equal("kept")
	})

	t.Run("blank input is ignored", func(t *testing.T) {
		store := memory.NewHistoryStore()
		s := session.New(ctx, store, &mockSender{})

		reply, err := s.Send(ctx, "   ")
		gt.NoError(t, err)
		gt.Value(t, reply).Nil()
		gt.Array(t, s.Messages()).Length(1)

		data, err := store.Load(ctx, session.StorageKey)
		gt.NoError(t, err)
		gt.Value(t, data).Nil()
	})
}

func TestSession_SendStream(t *testing.T) {
	ctx := context.Background()

	t.Run("joins chunks into one assistant message", func(t *testing.T) {
		store := memory.NewHistoryStore()
		sender := &mockSender{events: []*model.StreamEvent{
			{ID: "s1", Type: types.StreamEventStart},
			{ID: "s1", Type: types.StreamEventChunk, Content: "Hello "},
			{ID: "s1", Type: types.StreamEventChunk, Content: "there"},
			{ID: "s1", Type: types.StreamEventEnd},
		}}
		s := session.New(ctx, store, sender)

		var chunks []string
		reply, err := s.SendStream(ctx, "Hi", func(c string) { chunks = append(chunks, c) })
		gt.NoError(t, err).Required()
		gt.Value(t, reply.Text).Equal("Hello there")
		gt.Value(t, reply.ID).Equal(model.ChatMessageID("s1"))
		gt.Value(t, chunks).Equal([]string{"Hello ", "there"})
		gt.Array(t, stored(t, store)).Length(3)
	})

	t.Run("error event without text becomes an error message", func(t *testing.T) {
		sender := &mockSender{events: []*model.StreamEvent{
			{ID: "s1", Type: types.StreamEventStart},
			{ID: "s1", Type: types.StreamEventError, Error: "Mistral API error"},
		}}
		s := session.New(ctx, memory.NewHistoryStore(), sender)

		reply, err := s.SendStream(ctx, "Hi", nil)
		gt.Value(t, err).NotNil()
		gt.Value(t, reply.Text).Equal("Sorry, there was an error: Mistral API error. Please try again.")
	})

	t.Run("transport error keeps partial text", func(t *testing.T) {
		sender := &mockSender{streamFn: func(yield func(*model.StreamEvent, error) bool) {
			if !yield(&model.StreamEvent{ID: "s1", Type: types.StreamEventChunk, Content: "partial"}, nil) {
				return
			}
			yield(nil, errors.New("connection reset"))
		}}
		s := session.New(ctx, memory.NewHistoryStore(), sender)

		reply, err := s.SendStream(ctx, "Hi", nil)
		gt.Value(t, err).NotNil()
		gt.Value(t, reply.Text).Equal("partial")
	})
}

func TestSession_Clear(t *testing.T) {
	ctx := context.Background()
	store := memory.NewHistoryStore()
	sender := &mockSender{
		sendFn: func(ctx context.Context, text string, history []*model.ChatMessage) (*model.ChatMessage, error) {
			return &model.ChatMessage{ID: "r", Text: "ok"}, nil
		},
	}
	s := session.New(ctx, store, sender)
	_, err := s.Send(ctx, "Hi")
	gt.NoError(t, err).Required()

	gt.NoError(t, s.Clear(ctx)).Required()

	msgs := s.Messages()
	gt.Array(t, msgs).Length(1)
	gt.Value(t, msgs[0].Text).Equal(session.ClearedText)

	persisted := stored(t, store)
	gt.Array(t, persisted).Length(1)
	gt.Value(t, persisted[0].Text).Equal(session.ClearedText)

	// a new session over the same store sees the cleared state
	gt.Value(t, session.New(ctx, store, sender).Messages()[0].Text).Equal(session.ClearedText)
}

func TestSession_WithKey(t *testing.T) {
	ctx := context.Background()
	store := memory.NewHistoryStore()
	s := session.New(ctx, store, &mockSender{}, session.WithKey("other"))
	gt.NoError(t, s.Clear(ctx)).Required()

	data, err := store.Load(ctx, "other")
	gt.NoError(t, err)
	gt.Value(t, len(data) > 0).Equal(true)
}
