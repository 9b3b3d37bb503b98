package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/termfolio/pkg/domain/interfaces"
	"github.com/secmon-lab/termfolio/pkg/domain/model"
	"github.com/secmon-lab/termfolio/pkg/domain/types"
	"github.com/secmon-lab/termfolio/pkg/utils/logging"
)

const (
	// StorageKey is the key the message history is persisted under
	StorageKey = "ide-portfolio-chat-history"

	WelcomeText = "Welcome to the IDE Portfolio Terminal. Ask a question about my work or experience."
	ClearedText = "Terminal cleared. How can I help you?"
)

// Sender delivers a user message to the chat server
type Sender interface {
	Send(ctx context.Context, text string, history []*model.ChatMessage) (*model.ChatMessage, error)
}

// StreamSender delivers a user message and streams the reply
type StreamSender interface {
	Stream(ctx context.Context, text string, history []*model.ChatMessage) iter.Seq2[*model.StreamEvent, error]
}

// ErrorText is the assistant text shown when a request fails
func ErrorText(msg string) string {
	return fmt.Sprintf("Sorry, there was an error: %s. Please try again.", msg)
}

// Session is the ordered message list of one terminal. Every mutation is
// mirrored to the history store.
type Session struct {
	mu       sync.Mutex
	store    interfaces.HistoryStore
	sender   Sender
	key      string
	now      func() time.Time
	messages []*model.ChatMessage
}

type Option func(*Session)

func WithKey(key string) Option {
	return func(s *Session) {
		s.key = key
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// New restores the session from store. Missing, unreadable or empty history
// starts a fresh session with the welcome message.
func New(ctx context.Context, store interfaces.HistoryStore, sender Sender, opts ...Option) *Session {
	s := &Session{
		store:  store,
		sender: sender,
		key:    StorageKey,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.messages = s.load(ctx)
	if len(s.messages) == 0 {
		s.messages = []*model.ChatMessage{model.NewAssistantMessage(WelcomeText, s.now())}
	}
	return s
}

func (s *Session) load(ctx context.Context) []*model.ChatMessage {
	data, err := s.store.Load(ctx, s.key)
	if err != nil {
		logging.From(ctx).Warn("failed to load chat history", logging.ErrAttr(err), "key", s.key)
		return nil
	}
	if len(data) == 0 {
		return nil
	}

	var messages []*model.ChatMessage
	if err := json.Unmarshal(data, &messages); err != nil {
		logging.From(ctx).Warn("failed to parse chat history", logging.ErrAttr(err), "key", s.key)
		return nil
	}
	return slices.DeleteFunc(messages, func(m *model.ChatMessage) bool { return m == nil })
}

// persist writes the current messages. Callers hold s.mu.
func (s *Session) persist(ctx context.Context) error {
	data, err := json.Marshal(s.messages)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal chat history")
	}
	if err := s.store.Save(ctx, s.key, data); err != nil {
		return goerr.Wrap(err, "failed to save chat history", goerr.V("key", s.key))
	}
	return nil
}

// Messages returns a copy of the message list
func (s *Session) Messages() []*model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

// appendUser adds a user message and returns the history preceding it
func (s *Session) appendUser(ctx context.Context, text string) ([]*model.ChatMessage, error) {
	history := slices.Clone(s.messages)
	s.messages = append(s.messages, model.NewUserMessage(text, s.now()))
	if err := s.persist(ctx); err != nil {
		s.messages = s.messages[:len(s.messages)-1]
		return nil, err
	}
	return history, nil
}

func (s *Session) appendAssistant(ctx context.Context, msg *model.ChatMessage) error {
	s.messages = append(s.messages, msg)
	return s.persist(ctx)
}

// Send appends text as a user message, asks the server and appends the
// reply. A failed request appends an error message instead and returns the
// cause. Blank text is ignored and returns nil, nil.
func (s *Session) Send(ctx context.Context, text string) (*model.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.appendUser(ctx, text)
	if err != nil {
		return nil, err
	}

	reply, sendErr := s.sender.Send(ctx, text, history)
	if sendErr != nil {
		reply = model.NewAssistantMessage(ErrorText(sendErr.Error()), s.now())
	} else {
		reply.IsUser = false
	}

	if err := s.appendAssistant(ctx, reply); err != nil {
		return reply, err
	}
	if sendErr != nil {
		return reply, goerr.Wrap(sendErr, "chat request failed")
	}
	return reply, nil
}

// SendStream is Send over the streaming endpoint. onChunk receives every
// fragment as it arrives; the fragments are joined into one assistant message.
func (s *Session) SendStream(ctx context.Context, text string, onChunk func(string)) (*model.ChatMessage, error) {
	streamer, ok := s.sender.(StreamSender)
	if !ok {
		return nil, goerr.New("sender does not support streaming")
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	text = strings.TrimSpace(text)

	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.appendUser(ctx, text)
	if err != nil {
		return nil, err
	}

	reply := model.NewAssistantMessage("", s.now())
	var (
		sb        strings.Builder
		streamErr error
	)
	for event, err := range streamer.Stream(ctx, text, history) {
		if err != nil {
			streamErr = err
			break
		}
		switch event.Type {
		case types.StreamEventStart:
			if event.ID != "" {
				reply.ID = event.ID
			}
		case types.StreamEventChunk:
			sb.WriteString(event.Content)
			if onChunk != nil {
				onChunk(event.Content)
			}
		case types.StreamEventError:
			streamErr = errors.New(event.Error)
		}
	}

	reply.Text = sb.String()
	if streamErr != nil && reply.Text == "" {
		reply.Text = ErrorText(streamErr.Error())
	}

	if err := s.appendAssistant(ctx, reply); err != nil {
		return reply, err
	}
	if streamErr != nil {
		return reply, goerr.Wrap(streamErr, "chat stream failed")
	}
	return reply, nil
}

// Clear resets the session to a single greeting and overwrites the stored copy
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = []*model.ChatMessage{model.NewAssistantMessage(ClearedText, s.now())}
	return s.persist(ctx)
}
