package usecase

import (
	"context"
	"iter"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/termfolio/pkg/domain/interfaces"
	"github.com/secmon-lab/termfolio/pkg/domain/model"
	"github.com/secmon-lab/termfolio/pkg/domain/types"
	"github.com/secmon-lab/termfolio/pkg/service/completion"
	"github.com/secmon-lab/termfolio/pkg/service/prompt"
	"github.com/secmon-lab/termfolio/pkg/utils/logging"
)

// FallbackReply is the assistant text returned when the language model fails
const FallbackReply = "I'm having trouble connecting to my language model right now. Please try again in a moment."

// DefaultChunkDelay is the pause between simulated stream chunks
const DefaultChunkDelay = 30 * time.Millisecond

// EmitFunc receives stream events in order. Returning an error stops the stream.
type EmitFunc func(ctx context.Context, event *model.StreamEvent) error

// ChatUseCase answers chat messages with the language model
type ChatUseCase struct {
	completer  interfaces.Completer
	prompt     *prompt.Manager
	cfg        prompt.Config
	mode       types.StreamMode
	chunkDelay time.Duration
	now        func() time.Time
}

type ChatOption func(*ChatUseCase)

func WithChatPromptConfig(cfg prompt.Config) ChatOption {
	return func(uc *ChatUseCase) {
		uc.cfg = cfg
	}
}

func WithChatStreamMode(mode types.StreamMode) ChatOption {
	return func(uc *ChatUseCase) {
		uc.mode = mode
	}
}

func WithChatChunkDelay(d time.Duration) ChatOption {
	return func(uc *ChatUseCase) {
		uc.chunkDelay = d
	}
}

// WithChatClock replaces the clock used to stamp messages
func WithChatClock(now func() time.Time) ChatOption {
	return func(uc *ChatUseCase) {
		uc.now = now
	}
}

// NewChatUseCase creates a new ChatUseCase instance
func NewChatUseCase(completer interfaces.Completer, manager *prompt.Manager, opts ...ChatOption) *ChatUseCase {
	uc := &ChatUseCase{
		completer:  completer,
		prompt:     manager,
		cfg:        prompt.DefaultConfig(),
		mode:       types.StreamModeNative,
		chunkDelay: DefaultChunkDelay,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	if uc.prompt == nil {
		uc.prompt = prompt.NewManager(nil)
	}
	return uc
}

func (uc *ChatUseCase) buildPrompt(ctx context.Context, text string, history []*model.ChatMessage) string {
	messages := model.ToConversation(history)
	messages = append(messages, model.ConversationMessage{
		Role:    types.RoleUser,
		Content: text,
	})
	return uc.prompt.Generate(ctx, messages, uc.cfg)
}

// Reply generates the assistant answer to text given the prior history.
// A failed completion is not an error: the reply carries FallbackReply.
func (uc *ChatUseCase) Reply(ctx context.Context, text string, history []*model.ChatMessage) (*model.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, goerr.Wrap(ErrEmptyMessage, "empty chat message")
	}

	p := uc.buildPrompt(ctx, text, history)

	reply, err := uc.completer.Complete(ctx, p)
	if err != nil {
		logging.From(ctx).Error("failed to complete chat message",
			logging.ErrAttr(err),
			"history_length", len(history),
		)
		reply = FallbackReply
	}

	return model.NewAssistantMessage(strings.TrimSpace(reply), uc.now()), nil
}

// Stream emits the reply to text as start, chunk and end events sharing one
// message ID. An upstream failure is reported as a single error event in
// place of the remaining chunks and the end event. The returned error is
// non-nil only for invalid input, a failing emit, or a cancelled context.
func (uc *ChatUseCase) Stream(ctx context.Context, text string, history []*model.ChatMessage, emit EmitFunc) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return goerr.Wrap(ErrEmptyMessage, "empty chat message")
	}

	id := model.NewChatMessageID()
	if err := emit(ctx, &model.StreamEvent{ID: id, Type: types.StreamEventStart}); err != nil {
		return goerr.Wrap(err, "failed to emit start event")
	}

	p := uc.buildPrompt(ctx, text, history)

	var fragments iter.Seq2[string, error]
	if sc, ok := uc.completer.(interfaces.StreamCompleter); ok && uc.mode == types.StreamModeNative {
		fragments = sc.CompleteStream(ctx, p)
	} else {
		fragments = uc.simulate(ctx, p)
	}

	for fragment, err := range fragments {
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.From(ctx).Error("failed to stream chat message",
				logging.ErrAttr(err),
				"message_id", id,
			)
			event := &model.StreamEvent{ID: id, Type: types.StreamEventError, Error: completion.Message(err)}
			if err := emit(ctx, event); err != nil {
				return goerr.Wrap(err, "failed to emit error event")
			}
			return nil
		}
		if fragment == "" {
			continue
		}
		if err := emit(ctx, &model.StreamEvent{ID: id, Type: types.StreamEventChunk, Content: fragment}); err != nil {
			return goerr.Wrap(err, "failed to emit chunk event")
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := emit(ctx, &model.StreamEvent{ID: id, Type: types.StreamEventEnd}); err != nil {
		return goerr.Wrap(err, "failed to emit end event")
	}
	return nil
}

// simulate completes the prompt in one call and yields the reply word by word
// with uc.chunkDelay between words
func (uc *ChatUseCase) simulate(ctx context.Context, p string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		reply, err := uc.completer.Complete(ctx, p)
		if err != nil {
			yield("", err)
			return
		}

		for i, chunk := range SplitWords(reply) {
			if i > 0 && uc.chunkDelay > 0 {
				timer := time.NewTimer(uc.chunkDelay)
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// SplitWords splits text on whitespace and suffixes every word but the last
// with a single space
func SplitWords(text string) []string {
	words := strings.Fields(text)
	for i := range len(words) - 1 {
		words[i] += " "
	}
	return words
}
