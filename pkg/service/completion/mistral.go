package completion

import (
	"context"
	"errors"
	"iter"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"github.com/secmon-lab/termfolio/pkg/domain/interfaces"
)

const (
	// DefaultMistralBaseURL is Mistral's OpenAI compatible endpoint
	DefaultMistralBaseURL = "https://api.mistral.ai/v1/"
	// DefaultMistralModel is the chat model used when none is configured
	DefaultMistralModel = "mistral-large-latest"

	mistralProvider = "mistral"
	mistralFallback = "Mistral API error"
)

// Mistral is a chat completion client for Mistral AI
type Mistral struct {
	client openai.Client
	model  string
}

var (
	_ interfaces.Completer       = &Mistral{}
	_ interfaces.StreamCompleter = &Mistral{}
)

// MistralOption configures the Mistral client
type MistralOption func(*mistralConfig)

type mistralConfig struct {
	baseURL string
	model   string
	reqOpts []option.RequestOption
}

// WithMistralBaseURL overrides the API endpoint
func WithMistralBaseURL(url string) MistralOption {
	return func(c *mistralConfig) {
		c.baseURL = url
	}
}

// WithMistralModel overrides the chat model
func WithMistralModel(model string) MistralOption {
	return func(c *mistralConfig) {
		c.model = model
	}
}

// WithMistralRequestOption appends a raw request option
func WithMistralRequestOption(opt option.RequestOption) MistralOption {
	return func(c *mistralConfig) {
		c.reqOpts = append(c.reqOpts, opt)
	}
}

// NewMistral creates a client. Requests are attempted exactly once.
func NewMistral(apiKey string, opts ...MistralOption) *Mistral {
	cfg := &mistralConfig{
		baseURL: DefaultMistralBaseURL,
		model:   DefaultMistralModel,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(cfg.baseURL),
		option.WithMaxRetries(0),
	}
	reqOpts = append(reqOpts, cfg.reqOpts...)

	return &Mistral{
		client: openai.NewClient(reqOpts...),
		model:  cfg.model,
	}
}

func (m *Mistral) params(prompt string) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: shared.ChatModel(m.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
}

// Complete sends prompt as a single user message and returns the first choice
func (m *Mistral) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := m.client.Chat.Completions.New(ctx, m.params(prompt))
	if err != nil {
		return "", newError(mistralProvider, apiErrorMessage(err), mistralFallback, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", newError(mistralProvider, "", mistralFallback, nil)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// CompleteStream yields content deltas as the server sends them. A stream
// with no content yields the fallback error.
func (m *Mistral) CompleteStream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stream := m.client.Chat.Completions.NewStreaming(ctx, m.params(prompt))
		defer stream.Close()

		yielded := false
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			yielded = true
			if !yield(chunk.Choices[0].Delta.Content, nil) {
				return
			}
		}

		if err := stream.Err(); err != nil {
			yield("", newError(mistralProvider, apiErrorMessage(err), mistralFallback, err))
			return
		}
		if !yielded {
			yield("", newError(mistralProvider, "", mistralFallback, nil))
		}
	}
}

func apiErrorMessage(err error) string {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
