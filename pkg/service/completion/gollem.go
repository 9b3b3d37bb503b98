package completion

import (
	"context"
	"iter"
	"strings"

	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/termfolio/pkg/domain/interfaces"
)

const (
	geminiProvider = "gemini"
	geminiFallback = "Gemini API error"
)

// LLM completes prompts with a gollem client, typically Gemini on Vertex AI.
// Each request opens a fresh session so no history leaks between requests.
type LLM struct {
	client gollem.LLMClient
}

var (
	_ interfaces.Completer       = &LLM{}
	_ interfaces.StreamCompleter = &LLM{}
)

// NewLLM wraps a gollem client
func NewLLM(client gollem.LLMClient) *LLM {
	return &LLM{client: client}
}

// Complete generates a reply to prompt
func (l *LLM) Complete(ctx context.Context, prompt string) (string, error) {
	session, err := l.client.NewSession(ctx)
	if err != nil {
		return "", newError(geminiProvider, err.Error(), geminiFallback, err)
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return "", newError(geminiProvider, err.Error(), geminiFallback, err)
	}

	text := strings.TrimSpace(strings.Join(resp.Texts, ""))
	if text == "" {
		return "", newError(geminiProvider, "", geminiFallback, nil)
	}
	return text, nil
}

// CompleteStream yields text fragments from a streaming session. A stream
// that ends without any text yields the fallback error.
func (l *LLM) CompleteStream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		session, err := l.client.NewSession(ctx)
		if err != nil {
			yield("", newError(geminiProvider, err.Error(), geminiFallback, err))
			return
		}

		ch, err := session.GenerateStream(ctx, gollem.Text(prompt))
		if err != nil {
			yield("", newError(geminiProvider, err.Error(), geminiFallback, err))
			return
		}
		// Release the producer if the consumer stops early.
		defer func() {
			go func() {
				for range ch {
				}
			}()
		}()

		yielded := false
		for resp := range ch {
			if resp == nil {
				continue
			}
			if resp.Error != nil {
				yield("", newError(geminiProvider, resp.Error.Error(), geminiFallback, resp.Error))
				return
			}
			for _, text := range resp.Texts {
				if text == "" {
					continue
				}
				yielded = true
				if !yield(text, nil) {
					return
				}
			}
		}

		if !yielded {
			yield("", newError(geminiProvider, "", geminiFallback, nil))
		}
	}
}
