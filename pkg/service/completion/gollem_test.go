package completion_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/termfolio/pkg/service/completion"
)

type mockSession struct {
	generateContentFn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
	generateStreamFn  func(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error)
}

func (s *mockSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	if s.generateContentFn != nil {
		return s.generateContentFn(ctx, input...)
	}
	return &gollem.Response{Texts: []string{"default reply"}}, nil
}

func (s *mockSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	if s.generateStreamFn != nil {
		return s.generateStreamFn(ctx, input...)
	}
	ch := make(chan *gollem.Response)
	close(ch)
	return ch, nil
}

func (s *mockSession) Generate(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
	return s.GenerateContent(ctx, input...)
}

func (s *mockSession) Stream(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (<-chan *gollem.Response, error) {
	return s.GenerateStream(ctx, input...)
}

func (s *mockSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *mockSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *mockSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

type mockLLMClient struct {
	session      *mockSession
	newSessionFn func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error)
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	if c.newSessionFn != nil {
		return c.newSessionFn(ctx, options...)
	}
	return c.session, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return nil, nil
}

func TestLLM_Complete(t *testing.T) {
	t.Run("joins and trims texts", func(t *testing.T) {
		client := &mockLLMClient{session: &mockSession{
			generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
				gt.Array(t, input).Length(1)
				gt.Value(t, input[0]).Equal(gollem.Input(gollem.Text("prompt")))
				return &gollem.Response{Texts: []string{" Hello", " world "}}, nil
			},
		}}

		got, err := completion.NewLLM(client).Complete(context.Background(), "prompt")
		gt.NoError(t, err)
		gt.Value(t, got).Equal("Hello world")
	})

	t.Run("provider error carries its message", func(t *testing.T) {
		client := &mockLLMClient{session: &mockSession{
			generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
				return nil, errors.New("quota exceeded")
			},
		}}

		_, err := completion.NewLLM(client).Complete(context.Background(), "prompt")
		gt.Error(t, err).Is(completion.ErrCompletion)
		gt.Value(t, completion.Message(err)).Equal("quota exceeded")
	})

	t.Run("empty reply uses the fallback message", func(t *testing.T) {
		client := &mockLLMClient{session: &mockSession{
			generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
				return &gollem.Response{}, nil
			},
		}}

		_, err := completion.NewLLM(client).Complete(context.Background(), "prompt")
		gt.Value(t, completion.Message(err)).Equal("Gemini API error")
	})
}

func TestLLM_CompleteStream(t *testing.T) {
	t.Run("relays texts", func(t *testing.T) {
		client := &mockLLMClient{session: &mockSession{
			generateStreamFn: func(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
				ch := make(chan *gollem.Response, 3)
				ch <- &gollem.Response{Texts: []string{"one "}}
				ch <- &gollem.Response{Texts: []string{"two "}}
				ch <- &gollem.Response{Texts: []string{"three"}}
				close(ch)
				return ch, nil
			},
		}}

		var parts []string
		for frag, err := range completion.NewLLM(client).CompleteStream(context.Background(), "prompt") {
			gt.NoError(t, err)
			parts = append(parts, frag)
		}
		gt.Value(t, parts).Equal([]string{"one ", "two ", "three"})
	})

	t.Run("stream error ends iteration", func(t *testing.T) {
		client := &mockLLMClient{session: &mockSession{
			generateStreamFn: func(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
				ch := make(chan *gollem.Response, 2)
				ch <- &gollem.Response{Texts: []string{"partial"}}
				ch <- &gollem.Response{Error: errors.New("stream broke")}
				close(ch)
				return ch, nil
			},
		}}

		var parts []string
		var gotErr error
		for frag, err := range completion.NewLLM(client).CompleteStream(context.Background(), "prompt") {
			if err != nil {
				gotErr = err
				continue
			}
			parts = append(parts, frag)
		}
		gt.Value(t, parts).Equal([]string{"partial"})
		gt.Value(t, completion.Message(gotErr)).Equal("stream broke")
	})

	t.Run("session error is yielded", func(t *testing.T) {
		client := &mockLLMClient{
			newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
				return nil, errors.New("no credentials")
			},
		}

		var gotErr error
		for _, err := range completion.NewLLM(client).CompleteStream(context.Background(), "prompt") {
			gotErr = err
		}
		gt.Error(t, gotErr).Is(completion.ErrCompletion)
	})
}

func TestLLM_CompleteStream_Empty(t *testing.T) {
	client := &mockLLMClient{session: &mockSession{
		generateStreamFn: func(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
			ch := make(chan *gollem.Response, 2)
			ch <- &gollem.Response{}
			ch <- &gollem.Response{Texts: []string{""}}
			close(ch)
			return ch, nil
		},
	}}

	var errs []error
	for frag, err := range completion.NewLLM(client).CompleteStream(context.Background(), "prompt") {
		gt.Value(t, frag).Equal("")
		errs = append(errs, err)
	}
	gt.Array(t, errs).Length(1).Required()
	gt.Error(t, errs[0]).Is(completion.ErrCompletion)
	gt.Value(t, completion.Message(errs[0])).Equal("Gemini API error")
}

func TestLLM_CompleteStream_EarlyStop(t *testing.T) {
	done := make(chan struct{})
	client := &mockLLMClient{session: &mockSession{
		generateStreamFn: func(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
			ch := make(chan *gollem.Response)
			go func() {
				defer close(done)
				defer close(ch)
				for range 10 {
					select {
					case ch <- &gollem.Response{Texts: []string{"x"}}:
					case <-ctx.Done():
						return
					}
				}
			}()
			return ch, nil
		},
	}}

	var n int
	for range completion.NewLLM(client).CompleteStream(context.Background(), "prompt") {
		n++
		if n == 1 {
			break
		}
	}
	gt.Value(t, n).Equal(1)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stream producer was left blocked")
	}
}

func TestMessage(t *testing.T) {
	gt.Value(t, completion.Message(nil)).Equal("")
	gt.Value(t, completion.Message(errors.New("plain"))).Equal("plain")
}
