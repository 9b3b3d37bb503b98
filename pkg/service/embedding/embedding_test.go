package embedding_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/termfolio/pkg/service/embedding"
)

type mockLLMClient struct {
	generateEmbeddingFn func(ctx context.Context, dimension int, input []string) ([][]float64, error)
}

func (m *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return nil, nil
}

func (m *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return m.generateEmbeddingFn(ctx, dimension, input)
}

func TestLLM_Embed(t *testing.T) {
	t.Run("converts to float32", func(t *testing.T) {
		client := &mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				gt.Value(t, dimension).Equal(4)
				gt.Value(t, input).Equal([]string{"text"})
				return [][]float64{{0.25, 0.5, 0.75, 1}}, nil
			},
		}

		vec, err := embedding.NewLLM(client, 4).Embed(context.Background(), "text")
		gt.NoError(t, err)
		gt.Value(t, vec).Equal([]float32{0.25, 0.5, 0.75, 1})
	})

	t.Run("empty result is an error", func(t *testing.T) {
		client := &mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				return nil, nil
			},
		}
		_, err := embedding.NewLLM(client, 4).Embed(context.Background(), "text")
		gt.Error(t, err).Is(embedding.ErrInvalidResponse)
	})

	t.Run("provider error is wrapped", func(t *testing.T) {
		cause := errors.New("permission denied")
		client := &mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				return nil, cause
			},
		}
		_, err := embedding.NewLLM(client, 4).Embed(context.Background(), "text")
		gt.Error(t, err).Is(cause)
	})
}

func TestOpenAI_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.URL.Path).Equal("/embeddings")

		var body struct {
			Model string `json:"model"`
			Input string `json:"input"`
		}
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gt.Value(t, body.Model).Equal("mistral-embed")
		gt.Value(t, body.Input).Equal("hello")

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"object":"list","model":"mistral-embed","data":[{"object":"embedding","index":0,"embedding":[0.5,0.25]}],"usage":{"prompt_tokens":1,"total_tokens":1}}`)
	}))
	defer srv.Close()

	vec, err := embedding.NewOpenAI("key", srv.URL+"/", "mistral-embed", 0).Embed(context.Background(), "hello")
	gt.NoError(t, err)
	gt.Value(t, vec).Equal([]float32{0.5, 0.25})
}
