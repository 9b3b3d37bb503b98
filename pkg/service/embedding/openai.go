package embedding

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/secmon-lab/termfolio/pkg/domain/interfaces"
)

// OpenAI calls an OpenAI compatible embeddings endpoint, such as Mistral's
// mistral-embed or OpenAI's text-embedding-3 models.
type OpenAI struct {
	client    openai.Client
	model     string
	dimension int
}

var _ interfaces.Embedder = &OpenAI{}

// NewOpenAI creates an embedder. A zero dimension lets the model choose.
func NewOpenAI(apiKey, baseURL, model string, dimension int, opts ...option.RequestOption) *OpenAI {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)

	return &OpenAI{
		client:    openai.NewClient(reqOpts...),
		model:     model,
		dimension: dimension,
	}
}

// Embed returns the embedding of text
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(o.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
	}
	if o.dimension > 0 {
		params.Dimensions = openai.Int(int64(o.dimension))
	}

	resp, err := o.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embedding", goerr.V("model", o.model))
	}
	if len(resp.Data) == 0 {
		return nil, goerr.Wrap(ErrInvalidResponse, "no embedding returned", goerr.V("model", o.model))
	}

	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
