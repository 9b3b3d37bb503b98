package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/termfolio/pkg/domain/interfaces"
	"github.com/secmon-lab/termfolio/pkg/utils/safe"
)

// DefaultHuggingFaceEndpoint serves sentence-transformers/all-MiniLM-L6-v2 (384 dimensions)
const DefaultHuggingFaceEndpoint = "https://api-inference.huggingface.co/pipeline/feature-extraction/sentence-transformers/all-MiniLM-L6-v2"

// maxResponseBytes bounds how much of a response body is read
const maxResponseBytes = 8 << 20

// HuggingFace calls a feature-extraction pipeline of the HuggingFace Inference API
type HuggingFace struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

var _ interfaces.Embedder = &HuggingFace{}

// HuggingFaceOption configures the client
type HuggingFaceOption func(*HuggingFace)

// WithEndpoint overrides the pipeline URL
func WithEndpoint(endpoint string) HuggingFaceOption {
	return func(h *HuggingFace) {
		h.endpoint = endpoint
	}
}

// WithToken sets a bearer token. The public pipeline works without one at a lower rate limit.
func WithToken(token string) HuggingFaceOption {
	return func(h *HuggingFace) {
		h.token = token
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(c *http.Client) HuggingFaceOption {
	return func(h *HuggingFace) {
		h.httpClient = c
	}
}

// NewHuggingFace creates a client
func NewHuggingFace(opts ...HuggingFaceOption) *HuggingFace {
	h := &HuggingFace{
		endpoint:   DefaultHuggingFaceEndpoint,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type featureExtractionRequest struct {
	Inputs  string                   `json:"inputs"`
	Options featureExtractionOptions `json:"options"`
}

type featureExtractionOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// Embed returns the sentence embedding of text
func (h *HuggingFace) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(featureExtractionRequest{
		Inputs:  text,
		Options: featureExtractionOptions{WaitForModel: true},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal feature extraction request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create feature extraction request")
	}
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call HuggingFace API")
	}
	defer safe.Close(ctx, resp.Body)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read HuggingFace response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, goerr.Wrap(ErrProvider, "HuggingFace API error",
			goerr.V("status", resp.StatusCode),
			goerr.V("body", truncate(string(raw), 200)))
	}

	return decodeFeatures(raw)
}

// decodeFeatures accepts a flat vector or a batch holding a single vector
func decodeFeatures(raw []byte) ([]float32, error) {
	var flat []float32
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}

	var nested [][]float32
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) == 1 {
		return nested[0], nil
	}

	return nil, goerr.Wrap(ErrInvalidResponse, "response is not an embedding array",
		goerr.V("body", truncate(string(raw), 200)))
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
