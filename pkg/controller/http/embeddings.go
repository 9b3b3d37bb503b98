package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/termfolio/pkg/domain/model"
	"github.com/secmon-lab/termfolio/pkg/usecase"
	"github.com/secmon-lab/termfolio/pkg/utils/async"
)

// embeddingFailureMessage is the body text of 5xx embedding responses
const embeddingFailureMessage = "Failed to process embedding request"

type embeddingItemRequest struct {
	ID       string         `json:"id,omitempty"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type embeddingResponse struct {
	ID         string         `json:"id"`
	Embedding  []float32      `json:"embedding"`
	Metadata   map[string]any `json:"metadata"`
	Dimensions int            `json:"dimensions"`
	Degraded   bool           `json:"degraded"`
}

type batchEmbeddingResponse struct {
	Success   bool   `json:"success"`
	Processed int    `json:"processed"`
	Message   string `json:"message"`
}

type trainResponse struct {
	Status   string `json:"status"`
	Contents int    `json:"contents"`
}

// embeddingsHandler accepts either a single {content, id?, metadata?} object,
// which is embedded and returned, or a batch {items: [...]}, which is embedded
// and stored
func embeddingsHandler(embeddingUC EmbeddingUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var body map[string]json.RawMessage
		if err := decodeJSON(r, &body); err != nil {
			handleError(ctx, w, err, embeddingFailureMessage)
			return
		}

		switch {
		case body["content"] != nil:
			resp, err := embedSingle(ctx, embeddingUC, body)
			if err != nil {
				handleError(ctx, w, err, embeddingFailureMessage)
				return
			}
			writeJSON(ctx, w, http.StatusOK, resp)

		case body["items"] != nil:
			resp, err := embedBatch(ctx, embeddingUC, body["items"])
			if err != nil {
				handleError(ctx, w, err, embeddingFailureMessage)
				return
			}
			writeJSON(ctx, w, http.StatusOK, resp)

		default:
			handleError(ctx, w, goerr.Wrap(ErrInvalidFormat, "neither content nor items given"), embeddingFailureMessage)
		}
	}
}

func embedSingle(ctx context.Context, embeddingUC EmbeddingUseCase, body map[string]json.RawMessage) (*embeddingResponse, error) {
	var content string
	if err := json.Unmarshal(body["content"], &content); err != nil || content == "" {
		return nil, goerr.Wrap(usecase.ErrEmptyContent, "content must be a non-empty string")
	}

	id := uuid.New().String()
	if raw, ok := body["id"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &id); err != nil {
			return nil, goerr.Wrap(ErrInvalidFormat, "id must be a string")
		}
	}

	metadata := map[string]any{}
	if raw, ok := body["metadata"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &metadata); err != nil {
			return nil, goerr.Wrap(ErrInvalidFormat, "metadata must be an object")
		}
	}

	result := embeddingUC.Embed(ctx, content)
	return &embeddingResponse{
		ID:         id,
		Embedding:  result.Vector,
		Metadata:   metadata,
		Dimensions: len(result.Vector),
		Degraded:   result.Degraded,
	}, nil
}

func embedBatch(ctx context.Context, embeddingUC EmbeddingUseCase, raw json.RawMessage) (*batchEmbeddingResponse, error) {
	var reqs []embeddingItemRequest
	if err := json.Unmarshal(raw, &reqs); err != nil {
		return nil, goerr.Wrap(ErrInvalidFormat, "items must be an array of objects")
	}
	if len(reqs) == 0 {
		return nil, goerr.Wrap(usecase.ErrEmptyItems, "no items given")
	}

	items := make([]*model.EmbeddingItem, 0, len(reqs))
	for _, req := range reqs {
		if req.Content == "" {
			return nil, goerr.Wrap(usecase.ErrEmptyContent, "item has no content", goerr.V("id", req.ID))
		}
		id := req.ID
		if id == "" {
			id = uuid.New().String()
		}
		metadata := req.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		items = append(items, &model.EmbeddingItem{ID: id, Content: req.Content, Metadata: metadata})
	}

	processed, err := embeddingUC.Ingest(ctx, items)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to ingest embeddings", goerr.V("processed", processed))
	}

	return &batchEmbeddingResponse{
		Success:   true,
		Processed: processed,
		Message:   fmt.Sprintf("Successfully processed %d embeddings", processed),
	}, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// trainHandler starts ingestion of the portfolio content in the background
// and returns immediately
func trainHandler(embeddingUC EmbeddingUseCase, contents []*model.PortfolioContent) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if len(contents) == 0 {
			handleError(ctx, w, goerr.Wrap(usecase.ErrEmptyItems, "no portfolio content configured"), embeddingFailureMessage)
			return
		}

		async.Dispatch(ctx, func(ctx context.Context) error {
			processed, err := embeddingUC.IngestPortfolio(ctx, contents)
			if err != nil {
				return goerr.Wrap(err, "failed to ingest portfolio content", goerr.V("processed", processed))
			}
			loggerFromContext(ctx).Info("portfolio content ingested", "processed", processed)
			return nil
		})

		writeJSON(ctx, w, http.StatusAccepted, trainResponse{Status: "accepted", Contents: len(contents)})
	}
}
