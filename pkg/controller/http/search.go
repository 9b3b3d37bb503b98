package http

import (
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/termfolio/pkg/domain/model"
	"github.com/secmon-lab/termfolio/pkg/domain/types"
	"github.com/secmon-lab/termfolio/pkg/usecase"
	"github.com/secmon-lab/termfolio/pkg/utils/errutil"
)

const (
	defaultSearchLimit     = 5
	defaultSearchThreshold = 0.7
)

type searchRequest struct {
	Query     string   `json:"query"`
	Limit     *int     `json:"limit,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
}

type searchResponse struct {
	Status  types.RetrievalStatus       `json:"status"`
	Results []*model.VectorSearchResult `json:"results"`
	Error   string                      `json:"error,omitempty"`
}

// searchHandler runs a similarity search for a free text query
func searchHandler(embeddingUC EmbeddingUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req searchRequest
		if err := decodeJSON(r, &req); err != nil {
			handleError(ctx, w, err, errutil.InternalErrorMessage)
			return
		}

		query := strings.TrimSpace(req.Query)
		if query == "" {
			handleError(ctx, w, goerr.Wrap(usecase.ErrEmptyQuery, "empty search query"), errutil.InternalErrorMessage)
			return
		}

		limit := defaultSearchLimit
		if req.Limit != nil {
			limit = *req.Limit
		}
		threshold := defaultSearchThreshold
		if req.Threshold != nil {
			threshold = *req.Threshold
		}

		retrieval := embeddingUC.Search(ctx, query, limit, threshold)
		resp := searchResponse{
			Status:  retrieval.Status,
			Results: retrieval.Results,
		}
		if resp.Results == nil {
			resp.Results = []*model.VectorSearchResult{}
		}
		if retrieval.Status == types.RetrievalFailed {
			resp.Error = "similarity search is unavailable"
		}

		writeJSON(ctx, w, http.StatusOK, resp)
	}
}
