package http

import (
	"errors"
	"net/http"

	"github.com/secmon-lab/termfolio/pkg/domain/model"
	"github.com/secmon-lab/termfolio/pkg/usecase"
	"github.com/secmon-lab/termfolio/pkg/utils/errutil"
)

type chatRequest struct {
	Message string               `json:"message"`
	History []*model.ChatMessage `json:"history,omitempty"`
}

type chatResponse struct {
	Message *model.ChatMessage `json:"message"`
}

// chatHandler answers one chat message with a complete assistant message
func chatHandler(chatUC ChatUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req chatRequest
		if err := decodeJSON(r, &req); err != nil {
			handleError(ctx, w, err, errutil.InternalErrorMessage)
			return
		}

		msg, err := chatUC.Reply(ctx, req.Message, req.History)
		if err != nil {
			handleError(ctx, w, err, errutil.InternalErrorMessage)
			return
		}

		writeJSON(ctx, w, http.StatusOK, chatResponse{Message: msg})
	}
}

// chatStreamingHandler streams the reply to one chat message as Server-Sent Events
func chatStreamingHandler(chatUC ChatUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sse := newSSEWriter(w)

		var req chatRequest
		if err := decodeJSON(r, &req); err != nil {
			loggerFrom(r).Warn("invalid streaming request", "error", err)
			sse.Fail(ctx, http.StatusBadRequest, ErrMalformedBody.Error())
			return
		}

		err := chatUC.Stream(ctx, req.Message, req.History, sse.Emit)
		switch {
		case err == nil:
		case errors.Is(err, usecase.ErrEmptyMessage):
			loggerFrom(r).Warn("invalid streaming request", "error", err)
			sse.Fail(ctx, http.StatusBadRequest, usecase.ErrEmptyMessage.Error())
		case ctx.Err() != nil:
			loggerFrom(r).Info("streaming client disconnected", "error", err)
		default:
			_ = errutil.Handle(ctx, err, "streaming chat failed")
			if !sse.started {
				sse.Fail(ctx, http.StatusInternalServerError, errutil.InternalErrorMessage)
			}
		}
	}
}
