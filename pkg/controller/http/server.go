package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/termfolio/pkg/domain/model"
	"github.com/secmon-lab/termfolio/pkg/usecase"
	"github.com/secmon-lab/termfolio/pkg/utils/errutil"
	"github.com/secmon-lab/termfolio/pkg/utils/safe"
)

// ChatUseCase is the chat logic served by the chat endpoints
type ChatUseCase interface {
	Reply(ctx context.Context, text string, history []*model.ChatMessage) (*model.ChatMessage, error)
	Stream(ctx context.Context, text string, history []*model.ChatMessage, emit usecase.EmitFunc) error
}

// EmbeddingUseCase is the embedding logic served by the embedding and search endpoints
type EmbeddingUseCase interface {
	Embed(ctx context.Context, text string) *model.EmbeddingResult
	Ingest(ctx context.Context, items []*model.EmbeddingItem) (int, error)
	IngestPortfolio(ctx context.Context, contents []*model.PortfolioContent) (int, error)
	Search(ctx context.Context, query string, limit int, threshold float64) *model.Retrieval
}

var (
	_ ChatUseCase      = &usecase.ChatUseCase{}
	_ EmbeddingUseCase = &usecase.EmbeddingUseCase{}
)

// ErrMalformedBody is returned for request bodies that are not valid JSON
var ErrMalformedBody = errors.New("Invalid request: malformed JSON body")

// ErrInvalidFormat is returned for embedding requests of unknown shape
var ErrInvalidFormat = errors.New("Invalid request format")

// validationErrors are reported to the client as 400 with their own message
var validationErrors = []error{
	ErrMalformedBody,
	ErrInvalidFormat,
	usecase.ErrEmptyMessage,
	usecase.ErrEmptyContent,
	usecase.ErrEmptyItems,
	usecase.ErrEmptyQuery,
}

type Server struct {
	router      *chi.Mux
	chatUC      ChatUseCase
	embeddingUC EmbeddingUseCase
	portfolio   []*model.PortfolioContent
}

type Options func(*Server)

// WithEmbedding enables the embedding, training and search endpoints
func WithEmbedding(uc EmbeddingUseCase) Options {
	return func(s *Server) {
		s.embeddingUC = uc
	}
}

// WithPortfolio sets the content ingested by the training endpoint
func WithPortfolio(contents []*model.PortfolioContent) Options {
	return func(s *Server) {
		s.portfolio = contents
	}
}

func New(chatUC ChatUseCase, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		chatUC: chatUC,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler())

	r.Route("/api/chat", func(r chi.Router) {
		r.Get("/", statusHandler("Chat API is operational"))
		r.Post("/", chatHandler(s.chatUC))
		r.Post("/streaming", chatStreamingHandler(s.chatUC))
	})

	if s.embeddingUC != nil {
		r.Route("/api/embeddings", func(r chi.Router) {
			r.Get("/", statusHandler("Embeddings API is operational"))
			r.Post("/", embeddingsHandler(s.embeddingUC))
			r.Post("/train", trainHandler(s.embeddingUC, s.portfolio))
		})
		r.Post("/api/search", searchHandler(s.embeddingUC))
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func statusHandler(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": status})
	}
}

// decodeJSON decodes the request body into v. Any decode failure is ErrMalformedBody.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return goerr.Wrap(ErrMalformedBody, "failed to decode request body", goerr.V("cause", err.Error()))
	}
	return nil
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(ctx, w, data)
}

// validationError returns the validation sentinel in err's chain, if any
func validationError(err error) (error, bool) {
	for _, sentinel := range validationErrors {
		if errors.Is(err, sentinel) {
			return sentinel, true
		}
	}
	return nil, false
}

// handleError writes validation errors as 400 and everything else as 500
// with internalMsg as the body
func handleError(ctx context.Context, w http.ResponseWriter, err error, internalMsg string) {
	if sentinel, ok := validationError(err); ok {
		errutil.HandleHTTP(ctx, w, sentinel, http.StatusBadRequest)
		return
	}
	errutil.HandleHTTPWithMessage(ctx, w, err, http.StatusInternalServerError, internalMsg)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			loggerFrom(r).Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
