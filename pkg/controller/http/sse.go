package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/termfolio/pkg/domain/model"
	"github.com/secmon-lab/termfolio/pkg/utils/safe"
)

// sseWriter writes stream events as Server-Sent Events. Headers are sent with
// the first event, so a request rejected before any event can still carry a
// non-200 status.
type sseWriter struct {
	w       http.ResponseWriter
	started bool
}

func newSSEWriter(w http.ResponseWriter) *sseWriter {
	return &sseWriter{w: w}
}

func (s *sseWriter) start(status int) {
	if s.started {
		return
	}
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	s.w.WriteHeader(status)
	s.started = true
}

func (s *sseWriter) write(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal event")
	}

	buf := make([]byte, 0, len(data)+8)
	buf = append(buf, "data: "...)
	buf = append(buf, data...)
	buf = append(buf, "\n\n"...)

	if _, err := s.w.Write(buf); err != nil {
		return goerr.Wrap(err, "failed to write event")
	}
	safe.Flush(s.w)
	return nil
}

// Emit writes one event and flushes it. It fails once the client has gone.
func (s *sseWriter) Emit(ctx context.Context, event *model.StreamEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.start(http.StatusOK)
	return s.write(event)
}

// Fail writes a single {"error": msg} event. The status applies only when no
// event has been written yet.
func (s *sseWriter) Fail(ctx context.Context, status int, msg string) {
	s.start(status)
	if err := s.write(map[string]string{"error": msg}); err != nil {
		loggerFromContext(ctx).Warn("failed to write error event", "error", err)
	}
}
