package safe

import (
	"context"
	"io"
	"net/http"

	"github.com/secmon-lab/termfolio/pkg/utils/logging"
)

// Close closes closer and logs a failure. A nil closer is ignored.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Warn("failed to close", logging.ErrAttr(err))
	}
}

// Write writes data to w and logs a failure. Used after the response status
// has been committed, when nothing else can be done with the error.
func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	if _, err := w.Write(data); err != nil {
		logging.From(ctx).Warn("failed to write response", logging.ErrAttr(err), "bytes", len(data))
	}
}

// Flush sends buffered response data to the client if w supports it
func Flush(w io.Writer) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
