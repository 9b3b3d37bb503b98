package errutil_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/termfolio/pkg/utils/errutil"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body)).Required()
	return body.Error
}

func TestHandleHTTP(t *testing.T) {
	t.Run("client error exposes message", func(t *testing.T) {
		rec := httptest.NewRecorder()
		errutil.HandleHTTP(context.Background(), rec, goerr.New("Invalid request: message is required"), http.StatusBadRequest)

		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
		gt.Value(t, rec.Header().Get("Content-Type")).Equal("application/json")
		gt.Value(t, decodeError(t, rec)).Equal("Invalid request: message is required")
	})

	t.Run("server error hides internal details", func(t *testing.T) {
		rec := httptest.NewRecorder()
		err := goerr.New("connection refused", goerr.V("host", "db.internal"))
		errutil.HandleHTTP(context.Background(), rec, err, http.StatusInternalServerError)

		gt.Value(t, rec.Code).Equal(http.StatusInternalServerError)
		gt.Value(t, decodeError(t, rec)).Equal(errutil.InternalErrorMessage)
	})

	t.Run("nil error writes nothing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		errutil.HandleHTTP(context.Background(), rec, nil, http.StatusInternalServerError)
		gt.Value(t, rec.Body.Len()).Equal(0)
	})
}

func TestHandle(t *testing.T) {
	err := goerr.New("boom")
	gt.Value(t, errutil.Handle(context.Background(), err, "failed")).Equal(err)
	gt.NoError(t, errutil.Handle(context.Background(), nil, "failed"))
}

func TestHandleHTTPWithMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	errutil.HandleHTTPWithMessage(context.Background(), rec, goerr.New("disk full"), http.StatusInternalServerError, "Failed to process embedding request")

	gt.Value(t, rec.Code).Equal(http.StatusInternalServerError)
	gt.Value(t, decodeError(t, rec)).Equal("Failed to process embedding request")
}
