package errutil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/termfolio/pkg/utils/logging"
)

// InternalErrorMessage is the body text of every 5xx response. Internal error
// details are logged, never returned to the caller.
const InternalErrorMessage = "Failed to process request"

// Handle logs the error with a message and returns it unchanged.
// Errors reaching this point are also reported to Sentry when it is configured.
func Handle(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}

	logger := logging.From(ctx)

	// Extract goerr values for structured logging
	var ge *goerr.Error
	if errors.As(err, &ge) {
		logger.Error(msg,
			"error", err.Error(),
			"values", ge.Values(),
			"stack", ge.Stacks(),
		)
	} else {
		logger.Error(msg, "error", err.Error())
	}

	sentry.CaptureException(err)
	return err
}

// HandleHTTP logs the error and writes a JSON error response of the form
// {"error": "..."}. Client errors expose err's message; server errors expose
// InternalErrorMessage only.
func HandleHTTP(ctx context.Context, w http.ResponseWriter, err error, statusCode int) {
	HandleHTTPWithMessage(ctx, w, err, statusCode, InternalErrorMessage)
}

// HandleHTTPWithMessage is HandleHTTP with a custom body text for 5xx responses
func HandleHTTPWithMessage(ctx context.Context, w http.ResponseWriter, err error, statusCode int, internalMsg string) {
	if err == nil {
		return
	}

	logger := logging.From(ctx)

	var ge *goerr.Error
	if errors.As(err, &ge) {
		logger.Error("HTTP error",
			"status", statusCode,
			"error", err.Error(),
			"values", ge.Values(),
			"stack", ge.Stacks(),
		)
	} else {
		logger.Error("HTTP error",
			"status", statusCode,
			"error", err.Error(),
		)
	}

	msg := err.Error()
	if statusCode >= http.StatusInternalServerError {
		sentry.CaptureException(err)
		msg = internalMsg
	}

	WriteJSONError(w, msg, statusCode)
}

// WriteJSONError writes {"error": msg} with the given status code
func WriteJSONError(w http.ResponseWriter, msg string, statusCode int) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(body) //nolint:errcheck // header already committed
}
