package completion

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

// ErrCompletion matches every error returned by the completion clients
var ErrCompletion = goerr.New("completion failed")

// Error is a failed completion request. Message is the provider's own error
// message, or a fixed fallback when the provider gave none.
type Error struct {
	Provider string
	Message  string
	cause    error
}

func newError(provider, message, fallback string, cause error) *Error {
	if message == "" {
		message = fallback
	}
	return &Error{Provider: provider, Message: message, cause: cause}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrCompletion}
	}
	return []error{ErrCompletion, e.cause}
}

// Message returns the message of the first completion Error in err's chain,
// or err's own message.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Message
	}
	return err.Error()
}
