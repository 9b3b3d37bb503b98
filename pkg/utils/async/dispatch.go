package async

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/termfolio/pkg/utils/errutil"
)

// Dispatch runs handler in a new goroutine detached from ctx's cancellation,
// so work started by a request outlives the response. Values of ctx such as
// the logger are kept. Errors and panics are logged and reported to Sentry. The
// returned channel is closed when handler finishes.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) <-chan struct{} {
	done := make(chan struct{})

	bgCtx := context.WithoutCancel(ctx)

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				err := goerr.New("panic in async handler", goerr.V("panic", r))
				_ = errutil.Handle(bgCtx, err, "panic in async handler")
			}
		}()

		if err := handler(bgCtx); err != nil {
			_ = errutil.Handle(bgCtx, err, "async handler failed")
		}
	}()

	return done
}
