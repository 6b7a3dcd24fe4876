package async

import (
	"context"
	"time"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/observability"
)

// SafeGo runs fn in a goroutine with panic recovery, a timeout and error
// logging. The task context is detached from parentCtx's cancellation, so
// work started by a request survives the response being written, but it keeps
// parentCtx's values (request ID, trace).
//
// The returned channel is closed when fn has returned.
//
//	async.SafeGo(r.Context(), logger, 2*time.Second, "revocation mirror", func(ctx context.Context) error {
//	    return mirror.Revoke(ctx, jti, expiresAt)
//	})
func SafeGo(parentCtx context.Context, logger *observability.Logger, timeout time.Duration, taskName string, fn func(context.Context) error) <-chan struct{} {
	if logger == nil {
		logger = observability.NopLogger()
	}
	done := make(chan struct{})

	go func() {
		defer close(done)

		ctx, cancel := context.WithTimeout(context.WithoutCancel(parentCtx), timeout)
		defer cancel()

		defer observability.RecoverPanic(logger, taskName)

		if err := fn(ctx); err != nil {
			logger.WithTraceContext(ctx).
				WithError(err).
				WithField("task", taskName).
				Warn("background task failed")
		}
	}()

	return done
}

// SafeGoNoError is SafeGo for functions that cannot fail
func SafeGoNoError(parentCtx context.Context, logger *observability.Logger, timeout time.Duration, taskName string, fn func(context.Context)) <-chan struct{} {
	return SafeGo(parentCtx, logger, timeout, taskName, func(ctx context.Context) error {
		fn(ctx)
		return nil
	})
}
