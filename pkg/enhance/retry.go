package enhance

import (
	"context"
	"fmt"

	"github.com/psantana5/fnenhance/pkg/operation"
	"github.com/psantana5/fnenhance/pkg/retry"
)

// Retry re-invokes op after a failure, up to maxRetries extra attempts with
// the enhancer's fixed delay in between. The final failure is returned
// unchanged. Which failures qualify is decided by the enhancer's retry
// classifier, retry.DefaultRetryable unless WithRetryIf was given.
func (e *Enhancer) Retry(op operation.Operation, maxRetries int) (operation.Operation, error) {
	if maxRetries < 0 {
		return op, fmt.Errorf("%w: max retries must be >= 0, got %d", ErrInvalidConfig, maxRetries)
	}
	log := e.logger.WithField("operation", op.Name)

	cfg := retry.Config{
		MaxRetries: maxRetries,
		Delay:      e.retryDelay,
		RetryIf:    e.retryIf,
		OnRetry: func(attempt int, err error) {
			log.Warn("attempt failed, retrying", map[string]interface{}{
				"attempt": attempt,
				"error":   err.Error(),
				"delay":   e.retryDelay.String(),
			})
		},
		OnGiveUp: func(attempts int, err error) {
			log.Error("final attempt failed", map[string]interface{}{
				"attempts": attempts,
				"error":    err.Error(),
			})
		},
	}

	wrapped := op.WithFn(func(ctx context.Context, args operation.Args) (any, error) {
		var result any
		err := retry.Do(ctx, cfg, func(ctx context.Context) error {
			v, err := op.Call(ctx, args)
			if err != nil {
				return err
			}
			result = v
			return nil
		})
		if err != nil {
			return nil, err
		}
		return result, nil
	})

	e.record(op, BehaviorRetry, "retry added to '%s' (max %d retries)", op.Name, maxRetries)
	return wrapped, nil
}
