package enhance

import (
	"context"
	"errors"
	"fmt"

	"github.com/psantana5/fnenhance/pkg/operation"
	"github.com/psantana5/fnenhance/pkg/ratelimit"
)

// ErrThrottled is returned when a throttled call cannot get a token before
// its context deadline
var ErrThrottled = errors.New("throttled")

// Throttle admits at most rps calls per second to op, with bursts up to
// burst. Callers wait for a token; a cancelled wait returns without
// invoking op.
func (e *Enhancer) Throttle(op operation.Operation, rps float64, burst int) (operation.Operation, error) {
	if rps <= 0 || burst < 1 {
		return op, fmt.Errorf("%w: throttle needs rps > 0 and burst >= 1, got %v/%d", ErrInvalidConfig, rps, burst)
	}
	limiter := ratelimit.NewLimiter(rps, burst)

	wrapped := op.WithFn(func(ctx context.Context, args operation.Args) (any, error) {
		if err := limiter.Wait(ctx, op.Name); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: %v", ErrThrottled, err)
		}
		return op.Call(ctx, args)
	})

	e.record(op, BehaviorThrottle, "throttle added to '%s' (%g/s, burst %d)", op.Name, rps, burst)
	return wrapped, nil
}
