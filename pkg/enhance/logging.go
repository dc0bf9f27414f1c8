package enhance

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/psantana5/fnenhance/internal/observe"
	"github.com/psantana5/fnenhance/pkg/operation"
	"github.com/psantana5/fnenhance/pkg/tracing"
)

// Logging traces every invocation of op: entry with arguments, timing, and
// either a performance sample or a counted failure. Failures are returned
// exactly as op produced them.
func (e *Enhancer) Logging(op operation.Operation) operation.Operation {
	log := e.logger.WithField("operation", op.Name)

	wrapped := op.WithFn(func(ctx context.Context, args operation.Args) (any, error) {
		ctx, span := e.tracer.Start(ctx, op.Name, trace.WithAttributes(
			attribute.String("fnenhance.operation", op.Name),
			attribute.String("fnenhance.args", args.String()),
		))
		defer span.End()

		log.Info("operation started", map[string]interface{}{"args": args.String()})

		timing := observe.NewTimingWithClock(e.now)
		result, err := op.Call(ctx, args)
		timing.Complete()

		if err != nil {
			e.tracker.RecordFailure(op.Name, err, timing.Duration())
			tracing.SetError(ctx, err)
			log.Error("operation failed", map[string]interface{}{
				"error":        err.Error(),
				"error_type":   fmt.Sprintf("%T", err),
				"error_detail": fmt.Sprintf("%+v", err),
				"duration_ms":  timing.Milliseconds(),
			})
			return nil, err
		}

		e.tracker.RecordSample(op.Name, timing.Duration())
		log.Info("operation completed", map[string]interface{}{
			"result":      fmt.Sprintf("%v", result),
			"duration_ms": timing.Milliseconds(),
		})
		return result, nil
	})

	e.record(op, BehaviorLogging, "logging added to '%s'", op.Name)
	return wrapped
}
