package enhance

import (
	"context"
	"errors"
	"time"

	"github.com/psantana5/fnenhance/internal/observe"
	"github.com/psantana5/fnenhance/pkg/operation"
	"github.com/psantana5/fnenhance/pkg/validate"
)

// Error kinds carried by a failed Response
const (
	KindOperation = "operation"
	KindBinding   = "binding"
	KindCanceled  = "canceled"
	KindDeadline  = "deadline"
	KindThrottled = "throttled"
)

// Response is the uniform outcome record produced by Envelope
type Response struct {
	Success   bool          `json:"success" yaml:"success"`
	Data      any           `json:"data" yaml:"data"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorKind string        `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Timestamp time.Time     `json:"timestamp" yaml:"timestamp"`

	err error
}

// Err returns the absorbed failure, nil on success
func (r Response) Err() error {
	return r.err
}

// Envelope makes op total: it always returns a Response value and a nil
// error. Failures are recorded in the Response and never propagated.
func (e *Enhancer) Envelope(op operation.Operation) operation.Operation {
	log := e.logger.WithField("operation", op.Name)

	wrapped := op.WithFn(func(ctx context.Context, args operation.Args) (any, error) {
		timing := observe.NewTimingWithClock(e.now)
		result, err := op.Call(ctx, args)
		timing.Complete()

		resp := Response{
			Duration:  timing.Duration(),
			Timestamp: timing.CompletedAt,
		}
		if err != nil {
			resp.Error = err.Error()
			resp.ErrorKind = ErrorKind(err)
			resp.err = err
			log.Warn("failure absorbed into response", map[string]interface{}{
				"error":      resp.Error,
				"error_kind": resp.ErrorKind,
			})
			return resp, nil
		}

		resp.Success = true
		resp.Data = result
		log.Debug("response built")
		return resp, nil
	})

	e.record(op, BehaviorEnvelope, "response envelope added to '%s'", op.Name)
	return wrapped
}

// ErrorKind classifies a failure for the Response
func ErrorKind(err error) string {
	var verr *validate.Error
	switch {
	case errors.As(err, &verr):
		return "validation." + string(verr.Kind)
	case errors.Is(err, operation.ErrBind):
		return KindBinding
	case errors.Is(err, ErrThrottled):
		return KindThrottled
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return KindDeadline
	default:
		return KindOperation
	}
}
