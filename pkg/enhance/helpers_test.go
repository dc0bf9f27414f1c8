package enhance

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/psantana5/fnenhance/pkg/logging"
	"github.com/psantana5/fnenhance/pkg/operation"
)

var errDivideByZero = errors.New("division by zero")

// counted wraps fn and counts real invocations
type counted struct {
	calls atomic.Int64
}

func (c *counted) Calls() int {
	return int(c.calls.Load())
}

func (c *counted) op(name string, fn func(args operation.Args) (any, error), params ...operation.Param) operation.Operation {
	return operation.New(name, func(_ context.Context, args operation.Args) (any, error) {
		c.calls.Add(1)
		return fn(args)
	}, params...)
}

func addOp(c *counted) operation.Operation {
	return c.op("add", func(args operation.Args) (any, error) {
		return args.Positional[0].(int) + args.Positional[1].(int), nil
	}, operation.Required("x"), operation.Required("y"))
}

func divideOp(c *counted) operation.Operation {
	return c.op("divide", func(args operation.Args) (any, error) {
		y := args.Positional[1].(int)
		if y == 0 {
			return nil, errDivideByZero
		}
		return args.Positional[0].(int) / y, nil
	}, operation.Required("x"), operation.Required("y"))
}

func failingOp(c *counted, err error) operation.Operation {
	return c.op("always_fails", func(operation.Args) (any, error) {
		return nil, err
	})
}

func observedEnhancer(opts ...Option) (*Enhancer, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	opts = append([]Option{WithLogger(logging.FromZap(zap.New(core))), WithRetryDelay(0)}, opts...)
	return New(opts...), logs
}
