// Package demo walks the calculator through every enhancement and prints
// what each one does.
package demo

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/psantana5/fnenhance/internal/calculator"
	"github.com/psantana5/fnenhance/internal/report"
	"github.com/psantana5/fnenhance/pkg/enhance"
	"github.com/psantana5/fnenhance/pkg/operation"
)

// Config tunes the retry step
type Config struct {
	MaxRetries int
}

// Run executes the demonstration against e, writing progress to w.
// Failures of the demonstrated calls are printed, not returned; only
// wiring errors abort the run.
func Run(ctx context.Context, w io.Writer, e *enhance.Enhancer, cfg Config) error {
	calc := calculator.New()

	fmt.Fprintln(w, "=== Function enhancement demonstration ===")

	fmt.Fprintln(w, "\n1. Logging")
	logged, err := e.Enhance(calc, enhance.Logging())
	if err != nil {
		return err
	}
	show(ctx, w, logged, "result", 10, 5, calculator.Add)

	fmt.Fprintln(w, "\n2. Caching")
	cached, err := e.Enhance(calc, enhance.Caching())
	if err != nil {
		return err
	}
	show(ctx, w, cached, "first call", 10, 5, calculator.Multiply)
	show(ctx, w, cached, "second call (cached)", 10, 5, calculator.Multiply)

	fmt.Fprintln(w, "\n3. Input validation")
	validated, err := e.Enhance(calc, enhance.Validate(calculator.Rules()))
	if err != nil {
		return err
	}
	show(ctx, w, validated, "valid input", 10, 5, calculator.Add)
	show(ctx, w, validated, "negative operand", -10, 5, calculator.Add)

	fmt.Fprintln(w, "\n4. Response envelope")
	enveloped, err := e.Enhance(calc, enhance.Envelope())
	if err != nil {
		return err
	}
	for _, b := range []int{5, 0} {
		resp, err := enveloped.Invoke(ctx, 10, b, calculator.Divide)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "divide 10 by %d:\n", b)
		if err := report.WriteJSON(w, resp); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, "\n5. Retry")
	flaky := flakyOnce(calc)
	retried, err := e.Enhance(flaky, enhance.Logging(), enhance.Retry(cfg.MaxRetries))
	if err != nil {
		return err
	}
	show(ctx, w, retried, "flaky call", 7, 3, calculator.Subtract)

	fmt.Fprintln(w, "\n=== Enhancement history ===")
	for _, h := range e.EnhancementHistory() {
		fmt.Fprintf(w, "- %s\n", h)
	}
	return nil
}

func show(ctx context.Context, w io.Writer, op operation.Operation, label string, args ...any) {
	got, err := op.Invoke(ctx, args...)
	if err != nil {
		fmt.Fprintf(w, "%s: error: %v\n", label, err)
		return
	}
	fmt.Fprintf(w, "%s: %v\n", label, got)
}

var errWarmingUp = errors.New("calculator warming up")

// flakyOnce fails the first call and delegates afterwards
func flakyOnce(op operation.Operation) operation.Operation {
	failed := false
	flaky := op.WithFn(func(ctx context.Context, args operation.Args) (any, error) {
		if !failed {
			failed = true
			return nil, errWarmingUp
		}
		return op.Call(ctx, args)
	})
	flaky.Name = "flaky_calculator"
	return flaky
}
