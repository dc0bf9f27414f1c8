package enhance

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psantana5/fnenhance/pkg/ledger"
	"github.com/psantana5/fnenhance/pkg/operation"
	"github.com/psantana5/fnenhance/pkg/tracker"
	"github.com/psantana5/fnenhance/pkg/validate"
)

func TestEnhance_LedgerOrderIsWrapOrder(t *testing.T) {
	e, _ := observedEnhancer()
	c := &counted{}

	op, err := e.Enhance(addOp(c), Logging(), Caching())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := op.Invoke(context.Background(), 1, 2)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{
		"logging added to 'add'",
		"caching added to 'add'",
	}, e.EnhancementHistory())

	history := e.Ledger().History()
	require.Len(t, history, 2)
	assert.Equal(t, BehaviorLogging, history[0].Behavior)
	assert.Equal(t, BehaviorCaching, history[1].Behavior)
}

func TestEnhance_FirstBehaviorIsInnermost(t *testing.T) {
	t.Run("logging inside caching traces only the miss", func(t *testing.T) {
		e, logs := observedEnhancer()
		op, err := e.Enhance(addOp(&counted{}), Logging(), Caching())
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			_, _ = op.Invoke(context.Background(), 1, 2)
		}
		assert.Equal(t, 1, logs.FilterMessage("operation started").Len())
	})

	t.Run("logging outside caching traces every call", func(t *testing.T) {
		e, logs := observedEnhancer()
		op, err := e.Enhance(addOp(&counted{}), Caching(), Logging())
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			_, _ = op.Invoke(context.Background(), 1, 2)
		}
		assert.Equal(t, 3, logs.FilterMessage("operation started").Len())
	})
}

func TestEnhance_KeepsExternalShape(t *testing.T) {
	e, _ := observedEnhancer()
	base := addOp(&counted{})

	op, err := e.Enhance(base, Logging(), Caching(), Retry(1), Throttle(1000, 10))
	require.NoError(t, err)

	assert.Equal(t, base.Name, op.Name)
	assert.Equal(t, base.Params, op.Params)

	got, err := op.Invoke(context.Background(), 3, 4)
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestEnhance_ConfigErrors(t *testing.T) {
	e, _ := observedEnhancer()
	base := addOp(&counted{})

	tests := []struct {
		name      string
		behaviors []Behavior
		want      error
	}{
		{"negative retries", []Behavior{Retry(-1)}, ErrInvalidConfig},
		{"zero rps", []Behavior{Throttle(0, 1)}, ErrInvalidConfig},
		{"unknown rule param", []Behavior{Validate(Rules{"z": validate.NewRule(validate.MinValue(0))})}, validate.ErrUnknownParam},
		{"unsupported bound", []Behavior{Validate(Rules{"y": validate.NewRule(validate.MaxValue(struct{}{}))})}, validate.ErrInvalidBound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Enhance(base, tt.behaviors...)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := e.Enhance(operation.Operation{Name: "empty"}, Logging())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestEnhance_FailedBehaviorIsNotRecorded(t *testing.T) {
	e, _ := observedEnhancer()

	_, err := e.Enhance(addOp(&counted{}), Logging(), Retry(-1), Caching())
	require.Error(t, err)

	assert.Equal(t, []string{"logging added to 'add'"}, e.EnhancementHistory())
}

func TestNew_SharedState(t *testing.T) {
	tr := tracker.New(nil)
	l := ledger.New()

	a := New(WithTracker(tr), WithLedger(l), WithRetryDelay(0))
	b := New(WithTracker(tr), WithLedger(l), WithRetryDelay(0))

	opA, _ := a.Enhance(addOp(&counted{}), Logging())
	opB, _ := b.Enhance(divideOp(&counted{}), Logging())
	_, _ = opA.Invoke(context.Background(), 1, 1)
	_, _ = opB.Invoke(context.Background(), 1, 0)

	assert.Len(t, a.PerformanceSnapshot(), 1)
	assert.Equal(t, uint64(1), b.Tracker().Errors())
	assert.Equal(t, a.EnhancementHistory(), b.EnhancementHistory())
	assert.Len(t, l.History(), 2)
}

func TestBehavior_Names(t *testing.T) {
	names := []string{
		Logging().Name(), Caching().Name(), Retry(0).Name(),
		Validate(nil).Name(), Envelope().Name(), Throttle(1, 1).Name(),
	}
	assert.Equal(t, []string{"logging", "caching", "retry", "validate", "envelope", "throttle"}, names)
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{errDivideByZero, KindOperation},
		{&validate.Error{Kind: validate.KindRangeViolation}, "validation.range_violation"},
		{operation.ErrBind, KindBinding},
		{context.Canceled, KindCanceled},
		{context.DeadlineExceeded, KindDeadline},
		{ErrThrottled, KindThrottled},
		{errors.Join(errDivideByZero, context.Canceled), KindCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorKind(tt.err))
		})
	}
}
