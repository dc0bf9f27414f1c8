package validate

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psantana5/fnenhance/pkg/operation"
)

var calcParams = []operation.Param{
	operation.Required("a"),
	operation.Required("b"),
	operation.Optional("operation", "add"),
}

func calcRules() map[string]Rule {
	return map[string]Rule{
		"a":         NewRule(OfType(0, 0.0), MinValue(0)),
		"b":         NewRule(OfType(0, 0.0), MinValue(0), MaxValue(1000)),
		"operation": NewRule(OneOf("add", "subtract", "multiply", "divide")),
	}
}

func TestCheck(t *testing.T) {
	v, err := New(calcParams, calcRules())
	require.NoError(t, err)

	tests := []struct {
		name      string
		args      operation.Args
		wantKind  Kind
		wantParam string
		sentinel  error
	}{
		{name: "valid", args: operation.Positional(10, 5, "add")},
		{name: "valid with default", args: operation.Positional(10, 5.5)},
		{name: "bound inclusive", args: operation.Positional(0, 1000)},
		{
			name:      "type mismatch",
			args:      operation.Positional("10", 5),
			wantKind:  KindTypeMismatch,
			wantParam: "a",
			sentinel:  ErrTypeMismatch,
		},
		{
			name:      "below min",
			args:      operation.Named(map[string]any{"a": 1, "b": -1}),
			wantKind:  KindRangeViolation,
			wantParam: "b",
			sentinel:  ErrRangeViolation,
		},
		{
			name:      "above max",
			args:      operation.Positional(1, 1000.5),
			wantKind:  KindRangeViolation,
			wantParam: "b",
			sentinel:  ErrRangeViolation,
		},
		{
			name:      "disallowed",
			args:      operation.Positional(1, 2, "power"),
			wantKind:  KindDisallowedValue,
			wantParam: "operation",
			sentinel:  ErrDisallowedValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Check(tt.args)
			if tt.wantKind == "" {
				assert.NoError(t, err)
				return
			}

			var verr *Error
			require.True(t, errors.As(err, &verr), "expected *Error, got %v", err)
			assert.Equal(t, tt.wantKind, verr.Kind)
			assert.Equal(t, tt.wantParam, verr.Param)
			assert.NotEmpty(t, verr.Constraint)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCheck_FirstFailingParameterInDeclarationOrder(t *testing.T) {
	v, err := New(calcParams, calcRules())
	require.NoError(t, err)

	err = v.Check(operation.Positional(-1, -1, "power"))

	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "a", verr.Param)
}

func TestCheck_OrderWithinParameter(t *testing.T) {
	// a string violates the type check before the bound is consulted
	v, err := New(calcParams, map[string]Rule{
		"a": NewRule(OfType(0), MinValue(100), OneOf(200)),
	})
	require.NoError(t, err)

	var verr *Error
	require.ErrorAs(t, v.Check(operation.Positional("x", 0)), &verr)
	assert.Equal(t, KindTypeMismatch, verr.Kind)

	require.ErrorAs(t, v.Check(operation.Positional(5, 0)), &verr)
	assert.Equal(t, KindRangeViolation, verr.Kind)

	require.ErrorAs(t, v.Check(operation.Positional(150, 0)), &verr)
	assert.Equal(t, KindDisallowedValue, verr.Kind)
}

func TestCheck_BindingErrors(t *testing.T) {
	v, err := New(calcParams, calcRules())
	require.NoError(t, err)

	err = v.Check(operation.Positional(1))
	assert.ErrorIs(t, err, operation.ErrBind)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestNew_UnknownParam(t *testing.T) {
	_, err := New(calcParams, map[string]Rule{"c": NewRule(MinValue(0)), "z": NewRule()})
	require.ErrorIs(t, err, ErrUnknownParam)
	assert.Contains(t, err.Error(), "c, z")
}

func TestNew_InvalidTag(t *testing.T) {
	_, err := New(calcParams, map[string]Rule{"operation": NewRule(Tag("definitely_not_a_tag"))})
	assert.ErrorIs(t, err, ErrInvalidTag)
}

func TestNew_RulesAreFrozen(t *testing.T) {
	rules := calcRules()
	v, err := New(calcParams, rules)
	require.NoError(t, err)

	rules["operation"].Allowed[0] = "power"
	delete(rules, "a")

	assert.NoError(t, v.Check(operation.Positional(1, 2, "add")))
	assert.Error(t, v.Check(operation.Positional(-1, 2, "add")))
}

func TestTagRule(t *testing.T) {
	params := []operation.Param{operation.Required("email")}
	v, err := New(params, map[string]Rule{"email": NewRule(OfType(""), Tag("email"))})
	require.NoError(t, err)

	assert.NoError(t, v.Check(operation.Positional("dev@example.com")))

	err = v.Check(operation.Positional("not-an-email"))
	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, KindTagViolation, verr.Kind)
	assert.ErrorIs(t, err, ErrTagViolation)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestBounds_ExactDecimalComparison(t *testing.T) {
	params := []operation.Param{operation.Required("n")}
	v, err := New(params, map[string]Rule{
		"n": NewRule(MaxValue(uint64(math.MaxUint64)), MinValue(decimal.RequireFromString("0.1"))),
	})
	require.NoError(t, err)

	assert.NoError(t, v.Check(operation.Positional(uint64(math.MaxUint64))))
	assert.NoError(t, v.Check(operation.Positional(0.1)))
	assert.NoError(t, v.Check(operation.Positional(decimal.RequireFromString("0.1"))))
	assert.ErrorIs(t, v.Check(operation.Positional(0.09)), ErrRangeViolation)
	assert.ErrorIs(t, v.Check(operation.Positional(math.NaN())), ErrTypeMismatch)
}

func TestBounds_Strings(t *testing.T) {
	params := []operation.Param{operation.Required("s")}
	v, err := New(params, map[string]Rule{"s": NewRule(MinValue("b"), MaxValue("d"))})
	require.NoError(t, err)

	assert.NoError(t, v.Check(operation.Positional("c")))
	assert.ErrorIs(t, v.Check(operation.Positional("a")), ErrRangeViolation)
	assert.ErrorIs(t, v.Check(operation.Positional("e")), ErrRangeViolation)
	assert.ErrorIs(t, v.Check(operation.Positional(3)), ErrTypeMismatch)
}

func TestOneOf_NumericEquality(t *testing.T) {
	params := []operation.Param{operation.Required("n")}
	v, err := New(params, map[string]Rule{"n": NewRule(OneOf(1, 2, "three"))})
	require.NoError(t, err)

	assert.NoError(t, v.Check(operation.Positional(1.0)))
	assert.NoError(t, v.Check(operation.Positional(int8(2))))
	assert.NoError(t, v.Check(operation.Positional("three")))
	assert.ErrorIs(t, v.Check(operation.Positional(3)), ErrDisallowedValue)
}

func TestOfType_Interface(t *testing.T) {
	params := []operation.Param{operation.Required("s")}
	v, err := New(params, map[string]Rule{"s": NewRule(OfType((*fmt.Stringer)(nil)))})
	require.NoError(t, err)

	assert.NoError(t, v.Check(operation.Positional(decimal.NewFromInt(1))))
	assert.ErrorIs(t, v.Check(operation.Positional(1)), ErrTypeMismatch)
	assert.ErrorIs(t, v.Check(operation.Positional(nil)), ErrTypeMismatch)
}

func TestNewBound_Unsupported(t *testing.T) {
	_, err := NewBound([]int{1})
	assert.Error(t, err)
}

func TestNew_InvalidBound(t *testing.T) {
	params := []operation.Param{operation.Required("n")}

	for name, opt := range map[string]Option{
		"min": MinValue(struct{}{}),
		"max": MaxValue([]int{1}),
	} {
		t.Run(name, func(t *testing.T) {
			var rule Rule
			require.NotPanics(t, func() { rule = NewRule(opt) })

			_, err := New(params, map[string]Rule{"n": rule})
			require.ErrorIs(t, err, ErrInvalidBound)
			assert.Contains(t, err.Error(), `rule for "n"`)
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestTagRule_ValueKindTagCannotCheck(t *testing.T) {
	params := []operation.Param{operation.Required("n")}
	v, err := New(params, map[string]Rule{"n": NewRule(Tag("min=3"))})
	require.NoError(t, err)

	assert.NoError(t, v.Check(operation.Positional("abcd")))
	assert.ErrorIs(t, v.Check(operation.Positional("ab")), ErrTagViolation)

	require.NotPanics(t, func() { err = v.Check(operation.Positional(true)) })
	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, KindTypeMismatch, verr.Kind)
	assert.Equal(t, "n", verr.Param)
	assert.ErrorIs(t, err, ErrTypeMismatch)
	assert.Contains(t, verr.Cause.Error(), "bool")
}
