// Package calculator is the sample operation the CLI and HTTP server
// enhance: a four-function calculator over ints and floats.
package calculator

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/psantana5/fnenhance/pkg/operation"
	"github.com/psantana5/fnenhance/pkg/validate"
)

// Name is the operation name used in logs, metrics and the ledger
const Name = "simple_calculator"

// Supported arithmetic operations
const (
	Add      = "add"
	Subtract = "subtract"
	Multiply = "multiply"
	Divide   = "divide"
)

var (
	ErrDivisionByZero       = errors.New("division by zero")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrNotANumber           = errors.New("operand is not a number")
)

// Params are a, b and operation, in that order
var Params = []operation.Param{
	operation.Required("a"),
	operation.Required("b"),
	operation.Required("operation"),
}

// New returns the bare calculator operation
func New() operation.Operation {
	return operation.New(Name, func(_ context.Context, args operation.Args) (any, error) {
		bound, err := operation.Bind(Params, args)
		if err != nil {
			return nil, err
		}
		op, _ := bound.Values["operation"].(string)
		return Compute(bound.Values["a"], bound.Values["b"], op)
	}, Params...)
}

// Rules are the input rules used by the demonstration: non-negative
// numeric operands and a known operation.
func Rules() map[string]validate.Rule {
	return map[string]validate.Rule{
		"a":         validate.NewRule(validate.OfType(0, 0.0), validate.MinValue(0)),
		"b":         validate.NewRule(validate.OfType(0, 0.0), validate.MinValue(0)),
		"operation": validate.NewRule(validate.OneOf(Add, Subtract, Multiply, Divide)),
	}
}

// Compute applies op to a and b. Two ints stay ints except for division,
// which always yields a float64.
func Compute(a, b any, op string) (any, error) {
	x, xInt, err := toDecimal(a)
	if err != nil {
		return nil, err
	}
	y, yInt, err := toDecimal(b)
	if err != nil {
		return nil, err
	}

	var result decimal.Decimal
	switch op {
	case Add:
		result = x.Add(y)
	case Subtract:
		result = x.Sub(y)
	case Multiply:
		result = x.Mul(y)
	case Divide:
		if y.IsZero() {
			return nil, ErrDivisionByZero
		}
		return x.Div(y).InexactFloat64(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedOperation, op)
	}

	if xInt && yInt {
		return int(result.IntPart()), nil
	}
	return result.InexactFloat64(), nil
}

func toDecimal(v any) (decimal.Decimal, bool, error) {
	switch n := v.(type) {
	case int:
		return decimal.NewFromInt(int64(n)), true, nil
	case int64:
		return decimal.NewFromInt(n), true, nil
	case float64:
		return decimal.NewFromFloat(n), false, nil
	case float32:
		return decimal.NewFromFloat32(n), false, nil
	default:
		return decimal.Decimal{}, false, fmt.Errorf("%w: %v (%T)", ErrNotANumber, v, v)
	}
}
