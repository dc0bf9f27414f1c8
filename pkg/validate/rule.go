package validate

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/shopspring/decimal"
)

// Rule is the constraint set for one parameter. Every field is optional.
// Checks run in a fixed order: type, minimum, maximum, allowed values, tag.
type Rule struct {
	Types   []reflect.Type
	Min     *Bound
	Max     *Bound
	Allowed []any
	Tag     string

	// err holds the first option that could not be applied; New reports it
	err error
}

// Option configures a Rule
type Option func(*Rule)

// NewRule builds a rule from options
func NewRule(opts ...Option) Rule {
	var r Rule
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// OfType accepts values whose dynamic type matches one of the samples'.
// Pass a nil pointer to an interface, e.g. (*fmt.Stringer)(nil), to accept
// any implementation of that interface.
func OfType(samples ...any) Option {
	return func(r *Rule) {
		for _, s := range samples {
			t := reflect.TypeOf(s)
			if t != nil && t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Interface {
				t = t.Elem()
			}
			r.Types = append(r.Types, t)
		}
	}
}

// MinValue sets an inclusive lower bound. A value that is neither a number
// nor a string makes New fail with ErrInvalidBound.
func MinValue(v any) Option {
	return func(r *Rule) { r.Min = r.bound("min", v) }
}

// MaxValue sets an inclusive upper bound, with the same restriction as MinValue
func MaxValue(v any) Option {
	return func(r *Rule) { r.Max = r.bound("max", v) }
}

// OneOf restricts the value to a fixed set
func OneOf(values ...any) Option {
	return func(r *Rule) { r.Allowed = append(r.Allowed, values...) }
}

// Tag adds a go-playground/validator tag such as "email" or "min=3"
func Tag(tag string) Option {
	return func(r *Rule) { r.Tag = tag }
}

// Bound is a numeric or string limit
type Bound struct {
	num *decimal.Decimal
	str *string
	raw any
}

// NewBound converts v into a bound. Numbers become exact decimals.
func NewBound(v any) (*Bound, error) {
	if d, ok, err := toDecimal(v); ok {
		if err != nil {
			return nil, err
		}
		return &Bound{num: &d, raw: v}, nil
	}
	rv := reflect.ValueOf(v)
	if rv.IsValid() && rv.Kind() == reflect.String {
		s := rv.String()
		return &Bound{str: &s, raw: v}, nil
	}
	return nil, fmt.Errorf("unsupported bound type %T", v)
}

func (r *Rule) bound(which string, v any) *Bound {
	b, err := NewBound(v)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("%w: %s: %v", ErrInvalidBound, which, err)
	}
	return b
}

func (b *Bound) String() string {
	return fmt.Sprint(b.raw)
}

// compare returns -1, 0 or 1 for value against the bound; ok is false when
// the value cannot be ordered against it.
func (b *Bound) compare(value any) (int, bool) {
	if b.num != nil {
		d, isNum, err := toDecimal(value)
		if !isNum || err != nil {
			return 0, false
		}
		return d.Cmp(*b.num), true
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.Kind() != reflect.String {
		return 0, false
	}
	return strings.Compare(rv.String(), *b.str), true
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

// toDecimal reports whether v is numeric and, if so, its exact value.
// Non-finite floats are numeric but fail conversion.
func toDecimal(v any) (decimal.Decimal, bool, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return decimal.Decimal{}, false, nil
	}
	if rv.Type() == decimalType {
		return rv.Interface().(decimal.Decimal), true, nil
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return decimal.NewFromInt(rv.Int()), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(rv.Uint()), 0), true, nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Decimal{}, true, fmt.Errorf("non-finite number %v", f)
		}
		if rv.Kind() == reflect.Float32 {
			return decimal.NewFromFloat32(float32(f)), true, nil
		}
		return decimal.NewFromFloat(f), true, nil
	}
	return decimal.Decimal{}, false, nil
}

func typeNames(types []reflect.Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		if t == nil {
			names[i] = "nil"
			continue
		}
		names[i] = t.String()
	}
	return strings.Join(names, " or ")
}
