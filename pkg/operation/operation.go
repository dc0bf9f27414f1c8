// Package operation defines the unit of work that enhancers wrap: a named
// function with an explicit parameter schema and a uniform call shape.
package operation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrBind is returned when call arguments do not match the declared parameters
var ErrBind = errors.New("argument binding failed")

// Func is the uniform call shape shared by every operation and wrapper
type Func func(ctx context.Context, args Args) (any, error)

// Param declares one named parameter of an operation
type Param struct {
	Name       string
	Default    any
	HasDefault bool
}

// Required declares a parameter without a default
func Required(name string) Param {
	return Param{Name: name}
}

// Optional declares a parameter with a default value
func Optional(name string, def any) Param {
	return Param{Name: name, Default: def, HasDefault: true}
}

// Operation is a named unit of work. Wrappers return a new Operation with
// the same Name and Params and a different Fn.
type Operation struct {
	Name   string
	Params []Param
	Fn     Func
}

// New creates an operation
func New(name string, fn Func, params ...Param) Operation {
	return Operation{Name: name, Params: params, Fn: fn}
}

// Call invokes the operation
func (o Operation) Call(ctx context.Context, args Args) (any, error) {
	return o.Fn(ctx, args)
}

// Invoke is shorthand for calling with positional arguments only
func (o Operation) Invoke(ctx context.Context, positional ...any) (any, error) {
	return o.Fn(ctx, Positional(positional...))
}

// WithFn returns a copy of the operation that runs fn instead
func (o Operation) WithFn(fn Func) Operation {
	params := make([]Param, len(o.Params))
	copy(params, o.Params)
	return Operation{Name: o.Name, Params: params, Fn: fn}
}

// HasParam reports whether name is a declared parameter
func (o Operation) HasParam(name string) bool {
	for _, p := range o.Params {
		if p.Name == name {
			return true
		}
	}
	return false
}

// Args is the argument set of one invocation
type Args struct {
	Positional []any
	Named      map[string]any
}

// Positional builds an argument set from positional values
func Positional(values ...any) Args {
	return Args{Positional: values}
}

// Named builds an argument set from named values
func Named(values map[string]any) Args {
	return Args{Named: values}
}

// With returns a copy of a with one more named value
func (a Args) With(name string, value any) Args {
	named := make(map[string]any, len(a.Named)+1)
	for k, v := range a.Named {
		named[k] = v
	}
	named[name] = value
	return Args{Positional: a.Positional, Named: named}
}

// Key renders a deterministic identity for the argument set: positional
// values in order, then named values sorted by name. Each value carries its
// dynamic type so 1, int64(1) and "1" never collide.
func (a Args) Key() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, v := range a.Positional {
		if i > 0 {
			b.WriteString(", ")
		}
		writeValue(&b, v)
	}
	b.WriteString(")[")

	names := make([]string, 0, len(a.Named))
	for name := range a.Named {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(name)
		b.WriteByte('=')
		writeValue(&b, a.Named[name])
	}
	b.WriteByte(']')
	return b.String()
}

func writeValue(b *strings.Builder, v any) {
	// %v prints map keys in sorted order
	fmt.Fprintf(b, "%T:%v", v, v)
}

// String formats the arguments for logs
func (a Args) String() string {
	return a.Key()
}

// Bound maps every declared parameter to its value for one invocation
type Bound struct {
	Names  []string
	Values map[string]any
}

// Bind matches args to params: positional values fill parameters in
// declaration order, named values fill the rest, and defaults cover
// anything still missing.
func Bind(params []Param, args Args) (Bound, error) {
	if len(args.Positional) > len(params) {
		return Bound{}, fmt.Errorf("%w: takes %d positional arguments but %d were given",
			ErrBind, len(params), len(args.Positional))
	}

	values := make(map[string]any, len(params))
	names := make([]string, 0, len(params))
	declared := make(map[string]bool, len(params))
	for i, p := range params {
		declared[p.Name] = true
		names = append(names, p.Name)
		if i < len(args.Positional) {
			values[p.Name] = args.Positional[i]
		}
	}

	unknown := make([]string, 0)
	for name, v := range args.Named {
		if !declared[name] {
			unknown = append(unknown, name)
			continue
		}
		if _, dup := values[name]; dup {
			return Bound{}, fmt.Errorf("%w: multiple values for argument %q", ErrBind, name)
		}
		values[name] = v
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Bound{}, fmt.Errorf("%w: unexpected keyword argument %q", ErrBind, unknown[0])
	}

	for _, p := range params {
		if _, ok := values[p.Name]; ok {
			continue
		}
		if !p.HasDefault {
			return Bound{}, fmt.Errorf("%w: missing required argument %q", ErrBind, p.Name)
		}
		values[p.Name] = p.Default
	}

	return Bound{Names: names, Values: values}, nil
}
