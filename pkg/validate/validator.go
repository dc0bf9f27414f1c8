// Package validate checks bound call arguments against declared rules
// before an operation runs.
package validate

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	playground "github.com/go-playground/validator/v10"

	"github.com/psantana5/fnenhance/pkg/operation"
)

// Validator holds the immutable rules of one wrapped operation
type Validator struct {
	params []operation.Param
	rules  map[string]Rule
	tags   *playground.Validate
}

// New checks that every rule names a declared parameter and freezes the rules
func New(params []operation.Param, rules map[string]Rule) (*Validator, error) {
	declared := make(map[string]bool, len(params))
	for _, p := range params {
		declared[p.Name] = true
	}

	unknown := make([]string, 0)
	frozen := make(map[string]Rule, len(rules))
	for name, r := range rules {
		if !declared[name] {
			unknown = append(unknown, name)
			continue
		}
		frozen[name] = r.clone()
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %s", ErrUnknownParam, strings.Join(unknown, ", "))
	}
	for _, p := range params {
		if r, ok := frozen[p.Name]; ok && r.err != nil {
			return nil, fmt.Errorf("rule for %q: %w", p.Name, r.err)
		}
	}

	v := &Validator{
		params: append([]operation.Param(nil), params...),
		rules:  frozen,
	}
	for _, r := range frozen {
		if r.Tag == "" {
			continue
		}
		if v.tags == nil {
			v.tags = playground.New()
		}
		if err := parseTag(v.tags, r.Tag); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// parseTag surfaces unknown validator tags at wrap time; the library
// panics on them during the first check otherwise.
func parseTag(tags *playground.Validate, tag string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %q: %v", ErrInvalidTag, tag, r)
		}
	}()
	_ = tags.Var("", tag)
	return nil
}

// Check binds args and runs every rule. It returns the binding error or the
// first failing check; nil means the call may proceed.
func (v *Validator) Check(args operation.Args) error {
	bound, err := operation.Bind(v.params, args)
	if err != nil {
		return err
	}

	for _, name := range bound.Names {
		rule, ok := v.rules[name]
		if !ok {
			continue
		}
		if err := v.checkParam(name, bound.Values[name], rule); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) checkParam(name string, value any, r Rule) error {
	if len(r.Types) > 0 && !matchesType(value, r.Types) {
		return &Error{
			Kind:       KindTypeMismatch,
			Param:      name,
			Constraint: "must be of type " + typeNames(r.Types),
			Value:      value,
		}
	}

	if r.Min != nil {
		if err := checkBound(name, value, r.Min, ">=", func(c int) bool { return c >= 0 }); err != nil {
			return err
		}
	}

	if r.Max != nil {
		if err := checkBound(name, value, r.Max, "<=", func(c int) bool { return c <= 0 }); err != nil {
			return err
		}
	}

	if len(r.Allowed) > 0 && !contains(r.Allowed, value) {
		return &Error{
			Kind:       KindDisallowedValue,
			Param:      name,
			Constraint: fmt.Sprintf("must be one of %v", r.Allowed),
			Value:      value,
		}
	}

	if r.Tag != "" {
		return v.checkTag(name, value, r.Tag)
	}

	return nil
}

// checkTag runs a validator tag. The library panics when the value's kind
// does not fit the tag (e.g. "min=3" on a bool); that is a type mismatch.
func (v *Validator) checkTag(name string, value any, tag string) (verr error) {
	defer func() {
		if p := recover(); p != nil {
			verr = &Error{
				Kind:       KindTypeMismatch,
				Param:      name,
				Constraint: fmt.Sprintf("%T cannot be checked against %q", value, tag),
				Value:      value,
				Cause:      fmt.Errorf("%v", p),
			}
		}
	}()

	if err := v.tags.Var(value, tag); err != nil {
		return &Error{
			Kind:       KindTagViolation,
			Param:      name,
			Constraint: fmt.Sprintf("must satisfy %q", tag),
			Value:      value,
			Cause:      err,
		}
	}
	return nil
}

func checkBound(name string, value any, b *Bound, op string, ok func(int) bool) error {
	c, ordered := b.compare(value)
	if !ordered {
		return &Error{
			Kind:       KindTypeMismatch,
			Param:      name,
			Constraint: fmt.Sprintf("must be comparable with %T bound %s", b.raw, b),
			Value:      value,
		}
	}
	if !ok(c) {
		return &Error{
			Kind:       KindRangeViolation,
			Param:      name,
			Constraint: fmt.Sprintf("must be %s %s", op, b),
			Value:      value,
		}
	}
	return nil
}

func matchesType(value any, types []reflect.Type) bool {
	vt := reflect.TypeOf(value)
	for _, t := range types {
		switch {
		case t == nil:
			if vt == nil {
				return true
			}
		case vt == nil:
		case t.Kind() == reflect.Interface:
			if vt.Implements(t) {
				return true
			}
		case vt == t:
			return true
		}
	}
	return false
}

// contains compares numbers by exact value, so 1 matches 1.0
func contains(allowed []any, value any) bool {
	vd, vNum, vErr := toDecimal(value)
	for _, a := range allowed {
		if vNum && vErr == nil {
			if ad, aNum, aErr := toDecimal(a); aNum && aErr == nil {
				if vd.Equal(ad) {
					return true
				}
				continue
			}
		}
		if reflect.DeepEqual(a, value) {
			return true
		}
	}
	return false
}

func (r Rule) clone() Rule {
	c := r
	c.Types = append([]reflect.Type(nil), r.Types...)
	c.Allowed = append([]any(nil), r.Allowed...)
	return c
}
