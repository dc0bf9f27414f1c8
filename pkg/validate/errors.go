package validate

import (
	"errors"
	"fmt"
)

// Kind classifies a validation failure
type Kind string

const (
	KindTypeMismatch    Kind = "type_mismatch"
	KindRangeViolation  Kind = "range_violation"
	KindDisallowedValue Kind = "disallowed_value"
	KindTagViolation    Kind = "tag_violation"
)

var (
	// ErrValidation matches every validation failure
	ErrValidation = errors.New("validation failed")

	ErrTypeMismatch    = fmt.Errorf("%w: type mismatch", ErrValidation)
	ErrRangeViolation  = fmt.Errorf("%w: range violation", ErrValidation)
	ErrDisallowedValue = fmt.Errorf("%w: disallowed value", ErrValidation)
	ErrTagViolation    = fmt.Errorf("%w: tag violation", ErrValidation)

	// ErrUnknownParam is a configuration error: a rule names a parameter the
	// operation does not declare
	ErrUnknownParam = errors.New("rule for undeclared parameter")

	// ErrInvalidTag is a configuration error: the validator tag does not parse
	ErrInvalidTag = errors.New("invalid validator tag")

	// ErrInvalidBound is returned by New for a MinValue or MaxValue that is
	// neither numeric nor a string
	ErrInvalidBound = errors.New("invalid bound")
)

// Error is a failed check on one parameter
type Error struct {
	Kind       Kind
	Param      string
	Constraint string
	Value      any
	Cause      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("argument %q %s (got %v)", e.Param, e.Constraint, e.Value)
}

// Is matches ErrValidation and the sentinel of the failure kind
func (e *Error) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	return target == e.sentinel()
}

// Unwrap returns the underlying tag validator error, if any
func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindTypeMismatch:
		return ErrTypeMismatch
	case KindRangeViolation:
		return ErrRangeViolation
	case KindDisallowedValue:
		return ErrDisallowedValue
	case KindTagViolation:
		return ErrTagViolation
	}
	return ErrValidation
}
