package stereo

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is returned when a parameter violates its constraint.
	// Detailed errors are *ParameterError values that unwrap to it.
	ErrInvalidParameter = errors.New("stereo: invalid parameter")

	// ErrDimensionMismatch is returned when the left and right images differ in size.
	ErrDimensionMismatch = errors.New("stereo: dimension mismatch")

	// ErrUnsupportedMatcherVariant is returned when an operation is requested on
	// a matcher that cannot perform it, e.g. deriving a right matcher from a
	// handle of unknown origin.
	ErrUnsupportedMatcherVariant = errors.New("stereo: unsupported matcher variant")
)

// ParameterError names the offending field and the violated constraint.
type ParameterError struct {
	Field      string
	Value      interface{}
	Constraint string
}

func (e *ParameterError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("stereo: invalid parameter %s: %s", e.Field, e.Constraint)
	}
	return fmt.Sprintf("stereo: invalid parameter %s=%v: %s", e.Field, e.Value, e.Constraint)
}

func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameter
}

func invalid(field string, value interface{}, constraint string) error {
	return &ParameterError{Field: field, Value: value, Constraint: constraint}
}

func mismatch(lw, lh, rw, rh int) error {
	return fmt.Errorf("%w: left %dx%d, right %dx%d", ErrDimensionMismatch, lw, lh, rw, rh)
}
