package levels

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when a constructor or query receives a structurally invalid value.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrOutOfRange is returned when a level or tile index lies outside the pyramid.
	ErrOutOfRange = errors.New("out of range")
)

// ArgumentError names the offending field of a failed call.
// It unwraps to ErrInvalidArgument.
type ArgumentError struct {
	Op     string
	Field  string
	Value  any
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %v: %s=%v: %s", e.Op, ErrInvalidArgument, e.Field, e.Value, e.Reason)
}

func (e *ArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

func argError(op, field string, value any, reason string) error {
	return &ArgumentError{Op: op, Field: field, Value: value, Reason: reason}
}

func outOfRange(op string, levelNumber, numLevels int) error {
	return fmt.Errorf("%s: %w: level %d not in [0, %d)", op, ErrOutOfRange, levelNumber, numLevels)
}
