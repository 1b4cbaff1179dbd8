package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")
)

// Pipeline-specific errors

var (
	// ErrPriceUnavailable indicates the price service has no closing price
	// for the requested day (market not closed yet, or no data published)
	ErrPriceUnavailable = errors.New("closing price unavailable")

	// ErrRollupConflict indicates more than one rollup row exists for a
	// single calendar day, which violates the one-row-per-day invariant
	ErrRollupConflict = errors.New("conflicting rollup rows for day")

	// ErrRunLocked indicates another pipeline run currently holds the run lock
	ErrRunLocked = errors.New("pipeline run lock is held")
)

// DayError wraps an error with the calendar day and operation it occurred on,
// so a failed run can report exactly which days were left unreconciled.
type DayError struct {
	Day string // YYYY-MM-DD
	Op  string // reconcile, price, retire
	Err error
}

// Error implements the error interface
func (e *DayError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Day, e.Err)
}

// Unwrap returns the wrapped error
func (e *DayError) Unwrap() error {
	return e.Err
}

// NewDayError creates a new day-scoped error
func NewDayError(op, day string, err error) *DayError {
	return &DayError{Day: day, Op: op, Err: err}
}

// MultiError wraps multiple errors
type MultiError struct {
	Errors []error
}

// Error implements the error interface
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("multiple errors (%d): %v", len(m.Errors), m.Errors[0])
}

// Unwrap exposes the wrapped errors to errors.Is/errors.As
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Add adds an error to the list
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}

// ToError returns the MultiError as an error, or nil if no errors
func (m *MultiError) ToError() error {
	if !m.HasErrors() {
		return nil
	}
	return m
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
