package cdpass

import (
	"errors"
	"fmt"
)

// Code identifies the failed rule.
type Code string

const (
	// CodeInvariantViolation: a non-marker operator wraps a marker.
	CodeInvariantViolation Code = "INVARIANT_VIOLATION"
	// CodeConsistencyViolation: integrals of one form carry different marker chains.
	CodeConsistencyViolation Code = "CONSISTENCY_VIOLATION"
	// CodeInvalidInputType: the target is neither a form nor an integral.
	CodeInvalidInputType Code = "INVALID_INPUT_TYPE"
)

// NoIntegral is the Integral index of errors not tied to one integral.
const NoIntegral = -1

// Error is a pass failure.
type Error struct {
	Code     Code
	Message  string
	Integral int   // index of the offending integral, NoIntegral if unknown
	Cause    error // optional
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Integral != NoIntegral {
		msg = fmt.Sprintf("%s (integral %d)", msg, e.Integral)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code Code, format string, args ...any) *Error {
	return &Error{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Integral: NoIntegral,
	}
}

// Is reports whether err carries code anywhere in its chain.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the code from err, or "" when err is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IntegralIndex extracts the integral index from err, or NoIntegral.
func IntegralIndex(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Integral
	}
	return NoIntegral
}

// atIntegral tags err with the integral index when it is an untagged *Error.
func atIntegral(err error, idx int) error {
	var e *Error
	if errors.As(err, &e) && e.Integral == NoIntegral {
		e.Integral = idx
	}
	return err
}
