package errs

import (
	"context"
	"errors"
	"fmt"
)

// Error is a sentinel error carrying a stable code. Callers wrap it with
// fmt.Errorf("%w: ...") and test for it with errors.Is.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

var (
	ErrInvalidArgument = newError("INVALID_ARGUMENT", "invalid argument")
	ErrMissingValue    = newError("MISSING_VALUE", "missing value")
	ErrNotFound        = newError("NOT_FOUND", "not found")
	ErrUnsupportedSite = newError("UNSUPPORTED_SITE", "no site can process uri")
)

// InvalidArgument wraps ErrInvalidArgument with a formatted detail.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// MissingValue wraps ErrMissingValue with a formatted detail.
func MissingValue(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMissingValue, fmt.Sprintf(format, args...))
}

// Code returns the code of the first sentinel found in err's chain,
// "TIMEOUT" for expired deadlines, or "INTERNAL".
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "TIMEOUT"
	}
	return "INTERNAL"
}
