package alert

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyInterval       = errors.New("interval is required")
	ErrEmptyMessage        = errors.New("message is required")
	ErrInvalidInterval     = errors.New("interval must be a whole number of seconds")
	ErrNonPositiveInterval = errors.New("interval must be greater than zero")
	ErrIntervalTooLarge    = errors.New("interval is too large")

	// ErrRegistration wraps failures of the timer service itself.
	ErrRegistration = errors.New("failed to register alert")
)

// ValidationError reports rejected form input. Nothing is scheduled when one
// is returned.
type ValidationError struct {
	Field string
	Input string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Field, e.Input, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err was caused by rejected input.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
