package services

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrValidation is matched by every *ValidationError
	ErrValidation = errors.New("validation failed")

	// ErrMissingCover indicates a post created without a cover image
	ErrMissingCover = errors.New("cover image is required")

	// ErrInvalidCredentials hides which half of a login was wrong
	ErrInvalidCredentials = errors.New("incorrect username or password")

	// ErrIncorrectPassword is only returned when uniform login errors are disabled
	ErrIncorrectPassword = errors.New("incorrect password")

	// ErrUnauthorized indicates a request without a session
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates an invalid session or a resource owned by someone else
	ErrForbidden = errors.New("forbidden")

	// ErrTimeout indicates a store or file operation that exceeded its deadline
	ErrTimeout = errors.New("operation timed out")
)

// ValidationError describes a single rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// withTimeout bounds a single store or file operation.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// opError tags deadline failures with ErrTimeout and passes everything else
// through unchanged.
func opError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}
