package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Failure taxonomy. Every fault an adapter can observe is collapsed
// onto one of these before it crosses the adapter boundary.
var (
	// ErrNotFound indicates the subject does not exist at this source
	ErrNotFound = errors.New("not found")

	// ErrUnreachable indicates a network, timeout, or transport fault
	ErrUnreachable = errors.New("unreachable")

	// ErrRateLimited indicates the source signaled throttling
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidArgument indicates a caller contract violation; the only
	// class that aborts a call at the boundary before provider I/O
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedFormat indicates an undecodable payload detected
	// before normalization
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// FetchError represents an error during fetching
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new FetchError
func NewFetchError(url string, statusCode int, err error) *FetchError {
	return &FetchError{
		URL:        url,
		StatusCode: statusCode,
		Err:        err,
	}
}

// RetryableError indicates an error that can be retried
type RetryableError struct {
	Err        error
	RetryAfter int // Seconds to wait before retry, 0 if unknown
}

func (e *RetryableError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("retryable error (retry after %ds): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("retryable error: %v", e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var retryable *RetryableError
	if errors.As(err, &retryable) {
		return true
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		// Retry on specific status codes
		switch fetchErr.StatusCode {
		case 429, 503, 502, 504:
			return true
		}
		// Retry on Cloudflare errors
		if fetchErr.StatusCode >= 520 && fetchErr.StatusCode <= 530 {
			return true
		}
	}

	return errors.Is(err, ErrRateLimited)
}

// ValidationError represents a caller contract violation. It satisfies
// errors.Is(err, ErrInvalidArgument).
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Classify collapses an arbitrary adapter fault onto the taxonomy.
// Errors already carrying a taxonomy sentinel pass through unchanged;
// anything else becomes a wrapped sentinel so the original cause stays
// visible in the message while errors.Is works on the class.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrRateLimited),
		errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrUnsupportedFormat),
		errors.Is(err, ErrUnreachable):
		return err
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		switch {
		case fetchErr.StatusCode == 404 || fetchErr.StatusCode == 410:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case fetchErr.StatusCode == 429:
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

// Reason returns the wire token for an error's taxonomy class.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	default:
		return "unreachable"
	}
}

// IsNotFound checks if an error is a not-found condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnreachable checks if an error is a transport fault
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

// IsRateLimited checks if an error is a throttling condition
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsInvalidArgument checks if an error is a caller contract violation
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}
