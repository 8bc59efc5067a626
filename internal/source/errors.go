package source

import (
	"errors"
	"fmt"
	"net/http"
)

// Errors shared by every provider adapter.
var (
	// ErrNotFound indicates the provider could not resolve the paper from the
	// query fields it was given.
	ErrNotFound = errors.New("paper not found")

	// ErrInvalidQuery indicates the query lacks the fields this provider needs.
	ErrInvalidQuery = errors.New("query is invalid or not supported")

	// ErrUnavailable indicates a network or decoding failure talking to a provider.
	ErrUnavailable = errors.New("provider unavailable")
)

// APIError is a non-success HTTP status returned by a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error (status %d)", e.Provider, e.StatusCode)
}

// IsNotFound reports whether err means the paper does not exist at the provider.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsInvalidQuery reports whether err means the query was insufficient.
func IsInvalidQuery(err error) bool {
	return errors.Is(err, ErrInvalidQuery)
}

// IsUnavailable reports whether err is a transport, decoding or server failure.
func IsUnavailable(err error) bool {
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode != http.StatusNotFound
	}
	return false
}

// NotFoundf wraps ErrNotFound with provider context.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// InvalidQueryf wraps ErrInvalidQuery with provider context.
func InvalidQueryf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}
