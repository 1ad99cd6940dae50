package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the handshake, fetch and scrape failure kinds.
var (
	ErrNotFound               = errors.New("resource not found")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInternal               = errors.New("internal error")
	ErrMissingCredentials     = errors.New("missing credentials")
	ErrUpstreamRequest        = errors.New("upstream request failed")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrScrape                 = errors.New("scrape failed")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	AuthURL string `json:"auth_url,omitempty"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// MissingCredentials creates a 400 error for a session secret that is absent.
// The user recovers by restarting the handshake.
func MissingCredentials(message string) *AppError {
	return &AppError{
		Code:    "MISSING_CREDENTIALS",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrMissingCredentials,
	}
}

// UpstreamRequest creates a 502 error for a provider call that returned a
// non-success status or a malformed body. status is 0 for transport failures.
func UpstreamRequest(operation string, status int, cause error) *AppError {
	msg := operation + " failed"
	if status != 0 {
		msg = fmt.Sprintf("%s failed with status %d", operation, status)
	}
	err := ErrUpstreamRequest
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrUpstreamRequest, cause)
	}
	return &AppError{
		Code:    "UPSTREAM_REQUEST_FAILED",
		Message: msg,
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

// AuthenticationRequired creates a 401 error carrying the URL that starts
// the handshake, so callers can redirect instead of showing a failure.
func AuthenticationRequired(authURL string) *AppError {
	return &AppError{
		Code:    "AUTHENTICATION_REQUIRED",
		Message: "provider authentication required",
		AuthURL: authURL,
		Status:  http.StatusUnauthorized,
		Err:     ErrAuthenticationRequired,
	}
}

// Scrape creates a 502 error for a browser session that failed before any
// listings were extracted.
func Scrape(cause error) *AppError {
	err := ErrScrape
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrScrape, cause)
	}
	return &AppError{
		Code:    "SCRAPE_FAILED",
		Message: "scraping the provider search page failed",
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// AuthURL returns the re-authentication URL carried by err, if any.
func AuthURL(err error) (string, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.AuthURL != "" {
		return appErr.AuthURL, true
	}
	return "", false
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrMissingCredentials):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthenticationRequired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUpstreamRequest), errors.Is(err, ErrScrape):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
