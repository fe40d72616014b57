// Package errors provides the structured application error returned at the
// HTTP boundary of the storefront.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error represents a structured application error.
type Error struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	HTTPStatus int         `json:"-"`
	Details    interface{} `json:"details,omitempty"`
	Err        error       `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetails returns a copy of e carrying details. The predefined errors
// below are shared values and must never be mutated in place.
func (e *Error) WithDetails(details interface{}) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// WithError returns a copy of e wrapping err.
func (e *Error) WithError(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// New creates a new Error.
func New(code, message string, httpStatus int) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Error codes.
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS"

	ErrCodeArtworkNotFound = "ARTWORK_NOT_FOUND"
	ErrCodeArtistNotFound  = "ARTIST_NOT_FOUND"
	ErrCodeInvalidArtwork  = "INVALID_ARTWORK_ID"
	ErrCodeInvalidProfile  = "INVALID_PROFILE_ID"

	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeInvalidInput     = "INVALID_INPUT"

	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeStorageError       = "STORAGE_ERROR"
)

var (
	ErrInternal        = New(ErrCodeInternal, "Internal server error", http.StatusInternalServerError)
	ErrInvalidRequest  = New(ErrCodeInvalidRequest, "Invalid request", http.StatusBadRequest)
	ErrNotFound        = New(ErrCodeNotFound, "Resource not found", http.StatusNotFound)
	ErrTooManyRequests = New(ErrCodeTooManyRequests, "Too many requests", http.StatusTooManyRequests)
)

var (
	ErrArtworkNotFound = New(ErrCodeArtworkNotFound, "Artwork not found", http.StatusNotFound)
	ErrArtistNotFound  = New(ErrCodeArtistNotFound, "Artist not found", http.StatusNotFound)
	ErrInvalidArtwork  = New(ErrCodeInvalidArtwork, "Invalid artwork id", http.StatusBadRequest)
	ErrInvalidProfile  = New(ErrCodeInvalidProfile, "Invalid profile id", http.StatusBadRequest)
)

var (
	ErrValidationFailed = New(ErrCodeValidationFailed, "Validation failed", http.StatusUnprocessableEntity)
	ErrInvalidInput     = New(ErrCodeInvalidInput, "Invalid input", http.StatusBadRequest)
)

var (
	ErrServiceUnavailable = New(ErrCodeServiceUnavailable, "Service temporarily unavailable", http.StatusServiceUnavailable)
	ErrStorageError       = New(ErrCodeStorageError, "Storage error", http.StatusInternalServerError)
)

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
