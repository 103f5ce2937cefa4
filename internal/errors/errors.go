package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a slidecraft error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrLastSlide        ErrorCode = "LAST_SLIDE"        // 400
	ErrUnauthorized     ErrorCode = "UNAUTHORIZED"      // 401
	ErrForbidden        ErrorCode = "FORBIDDEN"         // 403
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrConflict         ErrorCode = "CONFLICT"          // 409
	ErrInternal         ErrorCode = "INTERNAL"          // 500
	ErrGenerationFailed ErrorCode = "GENERATION_FAILED" // 502
	ErrConversionFailed ErrorCode = "CONVERSION_FAILED" // 503
)

// AppError represents a structured error with code, status, and details.
// The cause is kept for logging and never rendered to callers.
type AppError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *AppError) Unwrap() error {
	return e.cause
}

// Cause returns the underlying cause, or nil.
func (e *AppError) Cause() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *AppError {
	return &AppError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewLastSlide creates a 400 error for an attempt to delete the only slide of a deck.
func NewLastSlide(deckID string) *AppError {
	return &AppError{
		Code:    ErrLastSlide,
		Status:  400,
		Message: "cannot delete the last slide of a presentation",
		Details: map[string]any{"presentation_id": deckID},
	}
}

// NewUnauthorized creates a 401 error for a missing or invalid credential.
func NewUnauthorized(msg string) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Status:  401,
		Message: msg,
	}
}

// NewForbidden creates a 403 error for a resource the caller may not touch.
func NewForbidden() *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Status:  403,
		Message: "access denied",
	}
}

// NewNotFound creates a 404 error for a missing resource.
func NewNotFound(kind, id string) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, id),
		Details: map[string]any{"kind": kind, "id": id},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewGenerationFailed creates a 502 error for a failed generation pipeline.
// The message is generic; the cause is only kept for logs.
func NewGenerationFailed(cause error) *AppError {
	return &AppError{
		Code:    ErrGenerationFailed,
		Status:  502,
		Message: "could not generate the presentation, please try again or pick another topic",
		cause:   cause,
	}
}

// NewConversionFailed creates a 503 error naming the converter that failed.
func NewConversionFailed(converter string, cause error) *AppError {
	return &AppError{
		Code:    ErrConversionFailed,
		Status:  503,
		Message: fmt.Sprintf("PDF conversion failed: make sure %s is available on the server", converter),
		Details: map[string]any{"converter": converter},
		cause:   cause,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Status:  500,
		Message: "internal error",
		cause:   err,
	}
}

// Is checks if an error is an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// As extracts an *AppError from err, wrapping anything else as internal.
func As(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return NewInternal(err)
}
