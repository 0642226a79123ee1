package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrInternal
	ErrInvalidState
	ErrNotReady
)

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// NewInvalidState marks a request that cannot proceed given the current
// persisted state. Not retryable.
func NewInvalidState(message string) *AppError {
	return &AppError{
		Code:    ErrInvalidState,
		Message: message,
	}
}

// NewNotReady marks an orchestration run that must be retried later because
// asynchronous work has not finished yet. Retryable, not a failure.
func NewNotReady(message string) *AppError {
	return &AppError{
		Code:    ErrNotReady,
		Message: message,
	}
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

// Code extracts the ErrorCode from an error chain, 0 when no AppError is
// present.
func Code(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return 0
}

// IsNotReady reports whether the error chain carries the NotReady code.
func IsNotReady(err error) bool {
	return Code(err) == ErrNotReady
}

// IsPermanent reports whether the error should not be retried by the job
// runtime.
func IsPermanent(err error) bool {
	switch Code(err) {
	case ErrNotFound, ErrInvalidState, ErrBadRequest, ErrUnauthorized, ErrForbidden:
		return true
	}
	return false
}
