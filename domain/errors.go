package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrTaskNotFound     = NewError(ErrCodeNotFound, "task not found")
	ErrUnauthorized     = NewError(ErrCodeUnauthorized, "session must be authenticated")
	ErrInvalidPayload   = NewError(ErrCodeInvalid, "invalid payload")
	ErrTitleRequired    = NewError(ErrCodeInvalid, "task title is required")
	ErrInvalidPriority  = NewError(ErrCodeInvalid, "unknown task priority")
	ErrInvalidCategory  = NewError(ErrCodeInvalid, "unknown task category")
	ErrInvalidFilter    = NewError(ErrCodeInvalid, "unknown task filter")
	ErrEmailRequired    = NewError(ErrCodeInvalid, "email is required")
	ErrPasswordRequired = NewError(ErrCodeInvalid, "password is required")
	ErrNameRequired     = NewError(ErrCodeInvalid, "name is required")
	ErrAuthInProgress   = NewError(ErrCodeConflict, "an authentication request is already in progress")
	ErrCorruptRecord    = NewError(ErrCodeInvalid, "persisted record is malformed")
)

// Code extracts the classification of err, defaulting to ErrCodeInternal.
func Code(err error) ErrorCode {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code
	}
	return ErrCodeInternal
}

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
