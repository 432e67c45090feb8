package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies an application error.
type ErrorType uint

const (
	// ErrorTypeUnknown represents an unclassified error
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeInvalidArgument represents malformed or out-of-range input
	ErrorTypeInvalidArgument
	// ErrorTypeNotFound represents a missing entity
	ErrorTypeNotFound
	// ErrorTypeAlreadyExists represents a uniqueness violation
	ErrorTypeAlreadyExists
	// ErrorTypeInsufficientData represents a series too short to compute on
	ErrorTypeInsufficientData
	// ErrorTypeUnavailable represents an unreachable collaborator
	ErrorTypeUnavailable
	// ErrorTypeTimeout represents a deadline exceeded
	ErrorTypeTimeout
	// ErrorTypeInternal represents an internal failure
	ErrorTypeInternal
)

// AppError carries a type alongside the message and an optional cause.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
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

// New creates an unclassified error.
func New(message string) error {
	return &AppError{Type: ErrorTypeUnknown, Message: message}
}

// Newf creates an unclassified error from a format string.
func Newf(format string, args ...interface{}) error {
	return &AppError{Type: ErrorTypeUnknown, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a message, preserving its type if it is an AppError.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{Type: appErr.Type, Message: message, Err: err}
	}
	return &AppError{Type: ErrorTypeUnknown, Message: message, Err: err}
}

// Wrapf annotates err with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// TypeOf returns the classification of err, or ErrorTypeUnknown when err is
// not an AppError.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	return TypeOf(err) == t
}

// InvalidArgument creates an InvalidArgument error.
func InvalidArgument(message string) error {
	return &AppError{Type: ErrorTypeInvalidArgument, Message: message}
}

// NotFound creates a NotFound error.
func NotFound(message string) error {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

// AlreadyExists creates an AlreadyExists error.
func AlreadyExists(message string) error {
	return &AppError{Type: ErrorTypeAlreadyExists, Message: message}
}

// InsufficientData creates an InsufficientData error.
func InsufficientData(message string) error {
	return &AppError{Type: ErrorTypeInsufficientData, Message: message}
}

// Unavailable creates an Unavailable error.
func Unavailable(message string) error {
	return &AppError{Type: ErrorTypeUnavailable, Message: message}
}

// Timeout creates a Timeout error.
func Timeout(message string) error {
	return &AppError{Type: ErrorTypeTimeout, Message: message}
}

// Internal creates an Internal error.
func Internal(message string) error {
	return &AppError{Type: ErrorTypeInternal, Message: message}
}
