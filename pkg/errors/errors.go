package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a referenced entity does not exist
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeSchedulingConflict indicates a requested interval overlaps an
	// existing reservation for the same veterinarian
	ErrorTypeSchedulingConflict ErrorType = "SCHEDULING_CONFLICT"

	// ErrorTypeInvalidTransition indicates an appointment state machine
	// precondition was violated
	ErrorTypeInvalidTransition ErrorType = "INVALID_TRANSITION"

	// ErrorTypeInsufficientStock indicates a usage quantity exceeds the
	// available stock of a drug
	ErrorTypeInsufficientStock ErrorType = "INSUFFICIENT_STOCK"

	// ErrorTypeBusy indicates lock or transaction acquisition timed out;
	// transient, safe to retry with backoff
	ErrorTypeBusy ErrorType = "BUSY"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from an external service
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error for an entity id
func NewNotFoundError(entity, id string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: fmt.Sprintf("%s %s not found", entity, id),
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewSchedulingConflictError creates a new scheduling conflict error
func NewSchedulingConflictError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeSchedulingConflict,
		Message: message,
	}
}

// NewInvalidTransitionError creates a new invalid transition error
func NewInvalidTransitionError(from, to string) *AppError {
	return &AppError{
		Type:    ErrorTypeInvalidTransition,
		Message: fmt.Sprintf("cannot transition appointment from %s to %s", from, to),
	}
}

// NewInsufficientStockError creates a new insufficient stock error carrying
// the quantity currently available
func NewInsufficientStockError(drugName string, available int) *AppError {
	return &AppError{
		Type:    ErrorTypeInsufficientStock,
		Message: fmt.Sprintf("insufficient stock for %s: %d available", drugName, available),
	}
}

// NewBusyError creates a new busy error for a contended resource
func NewBusyError(resource string) *AppError {
	return &AppError{
		Type:    ErrorTypeBusy,
		Message: fmt.Sprintf("%s is busy, retry later", resource),
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}

// IsType reports whether err is an AppError of the given type anywhere in
// its chain
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// TypeOf returns the error type of err, defaulting to ErrorTypeInternal for
// errors that are not AppErrors
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}
