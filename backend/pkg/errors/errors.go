package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeNotFound represents references to unknown parts
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeDuplicateName represents name collisions on create
	ErrorTypeDuplicateName ErrorType = "duplicate_name"
	// ErrorTypeValidation represents malformed input
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeCycle represents edge changes that would close a cycle
	ErrorTypeCycle ErrorType = "cycle"
	// ErrorTypeInternal represents broken graph invariants
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeStore represents durable store failures
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// As lets errors.As reach the BaseError embedded in the typed errors below
func (e *BaseError) As(target any) bool {
	if t, ok := target.(**BaseError); ok {
		*t = e
		return true
	}
	return false
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Graph Errors

// ErrPartNotFound is returned when an operation references an unknown part
type ErrPartNotFound struct {
	*BaseError
	ID string
}

func NewPartNotFound(id string) *ErrPartNotFound {
	return &ErrPartNotFound{
		BaseError: NewBaseError(ErrorTypeNotFound, fmt.Sprintf("part does not exist: %s", id), nil),
		ID:        id,
	}
}

// ErrDuplicateName is returned when a live part already uses the name
type ErrDuplicateName struct {
	*BaseError
	Name string
	ID   string
}

func NewDuplicateName(name, existingID string) *ErrDuplicateName {
	return &ErrDuplicateName{
		BaseError: NewBaseError(ErrorTypeDuplicateName, fmt.Sprintf("part name already in use: %q (id: %s)", name, existingID), nil),
		Name:      name,
		ID:        existingID,
	}
}

// ErrValidation is returned for rejected input
type ErrValidation struct {
	*BaseError
	Field  string
	Reason string
}

func NewValidation(field, reason string) *ErrValidation {
	return &ErrValidation{
		BaseError: NewBaseError(ErrorTypeValidation, fmt.Sprintf("invalid %s: %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// ErrCycleDetected is returned when adding parent -> child would make parent
// its own ancestor
type ErrCycleDetected struct {
	*BaseError
	Parent string
	Child  string
}

func NewCycleDetected(parent, child string) *ErrCycleDetected {
	return &ErrCycleDetected{
		BaseError: NewBaseError(ErrorTypeCycle, fmt.Sprintf("cycle detected, part has child in its parental line (parent: %s, child: %s)", parent, child), nil),
		Parent:    parent,
		Child:     child,
	}
}

// ErrInternal signals a broken graph invariant. It is a programming error,
// not something a caller can fix by changing input.
type ErrInternal struct {
	*BaseError
}

func NewInternal(message string, err error) *ErrInternal {
	return &ErrInternal{
		BaseError: NewBaseError(ErrorTypeInternal, message, err),
	}
}

// Store Errors

// ErrStoreFailed is returned when a durable store load or save fails
type ErrStoreFailed struct {
	*BaseError
	Backend string
	Op      string
}

func NewStoreFailed(backend, op string, err error) *ErrStoreFailed {
	return &ErrStoreFailed{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("%s %s failed", backend, op), err),
		Backend:   backend,
		Op:        op,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// TypeOf returns the category of the first BaseError in err's chain, or ""
// when err carries none.
func TypeOf(err error) ErrorType {
	var base *BaseError
	if stderrors.As(err, &base) {
		return base.Type
	}
	return ""
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}
	return TypeOf(err) == errType
}

// IsRetryable checks if an error is retryable. Graph errors are deterministic
// outcomes of the input, so only store failures qualify.
func IsRetryable(err error) bool {
	return IsErrorType(err, ErrorTypeStore)
}
