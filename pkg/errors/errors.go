package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrInvalidInput indicates invalid input parameters (e.g. a blank message)
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates an external service is unavailable
	ErrUnavailable = errors.New("service unavailable")

	// ErrConfiguration indicates missing or invalid static configuration,
	// such as an action type with no registered handler
	ErrConfiguration = errors.New("configuration error")
)

// Analysis and workflow specific errors

var (
	// ErrParseFailure indicates model output could not be parsed.
	// The parser recovers it locally; it never crosses a package boundary.
	ErrParseFailure = errors.New("parse failure")

	// ErrBackendUnhealthy indicates the analysis backend failed its readiness probe
	ErrBackendUnhealthy = errors.New("analysis backend unhealthy")

	// ErrCycleDetected indicates a workflow dependency graph is not a DAG
	ErrCycleDetected = errors.New("dependency cycle detected")

	// ErrWorkflowNotFound indicates an unknown workflow id
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrNoDataSource indicates a market data source is not registered
	ErrNoDataSource = errors.New("data source not registered")
)

// DomainError wraps an error with a stable code and message
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
