package errors

import "fmt"

// ErrorCode represents a recap error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrNoRepository   ErrorCode = "NO_REPOSITORY"   // 404
	ErrModelFailure   ErrorCode = "MODEL_FAILURE"   // 502
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// RecapError represents a structured error with code, status, and details.
type RecapError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *RecapError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *RecapError {
	return &RecapError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a capsule cannot be found.
func NewNotFound(identifier string) *RecapError {
	return &RecapError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("capsule not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewNoRepository creates a 404 error for paths that are not git repositories.
func NewNoRepository(path string) *RecapError {
	return &RecapError{
		Code:    ErrNoRepository,
		Status:  404,
		Message: fmt.Sprintf("not a git repository: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewModelFailure creates a 502 error for model transport failures.
// Callers are expected to recover via the rule-based fallback; this error
// exists for diagnostics, not for propagation.
func NewModelFailure(err error) *RecapError {
	msg := "model call failed"
	if err != nil {
		msg = err.Error()
	}
	return &RecapError{
		Code:    ErrModelFailure,
		Status:  502,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *RecapError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &RecapError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a RecapError with the given code.
func Is(err error, code ErrorCode) bool {
	if rErr, ok := err.(*RecapError); ok {
		return rErr.Code == code
	}
	return false
}
