package model

import "fmt"

// Standard error codes.
const (
	ErrBadRequest      = "BAD_REQUEST"
	ErrNotFound        = "NOT_FOUND"
	ErrConflict        = "CONFLICT"
	ErrValidationError = "VALIDATION_ERROR"
	ErrResolutionError = "RESOLUTION_ERROR"
	ErrRenderFailed    = "RENDER_FAILED"
	ErrInternalError   = "INTERNAL_ERROR"
)

// ErrorEnvelope is the standard error shape returned by the service. It
// implements the error interface.
type ErrorEnvelope struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details []ValidationIssue `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *ErrorEnvelope) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBadRequestError returns a BAD_REQUEST error.
func NewBadRequestError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrBadRequest, Message: msg}
}

// NewNotFoundError returns a NOT_FOUND error.
func NewNotFoundError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrNotFound, Message: msg}
}

// NewConflictError returns a CONFLICT error.
func NewConflictError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrConflict, Message: msg}
}

// NewValidationError returns a VALIDATION_ERROR with per-issue details.
func NewValidationError(details []ValidationIssue) *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrValidationError,
		Message: "The layout configuration is invalid",
		Details: details,
	}
}

// NewResolutionError returns a RESOLUTION_ERROR. Resolution failures indicate
// a build or configuration defect, not user-supplied data, so callers are
// expected to fail loudly on them.
func NewResolutionError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrResolutionError, Message: msg}
}

// NewRenderFailedError returns a RENDER_FAILED error.
func NewRenderFailedError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrRenderFailed, Message: msg}
}

// NewInternalError returns an INTERNAL_ERROR.
func NewInternalError() *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrInternalError,
		Message: "An unexpected error occurred",
	}
}
