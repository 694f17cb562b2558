package types

import "fmt"

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Error code constants. All components use these constants instead of
// hardcoded strings so failures can be classified at the listener boundary.
const (
	// Transform stage
	ErrCodeTransformMissingField ErrorCode = "transform_missing_required_field"

	// Enrichment stage
	ErrCodeInternalDB ErrorCode = "internal_database_error"

	// Publish stage
	ErrCodePublishRejected    ErrorCode = "publish_validation_rejected"
	ErrCodePublishUnavailable ErrorCode = "publish_transport_unavailable"
	ErrCodePublishIncomplete  ErrorCode = "publish_result_incomplete"

	// Housekeeping
	ErrCodeQueueTransfer ErrorCode = "queue_transfer_failed"

	// Auth (admin endpoint)
	ErrCodeAuthTokenMissing ErrorCode = "auth_token_missing"
	ErrCodeAuthTokenInvalid ErrorCode = "auth_token_invalid"

	// Catch-all
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
)

// AppError is the standard application error carrying a stable code, a
// human-readable message, and an optional wrapped cause.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError with the given code, message, and
// underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
