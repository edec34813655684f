package models

import "fmt"

// ErrorCode is a stable machine-readable code surfaced alongside every
// user-visible failure.
type ErrorCode string

const (
	// Ingestion codes
	CodeDocNotFound      ErrorCode = "DOC_NOT_FOUND"
	CodeExtractionFailed ErrorCode = "EXTRACTION_FAILED"
	CodeProcessingFailed ErrorCode = "PROCESSING_FAILED"
	CodeProcessingError  ErrorCode = "PROCESSING_ERROR"

	// Scrape validation codes
	CodeInvalidURL       ErrorCode = "INVALID_URL"
	CodeDomainNotAllowed ErrorCode = "DOMAIN_NOT_ALLOWED"

	// Generation codes
	CodeQueryMissing          ErrorCode = "QUERY_MISSING"
	CodeQueryTooShort         ErrorCode = "QUERY_TOO_SHORT"
	CodeQueryTooLong          ErrorCode = "QUERY_TOO_LONG"
	CodeClassificationMissing ErrorCode = "CLASSIFICATION_MISSING"
	CodeRateLimit             ErrorCode = "RATE_LIMIT"
	CodeQuotaExceeded         ErrorCode = "QUOTA_EXCEEDED"
	CodeResponseError         ErrorCode = "RESPONSE_ERROR"
)

// AppError carries a stable code and a human-readable message across the
// service boundary. The wrapped cause is for internal logging only and is
// never serialized to callers.
type AppError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Err       error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a non-retryable coded error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewRetryableError creates a coded error the caller may retry. The core
// never retries automatically; transient provider failures are surfaced
// with Retryable set and the decision is left to the caller.
func NewRetryableError(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Retryable: true, Err: err}
}

// ValidationError represents a field-level validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ErrorResponse is the wire shape for every failure.
type ErrorResponse struct {
	Error string    `json:"error"`
	Code  ErrorCode `json:"code"`
}
