package domain

import "errors"

// ErrorCode is a stable machine-readable code clients may branch on.
type ErrorCode string

const (
	CodeRateLimitExceeded       ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeInvalidInput            ErrorCode = "INVALID_INPUT"
	CodeTopicTooLong            ErrorCode = "TOPIC_TOO_LONG"
	CodeInvalidImage            ErrorCode = "INVALID_IMAGE"
	CodeImageTooLarge           ErrorCode = "IMAGE_TOO_LARGE"
	CodeContentFlagged          ErrorCode = "CONTENT_FLAGGED"
	CodeGeneratedContentFlagged ErrorCode = "GENERATED_CONTENT_FLAGGED"
	CodeGenerationFailed        ErrorCode = "GENERATION_FAILED"
)

// Error is the wire-level error detail. Retryable tells the client whether
// resubmitting the same request can succeed.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
}

// ErrorResponse is the failure envelope shared by all endpoints.
type ErrorResponse struct {
	Success bool  `json:"success"`
	Error   Error `json:"error"`
}

// Error implements the error interface so details travel through ordinary
// error returns.
func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// NewError builds an error detail value.
func NewError(code ErrorCode, message string, retryable bool) *Error {
	return &Error{Code: code, Message: message, Retryable: retryable}
}

// AsError extracts the wire-level detail from an error chain, defaulting to a
// retryable generation failure for anything unclassified.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewError(CodeGenerationFailed, "meme generation failed, please try again", true)
}

// Envelope wraps the error detail into the response shape.
func (e *Error) Envelope() ErrorResponse {
	return ErrorResponse{Success: false, Error: *e}
}
