package dto

// APIError represents a structured error response.
// All error responses from the API use this format for consistency.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes
const (
	ErrCodeNotFound      = "not_found"
	ErrCodeForbidden     = "forbidden"
	ErrCodeConflict      = "conflict"
	ErrCodeBadRequest    = "bad_request"
	ErrCodeUnauthorized  = "unauthorized"
	ErrCodeInternalError = "internal_error"
	ErrCodeValidation    = "validation_error"
)

// NewAPIError creates a new APIError with the given code and message.
func NewAPIError(code, message string) APIError {
	return APIError{
		Code:    code,
		Message: message,
	}
}

// NotFoundError creates a not found error response.
func NotFoundError(resource string) APIError {
	return NewAPIError(ErrCodeNotFound, resource+" not found")
}

// ForbiddenError creates a forbidden error response. The message is
// deliberately generic: it must not reveal whether the record exists.
func ForbiddenError() APIError {
	return NewAPIError(ErrCodeForbidden, "access denied")
}

// ConflictError creates a conflict error response.
func ConflictError(message string) APIError {
	return NewAPIError(ErrCodeConflict, message)
}

// BadRequestError creates a bad request error response.
func BadRequestError(message string) APIError {
	return NewAPIError(ErrCodeBadRequest, message)
}

// UnauthorizedError creates an unauthorized error response.
func UnauthorizedError() APIError {
	return NewAPIError(ErrCodeUnauthorized, "missing or invalid X-User-ID header")
}

// InternalError creates an internal server error response.
func InternalError() APIError {
	return NewAPIError(ErrCodeInternalError, "an internal error occurred")
}

// ValidationError creates a validation error response.
func ValidationError(message string) APIError {
	return NewAPIError(ErrCodeValidation, message)
}
