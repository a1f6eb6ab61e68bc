package utils

type AppError struct {
	Code    string
	Message string
	Origin  error // Original error that caused this error, if any
}

func (appErr *AppError) Error() string {
	if appErr.Origin != nil {
		return appErr.Message + ": " + appErr.Origin.Error()
	}
	return appErr.Message
}

// Standard error codes for the application. Handlers always respond with
// one of these so callers can branch on the kind, not the message text.
const (
	// Authentication/Authorization errors
	ErrUnauthenticated = "UNAUTHENTICATED"
	ErrForbidden       = "FORBIDDEN" // Caller is authenticated but lacks ownership or role

	// Resource errors
	ErrNotFound      = "NOT_FOUND"
	ErrAlreadyExists = "ALREADY_EXISTS"
	ErrInvalidInput  = "INVALID_INPUT"

	// Interaction/moderation errors
	ErrOperationNotAllowed = "OPERATION_NOT_ALLOWED" // Permission flag off, or action out of order
	ErrInvalidParent       = "INVALID_PARENT"        // Reply referencing a comment on another post
	ErrInvalidAction       = "INVALID_ACTION"        // Unrecognized moderation action

	ErrDatabase = "DATABASE_ERROR"
)

func NewAppError(code string, message string, originalErr error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Origin:  originalErr,
	}
}

// Specific error creators for common cases
func NewNotFoundError(what string) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: what + " not found",
	}
}

func NewUnauthenticatedError(reason string) *AppError {
	return &AppError{
		Code:    ErrUnauthenticated,
		Message: "Unauthenticated: " + reason,
	}
}

func NewDatabaseError(err error) *AppError {
	return &AppError{
		Code:    ErrDatabase,
		Message: "Database error",
		Origin:  err,
	}
}

// Helper method to check if an error is of a specific type
func IsErrorCode(err error, code string) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// AppErrorToHTTPStatus converts an AppError code to an HTTP status code.
func AppErrorToHTTPStatus(errorCode string) int {
	switch errorCode {
	case ErrNotFound:
		return 404
	case ErrInvalidInput, ErrInvalidParent, ErrInvalidAction:
		return 400
	case ErrUnauthenticated:
		return 401
	case ErrForbidden, ErrOperationNotAllowed:
		return 403
	case ErrAlreadyExists:
		return 409
	default:
		return 500
	}
}
