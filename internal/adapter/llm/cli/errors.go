package cli

import "fmt"

// ErrorType represents the category of failure for a CLI invocation.
type ErrorType int

const (
	ErrTypeTimeout ErrorType = iota
	ErrTypeRateLimit
	ErrTypeTool
	ErrTypeMalformedResponse
	ErrTypeUnknown
)

// String returns a human-readable description of the error type.
func (e ErrorType) String() string {
	switch e {
	case ErrTypeTimeout:
		return "process timeout"
	case ErrTypeRateLimit:
		return "rate limit exceeded"
	case ErrTypeTool:
		return "tool reported error"
	case ErrTypeMalformedResponse:
		return "malformed response"
	case ErrTypeUnknown:
		return "unknown error"
	default:
		return "unknown error"
	}
}

// Error represents a CLI invocation failure with classification context.
type Error struct {
	Type      ErrorType
	Message   string
	ExitCode  int
	Retryable bool
	Tool      string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s (exit: %d)", e.Tool, e.Type.String(), e.Message, e.ExitCode)
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsRetryable returns true if the error is retryable.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewTimeoutError creates an error for a hard-killed invocation.
func NewTimeoutError(tool, message string) *Error {
	return &Error{
		Type:      ErrTypeTimeout,
		Message:   message,
		ExitCode:  -1,
		Retryable: true,
		Tool:      tool,
	}
}

// NewRateLimitError creates an error for a transient rate-limit failure.
func NewRateLimitError(tool, message string) *Error {
	return &Error{
		Type:      ErrTypeRateLimit,
		Message:   message,
		Retryable: true,
		Tool:      tool,
	}
}

// NewToolError creates an error for a non-zero exit. Retryability is decided
// separately by a Classifier over the message content.
func NewToolError(tool, message string, exitCode int) *Error {
	return &Error{
		Type:      ErrTypeTool,
		Message:   message,
		ExitCode:  exitCode,
		Retryable: false,
		Tool:      tool,
	}
}

// NewMalformedResponseError creates an error for unparseable tool output.
func NewMalformedResponseError(tool, message string) *Error {
	return &Error{
		Type:      ErrTypeMalformedResponse,
		Message:   message,
		Retryable: false,
		Tool:      tool,
	}
}

// NewUnknownError creates an error for any other invocation fault.
func NewUnknownError(tool, message string) *Error {
	return &Error{
		Type:      ErrTypeUnknown,
		Message:   message,
		Retryable: false,
		Tool:      tool,
	}
}
