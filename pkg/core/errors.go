package core

import (
	"errors"
	"fmt"
)

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: element_not_found, wait_timeout, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is matches another ExecutionError with the same code, so copies made with
// WithCause/WithMessage still match the predefined error they came from.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Predefined errors
var (
	// Lookup errors
	ErrElementNotFound = &ExecutionError{
		Category: ErrCategoryNotFound,
		Code:     "element_not_found",
		Message:  "element not found",
	}

	// Timeout errors
	ErrWaitTimeout = &ExecutionError{
		Category: ErrCategoryTimeout,
		Code:     "wait_timeout",
		Message:  "wait condition timed out",
	}
	ErrPageNotLoaded = &ExecutionError{
		Category: ErrCategoryTimeout,
		Code:     "page_not_loaded",
		Message:  "page did not load",
	}

	// Retry errors
	ErrRetryExhausted = &ExecutionError{
		Category: ErrCategoryRetry,
		Code:     "retry_exhausted",
		Message:  "all retry attempts failed",
	}

	// Session errors
	ErrSessionNotCreated = &ExecutionError{
		Category: ErrCategorySession,
		Code:     "session_not_created",
		Message:  "could not create automation session",
	}
	ErrSessionLost = &ExecutionError{
		Category: ErrCategorySession,
		Code:     "session_lost",
		Message:  "automation session lost",
	}
	ErrServerUnreachable = &ExecutionError{
		Category: ErrCategorySession,
		Code:     "server_unreachable",
		Message:  "could not connect to automation server",
	}

	// Assertion errors
	ErrConditionNotMet = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "condition_not_met",
		Message:  "condition was not met",
	}
	ErrTextMismatch = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "text_mismatch",
		Message:  "text does not match expected value",
	}
	ErrValidationMessage = &ExecutionError{
		Category: ErrCategoryValidation,
		Code:     "validation_message",
		Message:  "unexpected validation message",
	}

	// Config errors
	ErrInvalidConfig = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}
	ErrMissingRequired = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "missing_required",
		Message:  "missing required field",
	}
)

// NewExecutionError creates a new ExecutionError with the given parameters
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// CategoryOf classifies err by the outermost categorized error in its chain.
// Unknown errors are reported as assertion failures since they come from
// scenario checks.
func CategoryOf(err error) ErrorCategory {
	if err == nil {
		return ErrCategoryNone
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		switch v := e.(type) {
		case *ExecutionError:
			return v.Category
		case *NotFoundError:
			return ErrCategoryNotFound
		case *TimeoutError:
			return ErrCategoryTimeout
		}
	}
	return ErrCategoryAssertion
}
