package core

// StepStatus represents the execution status of a scenario or one of its steps
type StepStatus int

const (
	StatusPending   StepStatus = iota // Not yet started
	StatusRunning                     // Currently executing
	StatusPassed                      // Completed successfully
	StatusFailed                      // Assertion failed (expected behavior didn't occur)
	StatusErrored                     // Unexpected error (session, infrastructure)
	StatusSkipped                     // Filtered out or previous step failed
	StatusWarned                      // Optional step failed (non-blocking)
)

// String returns the string representation of StepStatus
func (s StepStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusErrored:
		return "errored"
	case StatusSkipped:
		return "skipped"
	case StatusWarned:
		return "warned"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if the status is a final state
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusErrored, StatusSkipped, StatusWarned:
		return true
	default:
		return false
	}
}

// IsSuccess returns true if the status indicates success (passed or warned)
func (s StepStatus) IsSuccess() bool {
	return s == StatusPassed || s == StatusWarned
}

// ErrorCategory classifies the type of error for better debugging and reporting
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryAssertion                       // Scenario check failed, text mismatch
	ErrCategoryNotFound                        // No candidate locator matched
	ErrCategoryTimeout                         // Wait condition or page load timed out
	ErrCategoryRetry                           // Action failed on every permitted attempt
	ErrCategorySession                         // Automation session not created or lost
	ErrCategoryValidation                      // App showed an unexpected validation message
	ErrCategoryConfig                          // Invalid configuration, missing required field
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryAssertion:
		return "assertion"
	case ErrCategoryNotFound:
		return "not_found"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategoryRetry:
		return "retry_exhausted"
	case ErrCategorySession:
		return "session"
	case ErrCategoryValidation:
		return "validation"
	case ErrCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}
