package core

import (
	"fmt"
	"strings"
	"time"
)

// NotFoundError reports that no candidate locator matched within its timeout.
type NotFoundError struct {
	Name     string   // Logical element name, e.g. "login.username"
	Locators []string // Every locator tried, in order
	Cause    error    // Last lookup error, if any
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("element %q not found (tried %s)", e.Name, strings.Join(e.Locators, ", "))
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *NotFoundError) Unwrap() error { return e.Cause }

// Is matches ErrElementNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrElementNotFound
}

// TimeoutError reports that a wait predicate never became true.
type TimeoutError struct {
	What    string        // Description of what was awaited
	Timeout time.Duration // Configured limit; 0 for a single attempt
	Elapsed time.Duration // Time spent waiting, at most Timeout
	LastErr error         // Last error observed from the predicate
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("timed out after %v waiting for %s", e.Elapsed.Round(time.Millisecond), e.What)
	if e.Timeout > 0 {
		msg = fmt.Sprintf("timed out after %v (timeout %v) waiting for %s", e.Elapsed.Round(time.Millisecond), e.Timeout, e.What)
	}
	if e.LastErr != nil {
		return msg + ": " + e.LastErr.Error()
	}
	return msg
}

func (e *TimeoutError) Unwrap() error { return e.LastErr }

// Is matches ErrWaitTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrWaitTimeout
}
