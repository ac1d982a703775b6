package ir

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes terminal session failures.
type ErrorCode string

const (
	// ErrCodeExtractionFailure: no missing-package clause in a failure message.
	ErrCodeExtractionFailure ErrorCode = "EXTRACTION_FAILURE"

	// ErrCodeRepeatCapability: a capability recurred after being declared.
	ErrCodeRepeatCapability ErrorCode = "REPEAT_CAPABILITY"

	// ErrCodeWorkspaceFailure: the workspace could not be cleared or recreated.
	ErrCodeWorkspaceFailure ErrorCode = "WORKSPACE_FAILURE"

	// ErrCodeManifestConflict: an export attribute collides with a base attribute.
	ErrCodeManifestConflict ErrorCode = "MANIFEST_CONFLICT"

	// ErrCodeLifecycleFailure: a module did not reach the awaited state.
	ErrCodeLifecycleFailure ErrorCode = "LIFECYCLE_FAILURE"
)

// Error is a terminal resolve session failure.
//
// Every failure kind ends the session; none is retried. Step names the
// lifecycle transition that stalled for LIFECYCLE_FAILURE (install, lookup,
// resolve, update, start) and is empty otherwise.
type Error struct {
	Code    ErrorCode
	Message string
	Step    string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Step != "" {
		msg = fmt.Sprintf("%s: %s (step=%s)", e.Code, e.Message, e.Step)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the chained cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsCode reports whether err (or anything it wraps) is an *Error with code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the ErrorCode of err, or "" if err is not an *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// NewExtractionError reports a failure message with no actionable clause.
func NewExtractionError(cause error) *Error {
	return &Error{
		Code:    ErrCodeExtractionFailure,
		Message: "no actionable dependency found",
		Err:     cause,
	}
}

// NewRepeatError reports a capability that was already exported.
func NewRepeatError(c Capability, cause error) *Error {
	return &Error{
		Code:    ErrCodeRepeatCapability,
		Message: fmt.Sprintf("exporting package %s did not satisfy the dependency", c),
		Err:     cause,
	}
}

// NewWorkspaceError reports a workspace directory that could not be prepared.
func NewWorkspaceError(dir string, cause error) *Error {
	return &Error{
		Code:    ErrCodeWorkspaceFailure,
		Message: fmt.Sprintf("cannot prepare workspace %q", dir),
		Err:     cause,
	}
}

// NewManifestConflictError reports an attribute key already in the base set.
func NewManifestConflictError(key string) *Error {
	return &Error{
		Code:    ErrCodeManifestConflict,
		Message: fmt.Sprintf("manifest attribute %q collides with a base attribute", key),
	}
}

// NewLifecycleError reports a module that stalled during step.
func NewLifecycleError(step, reason string, cause error) *Error {
	return &Error{
		Code:    ErrCodeLifecycleFailure,
		Message: reason,
		Step:    step,
		Err:     cause,
	}
}

// FailureMessage is a failure message surfaced from the installer, kept as a
// cause so the original diagnostics stay attached to terminal errors.
type FailureMessage string

func (m FailureMessage) Error() string {
	return "install failed: " + string(m)
}
