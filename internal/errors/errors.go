// Package errors defines the typed failures returned by repository
// operations. Every failure carries a stable code for tests and a
// human-readable message the command layer prints verbatim.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

const (
	ErrUnknown  ErrorCode = "UNKNOWN"
	ErrInternal ErrorCode = "INTERNAL"

	// Command-line usage
	ErrUsage ErrorCode = "USAGE"

	// Repository lifecycle
	ErrUninitialized      ErrorCode = "UNINITIALIZED"
	ErrAlreadyInitialized ErrorCode = "ALREADY_INITIALIZED"

	// Lookups
	ErrFileNotFound     ErrorCode = "FILE_NOT_FOUND"
	ErrNoSuchBranch     ErrorCode = "NO_SUCH_BRANCH"
	ErrNoSuchCommit     ErrorCode = "NO_SUCH_COMMIT"
	ErrFileNotInCommit  ErrorCode = "FILE_NOT_IN_COMMIT"
	ErrNoMatchingCommit ErrorCode = "NO_MATCHING_COMMIT"
	ErrAmbiguousID      ErrorCode = "AMBIGUOUS_ID"

	// Staging and committing
	ErrNothingToRemove ErrorCode = "NOTHING_TO_REMOVE"
	ErrEmptyCommit     ErrorCode = "EMPTY_COMMIT"
	ErrEmptyMessage    ErrorCode = "EMPTY_MESSAGE"

	// Branches and working tree
	ErrUntrackedOverwrite  ErrorCode = "UNTRACKED_OVERWRITE"
	ErrSameBranch          ErrorCode = "SAME_BRANCH"
	ErrBranchExists        ErrorCode = "BRANCH_EXISTS"
	ErrRemoveCurrentBranch ErrorCode = "REMOVE_CURRENT_BRANCH"
	ErrInvalidBranchName   ErrorCode = "INVALID_BRANCH_NAME"

	// Merge
	ErrSelfMerge  ErrorCode = "SELF_MERGE"
	ErrDirtyState ErrorCode = "DIRTY_STATE"
)

// Error represents a structured error with code and details
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface. Only the message is shown: it is
// what the user sees.
func (e *Error) Error() string {
	if e.Wrapped != nil && e.Code == ErrInternal {
		return fmt.Sprintf("%s: %v", e.Message, e.Wrapped)
	}
	return e.Message
}

// Unwrap implements the errors.Unwrap interface
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	var targetErr *Error
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new Error with the given code and message
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new Error with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with an Error
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	e := New(code, message)
	e.Wrapped = err
	return e
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if it is
// not an *Error
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil
func GetErrorDetails(err error) map[string]interface{} {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}
