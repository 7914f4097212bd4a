package core

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrPreCommandFailed     ErrorCode = "PRECOMMAND_FAILED"
	ErrCreateFailed         ErrorCode = "CREATE_FAILED"
	ErrListFailed           ErrorCode = "LIST_FAILED"
	ErrListParseFailed      ErrorCode = "LIST_PARSE_FAILED"
	ErrListMissingSnapshots ErrorCode = "LIST_MISSING_SNAPSHOTS"
	ErrDeleteFailed         ErrorCode = "DELETE_FAILED"
	ErrUsage                ErrorCode = "USAGE"
	ErrConfig               ErrorCode = "CONFIG"
	ErrInternal             ErrorCode = "INTERNAL"
)

// ExitCode returns the process exit status for this error code.
func (e ErrorCode) ExitCode() int {
	switch e {
	case ErrPreCommandFailed:
		return 1
	case ErrCreateFailed:
		return 2
	case ErrListFailed:
		return 3
	case ErrListParseFailed:
		return 4
	case ErrListMissingSnapshots:
		return 5
	case ErrDeleteFailed:
		return 6
	case ErrUsage:
		return 7
	case ErrConfig:
		return 8
	default:
		return 9
	}
}

type AppError struct {
	Code    ErrorCode
	Message string
	// Output is the combined stdout/stderr of the failing command, if any.
	Output string
	Err    error
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

func NewAppError(code ErrorCode, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// WrapAppError attaches a cause and the command output to a new AppError.
func WrapAppError(code ErrorCode, msg string, err error, output []byte) *AppError {
	return &AppError{Code: code, Message: msg, Err: err, Output: string(output)}
}

// ExitCodeOf maps any error returned by a run to a process exit status.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code.ExitCode()
	}
	return ErrInternal.ExitCode()
}

// CodeOf returns the ErrorCode carried by err, or ErrInternal.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}
