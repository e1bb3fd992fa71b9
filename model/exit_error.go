package model

import (
	"errors"
	"fmt"
)

// ExitError carries the process exit code a command wants back up to main,
// so deferred cleanup still runs before the process exits.
type ExitError struct {
	Code ExitCode
	Err  error
}

func (e *ExitError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %v", e.Code.String(), e.Err)
}

func (e *ExitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewExitError constructs an ExitError with the provided code and cause.
func NewExitError(code ExitCode, err error) *ExitError {
	return &ExitError{Code: code, Err: err}
}

// ExitCodeFromError extracts the exit code from anywhere in err's chain.
// Errors without one map to UnknownError.
func ExitCodeFromError(err error) (ExitCode, error) {
	if err == nil {
		return NoError, nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, exitErr.Err
	}
	return UnknownError, err
}
