package system

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// FailureClass classifies an execution failure for retry decisions.
type FailureClass string

const (
	// FailureTransient covers timeouts and network failures; the same
	// action may succeed on retry.
	FailureTransient FailureClass = "transient"

	// FailurePermanent covers everything that retrying cannot fix:
	// unknown packages, build failures, permission errors.
	FailurePermanent FailureClass = "permanent"
)

// ExecutionFailure is a classified subprocess or query failure.
type ExecutionFailure struct {
	Class     FailureClass
	Operation string
	Err       error
}

// Error implements the error interface.
func (e *ExecutionFailure) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Class, e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExecutionFailure) Unwrap() error { return e.Err }

// Retryable reports whether the failure class permits a retry.
func (e *ExecutionFailure) Retryable() bool { return e.Class == FailureTransient }

// classifyFailure wraps a command error with a failure class. Deadline
// overruns are transient; a command that ran and exited nonzero is
// permanent.
func classifyFailure(operation string, err error) *ExecutionFailure {
	class := FailureTransient
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && !errors.Is(err, context.DeadlineExceeded) {
		class = FailurePermanent
	}
	return &ExecutionFailure{Class: class, Operation: operation, Err: err}
}
