package system

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// commandRunner runs one external command and returns its stdout. An
// interface so tests can substitute canned output for xbps invocations.
type commandRunner interface {
	run(ctx context.Context, name string, args ...string) (string, error)
}

// execRunner shells out with a per-invocation timeout.
type execRunner struct {
	timeout time.Duration
}

func (r execRunner) run(ctx context.Context, name string, args ...string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// A process killed on deadline reports "signal: killed", which
		// does not wrap the context error. Join it back in so the
		// failure classifies as transient.
		if ctx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
		}
		op := name + " " + strings.Join(args, " ")
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.String(), classifyFailure(op, &commandError{err: err, stderr: msg})
		}
		return stdout.String(), classifyFailure(op, err)
	}
	return stdout.String(), nil
}

// commandError keeps captured stderr attached to the exec error.
type commandError struct {
	err    error
	stderr string
}

func (e *commandError) Error() string { return e.err.Error() + ": " + e.stderr }
func (e *commandError) Unwrap() error { return e.err }
