// Package xrandr queries and configures X outputs through the xrandr tool.
package xrandr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultCommand is the tool used for both querying and configuring.
const DefaultCommand = "xrandr"

// Runner executes an external command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec. Arguments are passed as argv, never
// through a shell.
type ExecRunner struct{}

// Run implements Runner. A failure is returned as a *ToolError.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), &ToolError{
			Command:  name,
			Args:     args,
			ExitCode: exitCode(err),
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
	}
	return stdout.Bytes(), nil
}

// runOnce runs a single invocation. A positive timeout bounds that
// invocation only.
func runOnce(ctx context.Context, r Runner, timeout time.Duration, name string, args ...string) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return r.Run(ctx, name, args...)
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// ToolError reports that the query or configuration tool is missing or
// exited non-zero. It is always recoverable.
type ToolError struct {
	Command  string
	Args     []string
	ExitCode int // -1 when the process never ran
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	if errors.Is(e.Err, exec.ErrNotFound) {
		return fmt.Sprintf("%s: command not found", e.Command)
	}
	msg := fmt.Sprintf("%s failed", e.Command)
	if e.ExitCode >= 0 {
		msg = fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
	}
	if e.Stderr != "" {
		return msg + ": " + e.Stderr
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

// CommandLine renders the invocation for log lines and status messages.
func (e *ToolError) CommandLine() string {
	return strings.Join(append([]string{e.Command}, e.Args...), " ")
}

func asToolError(name string, args []string, err error) error {
	if err == nil {
		return nil
	}
	var te *ToolError
	if errors.As(err, &te) {
		return te
	}
	return &ToolError{Command: name, Args: args, ExitCode: -1, Err: err}
}
