package xrandr

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/1broseidon/monlayout/internal/layout"
)

// Applier drives outputs to a layout through the configuration tool.
type Applier struct {
	Command string
	Runner  Runner
	Logger  *slog.Logger
	// Timeout bounds each tool invocation. Zero means no limit.
	Timeout time.Duration
}

var _ layout.Applier = (*Applier)(nil)

// NewApplier returns an applier that invokes command.
func NewApplier(command string, logger *slog.Logger) *Applier {
	if strings.TrimSpace(command) == "" {
		command = DefaultCommand
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{
		Command: command,
		Runner:  ExecRunner{},
		Logger:  logger,
	}
}

// ApplyArgs builds the argument vector for a batched apply. Each display
// contributes a mode/rotate group followed by a position group.
func ApplyArgs(displays []layout.DisplayConfig) []string {
	args := make([]string, 0, len(displays)*10)
	for _, d := range displays {
		rot := d.Rotation
		if rot == "" {
			rot = layout.RotationNormal
		}
		args = append(args,
			"--output", d.Name, "--mode", d.Resolution.String(), "--rotate", string(rot),
			"--output", d.Name, "--pos", d.Position.String(),
		)
	}
	return args
}

// Apply submits every directive for every display in a single invocation so
// the server computes one consistent target state. An empty list is a no-op.
func (a *Applier) Apply(ctx context.Context, displays []layout.DisplayConfig) error {
	if len(displays) == 0 {
		return nil
	}
	args := ApplyArgs(displays)
	if _, err := runOnce(ctx, a.Runner, a.Timeout, a.Command, args...); err != nil {
		return asToolError(a.Command, args, err)
	}
	a.Logger.Info("layout applied", "displays", len(displays))
	return nil
}

// Reset asks each output for its preferred mode and normal rotation. The two
// directives per output run as separate invocations; a failure is recorded
// and the remaining directives still run.
func (a *Applier) Reset(ctx context.Context, displays []layout.DisplayConfig) error {
	var errs []error
	for _, d := range displays {
		for _, args := range [][]string{
			{"--output", d.Name, "--auto"},
			{"--output", d.Name, "--rotate", string(layout.RotationNormal)},
		} {
			if _, err := runOnce(ctx, a.Runner, a.Timeout, a.Command, args...); err != nil {
				err = asToolError(a.Command, args, err)
				a.Logger.Warn("reset directive failed", "output", d.Name, "args", strings.Join(args, " "), "error", err)
				errs = append(errs, err)
			}
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	a.Logger.Info("layout reset", "displays", len(displays))
	return nil
}
