package xrandr

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/1broseidon/monlayout/internal/layout"
)

// Enumerator lists connected outputs by parsing the query tool's text output.
type Enumerator struct {
	Command        string
	Defaults       layout.Defaults
	PositionSource layout.PositionSource
	Runner         Runner
	Logger         *slog.Logger
	// Timeout bounds the query invocation. Zero means no limit.
	Timeout time.Duration
}

var _ layout.Enumerator = (*Enumerator)(nil)

// NewEnumerator returns an enumerator that runs command with no arguments.
func NewEnumerator(command string, defaults layout.Defaults, logger *slog.Logger) *Enumerator {
	if strings.TrimSpace(command) == "" {
		command = DefaultCommand
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enumerator{
		Command:        command,
		Defaults:       defaults,
		PositionSource: layout.PositionFromDefaults,
		Runner:         ExecRunner{},
		Logger:         logger,
	}
}

// Enumerate implements layout.Enumerator. A missing or failing tool yields an
// empty list and a log line.
func (e *Enumerator) Enumerate(ctx context.Context) []layout.DisplayConfig {
	out, err := runOnce(ctx, e.Runner, e.Timeout, e.Command)
	if err != nil {
		e.Logger.Warn("display query failed", "command", e.Command, "error", asToolError(e.Command, nil, err))
		return nil
	}
	displays := ParseOutputs(string(out), e.Defaults, e.PositionSource)
	e.Logger.Debug("displays enumerated", "command", e.Command, "count", len(displays))
	return displays
}

// ParseOutputs extracts connected outputs from xrandr's listing. Lines that
// do not look like a connected output header are skipped; nothing here fails.
//
// The resolution is the first "WxH[+X+Y]" token from the third field on,
// which covers both "eDP-1 connected 1920x1080+0+0 (...)" and
// "eDP-1 connected primary 1920x1080+0+0 (...)". Lines with fewer than four
// fields, or with no geometry token, get the default resolution.
func ParseOutputs(out string, defaults layout.Defaults, src layout.PositionSource) []layout.DisplayConfig {
	var displays []layout.DisplayConfig
	seen := make(map[string]struct{})

	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, " connected") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		name := fields[0]
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		d := defaults.NewDisplay(name, defaults.Resolution)
		if len(fields) >= 4 {
			applyGeometry(&d, fields[2:], src)
		}
		displays = append(displays, d)
	}
	return displays
}

// applyGeometry takes the first geometry token in fields. xrandr prints the
// rotated size, so a left or right rotation is swapped back to the mode size
// whatever the position source.
func applyGeometry(d *layout.DisplayConfig, fields []string, src layout.PositionSource) {
	for i, tok := range fields {
		if strings.HasPrefix(tok, "(") {
			return
		}
		res, pos, err := layout.ParseGeometry(tok)
		if err != nil {
			continue
		}
		rot := layout.RotationNormal
		if i+1 < len(fields) {
			if r, err := layout.ParseRotation(fields[i+1]); err == nil {
				rot = r
			}
		}
		if rot == layout.RotationLeft || rot == layout.RotationRight {
			res = layout.Resolution{Width: res.Height, Height: res.Width}
		}
		d.Resolution = res
		if src != layout.PositionFromServer {
			return
		}
		d.Rotation = rot
		if strings.ContainsAny(tok, "+-") {
			d.Position = pos
		}
		return
	}
}
