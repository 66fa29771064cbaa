package x11

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BurntSushi/xgb/randr"

	"github.com/1broseidon/monlayout/internal/layout"
)

// Output is a RandR output as the server currently sees it.
type Output struct {
	Name      string
	Connected bool
	// Active is true when the output drives a CRTC with a mode set.
	Active bool
	// Width and Height are the unrotated mode size: the current mode when
	// active, otherwise the first preferred mode.
	Width    int
	Height   int
	X        int
	Y        int
	Rotation layout.Rotation
}

// Outputs lists every output known to the server.
func (c *Connection) Outputs() ([]Output, error) {
	conn := c.XUtil.Conn()
	resources, err := randr.GetScreenResources(conn, c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	modes := make(map[randr.Mode]randr.ModeInfo, len(resources.Modes))
	for _, m := range resources.Modes {
		modes[randr.Mode(m.Id)] = m
	}

	var outputs []Output
	for _, id := range resources.Outputs {
		info, err := randr.GetOutputInfo(conn, id, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		out := Output{
			Name:      string(info.Name),
			Connected: info.Connection == randr.ConnectionConnected,
			Rotation:  layout.RotationNormal,
		}

		if info.Crtc != 0 {
			crtc, err := randr.GetCrtcInfo(conn, info.Crtc, resources.ConfigTimestamp).Reply()
			if err == nil && crtc.Mode != 0 {
				out.Active = true
				out.X = int(crtc.X)
				out.Y = int(crtc.Y)
				out.Rotation = rotationFromRandR(crtc.Rotation)
				if m, ok := modes[crtc.Mode]; ok {
					out.Width = int(m.Width)
					out.Height = int(m.Height)
				}
			}
		}

		// Preferred modes are listed first.
		if out.Width == 0 && len(info.Modes) > 0 {
			if m, ok := modes[info.Modes[0]]; ok {
				out.Width = int(m.Width)
				out.Height = int(m.Height)
			}
		}

		outputs = append(outputs, out)
	}
	return outputs, nil
}

// ConnectedNames returns the names of connected outputs in server order.
func (c *Connection) ConnectedNames() ([]string, error) {
	outputs, err := c.Outputs()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, o := range outputs {
		if o.Connected {
			names = append(names, o.Name)
		}
	}
	return names, nil
}

func rotationFromRandR(rot uint16) layout.Rotation {
	switch {
	case rot&randr.RotationRotate90 != 0:
		return layout.RotationLeft
	case rot&randr.RotationRotate180 != 0:
		return layout.RotationInverted
	case rot&randr.RotationRotate270 != 0:
		return layout.RotationRight
	default:
		return layout.RotationNormal
	}
}

// Enumerator lists connected outputs through RandR instead of parsing text.
type Enumerator struct {
	Defaults       layout.Defaults
	PositionSource layout.PositionSource
	Logger         *slog.Logger

	connect func() (*Connection, error)
}

var _ layout.Enumerator = (*Enumerator)(nil)

// NewEnumerator returns an enumerator that opens a short-lived connection per call.
func NewEnumerator(defaults layout.Defaults, src layout.PositionSource, logger *slog.Logger) *Enumerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enumerator{
		Defaults:       defaults,
		PositionSource: src,
		Logger:         logger,
		connect:        NewConnection,
	}
}

// Enumerate implements layout.Enumerator. Failures yield an empty list.
func (e *Enumerator) Enumerate(ctx context.Context) []layout.DisplayConfig {
	if err := ctx.Err(); err != nil {
		return nil
	}
	conn, err := e.connect()
	if err != nil {
		e.Logger.Warn("display query failed", "source", "randr", "error", err)
		return nil
	}
	defer conn.Close()

	outputs, err := conn.Outputs()
	if err != nil {
		e.Logger.Warn("display query failed", "source", "randr", "error", err)
		return nil
	}
	return DisplaysFromOutputs(outputs, e.Defaults, e.PositionSource)
}

// DisplaysFromOutputs converts connected outputs into display configs.
func DisplaysFromOutputs(outputs []Output, defaults layout.Defaults, src layout.PositionSource) []layout.DisplayConfig {
	var displays []layout.DisplayConfig
	seen := make(map[string]struct{})
	for _, o := range outputs {
		if !o.Connected || o.Name == "" {
			continue
		}
		if _, dup := seen[o.Name]; dup {
			continue
		}
		seen[o.Name] = struct{}{}

		d := defaults.NewDisplay(o.Name, layout.Resolution{Width: o.Width, Height: o.Height})
		if src == layout.PositionFromServer && o.Active {
			d.Position = layout.Position{X: o.X, Y: o.Y}
			d.Rotation = o.Rotation
		}
		displays = append(displays, d)
	}
	return displays
}
