package layout

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Rotation is the orientation of an output as understood by xrandr --rotate.
type Rotation string

const (
	RotationNormal   Rotation = "normal"
	RotationLeft     Rotation = "left"
	RotationRight    Rotation = "right"
	RotationInverted Rotation = "inverted"
)

// Valid reports whether r is one of the four known rotations.
func (r Rotation) Valid() bool {
	switch r {
	case RotationNormal, RotationLeft, RotationRight, RotationInverted:
		return true
	}
	return false
}

// ParseRotation parses a rotation name. Matching is case-insensitive.
func ParseRotation(s string) (Rotation, error) {
	r := Rotation(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("invalid rotation %q (want normal, left, right or inverted)", s)
	}
	return r, nil
}

// Resolution is a mode size in pixels.
type Resolution struct {
	Width  int
	Height int
}

// DefaultResolution is used when a mode cannot be detected.
var DefaultResolution = Resolution{Width: 1920, Height: 1080}

// String renders the resolution in xrandr "WxH" form.
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Valid reports whether both dimensions are strictly positive.
func (r Resolution) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

// ParseResolution parses "WxH". A trailing "+X+Y" offset, as printed by
// xrandr for active outputs, is ignored.
func ParseResolution(s string) (Resolution, error) {
	res, _, err := ParseGeometry(s)
	return res, err
}

// ParseGeometry parses an xrandr geometry token "WxH[+X+Y]". The returned
// position is the zero value when no offset is present.
func ParseGeometry(s string) (Resolution, Position, error) {
	s = strings.TrimSpace(s)
	size := s
	var offset string
	if i := strings.IndexAny(s, "+-"); i >= 0 {
		size, offset = s[:i], s[i:]
	}

	w, h, ok := strings.Cut(size, "x")
	if !ok {
		return Resolution{}, Position{}, fmt.Errorf("invalid resolution %q", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return Resolution{}, Position{}, fmt.Errorf("invalid resolution %q", s)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return Resolution{}, Position{}, fmt.Errorf("invalid resolution %q", s)
	}
	res := Resolution{Width: width, Height: height}
	if !res.Valid() {
		return Resolution{}, Position{}, fmt.Errorf("invalid resolution %q: dimensions must be positive", s)
	}

	if offset == "" {
		return res, Position{}, nil
	}
	pos, err := parseOffset(offset)
	if err != nil {
		return Resolution{}, Position{}, fmt.Errorf("invalid geometry %q: %w", s, err)
	}
	return res, pos, nil
}

// parseOffset parses "+X+Y", where either sign may be '-'.
func parseOffset(s string) (Position, error) {
	if len(s) < 4 {
		return Position{}, fmt.Errorf("short offset %q", s)
	}
	split := strings.IndexAny(s[1:], "+-")
	if split < 0 {
		return Position{}, fmt.Errorf("missing y offset in %q", s)
	}
	split++
	x, err := strconv.Atoi(s[:split])
	if err != nil {
		return Position{}, err
	}
	y, err := strconv.Atoi(s[split:])
	if err != nil {
		return Position{}, err
	}
	return Position{X: x, Y: y}, nil
}

// MarshalText implements encoding.TextMarshaler so resolutions persist as "WxH".
func (r Resolution) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Resolution) UnmarshalText(text []byte) error {
	parsed, err := ParseResolution(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Position is a top-left offset in the X screen's global coordinate space.
// Negative values place an output above or left of the origin.
type Position struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
}

// String renders the position in xrandr --pos "XxY" form.
func (p Position) String() string {
	return fmt.Sprintf("%dx%d", p.X, p.Y)
}

// Add returns p shifted by dx, dy.
func (p Position) Add(dx, dy int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// DisplayConfig describes one output and the state it should be driven to.
type DisplayConfig struct {
	Name       string
	Connected  bool
	Resolution Resolution
	Rotation   Rotation
	Position   Position
}

// Defaults holds the values given to freshly enumerated outputs.
type Defaults struct {
	Position   Position
	Resolution Resolution
}

// DefaultDefaults mirrors the values used when nothing is configured.
func DefaultDefaults() Defaults {
	return Defaults{
		Position:   Position{X: 100, Y: 100},
		Resolution: DefaultResolution,
	}
}

// NewDisplay builds a connected display at the default position with normal rotation.
func (d Defaults) NewDisplay(name string, res Resolution) DisplayConfig {
	if !res.Valid() {
		res = d.Resolution
	}
	return DisplayConfig{
		Name:       name,
		Connected:  true,
		Resolution: res,
		Rotation:   RotationNormal,
		Position:   d.Position,
	}
}

// Enumerator discovers the outputs currently connected to the display server.
// Implementations recover locally: on failure they return an empty list.
type Enumerator interface {
	Enumerate(ctx context.Context) []DisplayConfig
}

// PositionSource selects where enumerated outputs get their initial position.
type PositionSource string

const (
	// PositionFromDefaults places every output at Defaults.Position.
	PositionFromDefaults PositionSource = "default"
	// PositionFromServer keeps the offset and rotation the server reports.
	PositionFromServer PositionSource = "server"
)

// Valid reports whether s is a known source.
func (s PositionSource) Valid() bool {
	return s == PositionFromDefaults || s == PositionFromServer
}
