package mcp

import "github.com/1broseidon/monlayout/internal/ipc"

// ListDisplaysOutput is the output for the list_displays tool.
type ListDisplaysOutput struct {
	Displays   []ipc.DisplayInfo `json:"displays"`
	Inactive   []ipc.DisplayInfo `json:"inactive,omitempty"`
	LayoutFile string            `json:"layout_file"`
}

// MoveDisplayInput is the input for the move_display tool.
type MoveDisplayInput struct {
	Display string `json:"display" jsonschema:"Output name (e.g. HDMI-1) or list index of the display"`
	DX      int    `json:"dx" jsonschema:"Horizontal offset in pixels; negative moves left"`
	DY      int    `json:"dy" jsonschema:"Vertical offset in pixels; negative moves up"`
}

// SetPositionInput is the input for the set_position tool.
type SetPositionInput struct {
	Display string `json:"display" jsonschema:"Output name (e.g. HDMI-1) or list index of the display"`
	X       int    `json:"x" jsonschema:"Absolute X coordinate of the top-left corner"`
	Y       int    `json:"y" jsonschema:"Absolute Y coordinate of the top-left corner"`
}

// DisplayOutput is the output for tools that edit one display.
type DisplayOutput struct {
	Display ipc.DisplayInfo `json:"display"`
}

// EmptyInput is the input for tools that take no arguments.
type EmptyInput struct{}

// SaveLayoutOutput is the output for the save_layout tool.
type SaveLayoutOutput struct {
	LayoutFile string `json:"layout_file"`
}

// LoadLayoutOutput is the output for the load_layout tool.
type LoadLayoutOutput struct {
	Applied  []string `json:"applied,omitempty"`
	Inactive []string `json:"inactive,omitempty"`
	NoLayout bool     `json:"no_layout"`
}

// JobOutput is the output for the apply_layout and reset_layout tools.
type JobOutput struct {
	Op         string `json:"op"`
	DurationMs int64  `json:"duration_ms"`
}
