package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/monlayout/internal/layout"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload       CommandType = "RELOAD"
	CommandGetStatus    CommandType = "GET_STATUS"
	CommandListDisplays CommandType = "LIST_DISPLAYS"
	CommandMoveDisplay  CommandType = "MOVE_DISPLAY"
	CommandSetPosition  CommandType = "SET_POSITION"
	CommandSaveLayout   CommandType = "SAVE_LAYOUT"
	CommandLoadLayout   CommandType = "LOAD_LAYOUT"
	CommandResetLayout  CommandType = "RESET_LAYOUT"
	CommandApplyLayout  CommandType = "APPLY_LAYOUT"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	DaemonRunning bool   `json:"daemon_running"`
	DisplayCount  int    `json:"display_count"`
	InactiveCount int    `json:"inactive_count"`
	LayoutFile    string `json:"layout_file"`
	PendingJobs   int    `json:"pending_jobs"`
	LastOp        string `json:"last_op,omitempty"`
	LastError     string `json:"last_error,omitempty"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	// JobTimeoutMs is how long the daemon would wait for a job queued now.
	JobTimeoutMs int64 `json:"job_timeout_ms"`
}

// DisplayInfo describes one tracked display, or an inactive saved record
// when Index is -1.
type DisplayInfo struct {
	Index      int    `json:"index"`
	Name       string `json:"name"`
	Connected  bool   `json:"connected"`
	Resolution string `json:"resolution"`
	Rotation   string `json:"rotation"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
}

// DisplaysData represents the data returned by LIST_DISPLAYS
type DisplaysData struct {
	Displays   []DisplayInfo `json:"displays"`
	Inactive   []DisplayInfo `json:"inactive,omitempty"`
	LayoutFile string        `json:"layout_file"`
}

// DisplayRef addresses a display by output name or list index.
type DisplayRef struct {
	Display string `json:"display"`
}

type MoveDisplayPayload struct {
	Display string `json:"display"`
	DX      int    `json:"dx"`
	DY      int    `json:"dy"`
}

type SetPositionPayload struct {
	Display string `json:"display"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
}

// LoadData reports the outcome of LOAD_LAYOUT. A missing or unreadable
// layout is not an error; NoLayout is set instead.
type LoadData struct {
	Applied  []string `json:"applied,omitempty"`
	Inactive []string `json:"inactive,omitempty"`
	NoLayout bool     `json:"no_layout,omitempty"`
	Message  string   `json:"message,omitempty"`
}

// JobData reports a finished apply or reset.
type JobData struct {
	Op         string `json:"op"`
	DurationMs int64  `json:"duration_ms"`
}

// DisplayInfoOf converts a tracked display.
func DisplayInfoOf(index int, d layout.DisplayConfig) DisplayInfo {
	return DisplayInfo{
		Index:      index,
		Name:       d.Name,
		Connected:  d.Connected,
		Resolution: d.Resolution.String(),
		Rotation:   string(d.Rotation),
		X:          d.Position.X,
		Y:          d.Position.Y,
	}
}

// InactiveInfoOf converts a saved record for an output that is not tracked.
func InactiveInfoOf(r layout.Record) DisplayInfo {
	return DisplayInfo{
		Index:      -1,
		Name:       r.Name,
		Resolution: r.Resolution.String(),
		Rotation:   string(r.Rotation),
		X:          r.PosX,
		Y:          r.PosY,
	}
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
