package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/monlayout/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
	jobTimeout time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}

	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
		jobTimeout: DefaultJobTimeout + 5*time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	return c.sendRequestTimeout(req, c.timeout)
}

func (c *Client) sendRequestTimeout(req *Request, timeout time.Duration) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

func decodeData[T any](resp *Response, what string) (*T, error) {
	var out T
	if len(resp.Data) == 0 {
		return &out, nil
	}
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse %s data: %w", what, err)
	}
	return &out, nil
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	_, err := c.sendRequest(&Request{Command: CommandReload})
	return err
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetStatus})
	if err != nil {
		return nil, err
	}
	return decodeData[StatusData](resp, "status")
}

// ListDisplays retrieves the tracked displays and inactive saved records.
func (c *Client) ListDisplays() (*DisplaysData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandListDisplays})
	if err != nil {
		return nil, err
	}
	return decodeData[DisplaysData](resp, "displays")
}

// MoveDisplay shifts a display by dx, dy and returns its new state.
func (c *Client) MoveDisplay(display string, dx, dy int) (*DisplayInfo, error) {
	payload, err := json.Marshal(MoveDisplayPayload{Display: display, DX: dx, DY: dy})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal move payload: %w", err)
	}
	resp, err := c.sendRequest(&Request{Command: CommandMoveDisplay, Payload: payload})
	if err != nil {
		return nil, err
	}
	return decodeData[DisplayInfo](resp, "display")
}

// SetPosition places a display at x, y and returns its new state.
func (c *Client) SetPosition(display string, x, y int) (*DisplayInfo, error) {
	payload, err := json.Marshal(SetPositionPayload{Display: display, X: x, Y: y})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal position payload: %w", err)
	}
	resp, err := c.sendRequest(&Request{Command: CommandSetPosition, Payload: payload})
	if err != nil {
		return nil, err
	}
	return decodeData[DisplayInfo](resp, "display")
}

// SaveLayout persists the daemon's current layout.
func (c *Client) SaveLayout() error {
	_, err := c.sendRequest(&Request{Command: CommandSaveLayout})
	return err
}

// LoadLayout merges the saved layout into the daemon's displays.
func (c *Client) LoadLayout() (*LoadData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandLoadLayout})
	if err != nil {
		return nil, err
	}
	return decodeData[LoadData](resp, "load")
}

// jobWait returns the daemon's job budget plus round-trip slack, falling
// back to the default budget when the daemon does not report one.
func (c *Client) jobWait() time.Duration {
	status, err := c.GetStatus()
	if err != nil || status.JobTimeoutMs <= 0 {
		return c.jobTimeout
	}
	return time.Duration(status.JobTimeoutMs)*time.Millisecond + 5*time.Second
}

// ResetLayout resets every output and waits for the tool to finish.
func (c *Client) ResetLayout() (*JobData, error) {
	resp, err := c.sendRequestTimeout(&Request{Command: CommandResetLayout}, c.jobWait())
	if err != nil {
		return nil, err
	}
	return decodeData[JobData](resp, "job")
}

// ApplyLayout applies the daemon's current layout and waits for the tool to finish.
func (c *Client) ApplyLayout() (*JobData, error) {
	resp, err := c.sendRequestTimeout(&Request{Command: CommandApplyLayout}, c.jobWait())
	if err != nil {
		return nil, err
	}
	return decodeData[JobData](resp, "job")
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
