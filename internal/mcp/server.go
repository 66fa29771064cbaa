// Package mcp exposes the running daemon's layout operations as MCP tools.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/monlayout/internal/ipc"
)

const (
	ServerName    = "monlayout"
	ServerVersion = "0.1.0"
)

// Backend is the daemon surface the tools call. *ipc.Client satisfies it.
type Backend interface {
	ListDisplays() (*ipc.DisplaysData, error)
	MoveDisplay(display string, dx, dy int) (*ipc.DisplayInfo, error)
	SetPosition(display string, x, y int) (*ipc.DisplayInfo, error)
	SaveLayout() error
	LoadLayout() (*ipc.LoadData, error)
	ResetLayout() (*ipc.JobData, error)
	ApplyLayout() (*ipc.JobData, error)
}

// Server is the MCP server for monlayout.
type Server struct {
	mcpServer *mcpsdk.Server
	backend   Backend
}

// NewServer creates an MCP server whose tools call backend.
func NewServer(backend Backend) *Server {
	s := &Server{backend: backend}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_displays",
		Description: "List the tracked displays in order with their position, resolution, rotation and connection state. Saved outputs that are not tracked in this run are listed as inactive with index -1.",
	}, s.handleListDisplays)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "move_display",
		Description: "Shift a display by dx, dy pixels in the daemon's in-memory layout. Nothing is applied or saved until apply_layout or save_layout is called.",
	}, s.handleMoveDisplay)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_position",
		Description: "Place a display's top-left corner at x, y in the daemon's in-memory layout. Negative coordinates put the display above or left of the origin.",
	}, s.handleSetPosition)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "save_layout",
		Description: "Write the current layout to the layout file, keeping saved records for outputs that are not connected.",
	}, s.handleSaveLayout)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "load_layout",
		Description: "Load the saved layout into the tracked displays by output name. Reports no_layout when no usable file exists; the in-memory layout is then unchanged. Does not apply.",
	}, s.handleLoadLayout)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "reset_layout",
		Description: "Reset every display to its automatic mode and normal rotation, and restore default positions in memory. Waits for the display tool to finish.",
	}, s.handleResetLayout)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "apply_layout",
		Description: "Apply the current layout of all connected displays to the display server in a single xrandr invocation. Waits for the invocation to finish and reports its error, if any.",
	}, s.handleApplyLayout)
}
