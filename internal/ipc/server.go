package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/monlayout/internal/layout"
	"github.com/1broseidon/monlayout/internal/runtimepath"
	"github.com/1broseidon/monlayout/internal/worker"
)

// DefaultJobTimeout bounds how long APPLY_LAYOUT and RESET_LAYOUT wait for
// their queued job when no command timeout is known.
const DefaultJobTimeout = 30 * time.Second

// Hooks lets the daemon expose state the controller does not own.
type Hooks struct {
	// Reload re-reads the daemon configuration.
	Reload func() error
	// Pending reports queued configuration jobs.
	Pending func() int
	// LastResult reports the most recent finished job, if any.
	LastResult func() (worker.Result, bool)
	// CommandTimeout reports the per-invocation tool timeout.
	CommandTimeout func() time.Duration
}

// Server handles IPC requests from clients
type Server struct {
	socketPath string
	listener   net.Listener
	ctrl       *layout.Controller
	hooks      Hooks
	startTime  time.Time

	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server bound to the runtime socket path.
func NewServer(ctrl *layout.Controller, hooks Hooks) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		ctrl:       ctrl,
		hooks:      hooks,
		startTime:  time.Now(),
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandListDisplays:
		return s.handleListDisplays()
	case CommandMoveDisplay:
		return s.handleMoveDisplay(req.Payload)
	case CommandSetPosition:
		return s.handleSetPosition(req.Payload)
	case CommandSaveLayout:
		return s.handleSave()
	case CommandLoadLayout:
		return s.handleLoad()
	case CommandResetLayout:
		return s.waitJob(s.ctrl.Reset())
	case CommandApplyLayout:
		return s.waitJob(s.ctrl.Apply())
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleReload() *Response {
	log.Println("IPC: Received RELOAD command")
	if s.hooks.Reload == nil {
		return NewErrorResponse("reload is not supported")
	}
	if err := s.hooks.Reload(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	log.Println("IPC: Config reloaded successfully")

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleGetStatus() *Response {
	status := StatusData{
		DaemonRunning: true,
		DisplayCount:  s.ctrl.Len(),
		InactiveCount: len(s.ctrl.Inactive()),
		LayoutFile:    s.ctrl.StorePath(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		JobTimeoutMs:  s.jobTimeout().Milliseconds(),
	}
	if s.hooks.Pending != nil {
		status.PendingJobs = s.hooks.Pending()
	}
	if s.hooks.LastResult != nil {
		if res, ok := s.hooks.LastResult(); ok {
			status.LastOp = res.Op
			if res.Err != nil {
				status.LastError = res.Err.Error()
			}
		}
	}

	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleListDisplays() *Response {
	displays := s.ctrl.Displays()
	data := DisplaysData{
		Displays:   make([]DisplayInfo, len(displays)),
		LayoutFile: s.ctrl.StorePath(),
	}
	for i, d := range displays {
		data.Displays[i] = DisplayInfoOf(i, d)
	}
	for _, r := range s.ctrl.Inactive() {
		data.Inactive = append(data.Inactive, InactiveInfoOf(r))
	}

	resp, _ := NewOKResponse(data)
	return resp
}

func (s *Server) handleMoveDisplay(payload json.RawMessage) *Response {
	var req MoveDisplayPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid move payload: %v", err))
	}
	idx, err := s.ctrl.Lookup(req.Display)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	d, err := s.ctrl.Move(idx, req.DX, req.DY)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	resp, _ := NewOKResponse(DisplayInfoOf(idx, d))
	return resp
}

func (s *Server) handleSetPosition(payload json.RawMessage) *Response {
	var req SetPositionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid position payload: %v", err))
	}
	idx, err := s.ctrl.Lookup(req.Display)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	d, err := s.ctrl.SetPosition(idx, layout.Position{X: req.X, Y: req.Y})
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	resp, _ := NewOKResponse(DisplayInfoOf(idx, d))
	return resp
}

func (s *Server) handleSave() *Response {
	if err := s.ctrl.Save(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to save layout: %v", err))
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleLoad() *Response {
	res, err := s.ctrl.Load()
	if err != nil {
		if errors.Is(err, layout.ErrNoLayout) {
			resp, _ := NewOKResponse(LoadData{NoLayout: true, Message: err.Error()})
			return resp
		}
		return NewErrorResponse(fmt.Sprintf("Failed to load layout: %v", err))
	}

	resp, _ := NewOKResponse(LoadData{Applied: res.Applied, Inactive: res.Inactive})
	return resp
}

// jobTimeout bounds the wait for a queued job. The job may sit behind the
// running job and every pending one, and each can be a reset of two
// invocations per display.
func (s *Server) jobTimeout() time.Duration {
	if s.hooks.CommandTimeout == nil {
		return DefaultJobTimeout
	}
	perCall := s.hooks.CommandTimeout()
	if perCall <= 0 {
		return DefaultJobTimeout
	}
	jobs := 2
	if s.hooks.Pending != nil {
		jobs += s.hooks.Pending()
	}
	calls := 2 * max(s.ctrl.Len(), 1)
	return perCall*time.Duration(jobs*calls) + time.Second
}

func (s *Server) waitJob(job *worker.Job) *Response {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout())
	defer cancel()

	start := time.Now()
	if err := job.Wait(ctx); err != nil {
		return NewErrorResponse(fmt.Sprintf("%s failed: %v", job.Op(), err))
	}

	resp, _ := NewOKResponse(JobData{Op: job.Op(), DurationMs: time.Since(start).Milliseconds()})
	return resp
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
