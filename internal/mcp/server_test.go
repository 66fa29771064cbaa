package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/monlayout/internal/ipc"
)

type fakeBackend struct {
	displays []ipc.DisplayInfo
	saved    int
	noLayout bool
	applyErr error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{displays: []ipc.DisplayInfo{
		{Index: 0, Name: "eDP-1", Connected: true, Resolution: "1920x1080", Rotation: "normal", X: 100, Y: 100},
		{Index: 1, Name: "HDMI-1", Connected: true, Resolution: "2560x1440", Rotation: "normal", X: 100, Y: 100},
	}}
}

func (f *fakeBackend) find(ref string) (*ipc.DisplayInfo, error) {
	for i := range f.displays {
		if f.displays[i].Name == ref {
			return &f.displays[i], nil
		}
	}
	return nil, errors.New("unknown display " + ref)
}

func (f *fakeBackend) ListDisplays() (*ipc.DisplaysData, error) {
	return &ipc.DisplaysData{Displays: f.displays, LayoutFile: "/home/u/.monitor_layout.json"}, nil
}

func (f *fakeBackend) MoveDisplay(display string, dx, dy int) (*ipc.DisplayInfo, error) {
	d, err := f.find(display)
	if err != nil {
		return nil, err
	}
	d.X += dx
	d.Y += dy
	out := *d
	return &out, nil
}

func (f *fakeBackend) SetPosition(display string, x, y int) (*ipc.DisplayInfo, error) {
	d, err := f.find(display)
	if err != nil {
		return nil, err
	}
	d.X, d.Y = x, y
	out := *d
	return &out, nil
}

func (f *fakeBackend) SaveLayout() error {
	f.saved++
	return nil
}

func (f *fakeBackend) LoadLayout() (*ipc.LoadData, error) {
	if f.noLayout {
		return &ipc.LoadData{NoLayout: true}, nil
	}
	return &ipc.LoadData{Applied: []string{"eDP-1", "HDMI-1"}, Inactive: []string{"DP-2"}}, nil
}

func (f *fakeBackend) ResetLayout() (*ipc.JobData, error) {
	return &ipc.JobData{Op: "reset"}, nil
}

func (f *fakeBackend) ApplyLayout() (*ipc.JobData, error) {
	if f.applyErr != nil {
		return nil, f.applyErr
	}
	return &ipc.JobData{Op: "apply", DurationMs: 12}, nil
}

func resultText(t *testing.T, res *mcpsdk.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatalf("empty tool result")
	}
	text, ok := res.Content[0].(*mcpsdk.TextContent)
	if !ok {
		t.Fatalf("content is %T, want *TextContent", res.Content[0])
	}
	return text.Text
}

func TestHandlers_EditSaveLoad(t *testing.T) {
	backend := newFakeBackend()
	s := NewServer(backend)
	ctx := context.Background()

	res, moved, err := s.handleMoveDisplay(ctx, nil, MoveDisplayInput{Display: "HDMI-1", DX: 1820, DY: -100})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if moved.Display.X != 1920 || moved.Display.Y != 0 || resultText(t, res) != "Moved HDMI-1 to 1920x0" {
		t.Fatalf("unexpected move result %+v %q", moved, resultText(t, res))
	}

	_, set, err := s.handleSetPosition(ctx, nil, SetPositionInput{Display: "eDP-1", X: -1920, Y: 0})
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if set.Display.X != -1920 {
		t.Fatalf("set = %+v", set)
	}

	_, saved, err := s.handleSaveLayout(ctx, nil, EmptyInput{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if backend.saved != 1 || saved.LayoutFile == "" {
		t.Fatalf("save not forwarded: saved=%d out=%+v", backend.saved, saved)
	}

	res, loaded, err := s.handleLoadLayout(ctx, nil, EmptyInput{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.NoLayout || len(loaded.Applied) != 2 || !strings.Contains(resultText(t, res), "1 inactive") {
		t.Fatalf("unexpected load %+v %q", loaded, resultText(t, res))
	}

	backend.noLayout = true
	res, loaded, err = s.handleLoadLayout(ctx, nil, EmptyInput{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.NoLayout || !strings.HasPrefix(resultText(t, res), "No saved layout") {
		t.Fatalf("missing layout should be reported, got %+v", loaded)
	}
}

func TestHandlers_Errors(t *testing.T) {
	backend := newFakeBackend()
	s := NewServer(backend)
	ctx := context.Background()

	if _, _, err := s.handleMoveDisplay(ctx, nil, MoveDisplayInput{Display: " "}); err == nil {
		t.Fatalf("expected error for empty display")
	}
	if _, _, err := s.handleSetPosition(ctx, nil, SetPositionInput{Display: "DP-9"}); err == nil || !strings.Contains(err.Error(), "unknown display") {
		t.Fatalf("expected unknown display error, got %v", err)
	}

	backend.applyErr = errors.New("xrandr exited with status 1")
	if _, _, err := s.handleApplyLayout(ctx, nil, EmptyInput{}); err == nil || !strings.Contains(err.Error(), "status 1") {
		t.Fatalf("expected apply failure, got %v", err)
	}
}

func TestServer_ToolsOverInMemoryTransport(t *testing.T) {
	ctx := context.Background()
	s := NewServer(newFakeBackend())

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()
	serverSession, err := s.mcpServer.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	defer serverSession.Close()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	names := make(map[string]bool)
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"list_displays", "move_display", "set_position", "save_layout", "load_layout", "reset_layout", "apply_layout"} {
		if !names[want] {
			t.Fatalf("tool %q not registered (have %v)", want, names)
		}
	}

	res, err := session.CallTool(ctx, &mcpsdk.CallToolParams{Name: "list_displays", Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("call list_displays: %v", err)
	}
	if res.IsError || !strings.Contains(resultText(t, res), "1 HDMI-1 2560x1440 @ 100x100 normal connected") {
		t.Fatalf("unexpected list result %q", resultText(t, res))
	}

	res, err = session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      "move_display",
		Arguments: map[string]any{"display": "DP-9", "dx": 1, "dy": 0},
	})
	if err != nil {
		t.Fatalf("call move_display: %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected a tool error for an unknown display")
	}
}
