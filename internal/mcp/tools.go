package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func textResult(format string, args ...any) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}

func (s *Server) handleListDisplays(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ListDisplaysOutput, error) {
	data, err := s.backend.ListDisplays()
	if err != nil {
		return nil, ListDisplaysOutput{}, fmt.Errorf("list displays: %w", err)
	}

	var b strings.Builder
	for _, d := range data.Displays {
		state := "connected"
		if !d.Connected {
			state = "disconnected"
		}
		fmt.Fprintf(&b, "%d %s %s @ %dx%d %s %s\n", d.Index, d.Name, d.Resolution, d.X, d.Y, d.Rotation, state)
	}
	for _, d := range data.Inactive {
		fmt.Fprintf(&b, "- %s %s @ %dx%d %s inactive\n", d.Name, d.Resolution, d.X, d.Y, d.Rotation)
	}
	if b.Len() == 0 {
		b.WriteString("no displays tracked\n")
	}

	return textResult("%s", b.String()), ListDisplaysOutput{
		Displays:   data.Displays,
		Inactive:   data.Inactive,
		LayoutFile: data.LayoutFile,
	}, nil
}

func (s *Server) handleMoveDisplay(_ context.Context, _ *mcpsdk.CallToolRequest, args MoveDisplayInput) (*mcpsdk.CallToolResult, DisplayOutput, error) {
	if strings.TrimSpace(args.Display) == "" {
		return nil, DisplayOutput{}, fmt.Errorf("display is required")
	}
	info, err := s.backend.MoveDisplay(args.Display, args.DX, args.DY)
	if err != nil {
		return nil, DisplayOutput{}, fmt.Errorf("move display: %w", err)
	}
	return textResult("Moved %s to %dx%d", info.Name, info.X, info.Y), DisplayOutput{Display: *info}, nil
}

func (s *Server) handleSetPosition(_ context.Context, _ *mcpsdk.CallToolRequest, args SetPositionInput) (*mcpsdk.CallToolResult, DisplayOutput, error) {
	if strings.TrimSpace(args.Display) == "" {
		return nil, DisplayOutput{}, fmt.Errorf("display is required")
	}
	info, err := s.backend.SetPosition(args.Display, args.X, args.Y)
	if err != nil {
		return nil, DisplayOutput{}, fmt.Errorf("set position: %w", err)
	}
	return textResult("Placed %s at %dx%d", info.Name, info.X, info.Y), DisplayOutput{Display: *info}, nil
}

func (s *Server) handleSaveLayout(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, SaveLayoutOutput, error) {
	if err := s.backend.SaveLayout(); err != nil {
		return nil, SaveLayoutOutput{}, fmt.Errorf("save layout: %w", err)
	}
	data, err := s.backend.ListDisplays()
	if err != nil {
		return textResult("Layout saved"), SaveLayoutOutput{}, nil
	}
	return textResult("Layout saved to %s", data.LayoutFile), SaveLayoutOutput{LayoutFile: data.LayoutFile}, nil
}

func (s *Server) handleLoadLayout(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, LoadLayoutOutput, error) {
	data, err := s.backend.LoadLayout()
	if err != nil {
		return nil, LoadLayoutOutput{}, fmt.Errorf("load layout: %w", err)
	}
	out := LoadLayoutOutput{Applied: data.Applied, Inactive: data.Inactive, NoLayout: data.NoLayout}
	if data.NoLayout {
		return textResult("No saved layout found; displays unchanged"), out, nil
	}
	return textResult("Loaded %d displays (%d inactive)", len(data.Applied), len(data.Inactive)), out, nil
}

func (s *Server) handleResetLayout(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, JobOutput, error) {
	job, err := s.backend.ResetLayout()
	if err != nil {
		return nil, JobOutput{}, fmt.Errorf("reset layout: %w", err)
	}
	return textResult("Displays reset to automatic modes"), JobOutput{Op: job.Op, DurationMs: job.DurationMs}, nil
}

func (s *Server) handleApplyLayout(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, JobOutput, error) {
	job, err := s.backend.ApplyLayout()
	if err != nil {
		return nil, JobOutput{}, fmt.Errorf("apply layout: %w", err)
	}
	return textResult("Configuration complete!"), JobOutput{Op: job.Op, DurationMs: job.DurationMs}, nil
}
