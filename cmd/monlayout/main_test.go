package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/1broseidon/monlayout/internal/config"
	"github.com/1broseidon/monlayout/internal/ipc"
)

func TestParseDisplayArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		display string
		a, b    int
		wantErr bool
	}{
		{name: "positive", args: []string{"HDMI-1", "1920", "0"}, display: "HDMI-1", a: 1920, b: 0},
		{name: "negative offsets", args: []string{"0", "-1920", "-200"}, display: "0", a: -1920, b: -200},
		{name: "separator", args: []string{"--", "eDP-1", "-10", "5"}, display: "eDP-1", a: -10, b: 5},
		{name: "too few", args: []string{"HDMI-1", "5"}, wantErr: true},
		{name: "not a number", args: []string{"HDMI-1", "left", "5"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			display, a, b, err := parseDisplayArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if display != tt.display || a != tt.a || b != tt.b {
				t.Fatalf("got (%q, %d, %d), want (%q, %d, %d)", display, a, b, tt.display, tt.a, tt.b)
			}
		})
	}
}

func TestPrintDisplays(t *testing.T) {
	var buf bytes.Buffer
	printDisplays(&buf, &ipc.DisplaysData{
		Displays: []ipc.DisplayInfo{
			{Index: 0, Name: "eDP-1", Connected: true, Resolution: "1920x1080", Rotation: "normal", X: 0, Y: 0},
			{Index: 1, Name: "HDMI-1", Connected: false, Resolution: "2560x1440", Rotation: "left", X: 1920, Y: -200},
		},
		Inactive: []ipc.DisplayInfo{{Index: -1, Name: "DP-2", Resolution: "3840x2160", Rotation: "normal"}},
	})
	out := buf.String()
	for _, want := range []string{"0  eDP-1", "1920x-200", "disconnected", "Saved but not connected:", "DP-2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestUsageExitCodes(t *testing.T) {
	if code := runMove([]string{"HDMI-1"}); code != 2 {
		t.Fatalf("move with missing args = %d, want 2", code)
	}
	if code := runSet([]string{"HDMI-1", "x", "0"}); code != 2 {
		t.Fatalf("set with bad number = %d, want 2", code)
	}
	if code := runSimple("save", []string{"extra"}); code != 2 {
		t.Fatalf("save with args = %d, want 2", code)
	}
	if code := runConfig([]string{"bogus"}); code != 2 {
		t.Fatalf("unknown config subcommand = %d, want 2", code)
	}
	if code := runMCP(nil); code != 2 {
		t.Fatalf("mcp without subcommand = %d, want 2", code)
	}
}

func TestRunConfig_InitAndValidate(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if code := runConfig([]string{"init"}); code != 0 {
		t.Fatalf("init = %d, want 0", code)
	}
	path, err := config.DefaultConfigPath()
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if code := runConfig([]string{"init"}); code != 1 {
		t.Fatalf("second init without --force = %d, want 1", code)
	}
	if code := runConfig([]string{"init", "--force"}); code != 0 {
		t.Fatalf("init --force = %d, want 0", code)
	}
	if code := runConfig([]string{"validate"}); code != 0 {
		t.Fatalf("validate = %d, want 0", code)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("move_step: 0\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if code := runConfig([]string{"validate", "--path", bad}); code != 1 {
		t.Fatalf("validate invalid config = %d, want 1", code)
	}
}

func TestClientCommandsWithoutDaemon(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	if code := runStatus(nil); code != 1 {
		t.Fatalf("status without daemon = %d, want 1", code)
	}
	if code := runSimple("apply", nil); code != 1 {
		t.Fatalf("apply without daemon = %d, want 1", code)
	}
}
