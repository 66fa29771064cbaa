package x11

import (
	"context"
	"errors"
	"testing"

	"github.com/BurntSushi/xgb/randr"

	"github.com/1broseidon/monlayout/internal/layout"
)

func TestRotationFromRandR(t *testing.T) {
	tests := []struct {
		in   uint16
		want layout.Rotation
	}{
		{in: randr.RotationRotate0, want: layout.RotationNormal},
		{in: randr.RotationRotate90, want: layout.RotationLeft},
		{in: randr.RotationRotate180, want: layout.RotationInverted},
		{in: randr.RotationRotate270, want: layout.RotationRight},
		{in: randr.RotationRotate90 | randr.RotationReflectX, want: layout.RotationLeft},
		{in: 0, want: layout.RotationNormal},
	}
	for _, tt := range tests {
		if got := rotationFromRandR(tt.in); got != tt.want {
			t.Fatalf("rotationFromRandR(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func sampleOutputs() []Output {
	return []Output{
		{Name: "eDP-1", Connected: true, Active: true, Width: 1920, Height: 1080, X: 0, Y: 0, Rotation: layout.RotationNormal},
		{Name: "HDMI-1", Connected: true, Active: true, Width: 2560, Height: 1440, X: 1920, Y: -200, Rotation: layout.RotationRight},
		{Name: "DP-1", Connected: false},
		{Name: "DP-2", Connected: true, Active: false, Width: 3840, Height: 2160, Rotation: layout.RotationNormal},
		{Name: "DP-3", Connected: true},
		{Name: "eDP-1", Connected: true, Width: 800, Height: 600},
	}
}

func TestDisplaysFromOutputs_DefaultPositions(t *testing.T) {
	defaults := layout.DefaultDefaults()
	got := DisplaysFromOutputs(sampleOutputs(), defaults, layout.PositionFromDefaults)

	wantNames := []string{"eDP-1", "HDMI-1", "DP-2", "DP-3"}
	if len(got) != len(wantNames) {
		t.Fatalf("got %d displays, want %d: %+v", len(got), len(wantNames), got)
	}
	for i, name := range wantNames {
		if got[i].Name != name || !got[i].Connected {
			t.Fatalf("display %d = %+v, want connected %s", i, got[i], name)
		}
		if got[i].Position != defaults.Position || got[i].Rotation != layout.RotationNormal {
			t.Fatalf("display %d should sit at the default position, got %+v", i, got[i])
		}
	}
	if got[2].Resolution != (layout.Resolution{Width: 3840, Height: 2160}) {
		t.Fatalf("inactive output should use its preferred mode, got %v", got[2].Resolution)
	}
	if got[3].Resolution != defaults.Resolution {
		t.Fatalf("output without modes should use the default resolution, got %v", got[3].Resolution)
	}
}

func TestDisplaysFromOutputs_ServerPositions(t *testing.T) {
	defaults := layout.DefaultDefaults()
	got := DisplaysFromOutputs(sampleOutputs(), defaults, layout.PositionFromServer)

	hdmi := got[1]
	if hdmi.Position != (layout.Position{X: 1920, Y: -200}) || hdmi.Rotation != layout.RotationRight {
		t.Fatalf("HDMI-1 = %+v", hdmi)
	}
	if got[2].Position != defaults.Position {
		t.Fatalf("inactive output should keep the default position, got %v", got[2].Position)
	}
}

func TestEnumerator_ConnectFailureYieldsEmptyList(t *testing.T) {
	e := NewEnumerator(layout.DefaultDefaults(), layout.PositionFromDefaults, nil)
	e.connect = func() (*Connection, error) { return nil, errors.New("cannot open display") }

	if got := e.Enumerate(context.Background()); len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
}
