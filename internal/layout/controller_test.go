package layout

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/monlayout/internal/worker"
)

type recordingApplier struct {
	mu      sync.Mutex
	applies [][]DisplayConfig
	resets  [][]DisplayConfig
	err     error
}

func (a *recordingApplier) Apply(_ context.Context, displays []DisplayConfig) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.applies = append(a.applies, displays)
	return a.err
}

func (a *recordingApplier) Reset(_ context.Context, displays []DisplayConfig) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resets = append(a.resets, displays)
	return a.err
}

func newTestController(t *testing.T, displays []DisplayConfig) (*Controller, *recordingApplier, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "layout.json")
	applier := &recordingApplier{}
	queue := worker.New(worker.Options{})
	t.Cleanup(queue.Close)

	ctrl, err := NewController(displays, ControllerOptions{
		Store:    NewStore(path),
		Applier:  applier,
		Queue:    queue,
		Defaults: DefaultDefaults(),
	})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return ctrl, applier, path
}

func waitJob(t *testing.T, job *worker.Job) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return job.Wait(ctx)
}

func TestNewController_RejectsBadInput(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "layout.json"))
	queue := worker.New(worker.Options{})
	defer queue.Close()
	opts := ControllerOptions{Store: store, Applier: &recordingApplier{}, Queue: queue}

	dup := []DisplayConfig{
		DefaultDefaults().NewDisplay("HDMI-1", DefaultResolution),
		DefaultDefaults().NewDisplay("HDMI-1", DefaultResolution),
	}
	if _, err := NewController(dup, opts); err == nil {
		t.Fatalf("expected duplicate name error")
	}
	if _, err := NewController([]DisplayConfig{{Name: "X", Resolution: Resolution{}}}, opts); err == nil {
		t.Fatalf("expected invalid resolution error")
	}
	if _, err := NewController(nil, ControllerOptions{Applier: &recordingApplier{}, Queue: queue}); err == nil {
		t.Fatalf("expected missing store error")
	}
}

func TestController_DisplaysAreCopies(t *testing.T) {
	ctrl, _, _ := newTestController(t, sampleDisplays())
	got := ctrl.Displays()
	got[0].Position = Position{X: 999, Y: 999}
	if ctrl.Displays()[0].Position == got[0].Position {
		t.Fatalf("mutating the returned slice changed controller state")
	}
}

func TestController_EditThenSavePersistsEditedPosition(t *testing.T) {
	ctrl, _, path := newTestController(t, sampleDisplays())

	idx, err := ctrl.Lookup("HDMI-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if _, err := ctrl.SetPosition(idx, Position{X: 3000, Y: 50}); err != nil {
		t.Fatalf("set position: %v", err)
	}
	if _, err := ctrl.Move(idx, -10, 10); err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := ctrl.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	records, err := NewStore(path).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if records[1].PosX != 2990 || records[1].PosY != 60 {
		t.Fatalf("saved position = %d,%d, want 2990,60", records[1].PosX, records[1].PosY)
	}
}

func TestController_Lookup(t *testing.T) {
	ctrl, _, _ := newTestController(t, sampleDisplays())

	tests := []struct {
		ref     string
		want    int
		wantErr bool
	}{
		{ref: "eDP-1", want: 0},
		{ref: "HDMI-1", want: 1},
		{ref: "1", want: 1},
		{ref: " 0 ", want: 0},
		{ref: "2", wantErr: true},
		{ref: "-1", wantErr: true},
		{ref: "DP-9", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ctrl.Lookup(tt.ref)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("Lookup(%q) = %d, want error", tt.ref, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("Lookup(%q) = %d, %v, want %d", tt.ref, got, err, tt.want)
		}
	}
	if _, err := ctrl.Move(5, 1, 1); err == nil {
		t.Fatalf("expected out of range error from Move")
	}
}

func TestController_LoadMergesByNameAndKeepsInactive(t *testing.T) {
	ctrl, _, path := newTestController(t, sampleDisplays())

	saved := []Record{
		{Name: "DP-2", PosX: -1920, PosY: 0, Resolution: Resolution{1920, 1200}, Rotation: RotationNormal},
		{Name: "HDMI-1", PosX: 0, PosY: 0, Resolution: Resolution{1280, 720}, Rotation: RotationInverted},
	}
	if err := NewStore(path).SaveRecords(saved); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := ctrl.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Applied) != 1 || res.Applied[0] != "HDMI-1" {
		t.Fatalf("applied = %v, want [HDMI-1]", res.Applied)
	}
	if len(res.Inactive) != 1 || res.Inactive[0] != "DP-2" {
		t.Fatalf("inactive = %v, want [DP-2]", res.Inactive)
	}

	displays := ctrl.Displays()
	if displays[0] != sampleDisplays()[0] {
		t.Fatalf("eDP-1 changed: %+v", displays[0])
	}
	hdmi := displays[1]
	if hdmi.Position != (Position{}) || hdmi.Resolution != (Resolution{1280, 720}) || hdmi.Rotation != RotationInverted {
		t.Fatalf("HDMI-1 not merged: %+v", hdmi)
	}

	if err := ctrl.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	records, err := NewStore(path).Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(records) != 3 || records[2].Name != "DP-2" || records[2].PosX != -1920 {
		t.Fatalf("inactive record not preserved: %+v", records)
	}
}

func TestController_LoadWithoutLayoutLeavesStateUnchanged(t *testing.T) {
	ctrl, _, path := newTestController(t, sampleDisplays())
	if err := os.WriteFile(path, []byte("garbage"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := ctrl.Load()
	if !errors.Is(err, ErrNoLayout) {
		t.Fatalf("expected ErrNoLayout, got %v", err)
	}
	if len(res.Applied) != 0 || len(res.Inactive) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
	for i, d := range ctrl.Displays() {
		if d != sampleDisplays()[i] {
			t.Fatalf("display %d changed: %+v", i, d)
		}
	}
}

func TestController_ApplyBatchesConnectedDisplays(t *testing.T) {
	displays := sampleDisplays()
	displays = append(displays, DisplayConfig{Name: "DP-3", Connected: false, Resolution: DefaultResolution, Rotation: RotationNormal})
	ctrl, applier, _ := newTestController(t, displays)

	if err := waitJob(t, ctrl.Apply()); err != nil {
		t.Fatalf("apply: %v", err)
	}

	applier.mu.Lock()
	defer applier.mu.Unlock()
	if len(applier.applies) != 1 {
		t.Fatalf("expected a single apply call, got %d", len(applier.applies))
	}
	if got := len(applier.applies[0]); got != 2 {
		t.Fatalf("expected 2 connected displays applied, got %d", got)
	}
}

func TestController_ApplySurfacesToolFailure(t *testing.T) {
	ctrl, applier, _ := newTestController(t, sampleDisplays())
	applier.err = errors.New("xrandr: cannot find mode")

	if err := waitJob(t, ctrl.Apply()); err == nil {
		t.Fatalf("expected apply error")
	}
}

func TestController_ResetRestoresDefaults(t *testing.T) {
	var changes int
	path := filepath.Join(t.TempDir(), "layout.json")
	applier := &recordingApplier{}
	queue := worker.New(worker.Options{})
	defer queue.Close()
	ctrl, err := NewController(sampleDisplays(), ControllerOptions{
		Store:    NewStore(path),
		Applier:  applier,
		Queue:    queue,
		Defaults: Defaults{Position: Position{X: 100, Y: 100}, Resolution: DefaultResolution},
		OnChange: func() { changes++ },
	})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	if _, err := ctrl.SetPosition(0, Position{X: 7, Y: 7}); err != nil {
		t.Fatalf("set: %v", err)
	}
	job := ctrl.Reset()
	for i, d := range ctrl.Displays() {
		if d.Position != (Position{X: 100, Y: 100}) || d.Rotation != RotationNormal {
			t.Fatalf("display %d not reset: %+v", i, d)
		}
		if d.Resolution != sampleDisplays()[i].Resolution {
			t.Fatalf("display %d resolution = %v, want startup %v", i, d.Resolution, sampleDisplays()[i].Resolution)
		}
	}
	if changes != 1 {
		t.Fatalf("expected one change notification, got %d", changes)
	}

	if err := waitJob(t, job); err != nil {
		t.Fatalf("reset job: %v", err)
	}
	applier.mu.Lock()
	defer applier.mu.Unlock()
	if len(applier.resets) != 1 || len(applier.resets[0]) != 2 {
		t.Fatalf("unexpected reset calls: %v", applier.resets)
	}
	if applier.resets[0][0].Position != (Position{X: 7, Y: 7}) {
		t.Fatalf("reset should receive the pre-reset snapshot, got %+v", applier.resets[0][0])
	}
}

func TestController_SetConnected(t *testing.T) {
	ctrl, _, _ := newTestController(t, sampleDisplays())

	if !ctrl.SetConnected([]string{"eDP-1", "DP-7"}) {
		t.Fatalf("expected a change")
	}
	displays := ctrl.Displays()
	if !displays[0].Connected || displays[1].Connected {
		t.Fatalf("unexpected connected flags: %+v", displays)
	}
	if ctrl.Len() != 2 {
		t.Fatalf("list should stay fixed, got %d displays", ctrl.Len())
	}
	if ctrl.SetConnected([]string{"eDP-1"}) {
		t.Fatalf("expected no change on identical set")
	}
}
