package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/monlayout/internal/layout"
	"github.com/1broseidon/monlayout/internal/worker"
)

type stubApplier struct {
	mu      sync.Mutex
	applied [][]layout.DisplayConfig
	resets  int
}

func (s *stubApplier) Apply(_ context.Context, displays []layout.DisplayConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = append(s.applied, displays)
	return nil
}

func (s *stubApplier) Reset(context.Context, []layout.DisplayConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
	return nil
}

func newTestModel(t *testing.T) (Model, *layout.Controller, *worker.Queue, *stubApplier, string) {
	t.Helper()
	layoutPath := filepath.Join(t.TempDir(), "layout.json")
	applier := &stubApplier{}
	queue := worker.New(worker.Options{})
	t.Cleanup(queue.Close)

	defaults := layout.DefaultDefaults()
	ctrl, err := layout.NewController([]layout.DisplayConfig{
		defaults.NewDisplay("eDP-1", layout.Resolution{Width: 1920, Height: 1080}),
		defaults.NewDisplay("HDMI-1", layout.Resolution{Width: 2560, Height: 1440}),
	}, layout.ControllerOptions{
		Store:    layout.NewStore(layoutPath),
		Applier:  applier,
		Queue:    queue,
		Defaults: defaults,
	})
	if err != nil {
		t.Fatalf("controller: %v", err)
	}

	m := New(ctrl, Options{MoveStep: 10})
	return m, ctrl, queue, applier, layoutPath
}

func press(t *testing.T, m Model, msgs ...tea.KeyMsg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestModel_ArrowsMoveSelectedProjection(t *testing.T) {
	m, ctrl, _, _, _ := newTestModel(t)

	m = press(t, m,
		tea.KeyMsg{Type: tea.KeyTab},
		tea.KeyMsg{Type: tea.KeyRight},
		tea.KeyMsg{Type: tea.KeyRight},
		tea.KeyMsg{Type: tea.KeyUp},
		tea.KeyMsg{Type: tea.KeyShiftRight},
	)

	if m.Selected() != 1 {
		t.Fatalf("selected = %d, want 1", m.Selected())
	}
	want := layout.Position{X: 100 + 20 + 100, Y: 90}
	if got := m.Positions()[1]; got != want {
		t.Fatalf("projected position = %v, want %v", got, want)
	}
	if got := ctrl.Displays()[1].Position; got != (layout.Position{X: 100, Y: 100}) {
		t.Fatalf("controller should not see unsaved edits, got %v", got)
	}
}

func TestModel_TabWrapsAround(t *testing.T) {
	m, _, _, _, _ := newTestModel(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.Selected() != 1 {
		t.Fatalf("shift+tab from 0 = %d, want 1", m.Selected())
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.Selected() != 0 {
		t.Fatalf("tab from 1 = %d, want 0", m.Selected())
	}
}

func TestModel_SaveWritesProjectionBack(t *testing.T) {
	m, ctrl, _, _, layoutPath := newTestModel(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftLeft}, runeKey('s'))

	if !strings.Contains(m.Status(), "Layout saved") {
		t.Fatalf("status = %q", m.Status())
	}
	if got := ctrl.Displays()[0].Position; got != (layout.Position{X: 0, Y: 100}) {
		t.Fatalf("controller position = %v, want 0x100", got)
	}
	records, err := layout.NewStore(layoutPath).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if records[0].PosX != 0 {
		t.Fatalf("saved pos_x = %d, want 0", records[0].PosX)
	}
}

func TestModel_SaveFailureIsShown(t *testing.T) {
	m, _, _, _, layoutPath := newTestModel(t)
	if err := os.MkdirAll(layoutPath, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	m = press(t, m, runeKey('s'))
	if !strings.HasPrefix(m.Status(), "Save failed") || m.statusKind != statusError {
		t.Fatalf("status = %q kind=%v", m.Status(), m.statusKind)
	}
}

func TestModel_LoadReprojects(t *testing.T) {
	m, _, _, _, layoutPath := newTestModel(t)

	m = press(t, m, runeKey('l'))
	if m.Status() != "No saved layout found" {
		t.Fatalf("status = %q", m.Status())
	}

	saved := []layout.Record{
		{Name: "HDMI-1", PosX: 1920, PosY: 0, Resolution: layout.Resolution{Width: 2560, Height: 1440}, Rotation: layout.RotationNormal},
		{Name: "DP-3", PosX: 0, PosY: 0, Resolution: layout.DefaultResolution, Rotation: layout.RotationNormal},
	}
	if err := layout.NewStore(layoutPath).SaveRecords(saved); err != nil {
		t.Fatalf("seed: %v", err)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyDown}, runeKey('l'))
	if got := m.Positions()[1]; got != (layout.Position{X: 1920, Y: 0}) {
		t.Fatalf("projection after load = %v", got)
	}
	if !strings.Contains(m.Status(), "1 saved outputs not connected") {
		t.Fatalf("status = %q", m.Status())
	}
}

func TestModel_ApplyAndResetGoThroughQueue(t *testing.T) {
	m, ctrl, queue, applier, _ := newTestModel(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown}, runeKey('a'))
	if m.Status() != "Applying layout..." {
		t.Fatalf("status = %q", m.Status())
	}
	m = press(t, m, runeKey('r'))
	queue.Close()

	applier.mu.Lock()
	defer applier.mu.Unlock()
	if len(applier.applied) != 1 || applier.resets != 1 {
		t.Fatalf("applied=%d resets=%d", len(applier.applied), applier.resets)
	}
	if applier.applied[0][0].Position != (layout.Position{X: 100, Y: 110}) {
		t.Fatalf("apply should use the written-back projection, got %v", applier.applied[0][0].Position)
	}
	if got := m.Positions()[0]; got != ctrl.Displays()[0].Position {
		t.Fatalf("reset should re-project, got %v", got)
	}
}

func TestModel_ResultMessageUpdatesStatus(t *testing.T) {
	m, _, _, _, _ := newTestModel(t)

	next, _ := m.Update(resultMsg(worker.Result{Op: "apply"}))
	m = next.(Model)
	if m.Status() != "Configuration complete!" || m.statusKind != statusOK {
		t.Fatalf("status = %q", m.Status())
	}

	next, _ = m.Update(resultMsg(worker.Result{Op: "apply", Err: errors.New("exit status 1")}))
	m = next.(Model)
	if m.Status() != "apply failed: exit status 1" || m.statusKind != statusError {
		t.Fatalf("status = %q", m.Status())
	}

	seq := m.statusSeq
	next, _ = m.Update(clearStatusMsg{seq: seq - 1})
	m = next.(Model)
	if m.Status() == "" {
		t.Fatalf("stale clear message should not clear the status")
	}
	next, _ = m.Update(clearStatusMsg{seq: seq})
	m = next.(Model)
	if m.Status() != "" {
		t.Fatalf("status should be cleared, got %q", m.Status())
	}
}

func TestModel_ViewRendersDisplays(t *testing.T) {
	m, _, _, _, _ := newTestModel(t)
	if m.View() != "" {
		t.Fatalf("view before size should be empty")
	}

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = next.(Model)
	view := m.View()
	for _, want := range []string{"monlayout", "eDP-1", "HDMI-1", "2560x1440"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModel_QuitKey(t *testing.T) {
	m, _, _, _, _ := newTestModel(t)
	_, cmd := m.Update(runeKey('q'))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}
