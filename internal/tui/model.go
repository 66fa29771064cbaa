package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/monlayout/internal/layout"
	"github.com/1broseidon/monlayout/internal/session"
	"github.com/1broseidon/monlayout/internal/worker"
)

const (
	statusTTL      = 3 * time.Second
	bigMoveFactor  = 10
	minCanvasLines = 5
)

// Controller is the part of layout.Controller the arranger drives.
type Controller interface {
	Displays() []layout.DisplayConfig
	SetPosition(index int, pos layout.Position) (layout.DisplayConfig, error)
	Save() error
	Load() (layout.LoadResult, error)
	Apply() *worker.Job
	Reset() *worker.Job
	StorePath() string
}

// Options configures a Model.
type Options struct {
	// Results delivers finished configuration jobs for the status line.
	Results <-chan worker.Result
	// MoveStep is the pixel distance of one arrow press.
	MoveStep int
}

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusError
)

// resultMsg carries a finished queue job.
type resultMsg worker.Result

// clearStatusMsg clears the status line if nothing newer replaced it.
type clearStatusMsg struct{ seq int }

// Model is the bubbletea model of the arranger. It keeps its own position
// projection and only writes it back to the controller on save and apply.
type Model struct {
	ctrl    Controller
	results <-chan worker.Result
	step    int
	keys    KeyMap
	help    help.Model

	displays  []layout.DisplayConfig
	positions []layout.Position
	selected  int

	status     string
	statusKind statusKind
	statusSeq  int

	width  int
	height int
}

// New creates the arranger model over ctrl.
func New(ctrl Controller, opts Options) Model {
	step := opts.MoveStep
	if step <= 0 {
		step = 10
	}
	m := Model{
		ctrl:    ctrl,
		results: opts.Results,
		step:    step,
		keys:    DefaultKeyMap(),
		help:    help.New(),
	}
	m.project()
	return m
}

// project replaces the local projection with the controller's state.
func (m *Model) project() {
	m.displays = m.ctrl.Displays()
	m.positions = make([]layout.Position, len(m.displays))
	for i, d := range m.displays {
		m.positions[i] = d.Position
	}
	if m.selected >= len(m.displays) {
		m.selected = max(len(m.displays)-1, 0)
	}
}

// writeBack pushes the projected positions into the controller.
func (m *Model) writeBack() error {
	for i, pos := range m.positions {
		if _, err := m.ctrl.SetPosition(i, pos); err != nil {
			return err
		}
	}
	return nil
}

// Positions returns the current projection.
func (m Model) Positions() []layout.Position {
	out := make([]layout.Position, len(m.positions))
	copy(out, m.positions)
	return out
}

// Selected returns the index of the selected display.
func (m Model) Selected() int {
	return m.selected
}

// Status returns the text of the status line.
func (m Model) Status() string {
	return m.status
}

func waitForResult(ch <-chan worker.Result) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		res, ok := <-ch
		if !ok {
			return nil
		}
		return resultMsg(res)
	}
}

func (m *Model) setStatus(kind statusKind, format string, args ...any) tea.Cmd {
	m.status = fmt.Sprintf(format, args...)
	m.statusKind = kind
	m.statusSeq++
	if kind == statusError {
		return nil
	}
	seq := m.statusSeq
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return waitForResult(m.results)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case resultMsg:
		res := worker.Result(msg)
		kind := statusOK
		if res.Err != nil {
			kind = statusError
		}
		cmd := m.setStatus(kind, "%s", session.Describe(res))
		return m, tea.Batch(cmd, waitForResult(m.results))

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Next):
		if len(m.displays) > 0 {
			m.selected = (m.selected + 1) % len(m.displays)
		}
		return m, nil

	case key.Matches(msg, m.keys.Prev):
		if len(m.displays) > 0 {
			m.selected = (m.selected - 1 + len(m.displays)) % len(m.displays)
		}
		return m, nil

	case key.Matches(msg, m.keys.Left):
		m.nudge(-1, 0, 1)
	case key.Matches(msg, m.keys.Right):
		m.nudge(1, 0, 1)
	case key.Matches(msg, m.keys.Up):
		m.nudge(0, -1, 1)
	case key.Matches(msg, m.keys.Down):
		m.nudge(0, 1, 1)
	case key.Matches(msg, m.keys.BigLeft):
		m.nudge(-1, 0, bigMoveFactor)
	case key.Matches(msg, m.keys.BigRight):
		m.nudge(1, 0, bigMoveFactor)
	case key.Matches(msg, m.keys.BigUp):
		m.nudge(0, -1, bigMoveFactor)
	case key.Matches(msg, m.keys.BigDown):
		m.nudge(0, 1, bigMoveFactor)

	case key.Matches(msg, m.keys.Save):
		return m, m.save()
	case key.Matches(msg, m.keys.Load):
		return m, m.load()
	case key.Matches(msg, m.keys.Reset):
		m.ctrl.Reset()
		m.project()
		return m, m.setStatus(statusInfo, "Resetting displays...")
	case key.Matches(msg, m.keys.Apply):
		if err := m.writeBack(); err != nil {
			return m, m.setStatus(statusError, "Apply failed: %v", err)
		}
		m.ctrl.Apply()
		return m, m.setStatus(statusInfo, "Applying layout...")
	}
	return m, nil
}

func (m *Model) nudge(dx, dy, factor int) {
	if len(m.positions) == 0 {
		return
	}
	step := m.step * factor
	m.positions[m.selected] = m.positions[m.selected].Add(dx*step, dy*step)
}

func (m *Model) save() tea.Cmd {
	if err := m.writeBack(); err != nil {
		return m.setStatus(statusError, "Save failed: %v", err)
	}
	if err := m.ctrl.Save(); err != nil {
		var werr *layout.WriteError
		if errors.As(err, &werr) {
			return m.setStatus(statusError, "Save failed: cannot write %s: %v", werr.Path, werr.Err)
		}
		return m.setStatus(statusError, "Save failed: %v", err)
	}
	return m.setStatus(statusOK, "Layout saved to %s", m.ctrl.StorePath())
}

func (m *Model) load() tea.Cmd {
	res, err := m.ctrl.Load()
	if errors.Is(err, layout.ErrNoLayout) {
		return m.setStatus(statusInfo, "No saved layout found")
	}
	if err != nil {
		return m.setStatus(statusError, "Load failed: %v", err)
	}
	m.project()
	if len(res.Inactive) > 0 {
		return m.setStatus(statusOK, "Loaded %d displays (%d saved outputs not connected)", len(res.Applied), len(res.Inactive))
	}
	return m.setStatus(statusOK, "Loaded %d displays", len(res.Applied))
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Background(lipgloss.Color("235"))

	selectedRowStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	rowStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	offRowStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	title := titleStyle.Render("monlayout")
	path := statusBarStyle.
		Width(max(m.width-lipgloss.Width(title), 0)).
		Render(" " + m.ctrl.StorePath())
	statusBar := lipgloss.JoinHorizontal(lipgloss.Top, title, path)

	rows := make([]string, 0, len(m.displays))
	if len(m.displays) == 0 {
		rows = append(rows, offRowStyle.Render("  no connected displays found"))
	}
	for i, d := range m.displays {
		line := describeDisplay(d, m.positions[i])
		switch {
		case i == m.selected:
			rows = append(rows, selectedRowStyle.Render("▸ "+line))
		case !d.Connected:
			rows = append(rows, offRowStyle.Render("  "+line))
		default:
			rows = append(rows, rowStyle.Render("  "+line))
		}
	}
	list := strings.Join(rows, "\n")

	var message string
	switch m.statusKind {
	case statusError:
		message = errorStyle.Render(m.status)
	case statusOK:
		message = okStyle.Render(m.status)
	default:
		message = infoStyle.Render(m.status)
	}

	helpBar := m.help.View(m.keys)

	used := lipgloss.Height(statusBar) + lipgloss.Height(list) + 1 + lipgloss.Height(helpBar)
	canvasH := max(m.height-used, minCanvasLines)
	canvas := strings.Join(renderArrangement(m.displays, m.positions, m.selected, m.width, canvasH), "\n")

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		canvas,
		list,
		message,
		helpBar,
	)
}
