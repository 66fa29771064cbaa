package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the key bindings for the arranger.
type KeyMap struct {
	// Movement of the selected display
	Left     key.Binding
	Right    key.Binding
	Up       key.Binding
	Down     key.Binding
	BigLeft  key.Binding
	BigRight key.Binding
	BigUp    key.Binding
	BigDown  key.Binding

	// Selection
	Next key.Binding
	Prev key.Binding

	// Actions
	Save  key.Binding
	Load  key.Binding
	Reset key.Binding
	Apply key.Binding

	// Global
	Quit key.Binding
	Help key.Binding
}

// ShortHelp returns the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Save, k.Load, k.Reset, k.Apply, k.Help, k.Quit}
}

// FullHelp returns every binding, grouped in columns.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.BigLeft, k.BigRight, k.BigUp, k.BigDown},
		{k.Next, k.Prev, k.Help, k.Quit},
		{k.Save, k.Load, k.Reset, k.Apply},
	}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Left: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "move left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "move right"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "move down"),
		),
		BigLeft: key.NewBinding(
			key.WithKeys("shift+left"),
			key.WithHelp("⇧←", "move left ×10"),
		),
		BigRight: key.NewBinding(
			key.WithKeys("shift+right"),
			key.WithHelp("⇧→", "move right ×10"),
		),
		BigUp: key.NewBinding(
			key.WithKeys("shift+up"),
			key.WithHelp("⇧↑", "move up ×10"),
		),
		BigDown: key.NewBinding(
			key.WithKeys("shift+down"),
			key.WithHelp("⇧↓", "move down ×10"),
		),
		Next: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next display"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("⇧tab", "previous display"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save"),
		),
		Load: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "load"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		Apply: key.NewBinding(
			key.WithKeys("a", "enter"),
			key.WithHelp("a", "apply"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}
