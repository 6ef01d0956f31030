package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Enter      key.Binding
	Escape     key.Binding
	Tab        key.Binding
	Quit       key.Binding
	Rerun      key.Binding
	Cancel     key.Binding
	Reset      key.Binding
	TimeRange  key.Binding
	Split      key.Binding
	Measure    key.Binding
	Mode       key.Binding
	ShowAll    key.Binding
	Export     key.Binding
	FocusEvts  key.Binding
	Filter     key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select preset"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch view"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Rerun: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rerun"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "cancel run"),
		),
		Reset: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "reset overrides"),
		),
		TimeRange: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "next time range"),
		),
		Split: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "toggle split"),
		),
		Measure: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "next measure"),
		),
		Mode: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "fixture/live"),
		),
		ShowAll: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "show all series"),
		),
		Export: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "export xlsx"),
		),
		FocusEvts: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "events"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "events for active preset"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown"),
		),
	}
}
