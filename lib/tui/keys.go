// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap is the picker's bindings. Printable keys go to the filter, so
// navigation uses arrows and control chords only.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	Toggle  key.Binding // multi-select only
	Confirm key.Binding

	ClearFilter key.Binding
	Backspace   key.Binding

	Quit key.Binding
}

// DefaultKeyMap is the built-in binding set.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "ctrl+p", "ctrl+k"),
		key.WithHelp("↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "ctrl+n", "ctrl+j"),
		key.WithHelp("↓", "down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup", "ctrl+u"),
		key.WithHelp("C-u", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown", "ctrl+d"),
		key.WithHelp("C-d", "page down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "toggle"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "confirm"),
	),
	ClearFilter: key.NewBinding(
		key.WithKeys("ctrl+w"),
		key.WithHelp("C-w", "clear filter"),
	),
	Backspace: key.NewBinding(
		key.WithKeys("backspace"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "cancel"),
	),
}

type helpKeys struct {
	keys  KeyMap
	multi bool
}

func (h helpKeys) ShortHelp() []key.Binding {
	bindings := []key.Binding{h.keys.Up, h.keys.Down}
	if h.multi {
		bindings = append(bindings, h.keys.Toggle)
	}
	return append(bindings, h.keys.Confirm, h.keys.Quit)
}

func (h helpKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{h.ShortHelp(), {h.keys.PageUp, h.keys.PageDown, h.keys.ClearFilter}}
}
