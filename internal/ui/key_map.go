package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the listening view.
type keyMap struct {
	toggle  key.Binding
	next    key.Binding
	prev    key.Binding
	stop    key.Binding
	forward key.Binding
	back    key.Binding
	volUp   key.Binding
	volDown key.Binding
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	remove  key.Binding
	clear   key.Binding
	help    key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		toggle:  key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "play/pause")),
		next:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		prev:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prev")),
		stop:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		forward: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "+10s")),
		back:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "-10s")),
		volUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "vol up")),
		volDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "vol down")),
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play selected")),
		remove:  key.NewBinding(key.WithKeys("d", "x"), key.WithHelp("d", "remove")),
		clear:   key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear queue")),
		help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.next, k.prev, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.toggle, k.next, k.prev, k.stop},
		{k.forward, k.back, k.volUp, k.volDown},
		{k.up, k.down, k.enter, k.remove},
		{k.clear, k.help, k.quit},
	}
}
