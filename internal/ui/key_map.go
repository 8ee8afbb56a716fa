package ui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
)

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up     key.Binding
	down   key.Binding
	prev   key.Binding
	next   key.Binding
	sort   key.Binding
	remove key.Binding
	clear  key.Binding
	enter  key.Binding
	tab    key.Binding
	back   key.Binding
	yes    key.Binding
	no     key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		prev:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev page")),
		next:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next page")),
		sort:   key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "sort")),
		remove: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		clear:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "first page")),
		enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "view")),
		tab:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next entity")),
		back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		yes:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:     key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.prev, k.next, k.sort, k.remove, k.enter, k.tab, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.prev, k.next},
		{k.sort, k.clear, k.remove, k.enter},
		{k.tab, k.back, k.quit},
	}
}

// tableKeys is the table's default key map without the bindings the list screen claims for itself.
func tableKeys() table.KeyMap {
	km := table.DefaultKeyMap()
	km.HalfPageDown = key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "½ page down"))
	return km
}
