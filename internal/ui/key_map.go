package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	enter     key.Binding
	back      key.Binding
	search    key.Binding
	filter    key.Binding
	sort      key.Binding
	pdf       key.Binding
	latex     key.Binding
	bulkPDF   key.Binding
	bulkLaTeX key.Binding
	reload    key.Binding
	help      key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		filter:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "status filter")),
		sort:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		pdf:       key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pdf")),
		latex:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "latex")),
		bulkPDF:   key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "all pdf")),
		bulkLaTeX: key.NewBinding(key.WithKeys("B"), key.WithHelp("B", "all latex")),
		reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.search, k.filter, k.sort, k.pdf, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.search, k.filter, k.sort, k.reload},
		{k.pdf, k.latex, k.bulkPDF, k.bulkLaTeX},
		{k.help, k.quit},
	}
}
