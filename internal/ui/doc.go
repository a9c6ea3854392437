// Package ui implements an interactive protocol browser using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [ListView] : Search, filter, sort and download protocols
//  2. [DetailView] : Inspect one protocol's inputs and generated content
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// All state about the loaded collection lives in a tasks.ProtocolListView; the model only keeps the query,
// the status filter and the sort key, and re-derives the visible rows from them after every change.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
