package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/protokoll/internal/models"
	"github.com/desertthunder/protokoll/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProtocolsLoaded MsgKind = iota
	MsgDetailFetched
	MsgDownloadDone
	MsgBulkDone
)

type loadResult struct {
	applied bool
	err     error
}

type detailResult struct {
	detail *models.ProtocolDetail
	err    error
}

type downloadResult struct {
	result *tasks.DownloadResult
	err    error
}

type bulkResult struct {
	path string
	err  error
}

// protocolsLoadedMsg is the constructor for [MsgProtocolsLoaded]
func protocolsLoadedMsg(applied bool, err error) Msg {
	return Msg{kind: MsgProtocolsLoaded, data: loadResult{applied, err}}
}

// detailFetchedMsg is the constructor for [MsgDetailFetched]
func detailFetchedMsg(detail *models.ProtocolDetail, err error) Msg {
	return Msg{kind: MsgDetailFetched, data: detailResult{detail, err}}
}

// downloadDoneMsg is the constructor for [MsgDownloadDone]
func downloadDoneMsg(result *tasks.DownloadResult, err error) Msg {
	return Msg{kind: MsgDownloadDone, data: downloadResult{result, err}}
}

// bulkDoneMsg is the constructor for [MsgBulkDone]
func bulkDoneMsg(path string, err error) Msg {
	return Msg{kind: MsgBulkDone, data: bulkResult{path, err}}
}
