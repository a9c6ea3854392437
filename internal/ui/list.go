package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/dustin/go-humanize"

	"github.com/desertthunder/protokoll/internal/models"
)

var _ list.Item = protocolItem{}

// protocolItem wraps [models.ProtocolSummary] to implement [list.Item].
type protocolItem struct {
	protocol models.ProtocolSummary
	now      time.Time
}

func (i protocolItem) FilterValue() string { return i.protocol.Title }
func (i protocolItem) Title() string       { return i.protocol.Title }
func (i protocolItem) Description() string {
	desc := fmt.Sprintf("#%s • %s", i.protocol.ID, i.protocol.Status)
	if !i.protocol.CreatedAt.IsZero() {
		desc = fmt.Sprintf("%s • %s", desc, humanize.RelTime(i.protocol.CreatedAt.Time, i.now, "ago", "from now"))
	}
	return desc
}

func protocolItems(protocols []models.ProtocolSummary, now time.Time) []list.Item {
	items := make([]list.Item, len(protocols))
	for i, p := range protocols {
		items[i] = protocolItem{protocol: p, now: now}
	}
	return items
}
