package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/protokoll/internal/models"
)

var styles = newTheme(theme{
	accent:    "#2E86AB",
	completed: "#3BB273",
	draft:     "#E1BC29",
	failure:   "#E15554",
	muted:     "#7A7A7A",
})

// theme holds the hex colors the TUI is drawn with.
type theme struct {
	accent, completed, draft, failure, muted string
}

type stylesheet struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	help  lipgloss.Style
	badge map[models.Status]lipgloss.Style
}

func newTheme(t theme) *stylesheet {
	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	badge := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color(c)).
			Padding(0, 1)
	}

	return &stylesheet{
		title: fg(t.accent).Bold(true).MarginBottom(1),
		ok:    fg(t.completed).Bold(true),
		err:   fg(t.failure).Bold(true),
		help:  fg(t.muted).Italic(true),
		badge: map[models.Status]lipgloss.Style{
			models.StatusCompleted: badge(t.completed),
			models.StatusDraft:     badge(t.draft),
		},
	}
}

// Status renders a protocol status as a colored badge. Unknown statuses are muted.
func (s *stylesheet) Status(st models.Status) string {
	if b, ok := s.badge[st]; ok {
		return b.Render(string(st))
	}
	return s.help.Render(string(st))
}
