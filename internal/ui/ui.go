package ui

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/protokoll/internal/formatter"
	"github.com/desertthunder/protokoll/internal/models"
	"github.com/desertthunder/protokoll/internal/shared"
	"github.com/desertthunder/protokoll/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ListView ViewState = iota
	DetailView
)

var (
	statusFilters = []models.StatusFilter{models.FilterAll, models.FilterCompleted, models.FilterDraft}
	sortKeys      = []models.SortKey{models.SortNewest, models.SortOldest, models.SortTitle}
)

// DetailSource fetches a single protocol for the detail view.
type DetailSource interface {
	GetProtocol(ctx context.Context, id models.ProtocolID) (*models.ProtocolDetail, error)
}

// Options contains the optional dependencies of a [Model].
type Options struct {
	Details DetailSource // enables the detail view when set
	Logger  *log.Logger
	Now     func() time.Time
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	protocols *tasks.ProtocolListView
	details   DetailSource
	logger    *log.Logger
	now       func() time.Time
	width     int
	height    int
	list      list.Model
	search    textinput.Model
	searching bool
	filter    models.StatusFilter
	sort      models.SortKey
	detail    *models.ProtocolDetail
	spinner   spinner.Model
	busy      bool
	status    string
	err       error
	help      help.Model
	keys      keyMap
}

// NewModel creates a new TUI model over the given list view.
func NewModel(ctx context.Context, protocols *tasks.ProtocolListView, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	search := textinput.New()
	search.Placeholder = "search titles"
	search.Prompt = "/ "

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Protocols"
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return &Model{
		ctx:       ctx,
		view:      ListView,
		protocols: protocols,
		details:   opts.Details,
		logger:    opts.Logger,
		now:       opts.Now,
		list:      l,
		search:    search,
		filter:    models.FilterAll,
		sort:      models.SortNewest,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init starts the first load of the protocol list.
func (m *Model) Init() tea.Cmd {
	m.busy = true
	m.status = "Loading protocols..."
	return tea.Batch(m.spinner.Tick, m.load())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)

	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKeys(msg)
		}
		switch m.view {
		case ListView:
			return m.handleListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	m.busy = false

	switch msg.kind {
	case MsgProtocolsLoaded:
		res := msg.data.(loadResult)
		if !res.applied {
			return m, nil
		}
		m.setResult(m.protocols.Message(), res.err)
		m.refresh()

	case MsgDetailFetched:
		res := msg.data.(detailResult)
		if res.err != nil {
			m.setResult("", res.err)
			return m, nil
		}
		m.detail = res.detail
		m.view = DetailView
		m.setResult("", nil)

	case MsgDownloadDone:
		res := msg.data.(downloadResult)
		if res.err != nil {
			m.setResult("", res.err)
			return m, nil
		}
		status := "saved " + res.result.Path
		if res.result.Regenerated {
			status += " (PDF regenerated)"
		}
		m.setResult(status, nil)

	case MsgBulkDone:
		res := msg.data.(bulkResult)
		m.setResult("saved "+res.path, res.err)
	}

	return m, nil
}

func (m *Model) setResult(status string, err error) {
	m.err = err
	m.status = status
	if err != nil {
		m.logger.Error("tui action failed", "error", err)
	}
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.refresh()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.refresh()
	return m, cmd
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.search):
		m.searching = true
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.back):
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.refresh()
		}
		return m, nil
	case key.Matches(msg, m.keys.filter):
		m.filter = next(statusFilters, m.filter)
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.sort):
		m.sort = next(sortKeys, m.sort)
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.reload):
		return m, m.start("Loading protocols...", m.load())
	case key.Matches(msg, m.keys.enter):
		if p, ok := m.selected(); ok && m.details != nil {
			return m, m.start("Loading details...", m.fetchDetail(p.ID))
		}
		return m, nil
	case key.Matches(msg, m.keys.pdf):
		return m, m.downloadSelected(models.ArtifactPDF)
	case key.Matches(msg, m.keys.latex):
		return m, m.downloadSelected(models.ArtifactLaTeX)
	case key.Matches(msg, m.keys.bulkPDF):
		return m, m.start("Downloading all PDFs...", m.bulkDownload(models.ArtifactPDF))
	case key.Matches(msg, m.keys.bulkLaTeX):
		return m, m.start("Downloading all LaTeX sources...", m.bulkDownload(models.ArtifactLaTeX))
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ListView
		m.detail = nil
		return m, nil
	case key.Matches(msg, m.keys.pdf):
		return m, m.downloadDetail(models.ArtifactPDF)
	case key.Matches(msg, m.keys.latex):
		return m, m.downloadDetail(models.ArtifactLaTeX)
	}
	return m, nil
}

// start marks the model busy and runs cmd alongside the spinner.
// It returns nil while another action is still running.
func (m *Model) start(status string, cmd tea.Cmd) tea.Cmd {
	if m.busy {
		m.status = shared.ErrBusy.Error()
		return nil
	}
	m.busy = true
	m.err = nil
	m.status = status
	return tea.Batch(m.spinner.Tick, cmd)
}

func (m *Model) downloadSelected(kind models.ArtifactKind) tea.Cmd {
	p, ok := m.selected()
	if !ok {
		return nil
	}
	return m.start(fmt.Sprintf("Downloading %s for %q...", kind, p.Title), m.download(p.ID, kind))
}

func (m *Model) downloadDetail(kind models.ArtifactKind) tea.Cmd {
	if m.detail == nil {
		return nil
	}
	return m.start(fmt.Sprintf("Downloading %s for %q...", kind, m.detail.Title), m.download(m.detail.ID, kind))
}

// refresh re-derives the visible rows from the loaded collection.
func (m *Model) refresh() {
	visible := m.protocols.Visible(m.search.Value(), m.filter, m.sort)
	m.list.SetItems(protocolItems(visible, m.now()))
	m.list.Title = fmt.Sprintf("Protocols (%d/%d)", len(visible), len(m.protocols.Protocols()))
}

func (m *Model) selected() (models.ProtocolSummary, bool) {
	item, ok := m.list.SelectedItem().(protocolItem)
	if !ok {
		return models.ProtocolSummary{}, false
	}
	return item.protocol, true
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		applied, err := m.protocols.Load(m.ctx)
		return protocolsLoadedMsg(applied, err)
	}
}

func (m *Model) fetchDetail(id models.ProtocolID) tea.Cmd {
	return func() tea.Msg {
		detail, err := m.details.GetProtocol(m.ctx, id)
		return detailFetchedMsg(detail, err)
	}
}

func (m *Model) download(id models.ProtocolID, kind models.ArtifactKind) tea.Cmd {
	return func() tea.Msg {
		res, err := m.protocols.Download(m.ctx, id, kind)
		return downloadDoneMsg(res, err)
	}
}

func (m *Model) bulkDownload(kind models.ArtifactKind) tea.Cmd {
	return func() tea.Msg {
		path, err := m.protocols.BulkDownload(m.ctx, kind)
		return bulkDoneMsg(path, err)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case DetailView:
		body = m.renderDetail()
	default:
		body = m.renderList()
	}
	return fmt.Sprintf("%s\n\n%s\n%s", body, m.renderStatus(), m.help.View(m.keys))
}

func (m *Model) renderList() string {
	settings := styles.help.Render(fmt.Sprintf("status: %s • sort: %s", m.filter, m.sort))
	if m.searching || m.search.Value() != "" {
		return fmt.Sprintf("%s\n%s\n\n%s", m.search.View(), settings, m.list.View())
	}
	return fmt.Sprintf("%s\n\n%s", settings, m.list.View())
}

func (m *Model) renderDetail() string {
	if m.detail == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(m.detail.Title))
	b.WriteString("\n")
	b.WriteString(styles.Status(m.detail.Status))
	b.WriteString("\n\n")
	if err := formatter.WriteDetail(&b, m.detail, m.now()); err != nil {
		return styles.err.Render(err.Error())
	}
	return b.String()
}

func (m *Model) renderStatus() string {
	switch {
	case m.busy:
		return fmt.Sprintf("%s %s", m.spinner.View(), m.status)
	case m.err != nil:
		return styles.err.Render("✗ " + shared.UserMessage(m.err))
	case m.status != "":
		return styles.ok.Render("✓ " + m.status)
	default:
		return ""
	}
}

// next returns the value after cur in values, wrapping around.
func next[T comparable](values []T, cur T) T {
	i := slices.Index(values, cur)
	return values[(i+1)%len(values)]
}
