package model

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cromfel/go-mpv/internal/cli/styles"
	"github.com/cromfel/go-mpv/internal/history"
	"github.com/cromfel/go-mpv/internal/logging"
)

const (
	historyLoadLimit = 500
	uriColumnWidth   = 30
)

// HistoryBrowser is the slice of the history store the browser needs.
type HistoryBrowser interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
	Forget(ctx context.Context, uri string) error
}

// HistoryModel is the Bubble Tea model for the playback history browser.
type HistoryModel struct {
	// UI components
	table table.Model
	help  help.Model
	keys  styles.HistoryKeyMap

	// State
	entries  []history.Entry
	selected string
	showHelp bool
	width    int
	height   int
	err      error

	// Dependencies
	ctx   context.Context
	store HistoryBrowser
	theme *styles.Theme
}

// NewHistoryModel creates a new history browser model.
func NewHistoryModel(ctx context.Context, theme *styles.Theme, store HistoryBrowser) HistoryModel {
	log := logging.FromContext(ctx)
	log.Debug().Msg("creating history model")

	return HistoryModel{
		help:   styles.NewStyledHelp(theme),
		keys:   styles.DefaultHistoryKeyMap(),
		ctx:    ctx,
		store:  store,
		theme:  theme,
		width:  80,
		height: 24,
	}
}

// Init implements tea.Model.
func (m HistoryModel) Init() tea.Cmd {
	return m.loadEntries
}

// entriesLoadedMsg is sent when history entries are loaded.
type entriesLoadedMsg struct {
	entries []history.Entry
	err     error
}

// entryForgottenMsg is sent when an entry is removed.
type entryForgottenMsg struct {
	err error
}

// loadEntries loads recent playback entries.
func (m HistoryModel) loadEntries() tea.Msg {
	log := logging.FromContext(m.ctx)
	log.Debug().Msg("loading playback history")

	entries, err := m.store.Recent(m.ctx, historyLoadLimit)
	if err != nil {
		log.Error().Err(err).Msg("failed to load playback history")
		return entriesLoadedMsg{err: err}
	}

	log.Debug().Int("count", len(entries)).Msg("loaded playback history")
	return entriesLoadedMsg{entries: entries}
}

// Update implements tea.Model.
func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case entriesLoadedMsg:
		return m.handleEntriesLoaded(msg)

	case entryForgottenMsg:
		return m.handleEntryForgotten(msg)
	}

	return m, nil
}

func (m HistoryModel) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.help.Width = msg.Width
	m.rebuildTable()
	return m, nil
}

func (m HistoryModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Play):
		if entry, ok := m.selectedEntry(); ok {
			m.selected = entry.URI
			return m, tea.Quit
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if entry, ok := m.selectedEntry(); ok {
			return m, m.forgetEntry(entry.URI)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m HistoryModel) handleEntriesLoaded(msg entriesLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.err = msg.err
		return m, nil
	}
	m.entries = msg.entries
	m.rebuildTable()
	return m, nil
}

func (m HistoryModel) handleEntryForgotten(msg entryForgottenMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.err = msg.err
		return m, nil
	}
	return m, m.loadEntries
}

// selectedEntry resolves the table cursor to a history entry.
func (m HistoryModel) selectedEntry() (history.Entry, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.entries) {
		return history.Entry{}, false
	}
	return m.entries[idx], true
}

// forgetEntry removes one entry from the history.
func (m HistoryModel) forgetEntry(uri string) tea.Cmd {
	return func() tea.Msg {
		log := logging.FromContext(m.ctx)
		log.Debug().Str("uri", logging.TruncateURI(uri, uriColumnWidth)).Msg("forgetting history entry")

		err := m.store.Forget(m.ctx, uri)
		if err != nil {
			log.Error().Err(err).Msg("failed to forget entry")
		}
		return entryForgottenMsg{err: err}
	}
}

// rebuildTable recreates the table for the current entries and size.
func (m *HistoryModel) rebuildTable() {
	rows := make([]table.Row, len(m.entries))
	for i, e := range m.entries {
		title := e.Title
		if title == "" {
			title = "-"
		}
		rows[i] = table.Row{
			title,
			logging.TruncateURI(e.URI, uriColumnWidth),
			styles.FormatPlays(int(e.Plays)),
			styles.FormatPosition(e.PositionSecs, e.DurationSecs),
			e.LastPlayed.Format("2006-01-02"),
		}
	}

	tableHeight := m.height - 6 // Account for header, count, help
	if tableHeight < 5 {
		tableHeight = 5
	}

	m.table = styles.NewStyledTable(m.theme, styles.HistoryTableColumns(), rows, m.width, tableHeight)
}

// View implements tea.Model.
func (m HistoryModel) View() string {
	t := m.theme

	header := t.BoxHeader.Render("Playback History")

	body := m.table.View()
	if m.err != nil {
		body = t.ErrorStyle.Render("Error: " + m.err.Error())
	} else if len(m.entries) == 0 {
		body = t.Subtle.Render("No playback history yet.")
	}

	count := t.Subtle.Render(styles.FormatPlays(len(m.entries)) + " entries")

	var helpView string
	if m.showHelp {
		helpView = m.help.View(m.keys)
	} else {
		helpView = t.Subtle.Render("? for help • q to quit")
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		body,
		"",
		count,
		helpView,
	)
}

// Selected returns the URI chosen with enter, if any.
func (m HistoryModel) Selected() string {
	return m.selected
}

// Error returns any error that occurred.
func (m HistoryModel) Error() error {
	return m.err
}

// Ensure interface compliance at compile time.
var _ tea.Model = (*HistoryModel)(nil)
