// Package model provides Bubble Tea models for CLI commands.
package model

import (
	"context"
	"strconv"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cromfel/go-mpv/internal/cli/styles"
	"github.com/cromfel/go-mpv/internal/logging"
	"github.com/cromfel/go-mpv/internal/player"
)

const (
	seekStepSecs   = 5
	volumeStepPct  = 5
	titleMaxWidth  = 70
	progressMargin = 4
)

// Controls is the slice of the playback session the TUI drives.
type Controls interface {
	TogglePause() error
	ToggleMute() error
	SeekBy(seconds float64) error
	AdjustVolume(delta int) error
	Quit() error
	Updates() <-chan player.Status
}

// PlayerModel is the Bubble Tea model for the playback view.
type PlayerModel struct {
	// UI components
	progress progress.Model
	help     help.Model
	keys     styles.PlayerKeyMap

	// State
	status   player.Status
	loaded   bool
	quitting bool
	showHelp bool
	width    int
	height   int

	// Dependencies
	ctx      context.Context
	controls Controls
	theme    *styles.Theme
}

// NewPlayerModel creates a new playback view model.
func NewPlayerModel(ctx context.Context, theme *styles.Theme, controls Controls) PlayerModel {
	log := logging.FromContext(ctx)
	log.Debug().Msg("creating player model")

	bar := progress.New(
		progress.WithSolidFill(string(theme.Accent)),
		progress.WithoutPercentage(),
	)

	return PlayerModel{
		progress: bar,
		help:     styles.NewStyledHelp(theme),
		keys:     styles.DefaultPlayerKeyMap(),
		ctx:      ctx,
		controls: controls,
		theme:    theme,
		width:    80,
		height:   24,
	}
}

// Init implements tea.Model.
func (m PlayerModel) Init() tea.Cmd {
	return m.waitForStatus
}

// statusMsg carries one status snapshot from the session.
type statusMsg player.Status

// sessionDoneMsg is sent when the session closes its status channel.
type sessionDoneMsg struct{}

// waitForStatus blocks on the session's status channel. It is re-issued
// after every message so the channel is always being drained.
func (m PlayerModel) waitForStatus() tea.Msg {
	status, ok := <-m.controls.Updates()
	if !ok {
		return sessionDoneMsg{}
	}
	return statusMsg(status)
}

// Update implements tea.Model.
func (m PlayerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case statusMsg:
		m.status = player.Status(msg)
		m.loaded = true
		return m, m.waitForStatus

	case sessionDoneMsg:
		return m, tea.Quit
	}

	return m, nil
}

func (m PlayerModel) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.help.Width = msg.Width

	barWidth := msg.Width - progressMargin
	if barWidth < 10 {
		barWidth = 10
	}
	m.progress.Width = barWidth
	return m, nil
}

func (m PlayerModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	log := logging.FromContext(m.ctx)

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.quitting {
			// Second press: the session is not answering, bail out.
			return m, tea.Quit
		}
		m.quitting = true
		if err := m.controls.Quit(); err != nil {
			log.Error().Err(err).Msg("failed to stop playback")
			return m, tea.Quit
		}
		// Keep draining until the session closes the channel so the
		// final position save has happened before the screen drops.
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Pause):
		if err := m.controls.TogglePause(); err != nil {
			log.Error().Err(err).Msg("failed to toggle pause")
		}
		return m, nil

	case key.Matches(msg, m.keys.Mute):
		if err := m.controls.ToggleMute(); err != nil {
			log.Error().Err(err).Msg("failed to toggle mute")
		}
		return m, nil

	case key.Matches(msg, m.keys.SeekBack):
		if err := m.controls.SeekBy(-seekStepSecs); err != nil {
			log.Error().Err(err).Msg("failed to seek")
		}
		return m, nil

	case key.Matches(msg, m.keys.SeekFwd):
		if err := m.controls.SeekBy(seekStepSecs); err != nil {
			log.Error().Err(err).Msg("failed to seek")
		}
		return m, nil

	case key.Matches(msg, m.keys.VolumeUp):
		if err := m.controls.AdjustVolume(volumeStepPct); err != nil {
			log.Error().Err(err).Msg("failed to adjust volume")
		}
		return m, nil

	case key.Matches(msg, m.keys.VolumeDown):
		if err := m.controls.AdjustVolume(-volumeStepPct); err != nil {
			log.Error().Err(err).Msg("failed to adjust volume")
		}
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m PlayerModel) View() string {
	t := m.theme

	if !m.loaded {
		return t.Subtle.Render("starting playback...") + "\n"
	}

	title := m.status.Title
	if title == "" {
		title = m.status.URI
	}
	if len(title) > titleMaxWidth {
		title = title[:titleMaxWidth-3] + "..."
	}

	header := t.Title.Render(title)

	bar := m.progress.ViewAs(m.progressRatio())

	timeline := t.Normal.Render(styles.FormatPosition(m.status.Position, m.status.Duration))

	status := m.statusLine()

	var footer string
	switch {
	case m.quitting:
		footer = t.Subtle.Render("stopping...")
	case m.showHelp:
		footer = m.help.View(m.keys)
	default:
		footer = m.help.ShortHelpView(m.keys.ShortHelp())
	}

	sections := []string{
		header,
		"",
		bar,
		timeline,
		"",
		status,
		"",
		footer,
	}

	if m.status.Err != nil {
		sections = append(sections, "", t.ErrorStyle.Render("Error: "+m.status.Err.Error()))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// progressRatio maps the playback position into [0, 1].
func (m PlayerModel) progressRatio() float64 {
	if m.status.Duration <= 0 {
		return 0
	}
	ratio := m.status.Position / m.status.Duration
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}

// statusLine renders the pause/mute/volume badges.
func (m PlayerModel) statusLine() string {
	t := m.theme

	var parts []string
	if m.status.Paused {
		parts = append(parts, t.Badge.Render("PAUSED"))
	} else {
		parts = append(parts, t.BadgeMuted.Render("PLAYING"))
	}
	if m.status.Muted {
		parts = append(parts, t.WarningStyle.Render("muted"))
	}
	parts = append(parts, t.Subtle.Render("vol "+strconv.Itoa(int(m.status.Volume))+"%"))

	return lipgloss.JoinHorizontal(lipgloss.Center, joinWithSpace(parts)...)
}

// joinWithSpace interleaves two-space separators for JoinHorizontal.
func joinWithSpace(parts []string) []string {
	out := make([]string, 0, len(parts)*2-1)
	for i, p := range parts {
		if i > 0 {
			out = append(out, "  ")
		}
		out = append(out, p)
	}
	return out
}

// Status returns the last status snapshot, for inspection after Run.
func (m PlayerModel) Status() player.Status {
	return m.status
}

// Ensure interface compliance at compile time.
var _ tea.Model = (*PlayerModel)(nil)
