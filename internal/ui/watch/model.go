// Package watch is the terminal view over periodic board scans.
package watch

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/trelloha/internal/keys"
	"github.com/nhle/trelloha/internal/scan"
	appsync "github.com/nhle/trelloha/internal/sync"
	"github.com/nhle/trelloha/internal/theme"
	"github.com/nhle/trelloha/internal/ui/report"
)

// maxHistory caps the completions kept on screen.
const maxHistory = 50

// Model is the root model of the watch view.
type Model struct {
	poller  *appsync.Poller
	boardID string
	keys    *keys.KeyMap
	help    help.Model
	spinner spinner.Model

	scanning bool
	last     *scan.Report
	history  []scan.Completion
	err      error
	authErr  string

	width, height int
}

// New creates the watch view for a poller.
func New(p *appsync.Poller, boardID string, k *keys.KeyMap) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		poller:  p,
		boardID: boardID,
		keys:    k,
		help:    help.New(),
		spinner: sp,
	}
}

// Init starts the poller.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.poller.Start(), m.spinner.Tick)
}

// Update handles poller results, spinner ticks and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case appsync.ScanStartedMsg:
		m.scanning = true
		return m, tea.Batch(m.spinner.Tick, m.poller.WaitForNextResult())

	case appsync.ScanResultMsg:
		m.scanning = false
		m.err = msg.Error
		if msg.Report != nil {
			m.last = msg.Report
			m.history = append(m.history, msg.Report.Completed...)
			if len(m.history) > maxHistory {
				m.history = m.history[len(m.history)-maxHistory:]
			}
		}
		if msg.AuthError != nil {
			m.authErr = msg.AuthError.Message
			return m, nil
		}
		return m, m.poller.WaitForNextResult()

	case spinner.TickMsg:
		if m.scanning {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.poller.Stop()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			if m.authErr == "" {
				return m, m.poller.Refresh()
			}
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}

	return m, nil
}

// View renders the header, the latest status, recent completions and help.
func (m Model) View() string {
	sections := []string{
		theme.HeaderStyle.Render("trelloha · watching board " + m.boardID),
		m.statusLine(),
	}

	if m.authErr != "" {
		sections = append(sections, theme.ErrorStyle.Render(m.authErr))
	} else if m.err != nil {
		sections = append(sections, report.RenderError(m.err))
	}

	if len(m.history) > 0 {
		lines := make([]string, 0, len(m.history))
		for _, c := range m.history {
			lines = append(lines, report.CompletionLine(c))
		}
		sections = append(sections, theme.BorderStyle.Render(strings.Join(lines, "\n")))
	} else {
		sections = append(sections, theme.MutedStyle.Render("No items completed yet."))
	}

	sections = append(sections, m.help.View(m.keys))

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

// AuthError returns the re-authentication message that stopped the
// watch loop, if any.
func (m Model) AuthError() string {
	return m.authErr
}

func (m Model) statusLine() string {
	status := m.poller.Status()

	if m.scanning {
		return theme.StatusBarStyle.Render(m.spinner.View() + " Scanning…")
	}
	if status.Runs == 0 {
		return theme.StatusBarStyle.Render("Starting…")
	}

	line := fmt.Sprintf(
		"Last scan %s · %d runs · %d completed",
		status.LastRun.Format(time.TimeOnly), status.Runs, status.Completed,
	)
	if m.last != nil {
		line += " · " + report.Summary(m.last)
	}
	if m.authErr == "" && status.State != appsync.RunStopped {
		line += fmt.Sprintf(
			" · next in %s (every %s)",
			time.Until(status.NextRun).Round(time.Second), m.poller.Interval(),
		)
	}
	return theme.StatusBarStyle.Render(line)
}
