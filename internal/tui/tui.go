// Package tui provides the Terminal User Interface for the outreach application.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/xolan/outreach/internal/service"
	"github.com/xolan/outreach/internal/tui/ui"
	"github.com/xolan/outreach/internal/tui/views"
)

// changedMsg is sent when the store or the session changed
type changedMsg struct{}

// Model is the root TUI model
type Model struct {
	services *service.Services
	feed     *feed

	// UI state
	width    int
	height   int
	showHelp bool
	subErr   error

	entriesView views.EntriesModel

	styles ui.Styles
	keys   ui.KeyMap
}

// New creates a new TUI model. Release the store observer with Close.
func New(services *service.Services) Model {
	styles := ui.DefaultStyles()
	keys := ui.DefaultKeyMap()

	return Model{
		services:    services,
		feed:        newFeed(services),
		styles:      styles,
		keys:        keys,
		entriesView: views.NewEntriesModel(services, styles, keys),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.waitForChange(),
		m.waitForError(),
		m.entriesView.Init(),
	)
}

// waitForChange blocks until the feed signals and reports the change
func (m Model) waitForChange() tea.Cmd {
	ch := m.feed.ch
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

// waitForError blocks until the store reports a subscription failure
func (m Model) waitForError() tea.Cmd {
	errs := m.services.Store.Errors()
	return func() tea.Msg {
		return ui.SubscriptionErrMsg{Err: <-errs}
	}
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		capturingKeys := m.entriesView.IsInputMode()

		switch {
		case msg.String() == "ctrl+c":
			return m, tea.Quit

		case key.Matches(msg, m.keys.Quit) && !capturingKeys:
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help) && !capturingKeys:
			m.showHelp = !m.showHelp
			return m, nil

		case m.showHelp && key.Matches(msg, m.keys.Back):
			m.showHelp = false
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.entriesView.SetSize(m.width, m.height-4) // Account for header and status bar
		return m, nil

	case changedMsg:
		snap := m.feed.current()
		if snap.Loaded || !snap.SignedIn {
			m.subErr = nil
		}
		m.entriesView, cmd = m.entriesView.Update(snap)
		return m, tea.Batch(cmd, m.waitForChange())

	case ui.SubscriptionErrMsg:
		m.subErr = msg.Err
		return m, m.waitForError()
	}

	m.entriesView, cmd = m.entriesView.Update(msg)
	return m, cmd
}

// View implements tea.Model
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(m.entriesView.View())

	b.WriteString("\n\n")
	b.WriteString(m.renderMessageLine())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())

	if m.showHelp {
		return m.renderHelpOverlay()
	}

	return m.styles.App.Render(b.String())
}

// renderMessageLine shows the subscription error, else the last mutation
// outcome
func (m Model) renderMessageLine() string {
	if m.subErr != nil {
		return m.styles.Error.Render(fmt.Sprintf("Connection problem: %v", m.subErr))
	}
	status, err := m.entriesView.Status()
	if err != nil {
		return m.styles.Error.Render(fmt.Sprintf("Error: %v", err))
	}
	return m.styles.Success.Render(status)
}

// renderStatusBar renders the status bar at the bottom
func (m Model) renderStatusBar() string {
	var parts []string

	switch {
	case m.entriesView.IsFormMode():
		parts = append(parts, m.renderKeyHelp("Tab", "switch field"))
		parts = append(parts, m.renderKeyHelp("Enter", "save"))
		parts = append(parts, m.renderKeyHelp("Esc", "cancel"))
	case m.entriesView.IsInputMode():
		parts = append(parts, m.renderKeyHelp("Enter", "done"))
		parts = append(parts, m.renderKeyHelp("Esc", "cancel"))
	default:
		parts = append(parts, m.renderKeyHelp("n", "new"))
		parts = append(parts, m.renderKeyHelp("e", "edit"))
		parts = append(parts, m.renderKeyHelp("d", "delete"))
		parts = append(parts, m.renderKeyHelp("/", "search"))
		parts = append(parts, m.renderKeyHelp("s/c", "sort"))
		parts = append(parts, m.renderKeyHelp("L", "sign out"))
		parts = append(parts, m.renderKeyHelp("?", "help"))
		parts = append(parts, m.renderKeyHelp("q", "quit"))
	}

	content := strings.Join(parts, "  ")

	// Fill to width
	padding := m.width - lipgloss.Width(content)
	if padding > 0 {
		content += strings.Repeat(" ", padding)
	}

	return m.styles.StatusBar.Render(content)
}

// renderKeyHelp renders a single key help item
func (m Model) renderKeyHelp(key, desc string) string {
	return fmt.Sprintf("%s %s",
		m.styles.StatusKey.Render(key),
		m.styles.StatusHelp.Render(desc))
}

// renderHelpOverlay renders the keyboard shortcuts in place of the view
func (m Model) renderHelpOverlay() string {
	var help strings.Builder

	help.WriteString(m.styles.DialogTitle.Render("Keyboard Shortcuts"))
	help.WriteString("\n\n")

	help.WriteString(m.styles.Label.Render("Entries:"))
	help.WriteString("\n")
	help.WriteString("  j/k        Navigate up/down\n")
	help.WriteString("  /          Search (filters as you type)\n")
	help.WriteString("  s          Sort by name\n")
	help.WriteString("  c          Sort by category\n")
	help.WriteString("  n          New entry\n")
	help.WriteString("  e          Edit entry\n")
	help.WriteString("  d          Delete entry\n")
	help.WriteString("\n")

	help.WriteString(m.styles.Label.Render("Global:"))
	help.WriteString("\n")
	help.WriteString("  L          Sign out\n")
	help.WriteString("  ?          Toggle help\n")
	help.WriteString("  q          Quit\n")
	help.WriteString("\n")

	help.WriteString(m.styles.Muted.Render("Press ? to close"))

	return m.styles.App.Render(m.styles.Dialog.Render(help.String()))
}

// Close stops observing the store and the session.
func (m Model) Close() {
	m.feed.close()
}

// Run starts the TUI application
func Run(services *service.Services) error {
	model := New(services)
	defer model.Close()
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
