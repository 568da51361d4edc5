package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/xolan/outreach/internal/entry"
	"github.com/xolan/outreach/internal/service"
	"github.com/xolan/outreach/internal/tui/ui"
	"github.com/xolan/outreach/internal/view"
)

// MutationTimeout bounds a single create, update or delete issued from the TUI.
const MutationTimeout = 30 * time.Second

// entryMode represents the current mode of the entries view
type entryMode int

const (
	entryModeNormal entryMode = iota
	entryModeAdd
	entryModeEdit
	entryModeDelete
	entryModeSearch
)

// Form fields in tab order
const (
	fieldName = iota
	fieldEmail
	fieldUser
	fieldCategory
	fieldCount
)

var fieldLabels = [fieldCount]string{"Name:", "Email:", "User:", "Category:"}

// EntriesModel is the model for the entries view
type EntriesModel struct {
	services *service.Services
	styles   ui.Styles
	keys     ui.KeyMap
	view     *view.View

	// UI state
	width    int
	height   int
	cursor   int
	owner    string
	signedIn bool
	loaded   bool
	status   string
	err      error

	// Form state
	mode      entryMode
	inputs    [fieldCount]textinput.Model
	focused   int
	editID    string
	formErr   error
	deleteRow view.Row
	pending   bool

	searchInput textinput.Model
}

// NewEntriesModel creates a new entries view model
func NewEntriesModel(services *service.Services, styles ui.Styles, keys ui.KeyMap) EntriesModel {
	placeholders := [fieldCount]string{
		"Full name",
		"name@example.com (optional)",
		"Handle (optional)",
		categoryHint(services),
	}
	limits := [fieldCount]int{100, 254, 64, 20}

	var inputs [fieldCount]textinput.Model
	for i := range inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.CharLimit = limits[i]
		in.Width = 40
		inputs[i] = in
	}

	searchInput := textinput.New()
	searchInput.Placeholder = "Search name, email, user or category..."
	searchInput.CharLimit = 100
	searchInput.Width = 40
	searchInput.Prompt = "/ "

	return EntriesModel{
		services:    services,
		styles:      styles,
		keys:        keys,
		view:        view.New(services.Categories),
		inputs:      inputs,
		searchInput: searchInput,
	}
}

func categoryHint(services *service.Services) string {
	var names []string
	for _, c := range services.Categories.List() {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}

// mutationDoneMsg is sent when a create, update or delete finishes
type mutationDoneMsg struct {
	mode entryMode
	id   string
	err  error
}

// Init implements tea.Model
func (m EntriesModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m EntriesModel) Update(msg tea.Msg) (EntriesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !m.signedIn {
			return m, nil
		}
		switch m.mode {
		case entryModeAdd, entryModeEdit:
			return m.handleInputMode(msg)
		case entryModeDelete:
			return m.handleDeleteMode(msg)
		case entryModeSearch:
			return m.handleSearchMode(msg)
		}
		return m.handleNormalMode(msg)

	case ui.SnapshotMsg:
		m.applySnapshot(msg)
		return m, nil

	case mutationDoneMsg:
		return m.handleMutationDone(msg), nil
	}

	return m, nil
}

func (m *EntriesModel) applySnapshot(msg ui.SnapshotMsg) {
	if !msg.SignedIn {
		m.signedIn = false
		m.owner = ""
		m.loaded = false
		m.mode = entryModeNormal
		m.cursor = 0
		m.view.Refresh(nil)
		m.blurAll()
		return
	}
	m.signedIn = true
	m.owner = msg.Owner
	m.loaded = msg.Loaded
	m.view.Refresh(msg.Entries)
	m.clampCursor()
}

func (m EntriesModel) handleMutationDone(msg mutationDoneMsg) EntriesModel {
	m.pending = false
	switch msg.mode {
	case entryModeAdd, entryModeEdit:
		if msg.err != nil {
			// Keep the form open so the input can be corrected
			if m.mode == msg.mode {
				m.formErr = msg.err
			} else {
				m.err = msg.err
			}
			return m
		}
		if m.mode == msg.mode {
			m.closeForm()
		}
		m.err = nil
		if msg.mode == entryModeAdd {
			m.status = "Entry added"
		} else {
			m.status = "Entry updated"
		}
	case entryModeDelete:
		if msg.err != nil {
			m.err = msg.err
			return m
		}
		m.err = nil
		m.status = "Entry deleted"
		m.view.RemoveLocal(msg.id)
		m.clampCursor()
	}
	return m
}

// handleNormalMode handles key events when no form or prompt is open
func (m EntriesModel) handleNormalMode(msg tea.KeyMsg) (EntriesModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < m.view.Len()-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.SortName):
		m.view.ToggleSort(view.ByName)
	case key.Matches(msg, m.keys.SortCategory):
		m.view.ToggleSort(view.ByCategory)
	case key.Matches(msg, m.keys.Search):
		m.mode = entryModeSearch
		m.searchInput.SetValue(m.view.Query())
		m.searchInput.CursorEnd()
		m.searchInput.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.New):
		m.openForm(entryModeAdd, entry.Draft{}, "")
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Edit):
		if row, ok := m.selected(); ok {
			m.openForm(entryModeEdit, row.Entry.Draft(), row.Entry.ID)
			return m, textinput.Blink
		}
	case key.Matches(msg, m.keys.Delete):
		if row, ok := m.selected(); ok {
			m.mode = entryModeDelete
			m.deleteRow = row
		}
	case key.Matches(msg, m.keys.SignOut):
		return m, m.signOut()
	}
	return m, nil
}

// handleInputMode handles key events when in add/edit mode
func (m EntriesModel) handleInputMode(msg tea.KeyMsg) (EntriesModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		if m.pending {
			return m, nil
		}
		return m.submitForm()
	case key.Matches(msg, m.keys.Back):
		m.closeForm()
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		m.focus((m.focused + 1) % fieldCount)
		return m, textinput.Blink
	case key.Matches(msg, m.keys.PrevField):
		m.focus((m.focused + fieldCount - 1) % fieldCount)
		return m, textinput.Blink
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return m, cmd
}

// handleDeleteMode handles key events when in delete confirmation mode
func (m EntriesModel) handleDeleteMode(msg tea.KeyMsg) (EntriesModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.mode = entryModeNormal
		return m, m.deleteEntry(m.deleteRow.Entry.ID)
	case key.Matches(msg, m.keys.Deny):
		m.mode = entryModeNormal
	}
	return m, nil
}

// handleSearchMode re-filters on every keystroke. Enter keeps the query,
// Esc clears it.
func (m EntriesModel) handleSearchMode(msg tea.KeyMsg) (EntriesModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		m.mode = entryModeNormal
		m.searchInput.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Back):
		m.mode = entryModeNormal
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.view.SetQuery("")
		m.clampCursor()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.view.SetQuery(m.searchInput.Value())
	m.clampCursor()
	return m, cmd
}

func (m *EntriesModel) openForm(mode entryMode, d entry.Draft, id string) {
	m.mode = mode
	m.editID = id
	m.formErr = nil
	m.inputs[fieldName].SetValue(d.Name)
	m.inputs[fieldEmail].SetValue(d.Email)
	m.inputs[fieldUser].SetValue(d.User)
	m.inputs[fieldCategory].SetValue(m.services.Categories.Resolve(d.Category).Name)
	for i := range m.inputs {
		m.inputs[i].CursorEnd()
	}
	m.focus(fieldName)
}

func (m *EntriesModel) closeForm() {
	m.mode = entryModeNormal
	m.editID = ""
	m.formErr = nil
	m.blurAll()
}

func (m *EntriesModel) focus(field int) {
	m.focused = field
	for i := range m.inputs {
		if i == field {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m *EntriesModel) blurAll() {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.searchInput.Blur()
}

// formDraft reads the form fields. The category accepts a code or a name.
func (m EntriesModel) formDraft() (entry.Draft, error) {
	d := entry.Draft{
		Name:  m.inputs[fieldName].Value(),
		Email: m.inputs[fieldEmail].Value(),
		User:  m.inputs[fieldUser].Value(),
	}
	raw := m.inputs[fieldCategory].Value()
	c, ok := m.services.Categories.Lookup(raw)
	if !ok {
		return d, entry.Invalid("category", fmt.Sprintf("unknown category %q", strings.TrimSpace(raw)))
	}
	d.Category = c.ID
	return d, nil
}

func (m EntriesModel) submitForm() (EntriesModel, tea.Cmd) {
	d, err := m.formDraft()
	if err != nil {
		m.formErr = err
		return m, nil
	}
	m.formErr = nil
	m.pending = true
	if m.mode == entryModeAdd {
		return m, m.addEntry(d)
	}
	return m, m.editEntry(m.editID, d)
}

func (m EntriesModel) selected() (view.Row, bool) {
	rows := m.view.Rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return view.Row{}, false
	}
	return rows[m.cursor], true
}

func (m *EntriesModel) clampCursor() {
	if m.cursor >= m.view.Len() {
		m.cursor = max(0, m.view.Len()-1)
	}
}

// View implements tea.Model
func (m EntriesModel) View() string {
	if !m.signedIn {
		return m.renderSignedOut()
	}

	switch m.mode {
	case entryModeAdd:
		return m.renderForm("New Entry")
	case entryModeEdit:
		return m.renderForm("Edit Entry")
	case entryModeDelete:
		return m.renderDeleteConfirm()
	}

	var b strings.Builder

	b.WriteString(m.styles.ViewTitle.Render("Outreach"))
	b.WriteString("  ")
	b.WriteString(m.styles.Owner.Render(m.owner))
	b.WriteString("\n")

	if m.mode == entryModeSearch || m.view.Query() != "" {
		b.WriteString(m.searchInput.View())
		b.WriteString("\n\n")
	}

	if !m.loaded {
		b.WriteString("Loading...")
		return b.String()
	}

	if m.view.Len() == 0 {
		if m.view.Total() == 0 {
			b.WriteString(m.styles.Muted.Render("No entries yet"))
			b.WriteString("\n\n")
			b.WriteString(m.styles.Muted.Render("Press 'n' to add a new entry"))
		} else {
			b.WriteString(m.styles.Muted.Render("No entries match the search"))
		}
		return b.String()
	}

	var sortState *view.SortState
	if s, ok := m.view.Sort(); ok {
		sortState = &s
	}
	b.WriteString(RenderEntryTable(m.view.Rows(), m.styles, TableOptions{
		Width:  m.width,
		Cursor: m.cursor,
		Sort:   sortState,
	}))

	b.WriteString(strings.Repeat("─", min(50, max(m.width, 1))))
	b.WriteString("\n")
	if m.view.Len() == m.view.Total() {
		b.WriteString(fmt.Sprintf("%d %s", m.view.Len(), pluralize("entry", m.view.Len())))
	} else {
		b.WriteString(fmt.Sprintf("%d of %d %s", m.view.Len(), m.view.Total(), pluralize("entry", m.view.Total())))
	}

	return b.String()
}

func (m EntriesModel) renderSignedOut() string {
	var b strings.Builder
	b.WriteString(m.styles.ViewTitle.Render("Outreach"))
	b.WriteString("\n")
	b.WriteString(m.styles.Warning.Render("Signed out"))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Muted.Render("Set user in the config or OUTREACH_USER and restart"))
	return b.String()
}

// renderForm renders the add/edit entry form
func (m EntriesModel) renderForm(title string) string {
	var b strings.Builder
	b.WriteString(m.styles.ViewTitle.Render(title))
	b.WriteString("\n\n")

	for i := range m.inputs {
		label := fieldLabels[i]
		if i == m.focused {
			label = "▸ " + label
		}
		b.WriteString(m.styles.Label.Render(label))
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.formErr != nil {
		b.WriteString(m.styles.Error.Render(formatError(m.formErr)))
		b.WriteString("\n\n")
	}
	if m.pending {
		b.WriteString(m.styles.Muted.Render("Saving..."))
		b.WriteString("\n\n")
	}

	b.WriteString(m.styles.Muted.Render("Tab to switch fields, Enter to save, Esc to cancel"))
	return b.String()
}

// renderDeleteConfirm renders the delete confirmation dialog
func (m EntriesModel) renderDeleteConfirm() string {
	var b strings.Builder
	b.WriteString(m.styles.ViewTitle.Render("Delete Entry"))
	b.WriteString("\n\n")

	e := m.deleteRow.Entry
	b.WriteString(m.styles.Warning.Render("Are you sure you want to delete this entry?"))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Label.Render("Name:"))
	b.WriteString(m.styles.Value.Render(e.Name))
	b.WriteString("\n")
	if e.Email != "" {
		b.WriteString(m.styles.Label.Render("Email:"))
		b.WriteString(m.styles.Value.Render(e.Email))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Label.Render("Category:"))
	b.WriteString(m.styles.Value.Render(m.deleteRow.Category.Name))
	b.WriteString("\n\n")

	b.WriteString(m.styles.Muted.Render("Press Y to confirm, N or Esc to cancel"))
	return b.String()
}

// formatError renders validation errors by field and everything else as is
func formatError(err error) string {
	var verr *entry.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	return "Error: " + err.Error()
}

// SetSize sets the view dimensions
func (m *EntriesModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// addEntry creates a command to add a new entry
func (m EntriesModel) addEntry(d entry.Draft) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), MutationTimeout)
		defer cancel()
		e, err := m.services.Entry.Add(ctx, d)
		return mutationDoneMsg{mode: entryModeAdd, id: e.ID, err: err}
	}
}

// editEntry creates a command to overwrite the editable fields of id
func (m EntriesModel) editEntry(id string, d entry.Draft) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), MutationTimeout)
		defer cancel()
		p := entry.Patch{Name: &d.Name, Email: &d.Email, User: &d.User, Category: &d.Category}
		_, err := m.services.Entry.Edit(ctx, id, p)
		return mutationDoneMsg{mode: entryModeEdit, id: id, err: err}
	}
}

// deleteEntry creates a command to delete an entry. The row is hidden
// locally once the collection confirms.
func (m EntriesModel) deleteEntry(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), MutationTimeout)
		defer cancel()
		_, err := m.services.Entry.Delete(ctx, id)
		return mutationDoneMsg{mode: entryModeDelete, id: id, err: err}
	}
}

// signOut clears the session. The store follows the session and closes.
func (m EntriesModel) signOut() tea.Cmd {
	return func() tea.Msg {
		m.services.Session.SignOut()
		return nil
	}
}

// IsInputMode returns true when the view is capturing keyboard input
func (m EntriesModel) IsInputMode() bool {
	return m.mode != entryModeNormal
}

// IsFormMode returns true while the add/edit form is open
func (m EntriesModel) IsFormMode() bool {
	return m.mode == entryModeAdd || m.mode == entryModeEdit
}

// Status returns the outcome of the last mutation and its error, if any
func (m EntriesModel) Status() (string, error) {
	return m.status, m.err
}
