package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/xolan/outreach/internal/tui/ui"
	"github.com/xolan/outreach/internal/view"
)

// TableOptions configures how the entry table is rendered
type TableOptions struct {
	Width  int             // Available width for rendering
	Cursor int             // Currently selected row (-1 for none)
	Sort   *view.SortState // Applied sort, marked in the header
}

const (
	minNameWidth  = 12
	minEmailWidth = 12
	userWidth     = 14
	categoryWidth = 14
)

// RenderEntryTable renders rows as aligned columns with a header line
func RenderEntryTable(rows []view.Row, styles ui.Styles, opts TableOptions) string {
	if len(rows) == 0 {
		return ""
	}

	nameWidth, emailWidth := len("Name"), len("Email")
	for _, r := range rows {
		nameWidth = max(nameWidth, lipgloss.Width(r.Entry.Name))
		emailWidth = max(emailWidth, lipgloss.Width(r.Entry.Email))
	}

	// Shrink name and email to fit; user and category keep their width
	available := opts.Width - userWidth - categoryWidth - 6
	if available > 0 && nameWidth+emailWidth > available {
		nameWidth = max(minNameWidth, available*3/5)
		emailWidth = max(minEmailWidth, available-nameWidth)
	}

	var b strings.Builder

	header := fmt.Sprintf("%s %s %s %s",
		pad(columnTitle("Name", view.ByName, opts.Sort), nameWidth),
		pad("Email", emailWidth),
		pad("User", userWidth),
		pad(columnTitle("Category", view.ByCategory, opts.Sort), categoryWidth))
	b.WriteString(styles.TableHeader.Render(header))
	b.WriteString("\n")

	for i, r := range rows {
		style := styles.EntryNormal
		if i == opts.Cursor {
			style = styles.EntrySelected
		}
		line := fmt.Sprintf("%s %s %s %s",
			styles.EntryName.Render(pad(r.Entry.Name, nameWidth)),
			styles.EntryEmail.Render(pad(r.Entry.Email, emailWidth)),
			styles.EntryUser.Render(pad(r.Entry.User, userWidth)),
			styles.EntryCategory.Render(pad(r.Category.Name, categoryWidth)))
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	return b.String()
}

// columnTitle appends an arrow to the title of the sorted column
func columnTitle(title string, col view.Column, sort *view.SortState) string {
	if sort == nil || sort.Column != col {
		return title
	}
	if sort.Direction == view.Descending {
		return title + " ▼"
	}
	return title + " ▲"
}

// pad truncates or right-pads s to exactly width cells
func pad(s string, width int) string {
	return fmt.Sprintf("%-*s", width, truncate(s, width))
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

func pluralize(word string, count int) string {
	if count == 1 {
		return word
	}
	if strings.HasSuffix(word, "y") {
		return strings.TrimSuffix(word, "y") + "ies"
	}
	return word + "s"
}
