// Package cli formats entries and diagnostics for command-line output.
package cli

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xolan/outreach/internal/entry"
	"github.com/xolan/outreach/internal/remote/jsonlfile"
	"github.com/xolan/outreach/internal/view"
)

// Placeholder is printed for empty optional fields.
const Placeholder = "-"

func orPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

// FormatContact formats the name and email of an entry.
// Examples: "Zoe Park <zoe@example.com>", "Zoe Park"
func FormatContact(e entry.Entry) string {
	if e.Email == "" {
		return e.Name
	}
	return fmt.Sprintf("%s <%s>", e.Name, e.Email)
}

// FormatEntryLine formats a row as a single line.
// Example: "01J9Z... Zoe Park <zoe@example.com> @zpark [Business]"
func FormatEntryLine(row view.Row) string {
	var b strings.Builder
	b.WriteString(row.Entry.ID)
	b.WriteString(" ")
	b.WriteString(FormatContact(row.Entry))
	if row.Entry.User != "" {
		b.WriteString(" @")
		b.WriteString(row.Entry.User)
	}
	fmt.Fprintf(&b, " [%s]", row.Category.Name)
	return b.String()
}

// WriteEntryTable writes rows as aligned columns with a header line.
func WriteEntryTable(w io.Writer, rows []view.Row) {
	headers := []string{"ID", "NAME", "EMAIL", "USER", "CATEGORY"}
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{
			r.Entry.ID,
			r.Entry.Name,
			orPlaceholder(r.Entry.Email),
			orPlaceholder(r.Entry.User),
			r.Category.Name,
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range cells {
		for i, c := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(c))
		}
	}

	writeRow := func(row []string) {
		var b strings.Builder
		for i, c := range row {
			b.WriteString(c)
			if i < len(row)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(c)+2))
			}
		}
		_, _ = fmt.Fprintln(w, b.String())
	}
	writeRow(headers)
	for _, row := range cells {
		writeRow(row)
	}
}

// WriteEntryDetail writes every field of a row on its own line.
func WriteEntryDetail(w io.Writer, row view.Row) {
	_, _ = fmt.Fprintf(w, "  ID:       %s\n", row.Entry.ID)
	_, _ = fmt.Fprintf(w, "  Name:     %s\n", row.Entry.Name)
	_, _ = fmt.Fprintf(w, "  Email:    %s\n", orPlaceholder(row.Entry.Email))
	_, _ = fmt.Fprintf(w, "  User:     %s\n", orPlaceholder(row.Entry.User))
	_, _ = fmt.Fprintf(w, "  Category: %s (%d)\n", row.Category.Name, row.Entry.Category)
}

// FormatCount formats the entry count of a listing.
// Examples: "1 entry", "3 entries", "2 of 5 entries"
func FormatCount(shown, total int) string {
	if shown == total {
		return fmt.Sprintf("%d %s", total, Pluralize("entry", total))
	}
	return fmt.Sprintf("%d of %d %s", shown, total, Pluralize("entry", total))
}

// FormatCorruptionWarning formats a ParseWarning into a human-readable string
func FormatCorruptionWarning(warning jsonlfile.ParseWarning) string {
	content := warning.Content
	if utf8.RuneCountInString(content) > 50 {
		content = string([]rune(content)[:47]) + "..."
	}
	return fmt.Sprintf("  Line %d: %s (error: %s)", warning.LineNumber, content, warning.Error)
}

// Pluralize returns word with a plural suffix unless count is 1.
func Pluralize(word string, count int) string {
	if count == 1 {
		return word
	}
	if strings.HasSuffix(word, "y") {
		return strings.TrimSuffix(word, "y") + "ies"
	}
	return word + "s"
}
